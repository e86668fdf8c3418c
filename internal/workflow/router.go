// Package workflow implements the Foundry Engine's durable run loop: the
// router, the orchestration engine, and the human-approval interrupt gate.
package workflow

import (
	"fmt"

	"github.com/cerina/foundry-engine/internal/domain"
)

// Route is the pure routing function: it maps durable session state to the
// next transition without mutating anything. Rules are evaluated in priority
// order; every path is statically enumerable.
func Route(st domain.SessionState, latest *domain.Critique, maxIterations int) (domain.Transition, error) {
	// Terminal phases, including one-way escalation, stop the loop.
	if st.Phase.Terminal() {
		return domain.Transition{Kind: domain.ActionTerminate}, nil
	}

	// A parked session only moves once a decision has been folded in.
	if st.Phase == domain.PhaseAwaitingHuman {
		return domain.Transition{Kind: domain.ActionSuspend}, nil
	}

	// Drafting covers both the first round and every re-entry (critic FAIL
	// or human rejection).
	if st.Phase == domain.PhaseDrafting {
		return domain.Transition{Kind: domain.ActionRun, Node: domain.NodeDrafter}, nil
	}

	if st.Phase == domain.PhaseReviewing {
		switch st.LastNode {
		case domain.NodeDrafter:
			return domain.Transition{Kind: domain.ActionRun, Node: domain.NodeSafetyGuardian}, nil

		case domain.NodeSafetyGuardian:
			// Escalation bypasses the critic entirely; an ordinary safety
			// failure is recorded and still proceeds to clinical review.
			if st.RiskFlagged {
				return domain.Transition{Kind: domain.ActionRun, Node: domain.NodeCrisisManager}, nil
			}
			return domain.Transition{Kind: domain.ActionRun, Node: domain.NodeClinicalCritic}, nil

		case domain.NodeClinicalCritic:
			if latest == nil {
				return domain.Transition{}, domain.NewEngineError(domain.ErrNoRoute.Code,
					fmt.Sprintf("session %s reviewed with an empty critique log", st.SessionKey))
			}
			if latest.Verdict == domain.VerdictPass {
				return domain.Transition{Kind: domain.ActionSuspend, SetPhase: domain.PhaseAwaitingHuman}, nil
			}
			if st.IterationCount < maxIterations {
				return domain.Transition{
					Kind:          domain.ActionRun,
					Node:          domain.NodeDrafter,
					SetPhase:      domain.PhaseDrafting,
					BumpIteration: true,
				}, nil
			}
			return domain.Transition{Kind: domain.ActionTerminate, SetPhase: domain.PhaseRejected}, nil
		}
	}

	return domain.Transition{}, domain.NewEngineError(domain.ErrNoRoute.Code,
		fmt.Sprintf("no route for phase=%s last_node=%s", st.Phase, st.LastNode))
}
