package workflow

import (
	"testing"

	"github.com/cerina/foundry-engine/internal/domain"
)

func TestRoute(t *testing.T) {
	failCritique := &domain.Critique{Verdict: domain.VerdictFail, Feedback: "weak"}
	passCritique := &domain.Critique{Verdict: domain.VerdictPass}

	tests := []struct {
		name     string
		state    domain.SessionState
		latest   *domain.Critique
		wantKind domain.ActionKind
		wantNode domain.Node
		wantBump bool
	}{
		{
			name:     "drafting runs drafter",
			state:    domain.SessionState{Phase: domain.PhaseDrafting},
			wantKind: domain.ActionRun,
			wantNode: domain.NodeDrafter,
		},
		{
			name:     "after drafter runs safety",
			state:    domain.SessionState{Phase: domain.PhaseReviewing, LastNode: domain.NodeDrafter},
			wantKind: domain.ActionRun,
			wantNode: domain.NodeSafetyGuardian,
		},
		{
			name:     "safety without risk runs critic",
			state:    domain.SessionState{Phase: domain.PhaseReviewing, LastNode: domain.NodeSafetyGuardian},
			wantKind: domain.ActionRun,
			wantNode: domain.NodeClinicalCritic,
		},
		{
			name:     "safety with risk runs crisis manager",
			state:    domain.SessionState{Phase: domain.PhaseReviewing, LastNode: domain.NodeSafetyGuardian, RiskFlagged: true},
			wantKind: domain.ActionRun,
			wantNode: domain.NodeCrisisManager,
		},
		{
			name:     "critic pass suspends",
			state:    domain.SessionState{Phase: domain.PhaseReviewing, LastNode: domain.NodeClinicalCritic},
			latest:   passCritique,
			wantKind: domain.ActionSuspend,
		},
		{
			name:     "critic fail under cap re-drafts",
			state:    domain.SessionState{Phase: domain.PhaseReviewing, LastNode: domain.NodeClinicalCritic, IterationCount: 1},
			latest:   failCritique,
			wantKind: domain.ActionRun,
			wantNode: domain.NodeDrafter,
			wantBump: true,
		},
		{
			name:     "critic fail at cap terminates",
			state:    domain.SessionState{Phase: domain.PhaseReviewing, LastNode: domain.NodeClinicalCritic, IterationCount: 3},
			latest:   failCritique,
			wantKind: domain.ActionTerminate,
		},
		{
			name:     "awaiting human suspends",
			state:    domain.SessionState{Phase: domain.PhaseAwaitingHuman},
			wantKind: domain.ActionSuspend,
		},
		{
			name:     "escalated terminates",
			state:    domain.SessionState{Phase: domain.PhaseEscalated},
			wantKind: domain.ActionTerminate,
		},
		{
			name:     "approved terminates",
			state:    domain.SessionState{Phase: domain.PhaseApproved},
			wantKind: domain.ActionTerminate,
		},
		{
			name:     "rejected terminates",
			state:    domain.SessionState{Phase: domain.PhaseRejected},
			wantKind: domain.ActionTerminate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := Route(tt.state, tt.latest, 3)
			if err != nil {
				t.Fatalf("Route: %v", err)
			}
			if tr.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", tr.Kind, tt.wantKind)
			}
			if tr.Node != tt.wantNode {
				t.Errorf("Node = %q, want %q", tr.Node, tt.wantNode)
			}
			if tr.BumpIteration != tt.wantBump {
				t.Errorf("BumpIteration = %v, want %v", tr.BumpIteration, tt.wantBump)
			}
		})
	}
}

func TestRoute_CriticPassSetsAwaitingPhase(t *testing.T) {
	st := domain.SessionState{Phase: domain.PhaseReviewing, LastNode: domain.NodeClinicalCritic}
	tr, err := Route(st, &domain.Critique{Verdict: domain.VerdictPass}, 3)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if tr.SetPhase != domain.PhaseAwaitingHuman {
		t.Errorf("SetPhase = %q, want awaiting_human", tr.SetPhase)
	}
}

func TestRoute_CriticFailAtCapSetsRejected(t *testing.T) {
	st := domain.SessionState{Phase: domain.PhaseReviewing, LastNode: domain.NodeClinicalCritic, IterationCount: 3}
	tr, err := Route(st, &domain.Critique{Verdict: domain.VerdictFail}, 3)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if tr.SetPhase != domain.PhaseRejected {
		t.Errorf("SetPhase = %q, want rejected", tr.SetPhase)
	}
}

func TestRoute_ReviewedWithEmptyCritiqueLog(t *testing.T) {
	st := domain.SessionState{Phase: domain.PhaseReviewing, LastNode: domain.NodeClinicalCritic}
	_, err := Route(st, nil, 3)
	if domain.CodeOf(err) != domain.ErrNoRoute.Code {
		t.Errorf("expected ErrNoRoute, got %v", err)
	}
}

func TestRoute_UnknownState(t *testing.T) {
	st := domain.SessionState{Phase: domain.PhaseReviewing, LastNode: domain.NodeCrisisManager}
	_, err := Route(st, nil, 3)
	if domain.CodeOf(err) != domain.ErrNoRoute.Code {
		t.Errorf("expected ErrNoRoute, got %v", err)
	}
}

func TestIterationBreaker(t *testing.T) {
	b := IterationBreaker{MaxIterations: 3}

	if got := b.Check(domain.SessionState{IterationCount: 3}); got != BreakerContinue {
		t.Errorf("at cap: %q, want continue", got)
	}
	if got := b.Check(domain.SessionState{IterationCount: 4}); got != BreakerHalt {
		t.Errorf("past cap: %q, want halt", got)
	}
}

func TestRetryPolicy_NextDelay(t *testing.T) {
	p := DefaultRetryPolicy()

	tests := []struct {
		attempt int
		wantMS  int64
	}{
		{1, 500},
		{2, 1000},
		{3, 2000},
		{4, 4000},
		{5, 5000}, // clamped at MaxInterval
		{9, 5000},
	}

	for _, tt := range tests {
		got := p.NextDelay(tt.attempt)
		if got.Milliseconds() != tt.wantMS {
			t.Errorf("NextDelay(%d) = %v, want %dms", tt.attempt, got, tt.wantMS)
		}
	}
}
