package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/cerina/foundry-engine/internal/domain"
	"github.com/cerina/foundry-engine/internal/model"
	"github.com/cerina/foundry-engine/internal/review"
)

const safetySystem = "You are a Safety Guardian reviewing clinical protocol drafts. " +
	"Respond with a JSON object: {\"is_safe\": bool, \"escalate\": bool, \"harm_category\": string, \"reasoning\": string}. " +
	"Set escalate when the content indicates self-harm, suicide, or violence. " +
	"Reject illegal content. Allow standard CBT educational content."

// SafetyGuardian assesses the current draft for harmful content. Its output
// is three-valued: safe, unsafe, or crisis-grade requiring escalation past
// the normal review loop.
type SafetyGuardian struct {
	Client    model.Client
	Validator *review.Validator
}

// Node returns the safety guardian's node name.
func (g *SafetyGuardian) Node() domain.Node { return domain.NodeSafetyGuardian }

// Execute records a structured risk assessment and flags the session for
// escalation when the finding is crisis-grade. It never touches the draft
// and never appends to the critique log.
func (g *SafetyGuardian) Execute(ctx context.Context, in Input) (Outcome, error) {
	st := in.State

	reply, err := g.Client.Complete(ctx, model.Request{
		System: safetySystem,
		Prompt: fmt.Sprintf("Assess this content:\n%s", st.CurrentDraft),
	})
	if err != nil {
		return Outcome{}, domain.WrapEngineError(domain.ErrTransientAdapter.Code, "safety assessment", err)
	}

	var a review.SafetyAssessment
	if err := parseStructured(reply, &a); err != nil {
		return Outcome{}, err
	}
	if err := g.Validator.ValidateSafety(a); err != nil {
		return Outcome{}, domain.WrapEngineError(domain.ErrTransientAdapter.Code, "safety assessment rejected", err)
	}

	escalate := review.FlagsCrisis(a)
	st.RiskFlagged = escalate

	assessment := &domain.RiskAssessment{
		SessionKey:   st.SessionKey,
		Round:        st.IterationCount,
		Safe:         a.IsSafe,
		Escalate:     escalate,
		HarmCategory: a.HarmCategory,
		Reasoning:    a.Reasoning,
		CreatedAt:    time.Now().Unix(),
	}
	return Outcome{State: st, Assessment: assessment}, nil
}
