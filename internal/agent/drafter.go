package agent

import (
	"context"
	"fmt"

	"github.com/cerina/foundry-engine/internal/domain"
	"github.com/cerina/foundry-engine/internal/model"
)

const drafterSystem = "You are an expert CBT Clinical Architect."

// Drafter generates the protocol draft, or rewrites it to address the most
// recent rejection. It is the only node besides the Crisis Manager that may
// replace the current draft.
type Drafter struct {
	Client model.Client
}

// Node returns the drafter's node name.
func (d *Drafter) Node() domain.Node { return domain.NodeDrafter }

// Execute produces a new draft, consumes any pending human feedback, and
// moves the session into review.
func (d *Drafter) Execute(ctx context.Context, in Input) (Outcome, error) {
	st := in.State

	reply, err := d.Client.Complete(ctx, model.Request{
		System:      drafterSystem,
		Prompt:      buildDraftPrompt(st, in.Latest()),
		Temperature: 0.7,
	})
	if err != nil {
		return Outcome{}, domain.WrapEngineError(domain.ErrTransientAdapter.Code, "drafter generation", err)
	}

	st.CurrentDraft = reply
	st.PendingFeedback = ""
	st.RiskFlagged = false
	st.Phase = domain.PhaseReviewing
	return Outcome{State: st}, nil
}

// buildDraftPrompt constructs the generation prompt. Human rejection
// feedback takes priority over the latest automated critique.
func buildDraftPrompt(st domain.SessionState, latest *domain.Critique) string {
	rejection := st.PendingFeedback
	if rejection == "" && latest != nil && latest.Verdict == domain.VerdictFail {
		rejection = latest.Feedback
	}

	if rejection == "" {
		return fmt.Sprintf("Create a CBT clinical protocol for this request: %s. Be empathetic but structured.", st.MissionText)
	}
	return fmt.Sprintf("Your previous draft was rejected. Fix this specific issue: %s. Rewrite the protocol for: %s", rejection, st.MissionText)
}
