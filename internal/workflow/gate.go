package workflow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cerina/foundry-engine/internal/domain"
	"github.com/cerina/foundry-engine/internal/log"
)

// SubmitDecision folds a human reviewer's decision into a suspended session.
// Approval moves the session to its approved terminal phase; rejection stores
// the feedback and re-enters the drafting loop without counting against the
// critic iteration cap. Decisions against sessions that are not awaiting
// review fail with a stale-decision error.
func (e *Engine) SubmitDecision(ctx context.Context, sessionKey string, d domain.Decision) (*domain.Snapshot, error) {
	if err := validateDecision(d); err != nil {
		return nil, err
	}

	st, err := e.Sessions.GetByKey(ctx, e.DB, sessionKey)
	if err != nil {
		return nil, err
	}
	if st.Phase != domain.PhaseAwaitingHuman {
		return nil, domain.NewEngineError(domain.ErrStaleDecision.Code,
			fmt.Sprintf("%s (phase=%s)", domain.ErrStaleDecision.Message, st.Phase))
	}

	now := time.Now().Unix()
	updated := *st
	updated.LastError = ""
	updated.LastEventSeq = st.LastEventSeq + 1
	updated.UpdatedAtUnix = now

	var eventType string
	switch d.Action {
	case domain.DecisionApprove:
		updated.Phase = domain.PhaseApproved
		eventType = "human_approved"
	case domain.DecisionReject:
		updated.Phase = domain.PhaseDrafting
		updated.PendingFeedback = d.Feedback
		eventType = "human_rejected"
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := e.Sessions.UpdateStateTx(ctx, tx, updated); err != nil {
		return nil, err
	}
	event := domain.SessionEvent{
		SessionKey:  sessionKey,
		SeqNo:       updated.LastEventSeq,
		Node:        updated.LastNode,
		EventType:   eventType,
		PayloadJSON: fmt.Sprintf(`{"action":"%s"}`, d.Action),
		CreatedAt:   now,
	}
	if err := e.Events.AppendTx(ctx, tx, event); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit decision: %w", err)
	}

	if d.Action == domain.DecisionReject {
		if err := e.run(ctx, sessionKey); err != nil {
			log.Warnf("session %s run after rejection stopped: %v", sessionKey, err)
		}
	}
	return e.GetSnapshot(ctx, sessionKey)
}

func validateDecision(d domain.Decision) error {
	switch d.Action {
	case domain.DecisionApprove:
		return nil
	case domain.DecisionReject:
		if strings.TrimSpace(d.Feedback) == "" {
			return domain.NewEngineError(domain.ErrInvalidDecision.Code,
				"rejection requires non-empty feedback")
		}
		return nil
	default:
		return domain.NewEngineError(domain.ErrInvalidDecision.Code,
			fmt.Sprintf("unknown action %q", d.Action))
	}
}
