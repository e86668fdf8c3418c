package agent

import (
	"context"

	"github.com/cerina/foundry-engine/internal/domain"
)

// SafeResourceMessage is the fixed text that replaces a crisis-flagged draft.
const SafeResourceMessage = "I cannot fulfill this request. It sounds like you are going through a difficult time. " +
	"Please remember that you are not alone.\n\n" +
	"If you are in immediate danger, please call emergency services (911) or 988."

// CrisisManager activates only when the Safety Guardian flags crisis-grade
// content. It replaces the draft with the safe-resource message, moves the
// session into the one-way escalated phase, and requests an alert dispatch.
type CrisisManager struct{}

// Node returns the crisis manager's node name.
func (c *CrisisManager) Node() domain.Node { return domain.NodeCrisisManager }

// Execute overwrites the draft and escalates. The engine's alert reservation
// makes the notification exactly-once even if an escalated session is
// re-entered.
func (c *CrisisManager) Execute(_ context.Context, in Input) (Outcome, error) {
	st := in.State
	st.CurrentDraft = SafeResourceMessage
	st.Phase = domain.PhaseEscalated
	return Outcome{State: st, Notify: true}, nil
}
