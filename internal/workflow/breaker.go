package workflow

import "github.com/cerina/foundry-engine/internal/domain"

// BreakerAction is the iteration circuit breaker's decision.
type BreakerAction string

const (
	BreakerContinue BreakerAction = "continue"
	BreakerHalt     BreakerAction = "halt"
)

// IterationBreaker bounds the critique loop independently of the router.
// The router already refuses a drafter re-entry at the iteration cap; the
// breaker is the engine-side backstop that forces a rejected terminal phase
// if a routing bug or hand-edited state ever slips past it.
type IterationBreaker struct {
	MaxIterations int
}

// Check evaluates the breaker against the session about to run the drafter.
func (b IterationBreaker) Check(st domain.SessionState) BreakerAction {
	if b.MaxIterations > 0 && st.IterationCount > b.MaxIterations {
		return BreakerHalt
	}
	return BreakerContinue
}
