package domain

import (
	"errors"
	"fmt"
)

// EngineError is the unified error type for the engine.
// Each error has a numeric code and human-readable message.
type EngineError struct {
	Code    int
	Message string
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	return fmt.Sprintf("engine error %d: %s", e.Code, e.Message)
}

// NewEngineError creates a new EngineError.
func NewEngineError(code int, msg string) *EngineError {
	return &EngineError{Code: code, Message: msg}
}

// WrapEngineError creates an EngineError that includes a cause.
func WrapEngineError(code int, msg string, cause error) *EngineError {
	return &EngineError{Code: code, Message: fmt.Sprintf("%s: %v", msg, cause)}
}

// CodeOf returns the engine error code carried anywhere in err's chain, or 0.
func CodeOf(err error) int {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return 0
}

// IsTransient reports whether err is a retryable adapter failure.
func IsTransient(err error) bool {
	return CodeOf(err) == ErrTransientAdapter.Code
}

// ---- Session / Engine / Router errors (-32010 to -32039) ----

var (
	ErrSessionNotFound  = &EngineError{Code: -32010, Message: "session not found"}
	ErrDuplicateSession = &EngineError{Code: -32011, Message: "session already exists"}
	ErrSessionTerminal  = &EngineError{Code: -32012, Message: "session is in a terminal phase"}
	ErrOptimisticLock   = &EngineError{Code: -32013, Message: "optimistic lock conflict: session was modified concurrently"}
	ErrNoRoute          = &EngineError{Code: -32014, Message: "no route for session state"}
	ErrStepCeiling      = &EngineError{Code: -32015, Message: "run loop exceeded the step ceiling"}
	ErrInvalidMission   = &EngineError{Code: -32016, Message: "mission text must be non-empty"}
)

// ---- Interrupt gate errors (-32040 to -32069) ----

var (
	ErrStaleDecision   = &EngineError{Code: -32040, Message: "decision submitted for a session not awaiting human review"}
	ErrInvalidDecision = &EngineError{Code: -32041, Message: "invalid decision: action must be approve or reject, and reject requires feedback"}
)

// ---- Adapter / model errors (-32070 to -32099) ----

var (
	ErrTransientAdapter     = &EngineError{Code: -32070, Message: "transient adapter failure"}
	ErrAdapterNotRegistered = &EngineError{Code: -32071, Message: "no adapter registered for node"}
	ErrAssessmentInvalid    = &EngineError{Code: -32072, Message: "structured assessment validation failed"}
)

// ---- Store / Config errors (-32130 to -32159) ----

var (
	ErrStoreInit     = &EngineError{Code: -32130, Message: "failed to initialize store"}
	ErrStoreQuery    = &EngineError{Code: -32131, Message: "store query failed"}
	ErrStoreWrite    = &EngineError{Code: -32132, Message: "store write failed"}
	ErrConfigInvalid = &EngineError{Code: -32136, Message: "invalid configuration"}
)
