// Package domain defines the core types for the Foundry Engine workflow.
package domain

// Phase represents the lifecycle phase of a session.
type Phase string

const (
	PhaseDrafting      Phase = "drafting"
	PhaseReviewing     Phase = "reviewing"
	PhaseAwaitingHuman Phase = "awaiting_human"
	PhaseEscalated     Phase = "escalated"
	PhaseApproved      Phase = "approved"
	PhaseRejected      Phase = "rejected"
)

// Terminal reports whether no further agent execution may occur in this phase.
// Escalation is one-way: an escalated session never runs another adapter.
func (p Phase) Terminal() bool {
	return p == PhaseEscalated || p == PhaseApproved || p == PhaseRejected
}

// Status is the caller-facing status derived from a session.
type Status string

const (
	StatusRunning   Status = "RUNNING"
	StatusPaused    Status = "PAUSED"
	StatusCompleted Status = "COMPLETED"
	StatusErrored   Status = "ERRORED"
)

// Node identifies an agent adapter in the pipeline.
type Node string

const (
	NodeDrafter        Node = "drafter"
	NodeSafetyGuardian Node = "safety_guardian"
	NodeClinicalCritic Node = "clinical_critic"
	NodeCrisisManager  Node = "crisis_manager"
)

// SchemaVersion is the current version of the persisted session record.
const SchemaVersion = 1

// SessionState is the durable record threaded through the pipeline.
// One row per session; every completed adapter step writes a new checkpoint
// of this record under optimistic version control.
type SessionState struct {
	SessionKey      string
	MissionText     string
	CurrentDraft    string
	IterationCount  int
	Phase           Phase
	LastNode        Node // empty until the first adapter completes
	RiskFlagged     bool // set by the safety guardian to request escalation
	PendingFeedback string
	LastError       string
	StateVersion    int64
	SchemaVersion   int
	LastEventSeq    int64
	UpdatedAtUnix   int64
	CreatedAtUnix   int64
}

// Status maps the lifecycle phase (and any recorded step failure) to the
// caller-facing status surfaced by the API.
func (s SessionState) Status() Status {
	switch {
	case s.Phase.Terminal():
		return StatusCompleted
	case s.Phase == PhaseAwaitingHuman:
		return StatusPaused
	case s.LastError != "":
		return StatusErrored
	default:
		return StatusRunning
	}
}

// Verdict is the outcome of a single critique.
type Verdict string

const (
	VerdictPass Verdict = "PASS"
	VerdictFail Verdict = "FAIL"
)

// Critique is one critic-authored entry in the session's append-only log.
// Entries are never removed or reordered; Seq is 1-based per session.
type Critique struct {
	ID         int64
	SessionKey string
	Seq        int
	AgentName  string
	Score      int
	Feedback   string
	Verdict    Verdict
	CreatedAt  int64
}

// RiskAssessment is the safety guardian's structured output for one round.
// Assessments are recorded for audit; they are not critique log entries.
type RiskAssessment struct {
	ID           int64
	SessionKey   string
	Round        int
	Safe         bool
	Escalate     bool
	HarmCategory string
	Reasoning    string
	CreatedAt    int64
}

// DecisionAction is a human reviewer's choice on a paused session.
type DecisionAction string

const (
	DecisionApprove DecisionAction = "approve"
	DecisionReject  DecisionAction = "reject"
)

// Decision is the external input that resumes a suspended session.
type Decision struct {
	Action   DecisionAction
	Feedback string
}

// ActionKind classifies a routing transition.
type ActionKind string

const (
	ActionRun       ActionKind = "run"
	ActionSuspend   ActionKind = "suspend"
	ActionTerminate ActionKind = "terminate"
)

// Transition is the router's decision: what to do next plus the state
// bookkeeping the engine must apply before acting. The router computes it
// as a pure function of durable state and never mutates anything itself.
type Transition struct {
	Kind ActionKind
	Node Node // set when Kind == ActionRun

	// SetPhase, when non-empty, is the phase to persist as part of the
	// transition (e.g. rejected when the circuit breaker trips).
	SetPhase Phase
	// BumpIteration marks a critic-FAIL re-entry to the drafter.
	BumpIteration bool
}

// SessionEvent is one entry in a session's append-only event log.
type SessionEvent struct {
	ID          int64
	SessionKey  string
	SeqNo       int64
	Node        Node
	EventType   string
	PayloadJSON string
	CreatedAt   int64
}

// AlertRecord tracks an escalation alert for a session. The unique
// session_key constraint in the store makes dispatch exactly-once.
type AlertRecord struct {
	AlertID    string
	SessionKey string
	Reason     string
	Excerpt    string
	Delivered  bool
	CreatedAt  int64
}

// Snapshot is the read-only view of a session surfaced to collaborators.
type Snapshot struct {
	SessionKey      string
	Status          Status
	Phase           Phase
	CurrentDraft    string
	IterationCount  int
	Critiques       []Critique
	PendingFeedback string
	LastError       string
}
