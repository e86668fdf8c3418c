package workflow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cerina/foundry-engine/internal/agent"
	"github.com/cerina/foundry-engine/internal/domain"
	"github.com/cerina/foundry-engine/internal/log"
	"github.com/cerina/foundry-engine/internal/notify"
	"github.com/cerina/foundry-engine/internal/store"
)

// Options configure the orchestration engine.
type Options struct {
	MaxIterations int
	MaxSteps      int
	StepTimeout   time.Duration
	Retry         RetryPolicy
}

// Engine drives the run loop: load state, route, execute the selected
// adapter, persist the result, and repeat until suspension or termination.
// Exactly one adapter execution is committed per durable checkpoint.
type Engine struct {
	DB          *sql.DB
	Sessions    *store.SessionRepo
	Critiques   *store.CritiqueRepo
	Assessments *store.AssessmentRepo
	Events      *store.EventRepo
	Alerts      *store.AlertRepo
	Sink        notify.Sink
	Breaker     IterationBreaker

	adapters map[domain.Node]agent.Adapter
	opts     Options
}

// NewEngine creates an engine over the given store with the given adapters.
func NewEngine(db *sql.DB, adapters []agent.Adapter, sink notify.Sink, opts Options) *Engine {
	if opts.MaxIterations == 0 {
		opts.MaxIterations = 3
	}
	if opts.MaxSteps == 0 {
		opts.MaxSteps = 24
	}
	if opts.StepTimeout == 0 {
		opts.StepTimeout = 60 * time.Second
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = DefaultRetryPolicy()
	}
	if sink == nil {
		sink = notify.Nop{}
	}

	m := make(map[domain.Node]agent.Adapter, len(adapters))
	for _, ad := range adapters {
		m[ad.Node()] = ad
	}

	return &Engine{
		DB:          db,
		Sessions:    &store.SessionRepo{},
		Critiques:   &store.CritiqueRepo{},
		Assessments: &store.AssessmentRepo{},
		Events:      &store.EventRepo{},
		Alerts:      &store.AlertRepo{},
		Sink:        sink,
		Breaker:     IterationBreaker{MaxIterations: opts.MaxIterations},
		adapters:    m,
		opts:        opts,
	}
}

// StartSession creates a new session for the mission text and drives the
// run loop until it suspends or terminates. Step failures are recorded on
// the session and reflected in the returned snapshot, not returned as
// errors; only creation failures are.
func (e *Engine) StartSession(ctx context.Context, missionText string) (*domain.Snapshot, error) {
	if strings.TrimSpace(missionText) == "" {
		return nil, domain.ErrInvalidMission
	}

	now := time.Now().Unix()
	state := domain.SessionState{
		SessionKey:    uuid.NewString(),
		MissionText:   missionText,
		Phase:         domain.PhaseDrafting,
		StateVersion:  1,
		SchemaVersion: domain.SchemaVersion,
		LastEventSeq:  1, // the session_started event uses seq 1
		UpdatedAtUnix: now,
		CreatedAtUnix: now,
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := e.Sessions.CreateTx(ctx, tx, state); err != nil {
		return nil, err
	}
	event := domain.SessionEvent{
		SessionKey:  state.SessionKey,
		SeqNo:       1,
		EventType:   "session_started",
		PayloadJSON: "{}",
		CreatedAt:   now,
	}
	if err := e.Events.AppendTx(ctx, tx, event); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit session create: %w", err)
	}

	if err := e.run(ctx, state.SessionKey); err != nil {
		log.Warnf("session %s run stopped: %v", state.SessionKey, err)
	}
	return e.GetSnapshot(ctx, state.SessionKey)
}

// GetSnapshot returns the latest durably committed view of a session.
// It never mutates state.
func (e *Engine) GetSnapshot(ctx context.Context, sessionKey string) (*domain.Snapshot, error) {
	st, err := e.Sessions.GetByKey(ctx, e.DB, sessionKey)
	if err != nil {
		return nil, err
	}
	critiques, err := e.Critiques.ListBySession(ctx, e.DB, sessionKey)
	if err != nil {
		return nil, err
	}
	return &domain.Snapshot{
		SessionKey:      st.SessionKey,
		Status:          st.Status(),
		Phase:           st.Phase,
		CurrentDraft:    st.CurrentDraft,
		IterationCount:  st.IterationCount,
		Critiques:       critiques,
		PendingFeedback: st.PendingFeedback,
		LastError:       st.LastError,
	}, nil
}

// ResumeSession re-enters the run loop for a session that stopped on a
// transient failure (or was interrupted by a process restart). Suspended
// and terminal sessions are returned as-is; suspended sessions only move
// through SubmitDecision.
func (e *Engine) ResumeSession(ctx context.Context, sessionKey string) (*domain.Snapshot, error) {
	st, err := e.Sessions.GetByKey(ctx, e.DB, sessionKey)
	if err != nil {
		return nil, err
	}
	if !st.Phase.Terminal() && st.Phase != domain.PhaseAwaitingHuman {
		if err := e.run(ctx, sessionKey); err != nil {
			log.Warnf("session %s resume stopped: %v", sessionKey, err)
		}
	}
	return e.GetSnapshot(ctx, sessionKey)
}

// run is the orchestration loop. Each pass reloads durable state, so a
// concurrent writer loses the optimistic version race rather than
// corrupting the session. The step ceiling guards routing bugs.
func (e *Engine) run(ctx context.Context, sessionKey string) error {
	for step := 0; step < e.opts.MaxSteps; step++ {
		st, err := e.Sessions.GetByKey(ctx, e.DB, sessionKey)
		if err != nil {
			return err
		}
		critiques, err := e.Critiques.ListBySession(ctx, e.DB, sessionKey)
		if err != nil {
			return err
		}
		in := agent.Input{State: *st, Critiques: critiques}

		tr, err := Route(*st, in.Latest(), e.opts.MaxIterations)
		if err != nil {
			e.recordStepError(ctx, sessionKey, err)
			return err
		}

		switch tr.Kind {
		case domain.ActionTerminate:
			if tr.SetPhase != "" && tr.SetPhase != st.Phase {
				return e.persistTransition(ctx, st, tr.SetPhase, "circuit_breaker_tripped")
			}
			return nil

		case domain.ActionSuspend:
			if st.Phase != domain.PhaseAwaitingHuman {
				return e.persistTransition(ctx, st, domain.PhaseAwaitingHuman, "suspended")
			}
			return nil

		case domain.ActionRun:
			if err := e.step(ctx, in, tr); err != nil {
				return err
			}
		}
	}

	err := domain.NewEngineError(domain.ErrStepCeiling.Code,
		fmt.Sprintf("%s after %d steps", domain.ErrStepCeiling.Message, e.opts.MaxSteps))
	e.recordStepError(ctx, sessionKey, err)
	return err
}

// step executes one adapter and commits its outcome as a single checkpoint.
func (e *Engine) step(ctx context.Context, in agent.Input, tr domain.Transition) error {
	ad, ok := e.adapters[tr.Node]
	if !ok {
		return domain.NewEngineError(domain.ErrAdapterNotRegistered.Code,
			fmt.Sprintf("%s: %s", domain.ErrAdapterNotRegistered.Message, tr.Node))
	}

	st := in.State
	if tr.BumpIteration {
		st.IterationCount++
	}
	if tr.SetPhase != "" {
		st.Phase = tr.SetPhase
	}

	// Backstop: never execute the drafter past the iteration cap.
	if tr.Node == domain.NodeDrafter && e.Breaker.Check(st) == BreakerHalt {
		loaded := in.State
		return e.persistTransition(ctx, &loaded, domain.PhaseRejected, "circuit_breaker_tripped")
	}

	in.State = st
	out, err := e.executeWithRetry(ctx, ad, in)
	if err != nil {
		e.recordStepError(ctx, st.SessionKey, err)
		return err
	}
	return e.commitStep(ctx, in, tr.Node, out)
}

// executeWithRetry runs one adapter under the step timeout, retrying
// transient failures with exponential backoff. Non-transient errors and
// caller cancellation surface immediately.
func (e *Engine) executeWithRetry(ctx context.Context, ad agent.Adapter, in agent.Input) (agent.Outcome, error) {
	var lastErr error
	for attempt := 1; attempt <= e.opts.Retry.MaxAttempts; attempt++ {
		stepCtx, cancel := context.WithTimeout(ctx, e.opts.StepTimeout)
		out, err := ad.Execute(stepCtx, in)
		cancel()
		if err == nil {
			return out, nil
		}
		if errors.Is(err, context.DeadlineExceeded) {
			err = domain.WrapEngineError(domain.ErrTransientAdapter.Code, "adapter timed out", err)
		}
		if !domain.IsTransient(err) {
			return agent.Outcome{}, err
		}
		lastErr = err
		log.Debugf("node %s attempt %d/%d failed: %v", ad.Node(), attempt, e.opts.Retry.MaxAttempts, err)

		if attempt < e.opts.Retry.MaxAttempts {
			select {
			case <-time.After(e.opts.Retry.NextDelay(attempt)):
			case <-ctx.Done():
				return agent.Outcome{}, ctx.Err()
			}
		}
	}
	return agent.Outcome{}, lastErr
}

// commitStep persists an adapter outcome atomically: session checkpoint,
// critique append, assessment record, event, and alert reservation all land
// in one transaction, or none of them do.
func (e *Engine) commitStep(ctx context.Context, in agent.Input, node domain.Node, out agent.Outcome) error {
	now := time.Now().Unix()

	// The alert reason comes from the escalating assessment committed in the
	// previous step; the excerpt is taken from the draft as it was before
	// the crisis manager replaced it. Both are read before the transaction
	// opens because the store runs on a single connection.
	var alertReason, alertExcerpt string
	if out.Notify {
		alertReason = "crisis-grade content detected"
		if assessments, err := e.Assessments.ListBySession(ctx, e.DB, in.State.SessionKey); err == nil && len(assessments) > 0 {
			alertReason = assessments[len(assessments)-1].Reasoning
		}
		alertExcerpt = truncate(in.State.CurrentDraft, 100)
	}

	st := out.State
	st.LastNode = node
	st.LastError = ""
	st.LastEventSeq = in.State.LastEventSeq + 1
	st.UpdatedAtUnix = now

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := e.Sessions.UpdateStateTx(ctx, tx, st); err != nil {
		return err
	}

	if out.Critique != nil {
		c := *out.Critique
		c.Seq = len(in.Critiques) + 1
		if c.CreatedAt == 0 {
			c.CreatedAt = now
		}
		if err := e.Critiques.AppendTx(ctx, tx, c); err != nil {
			return err
		}
	}

	if out.Assessment != nil {
		a := *out.Assessment
		if a.CreatedAt == 0 {
			a.CreatedAt = now
		}
		if err := e.Assessments.AppendTx(ctx, tx, a); err != nil {
			return err
		}
	}

	event := domain.SessionEvent{
		SessionKey:  st.SessionKey,
		SeqNo:       st.LastEventSeq,
		Node:        node,
		EventType:   "step_completed",
		PayloadJSON: fmt.Sprintf(`{"phase":"%s","iteration":%d}`, st.Phase, st.IterationCount),
		CreatedAt:   now,
	}
	if err := e.Events.AppendTx(ctx, tx, event); err != nil {
		return err
	}

	reserved := false
	if out.Notify {
		reserved, err = e.Alerts.ReserveTx(ctx, tx, domain.AlertRecord{
			AlertID:    uuid.NewString(),
			SessionKey: st.SessionKey,
			Reason:     alertReason,
			Excerpt:    alertExcerpt,
			CreatedAt:  now,
		})
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit step: %w", err)
	}

	if reserved {
		e.dispatchAlert(ctx, st.SessionKey)
	}
	return nil
}

// persistTransition commits a phase change that involves no adapter
// execution (suspension, circuit breaker trip).
func (e *Engine) persistTransition(ctx context.Context, st *domain.SessionState, phase domain.Phase, eventType string) error {
	now := time.Now().Unix()

	updated := *st
	updated.Phase = phase
	updated.LastError = ""
	updated.LastEventSeq = st.LastEventSeq + 1
	updated.UpdatedAtUnix = now

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := e.Sessions.UpdateStateTx(ctx, tx, updated); err != nil {
		return err
	}
	event := domain.SessionEvent{
		SessionKey:  updated.SessionKey,
		SeqNo:       updated.LastEventSeq,
		Node:        updated.LastNode,
		EventType:   eventType,
		PayloadJSON: fmt.Sprintf(`{"phase":"%s"}`, phase),
		CreatedAt:   now,
	}
	if err := e.Events.AppendTx(ctx, tx, event); err != nil {
		return err
	}
	return tx.Commit()
}

// recordStepError marks the session as errored without advancing any
// workflow state. The phase is untouched, so the step can be retried with
// ResumeSession once the transient cause clears.
func (e *Engine) recordStepError(ctx context.Context, sessionKey string, stepErr error) {
	st, err := e.Sessions.GetByKey(ctx, e.DB, sessionKey)
	if err != nil {
		log.Warnf("record step error: load session %s: %v", sessionKey, err)
		return
	}

	now := time.Now().Unix()
	updated := *st
	updated.LastError = stepErr.Error()
	updated.LastEventSeq = st.LastEventSeq + 1
	updated.UpdatedAtUnix = now

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		log.Warnf("record step error: begin tx: %v", err)
		return
	}
	defer tx.Rollback()

	if err := e.Sessions.UpdateStateTx(ctx, tx, updated); err != nil {
		log.Warnf("record step error: session %s: %v", sessionKey, err)
		return
	}
	event := domain.SessionEvent{
		SessionKey:  sessionKey,
		SeqNo:       updated.LastEventSeq,
		Node:        updated.LastNode,
		EventType:   "step_failed",
		PayloadJSON: "{}",
		CreatedAt:   now,
	}
	if err := e.Events.AppendTx(ctx, tx, event); err != nil {
		log.Warnf("record step error: append event: %v", err)
		return
	}
	if err := tx.Commit(); err != nil {
		log.Warnf("record step error: commit: %v", err)
	}
}

// dispatchAlert delivers a reserved alert. Delivery is best-effort and
// synchronous; failures are logged and never surfaced to workflow callers.
func (e *Engine) dispatchAlert(ctx context.Context, sessionKey string) {
	a, err := e.Alerts.GetBySession(ctx, e.DB, sessionKey)
	if err != nil || a == nil {
		log.Warnf("dispatch alert: load record for session %s: %v", sessionKey, err)
		return
	}

	nctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := e.Sink.Notify(nctx, a.SessionKey, a.Reason, a.Excerpt); err != nil {
		log.Warnf("alert delivery failed for session %s: %v", sessionKey, err)
		return
	}
	if err := e.Alerts.MarkDelivered(ctx, e.DB, sessionKey); err != nil {
		log.Warnf("mark alert delivered for session %s: %v", sessionKey, err)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
