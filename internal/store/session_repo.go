package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/cerina/foundry-engine/internal/domain"
)

// SessionRepo handles persistence for SessionState checkpoints.
type SessionRepo struct{}

// CreateTx inserts a new session within an existing transaction.
func (r *SessionRepo) CreateTx(ctx context.Context, tx *sql.Tx, state domain.SessionState) error {
	const q = `INSERT INTO sessions (session_key, mission_text, current_draft, iteration_count, phase, last_node, risk_flagged, pending_feedback, last_error, state_version, schema_version, last_event_seq, updated_at_unix, created_at_unix)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q,
		state.SessionKey,
		state.MissionText,
		state.CurrentDraft,
		state.IterationCount,
		string(state.Phase),
		string(state.LastNode),
		boolToInt(state.RiskFlagged),
		state.PendingFeedback,
		state.LastError,
		state.StateVersion,
		state.SchemaVersion,
		state.LastEventSeq,
		state.UpdatedAtUnix,
		state.CreatedAtUnix,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return domain.ErrDuplicateSession
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// UpdateStateTx writes a session checkpoint within a transaction using
// optimistic locking. The update only succeeds if the stored state_version
// matches the version the caller loaded.
func (r *SessionRepo) UpdateStateTx(ctx context.Context, tx *sql.Tx, state domain.SessionState) error {
	const q = `UPDATE sessions SET
		current_draft = ?,
		iteration_count = ?,
		phase = ?,
		last_node = ?,
		risk_flagged = ?,
		pending_feedback = ?,
		last_error = ?,
		state_version = state_version + 1,
		last_event_seq = ?,
		updated_at_unix = ?
	WHERE session_key = ? AND state_version = ?`

	res, err := tx.ExecContext(ctx, q,
		state.CurrentDraft,
		state.IterationCount,
		string(state.Phase),
		string(state.LastNode),
		boolToInt(state.RiskFlagged),
		state.PendingFeedback,
		state.LastError,
		state.LastEventSeq,
		state.UpdatedAtUnix,
		state.SessionKey,
		state.StateVersion,
	)
	if err != nil {
		return fmt.Errorf("update session state: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrOptimisticLock
	}
	return nil
}

// GetByKey retrieves a session by its key.
func (r *SessionRepo) GetByKey(ctx context.Context, db *sql.DB, sessionKey string) (*domain.SessionState, error) {
	const q = `SELECT session_key, mission_text, current_draft, iteration_count, phase, last_node, risk_flagged, pending_feedback, last_error, state_version, schema_version, last_event_seq, updated_at_unix, created_at_unix
FROM sessions WHERE session_key = ?`

	row := db.QueryRowContext(ctx, q, sessionKey)

	var s domain.SessionState
	var phase, node string
	var flagged int
	err := row.Scan(&s.SessionKey, &s.MissionText, &s.CurrentDraft, &s.IterationCount,
		&phase, &node, &flagged, &s.PendingFeedback, &s.LastError,
		&s.StateVersion, &s.SchemaVersion, &s.LastEventSeq, &s.UpdatedAtUnix, &s.CreatedAtUnix)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	s.Phase = domain.Phase(phase)
	s.LastNode = domain.Node(node)
	s.RiskFlagged = flagged != 0
	return &s, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
