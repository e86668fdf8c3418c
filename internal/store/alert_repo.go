package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cerina/foundry-engine/internal/domain"
)

// AlertRepo handles persistence for escalation alert records. The unique
// session_key constraint makes alert dispatch exactly-once per session.
type AlertRepo struct{}

// ReserveTx claims the alert slot for a session within a transaction.
// It returns true if this call won the reservation; false means an alert
// was already recorded for the session and no new dispatch should happen.
func (r *AlertRepo) ReserveTx(ctx context.Context, tx *sql.Tx, a domain.AlertRecord) (bool, error) {
	const q = `INSERT INTO alerts (alert_id, session_key, reason, excerpt, delivered, created_at)
VALUES (?, ?, ?, ?, 0, ?)
ON CONFLICT(session_key) DO NOTHING`
	res, err := tx.ExecContext(ctx, q,
		a.AlertID,
		a.SessionKey,
		a.Reason,
		a.Excerpt,
		a.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("reserve alert: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}
	return n > 0, nil
}

// MarkDelivered records that the alert for a session reached the sink.
func (r *AlertRepo) MarkDelivered(ctx context.Context, db *sql.DB, sessionKey string) error {
	const q = `UPDATE alerts SET delivered = 1 WHERE session_key = ?`
	if _, err := db.ExecContext(ctx, q, sessionKey); err != nil {
		return fmt.Errorf("mark alert delivered: %w", err)
	}
	return nil
}

// GetBySession returns the alert record for a session, if any.
func (r *AlertRepo) GetBySession(ctx context.Context, db *sql.DB, sessionKey string) (*domain.AlertRecord, error) {
	const q = `SELECT alert_id, session_key, reason, excerpt, delivered, created_at
FROM alerts WHERE session_key = ?`

	row := db.QueryRowContext(ctx, q, sessionKey)

	var a domain.AlertRecord
	var delivered int
	err := row.Scan(&a.AlertID, &a.SessionKey, &a.Reason, &a.Excerpt, &delivered, &a.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get alert: %w", err)
	}
	a.Delivered = delivered != 0
	return &a, nil
}
