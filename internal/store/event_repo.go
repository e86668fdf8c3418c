package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cerina/foundry-engine/internal/domain"
)

// EventRepo handles persistence for SessionEvent records.
type EventRepo struct{}

// AppendTx inserts a session event within an existing transaction.
func (r *EventRepo) AppendTx(ctx context.Context, tx *sql.Tx, event domain.SessionEvent) error {
	const q = `INSERT INTO session_events (session_key, seq_no, node, event_type, payload_json, created_at)
VALUES (?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q,
		event.SessionKey,
		event.SeqNo,
		string(event.Node),
		event.EventType,
		event.PayloadJSON,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// ListBySession returns events for a session with sequence numbers greater
// than sinceSeq, ordered by sequence number ascending.
func (r *EventRepo) ListBySession(ctx context.Context, db *sql.DB, sessionKey string, sinceSeq int64) ([]domain.SessionEvent, error) {
	const q = `SELECT id, session_key, seq_no, node, event_type, payload_json, created_at
FROM session_events
WHERE session_key = ? AND seq_no > ?
ORDER BY seq_no ASC`

	rows, err := db.QueryContext(ctx, q, sessionKey, sinceSeq)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []domain.SessionEvent
	for rows.Next() {
		var e domain.SessionEvent
		var node string
		if err := rows.Scan(&e.ID, &e.SessionKey, &e.SeqNo, &node, &e.EventType, &e.PayloadJSON, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Node = domain.Node(node)
		events = append(events, e)
	}
	return events, rows.Err()
}
