package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cerina/foundry-engine/internal/domain"
)

// CritiqueRepo handles persistence for the append-only critique log.
type CritiqueRepo struct{}

// AppendTx inserts a critique within an existing transaction. The unique
// (session_key, seq) constraint rejects duplicate appends for a round.
func (r *CritiqueRepo) AppendTx(ctx context.Context, tx *sql.Tx, c domain.Critique) error {
	const q = `INSERT INTO critiques (session_key, seq, agent_name, score, feedback, verdict, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q,
		c.SessionKey,
		c.Seq,
		c.AgentName,
		c.Score,
		c.Feedback,
		string(c.Verdict),
		c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append critique: %w", err)
	}
	return nil
}

// ListBySession returns all critiques for a session ordered by seq ascending.
func (r *CritiqueRepo) ListBySession(ctx context.Context, db *sql.DB, sessionKey string) ([]domain.Critique, error) {
	const q = `SELECT id, session_key, seq, agent_name, score, feedback, verdict, created_at
FROM critiques
WHERE session_key = ?
ORDER BY seq ASC`

	rows, err := db.QueryContext(ctx, q, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("list critiques: %w", err)
	}
	defer rows.Close()

	var critiques []domain.Critique
	for rows.Next() {
		var c domain.Critique
		var verdict string
		if err := rows.Scan(&c.ID, &c.SessionKey, &c.Seq, &c.AgentName, &c.Score, &c.Feedback, &verdict, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan critique: %w", err)
		}
		c.Verdict = domain.Verdict(verdict)
		critiques = append(critiques, c)
	}
	return critiques, rows.Err()
}

// CountBySession returns the number of critique log entries for a session.
func (r *CritiqueRepo) CountBySession(ctx context.Context, db *sql.DB, sessionKey string) (int, error) {
	const q = `SELECT COUNT(*) FROM critiques WHERE session_key = ?`
	var n int
	if err := db.QueryRowContext(ctx, q, sessionKey).Scan(&n); err != nil {
		return 0, fmt.Errorf("count critiques: %w", err)
	}
	return n, nil
}
