package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cerina/foundry-engine/internal/domain"
)

// AssessmentRepo handles persistence for safety guardian risk assessments.
type AssessmentRepo struct{}

// AppendTx inserts a risk assessment within an existing transaction.
func (r *AssessmentRepo) AppendTx(ctx context.Context, tx *sql.Tx, a domain.RiskAssessment) error {
	const q = `INSERT INTO assessments (session_key, round, safe, escalate, harm_category, reasoning, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q,
		a.SessionKey,
		a.Round,
		boolToInt(a.Safe),
		boolToInt(a.Escalate),
		a.HarmCategory,
		a.Reasoning,
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append assessment: %w", err)
	}
	return nil
}

// ListBySession returns all assessments for a session in insertion order.
func (r *AssessmentRepo) ListBySession(ctx context.Context, db *sql.DB, sessionKey string) ([]domain.RiskAssessment, error) {
	const q = `SELECT id, session_key, round, safe, escalate, harm_category, reasoning, created_at
FROM assessments
WHERE session_key = ?
ORDER BY id ASC`

	rows, err := db.QueryContext(ctx, q, sessionKey)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	defer rows.Close()

	var assessments []domain.RiskAssessment
	for rows.Next() {
		var a domain.RiskAssessment
		var safe, escalate int
		if err := rows.Scan(&a.ID, &a.SessionKey, &a.Round, &safe, &escalate, &a.HarmCategory, &a.Reasoning, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan assessment: %w", err)
		}
		a.Safe = safe != 0
		a.Escalate = escalate != 0
		assessments = append(assessments, a)
	}
	return assessments, rows.Err()
}
