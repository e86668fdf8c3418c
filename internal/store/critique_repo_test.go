package store

import (
	"context"
	"testing"

	"github.com/cerina/foundry-engine/internal/domain"
)

func TestCritiqueRepo_AppendAndList(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := &CritiqueRepo{}

	entries := []domain.Critique{
		{SessionKey: "sess-1", Seq: 1, AgentName: "ClinicalCritic", Score: 5, Feedback: "too clinical", Verdict: domain.VerdictFail, CreatedAt: 100},
		{SessionKey: "sess-1", Seq: 2, AgentName: "ClinicalCritic", Score: 8, Feedback: "much better", Verdict: domain.VerdictPass, CreatedAt: 200},
	}
	for _, c := range entries {
		tx, err := db.Begin()
		if err != nil {
			t.Fatalf("begin: %v", err)
		}
		if err := repo.AppendTx(ctx, tx, c); err != nil {
			t.Fatalf("AppendTx seq %d: %v", c.Seq, err)
		}
		tx.Commit()
	}

	got, err := repo.ListBySession(ctx, db, "sess-1")
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Seq != 1 || got[1].Seq != 2 {
		t.Errorf("entries out of order: %v, %v", got[0].Seq, got[1].Seq)
	}
	if got[0].Verdict != domain.VerdictFail {
		t.Errorf("first verdict = %q, want FAIL", got[0].Verdict)
	}
	if got[1].Verdict != domain.VerdictPass {
		t.Errorf("second verdict = %q, want PASS", got[1].Verdict)
	}

	n, err := repo.CountBySession(ctx, db, "sess-1")
	if err != nil {
		t.Fatalf("CountBySession: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}

func TestCritiqueRepo_DuplicateSeqRejected(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := &CritiqueRepo{}

	c := domain.Critique{SessionKey: "sess-1", Seq: 1, AgentName: "ClinicalCritic", Verdict: domain.VerdictPass, CreatedAt: 100}

	tx, _ := db.Begin()
	if err := repo.AppendTx(ctx, tx, c); err != nil {
		t.Fatalf("first AppendTx: %v", err)
	}
	tx.Commit()

	tx2, _ := db.Begin()
	err := repo.AppendTx(ctx, tx2, c)
	tx2.Rollback()
	if err == nil {
		t.Error("expected error appending duplicate seq, got nil")
	}
}

func TestCritiqueRepo_ListEmpty(t *testing.T) {
	db := newTestDB(t)
	repo := &CritiqueRepo{}

	got, err := repo.ListBySession(context.Background(), db, "no-such-session")
	if err != nil {
		t.Fatalf("ListBySession: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}
