package store

import (
	"context"
	"testing"

	"github.com/cerina/foundry-engine/internal/domain"
)

func TestSessionRepo_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := &SessionRepo{}

	state := domain.SessionState{
		SessionKey:    "sess-001",
		MissionText:   "protocol for anxiety management",
		Phase:         domain.PhaseDrafting,
		StateVersion:  1,
		SchemaVersion: domain.SchemaVersion,
	}

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin tx: %v", err)
	}
	if err := repo.CreateTx(ctx, tx, state); err != nil {
		t.Fatalf("CreateTx: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit: %v", err)
	}

	got, err := repo.GetByKey(ctx, db, "sess-001")
	if err != nil {
		t.Fatalf("GetByKey: %v", err)
	}
	if got.SessionKey != "sess-001" {
		t.Errorf("SessionKey = %q, want %q", got.SessionKey, "sess-001")
	}
	if got.MissionText != "protocol for anxiety management" {
		t.Errorf("MissionText = %q", got.MissionText)
	}
	if got.Phase != domain.PhaseDrafting {
		t.Errorf("Phase = %q, want drafting", got.Phase)
	}
	if got.StateVersion != 1 {
		t.Errorf("StateVersion = %d, want 1", got.StateVersion)
	}
	if got.SchemaVersion != domain.SchemaVersion {
		t.Errorf("SchemaVersion = %d, want %d", got.SchemaVersion, domain.SchemaVersion)
	}
}

func TestSessionRepo_GetByKey_NotFound(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := &SessionRepo{}

	_, err := repo.GetByKey(ctx, db, "nonexistent")
	if err != domain.ErrSessionNotFound {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionRepo_DuplicateCreate(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := &SessionRepo{}

	state := domain.SessionState{
		SessionKey:   "sess-dup",
		MissionText:  "mission",
		Phase:        domain.PhaseDrafting,
		StateVersion: 1,
	}

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := repo.CreateTx(ctx, tx, state); err != nil {
		t.Fatalf("first CreateTx: %v", err)
	}
	tx.Commit()

	tx2, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	err = repo.CreateTx(ctx, tx2, state)
	tx2.Rollback()

	if err != domain.ErrDuplicateSession {
		t.Errorf("expected ErrDuplicateSession, got %v", err)
	}
}

func TestSessionRepo_UpdateState_OptimisticLock(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := &SessionRepo{}

	state := domain.SessionState{
		SessionKey:   "sess-002",
		MissionText:  "mission",
		Phase:        domain.PhaseDrafting,
		StateVersion: 1,
	}

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := repo.CreateTx(ctx, tx, state); err != nil {
		t.Fatalf("CreateTx: %v", err)
	}
	tx.Commit()

	// Update with the loaded version succeeds and bumps the version.
	state.Phase = domain.PhaseReviewing
	state.CurrentDraft = "draft v1"
	tx2, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := repo.UpdateStateTx(ctx, tx2, state); err != nil {
		t.Fatalf("UpdateStateTx: %v", err)
	}
	tx2.Commit()

	got, err := repo.GetByKey(ctx, db, "sess-002")
	if err != nil {
		t.Fatalf("GetByKey: %v", err)
	}
	if got.StateVersion != 2 {
		t.Errorf("StateVersion = %d after update, want 2", got.StateVersion)
	}
	if got.CurrentDraft != "draft v1" {
		t.Errorf("CurrentDraft = %q", got.CurrentDraft)
	}

	// Update with the stale version fails.
	state.Phase = domain.PhaseAwaitingHuman
	// state.StateVersion is still 1 but the row is now 2.
	tx3, err := db.Begin()
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	err = repo.UpdateStateTx(ctx, tx3, state)
	tx3.Rollback()

	if err != domain.ErrOptimisticLock {
		t.Errorf("expected ErrOptimisticLock, got %v", err)
	}
}

func TestSessionRepo_RoundTripsFlagsAndFeedback(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := &SessionRepo{}

	state := domain.SessionState{
		SessionKey:      "sess-003",
		MissionText:     "mission",
		Phase:           domain.PhaseReviewing,
		LastNode:        domain.NodeSafetyGuardian,
		RiskFlagged:     true,
		PendingFeedback: "needs more warmth",
		LastError:       "transient adapter failure",
		StateVersion:    1,
	}

	tx, _ := db.Begin()
	if err := repo.CreateTx(ctx, tx, state); err != nil {
		t.Fatalf("CreateTx: %v", err)
	}
	tx.Commit()

	got, err := repo.GetByKey(ctx, db, "sess-003")
	if err != nil {
		t.Fatalf("GetByKey: %v", err)
	}
	if !got.RiskFlagged {
		t.Error("RiskFlagged not persisted")
	}
	if got.LastNode != domain.NodeSafetyGuardian {
		t.Errorf("LastNode = %q", got.LastNode)
	}
	if got.PendingFeedback != "needs more warmth" {
		t.Errorf("PendingFeedback = %q", got.PendingFeedback)
	}
	if got.LastError != "transient adapter failure" {
		t.Errorf("LastError = %q", got.LastError)
	}
}
