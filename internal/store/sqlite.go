// Package store provides SQLite-backed persistence for the Foundry Engine.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// schemaV1 defines the initial database schema.
const schemaV1 = `
CREATE TABLE IF NOT EXISTS sessions (
	session_key      TEXT PRIMARY KEY,
	mission_text     TEXT NOT NULL,
	current_draft    TEXT NOT NULL DEFAULT '',
	iteration_count  INTEGER NOT NULL DEFAULT 0,
	phase            TEXT NOT NULL DEFAULT 'drafting',
	last_node        TEXT NOT NULL DEFAULT '',
	risk_flagged     INTEGER NOT NULL DEFAULT 0,
	pending_feedback TEXT NOT NULL DEFAULT '',
	last_error       TEXT NOT NULL DEFAULT '',
	state_version    INTEGER NOT NULL DEFAULT 1,
	schema_version   INTEGER NOT NULL DEFAULT 1,
	last_event_seq   INTEGER NOT NULL DEFAULT 0,
	updated_at_unix  INTEGER NOT NULL DEFAULT 0,
	created_at_unix  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS critiques (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_key TEXT NOT NULL,
	seq         INTEGER NOT NULL,
	agent_name  TEXT NOT NULL,
	score       INTEGER NOT NULL DEFAULT 0,
	feedback    TEXT NOT NULL DEFAULT '',
	verdict     TEXT NOT NULL,
	created_at  INTEGER NOT NULL,
	UNIQUE(session_key, seq)
);
CREATE INDEX IF NOT EXISTS idx_critiques_session_seq ON critiques(session_key, seq);

CREATE TABLE IF NOT EXISTS assessments (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	session_key   TEXT NOT NULL,
	round         INTEGER NOT NULL DEFAULT 0,
	safe          INTEGER NOT NULL DEFAULT 0,
	escalate      INTEGER NOT NULL DEFAULT 0,
	harm_category TEXT NOT NULL DEFAULT '',
	reasoning     TEXT NOT NULL DEFAULT '',
	created_at    INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_assessments_session ON assessments(session_key);

CREATE TABLE IF NOT EXISTS session_events (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	session_key  TEXT NOT NULL,
	seq_no       INTEGER NOT NULL,
	node         TEXT NOT NULL DEFAULT '',
	event_type   TEXT NOT NULL,
	payload_json TEXT NOT NULL DEFAULT '{}',
	created_at   INTEGER NOT NULL,
	UNIQUE(session_key, seq_no)
);
CREATE INDEX IF NOT EXISTS idx_events_session_seq ON session_events(session_key, seq_no);

CREATE TABLE IF NOT EXISTS alerts (
	alert_id    TEXT PRIMARY KEY,
	session_key TEXT NOT NULL UNIQUE,
	reason      TEXT NOT NULL DEFAULT '',
	excerpt     TEXT NOT NULL DEFAULT '',
	delivered   INTEGER NOT NULL DEFAULT 0,
	created_at  INTEGER NOT NULL
);
`

// NewDB opens a SQLite database at the given path with recommended pragmas
// and runs the V1 schema migration.
func NewDB(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Limit connections to 1 for SQLite (WAL allows concurrent reads but single writer).
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return db, nil
}

func migrate(db *sql.DB) error {
	_, err := db.ExecContext(context.Background(), schemaV1)
	return err
}
