package postgres

import (
	"context"
	"database/sql"
)

// Entry timestamps are ordered with the "C" collation so that SQL comparison
// matches Go's byte-wise string comparison.
var schemaStmts = []string{
	`CREATE TABLE IF NOT EXISTS emotion_entries (
        entry_id      TEXT PRIMARY KEY,
        user_id       TEXT NOT NULL,
        ts            TEXT COLLATE "C" NOT NULL,
        transcript    TEXT NOT NULL DEFAULT '',
        mood          TEXT NOT NULL,
        summary       TEXT NOT NULL DEFAULT '',
        reflection    TEXT NOT NULL DEFAULT '',
        confidence    DOUBLE PRECISION,
        metadata      JSONB,
        creation_time TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE INDEX IF NOT EXISTS emotion_entries_user_ts ON emotion_entries (user_id, ts DESC)`,
	`CREATE TABLE IF NOT EXISTS outbox (
        id              BIGSERIAL PRIMARY KEY,
        aggregate_id    TEXT NOT NULL,
        op              TEXT NOT NULL,
        payload         JSONB NOT NULL,
        status          TEXT NOT NULL DEFAULT 'pending',
        attempt_count   INT NOT NULL DEFAULT 0,
        next_attempt_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        creation_time   TIMESTAMPTZ NOT NULL DEFAULT now(),
        update_time     TIMESTAMPTZ NOT NULL DEFAULT now()
    )`,
	`CREATE INDEX IF NOT EXISTS outbox_ready ON outbox (status, next_attempt_at, id)`,
}

// EnsureSchema creates the tables the store and the outbox worker need.
// Safe to call repeatedly.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
