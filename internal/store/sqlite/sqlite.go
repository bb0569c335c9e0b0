// Package sqlite is the single-node entry store used for local builds.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/mindmirror/mindmirror/internal/model"
	"github.com/mindmirror/mindmirror/internal/store"
)

// Open opens (or creates) a SQLite database at the given path with WAL enabled
// and applies the schema.
func Open(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := EnsureSchema(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// EnsureSchema creates the entries table if it does not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS EmotionEntries (
            EntryId      TEXT PRIMARY KEY,
            UserId       TEXT NOT NULL,
            Ts           TEXT NOT NULL,
            Transcript   TEXT NOT NULL DEFAULT '',
            Mood         TEXT NOT NULL,
            Summary      TEXT NOT NULL DEFAULT '',
            Reflection   TEXT NOT NULL DEFAULT '',
            Confidence   REAL,
            Metadata     TEXT,
            CreationTime TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`CREATE INDEX IF NOT EXISTS EmotionEntriesUserTs ON EmotionEntries (UserId, Ts);`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}

// NewWithDB wires a store around an existing connection.
func NewWithDB(db *sql.DB) store.Store { return &sqliteStore{db: db} }

type sqliteStore struct{ db *sql.DB }

func (s *sqliteStore) Entries() store.Entries { return &entries{db: s.db} }

// HealthPing implements health.HealthPinger.
func (s *sqliteStore) HealthPing(ctx context.Context) error { return s.db.PingContext(ctx) }

type entries struct{ db *sql.DB }

func (e *entries) Create(ctx context.Context, me *model.EmotionEntry) error {
	var meta interface{}
	if me.Metadata != nil {
		b, err := json.Marshal(me.Metadata)
		if err != nil {
			return errors.Wrap(err, "marshal metadata")
		}
		meta = string(b)
	}
	_, err := e.db.ExecContext(ctx, `
        INSERT INTO EmotionEntries (EntryId, UserId, Ts, Transcript, Mood, Summary, Reflection, Confidence, Metadata)
        VALUES (?,?,?,?,?,?,?,?,?)
    `, uuid.New().String(), me.UserID, me.Timestamp, me.Transcript, me.Mood, me.Summary, me.Reflection, me.Confidence, meta)
	return errors.Wrap(err, "insert entry")
}

// SQLite compares TEXT with the BINARY collation by default, which matches
// byte-wise ordering of the timestamps.
func (e *entries) ListSince(ctx context.Context, userID, since string) ([]model.EmotionEntry, error) {
	rows, err := e.db.QueryContext(ctx, `
        SELECT UserId, Ts, Transcript, Mood, Summary, Reflection, Confidence, Metadata
        FROM EmotionEntries
        WHERE UserId=? AND Ts >= ?
        ORDER BY Ts DESC
    `, userID, since)
	if err != nil {
		return nil, errors.Wrap(err, "query entries")
	}
	defer func() { _ = rows.Close() }()

	out := []model.EmotionEntry{}
	for rows.Next() {
		var me model.EmotionEntry
		var conf sql.NullFloat64
		var meta sql.NullString
		if err := rows.Scan(&me.UserID, &me.Timestamp, &me.Transcript, &me.Mood, &me.Summary, &me.Reflection, &conf, &meta); err != nil {
			return nil, errors.Wrap(err, "scan entry")
		}
		me.Confidence = model.DefaultConfidence
		if conf.Valid {
			me.Confidence = conf.Float64
		}
		if meta.Valid && meta.String != "" {
			_ = json.Unmarshal([]byte(meta.String), &me.Metadata)
		}
		out = append(out, me)
	}
	return out, rows.Err()
}

func (e *entries) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	res, err := e.db.ExecContext(ctx, `DELETE FROM EmotionEntries WHERE UserId=?`, userID)
	if err != nil {
		return 0, errors.Wrap(err, "delete entries")
	}
	n, _ := res.RowsAffected()
	return n, nil
}
