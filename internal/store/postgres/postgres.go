package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"

	"github.com/mindmirror/mindmirror/internal/model"
	"github.com/mindmirror/mindmirror/internal/store"
)

// Outbox operations written alongside entry mutations.
const (
	OpUpsertEntry = "upsert_entry"
	OpDeleteUser  = "delete_user"
)

// Open opens a PostgreSQL connection using the pgx stdlib driver and verifies connectivity.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is empty")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// NewWithDB constructs a Postgres store backed directly by database/sql.
func NewWithDB(db *sql.DB) store.Store { return &pgStore{db: db} }

type pgStore struct{ db *sql.DB }

func (s *pgStore) Entries() store.Entries { return &entries{db: s.db} }

// HealthPing implements health.HealthPinger.
func (s *pgStore) HealthPing(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Bootstrap verifies connectivity and makes sure the schema exists.
func Bootstrap(ctx context.Context, dsn string) error {
	if dsn == "" {
		return nil
	}

	db, err := Open(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return err
	}
	return EnsureSchema(ctx, db)
}

type entries struct{ db *sql.DB }

func (e *entries) Create(ctx context.Context, me *model.EmotionEntry) error {
	tx, err := e.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback() }()

	var metaJSON []byte
	if me.Metadata != nil {
		if metaJSON, err = json.Marshal(me.Metadata); err != nil {
			return errors.Wrap(err, "marshal metadata")
		}
	}
	if _, err := tx.ExecContext(ctx, `
        INSERT INTO emotion_entries (entry_id, user_id, ts, transcript, mood, summary, reflection, confidence, metadata)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
    `, uuid.New().String(), me.UserID, me.Timestamp, me.Transcript, me.Mood, me.Summary, me.Reflection, me.Confidence, nullIfEmpty(metaJSON)); err != nil {
		return errors.Wrap(err, "insert entry")
	}

	payload := map[string]interface{}{
		"user_id":    me.UserID,
		"timestamp":  me.Timestamp,
		"transcript": me.Transcript,
		"mood":       me.Mood,
		"summary":    me.Summary,
		"reflection": me.Reflection,
		"confidence": me.Confidence,
	}
	if err := writeOutbox(ctx, tx, OpUpsertEntry, me.ID(), payload); err != nil {
		return errors.Wrap(err, "outbox")
	}
	return tx.Commit()
}

func (e *entries) ListSince(ctx context.Context, userID, since string) ([]model.EmotionEntry, error) {
	rows, err := e.db.QueryContext(ctx, `
        SELECT user_id, ts, transcript, mood, summary, reflection, confidence, metadata
        FROM emotion_entries
        WHERE user_id=$1 AND ts >= $2
        ORDER BY ts DESC
    `, userID, since)
	if err != nil {
		return nil, errors.Wrap(err, "query entries")
	}
	defer func() { _ = rows.Close() }()

	out := []model.EmotionEntry{}
	for rows.Next() {
		var me model.EmotionEntry
		var conf sql.NullFloat64
		var meta []byte
		if err := rows.Scan(&me.UserID, &me.Timestamp, &me.Transcript, &me.Mood, &me.Summary, &me.Reflection, &conf, &meta); err != nil {
			return nil, errors.Wrap(err, "scan entry")
		}
		me.Confidence = model.DefaultConfidence
		if conf.Valid {
			me.Confidence = conf.Float64
		}
		if len(meta) > 0 {
			_ = json.Unmarshal(meta, &me.Metadata)
		}
		out = append(out, me)
	}
	return out, rows.Err()
}

func (e *entries) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	tx, err := e.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, errors.Wrap(err, "begin")
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM emotion_entries WHERE user_id=$1`, userID)
	if err != nil {
		return 0, errors.Wrap(err, "delete entries")
	}
	n, _ := res.RowsAffected()

	if err := writeOutbox(ctx, tx, OpDeleteUser, userID, map[string]interface{}{"user_id": userID}); err != nil {
		return 0, errors.Wrap(err, "outbox")
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

func writeOutbox(ctx context.Context, tx *sql.Tx, op string, aggregateID string, payload map[string]interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO outbox (aggregate_id, op, payload) VALUES ($1,$2,$3)`, aggregateID, op, b)
	return err
}

func nullIfEmpty(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
