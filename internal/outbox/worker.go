// Package outbox applies committed entry-store changes to the search index.
package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"github.com/mindmirror/mindmirror/internal/embeddings"
	"github.com/mindmirror/mindmirror/internal/metrics"
	"github.com/mindmirror/mindmirror/internal/model"
	"github.com/mindmirror/mindmirror/internal/searchindex"
	"github.com/mindmirror/mindmirror/internal/store/postgres"
)

const (
	selectReadyRowsSQL = `
SELECT id, op, payload, aggregate_id
FROM outbox
WHERE status = 'pending' AND next_attempt_at <= now()
ORDER BY id ASC
FOR UPDATE SKIP LOCKED
LIMIT $1`

	markDoneSQL = `UPDATE outbox SET status='done', update_time=now() WHERE id=$1`

	// A row whose attempt count reaches $2 is parked as 'dead' and never leased again.
	markFailedSQL = `
UPDATE outbox
SET attempt_count = attempt_count + 1,
    status = CASE WHEN attempt_count + 1 >= $2 THEN 'dead' ELSE status END,
    next_attempt_at = now() + make_interval(secs => LEAST(POWER(2, attempt_count+1), 300)),
    update_time = now()
WHERE id=$1`
)

// Config controls batch size and polling cadence.
type Config struct {
	BatchSize int
	Interval  time.Duration
	// RetryBudget bounds in-process retries of a single index call before the
	// row is handed back to the table-level backoff.
	RetryBudget time.Duration
	// MaxAttempts is how many failed passes a row gets before it is parked.
	MaxAttempts int
}

// Worker processes outbox rows and applies them to the search index.
type Worker struct {
	db       *sql.DB
	log      zerolog.Logger
	embedder embeddings.Provider
	index    searchindex.Index
	cfg      Config
}

func NewWorker(db *sql.DB, emb embeddings.Provider, idx searchindex.Index, cfg Config, log zerolog.Logger) *Worker {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.RetryBudget <= 0 {
		cfg.RetryBudget = 5 * time.Second
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 20
	}
	return &Worker{db: db, log: log, embedder: emb, index: idx, cfg: cfg}
}

// Run starts the polling loop until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().Int("batch", w.cfg.BatchSize).Dur("interval", w.cfg.Interval).Msg("outbox worker starting")
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("outbox worker stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := w.processOnce(ctx); err != nil {
				// per-row backoff prevents hot-looping
				w.log.Error().Err(err).Msg("outbox processOnce")
			}
		}
	}
}

type job struct {
	id          int64
	op          string
	aggregateID string
	payload     []byte
}

func (w *Worker) processOnce(ctx context.Context) error {
	tx, err := w.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	jobs, err := w.leaseBatch(ctx, tx, w.cfg.BatchSize)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return tx.Commit()
	}

	for _, j := range jobs {
		if err := w.handle(ctx, j); err != nil {
			metrics.OutboxJobs.WithLabelValues(j.op, "failed").Inc()
			w.log.Warn().Err(err).Int64("id", j.id).Str("op", j.op).Str("aggregate", j.aggregateID).Msg("outbox job failed")
			if e := w.markFailed(ctx, tx, j.id, w.attemptLimit(err)); e != nil {
				w.log.Error().Err(e).Int64("id", j.id).Msg("markFailed error")
			}
			continue
		}
		metrics.OutboxJobs.WithLabelValues(j.op, "done").Inc()
		if e := w.markDone(ctx, tx, j.id); e != nil {
			w.log.Error().Err(e).Int64("id", j.id).Msg("markDone error")
		}
	}

	return tx.Commit()
}

// leaseBatch locks and returns up to batchSize ready outbox rows.
func (w *Worker) leaseBatch(ctx context.Context, tx *sql.Tx, batchSize int) ([]job, error) {
	rows, err := tx.QueryContext(ctx, selectReadyRowsSQL, batchSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []job
	for rows.Next() {
		var j job
		if err := rows.Scan(&j.id, &j.op, &j.payload, &j.aggregateID); err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

var errBadPayload = errors.New("bad payload")

// handle executes one outbox operation.
func (w *Worker) handle(ctx context.Context, j job) error {
	switch j.op {
	case postgres.OpUpsertEntry:
		var e model.EmotionEntry
		if err := json.Unmarshal(j.payload, &e); err != nil || e.UserID == "" {
			return errBadPayload
		}
		vec, err := w.embed(ctx, embeddings.EntryText(e.Transcript, e.Mood))
		if err != nil {
			return err
		}
		return w.retry(ctx, func() error { return w.index.UpsertEntry(ctx, e, vec) })
	case postgres.OpDeleteUser:
		var p struct {
			UserID string `json:"user_id"`
		}
		if err := json.Unmarshal(j.payload, &p); err != nil {
			return errBadPayload
		}
		if p.UserID == "" {
			p.UserID = j.aggregateID
		}
		return w.retry(ctx, func() error { return w.index.DeleteUser(ctx, p.UserID) })
	default:
		return fmt.Errorf("unknown op: %s", j.op)
	}
}

func (w *Worker) retry(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 100 * time.Millisecond
	bo.MaxElapsedTime = w.cfg.RetryBudget
	return backoff.Retry(op, backoff.WithContext(bo, ctx))
}

func (w *Worker) markDone(ctx context.Context, tx *sql.Tx, id int64) error {
	_, err := tx.ExecContext(ctx, markDoneSQL, id)
	return err
}

func (w *Worker) markFailed(ctx context.Context, tx *sql.Tx, id int64, limit int) error {
	_, err := tx.ExecContext(ctx, markFailedSQL, id, limit)
	return err
}

// attemptLimit is the attempt count at which a failing row is parked. Rows
// that can never succeed are parked on their first failure.
func (w *Worker) attemptLimit(err error) int {
	if errors.Is(err, errBadPayload) {
		return 1
	}
	return w.cfg.MaxAttempts
}

// embed tolerates a nil embedder; the index then stores the entry without a vector.
func (w *Worker) embed(ctx context.Context, text string) ([]float32, error) {
	if w.embedder == nil {
		return nil, nil
	}
	return w.embedder.Embed(ctx, text)
}
