package factory

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/mindmirror/mindmirror/internal/config"
	"github.com/mindmirror/mindmirror/internal/entrystore"
	storepkg "github.com/mindmirror/mindmirror/internal/store"
	storepg "github.com/mindmirror/mindmirror/internal/store/postgres"
	storesqlite "github.com/mindmirror/mindmirror/internal/store/sqlite"
)

// Storage is the entry persistence chosen at startup.
type Storage struct {
	Backend entrystore.Backend
	// Store is nil for the degraded backend.
	Store storepkg.Store
	// Outbox is true when committed writes reach the search index through the outbox.
	Outbox bool
	db     *sql.DB
}

// Close releases the database handle, if any.
func (s Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// NewStorage opens the configured durable store. Any failure to open or
// bootstrap it selects the in-memory degraded backend instead; the service
// keeps running either way.
func NewStorage(ctx context.Context, cfg *config.Config, log zerolog.Logger) Storage {
	degraded := Storage{Backend: entrystore.NewDegradedBackend()}

	switch cfg.DBDriver {
	case config.DriverMemory:
		log.Info().Msg("entry store running in memory; entries will not survive a restart")
		return degraded

	case config.DriverSQLite:
		db, err := storesqlite.Open(cfg.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.SQLitePath).Msg("sqlite unavailable; falling back to in-memory entry store")
			return degraded
		}
		st := storesqlite.NewWithDB(db)
		return Storage{Backend: entrystore.NewLiveBackend(st, cfg.StorageTimeout()), Store: st, db: db}

	case config.DriverPostgres:
		if cfg.PostgresDSN == "" {
			log.Warn().Msg("MINDMIRROR_POSTGRES_DSN not set; falling back to in-memory entry store")
			return degraded
		}
		bctx, cancel := context.WithTimeout(ctx, cfg.BootstrapTimeout())
		defer cancel()
		if err := storepg.Bootstrap(bctx, cfg.PostgresDSN); err != nil {
			log.Warn().Err(err).Msg("postgres bootstrap failed; falling back to in-memory entry store")
			return degraded
		}
		db, err := storepg.Open(cfg.PostgresDSN)
		if err != nil {
			log.Warn().Err(err).Msg("postgres unavailable; falling back to in-memory entry store")
			return degraded
		}
		st := storepg.NewWithDB(db)
		return Storage{Backend: entrystore.NewLiveBackend(st, cfg.StorageTimeout()), Store: st, Outbox: true, db: db}
	}

	log.Warn().Str("driver", cfg.DBDriver).Msg("unknown DB_DRIVER; falling back to in-memory entry store")
	return degraded
}
