package outboxworker

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/mindmirror/mindmirror/internal/config"
	"github.com/mindmirror/mindmirror/internal/factory"
	"github.com/mindmirror/mindmirror/internal/logger"
	"github.com/mindmirror/mindmirror/internal/outbox"
	storepg "github.com/mindmirror/mindmirror/internal/store/postgres"
)

// Run starts the outbox worker and blocks until shutdown or error. It needs
// Postgres (the outbox lives there) and a search index to feed.
func Run() error {
	cfg, err := config.New()
	if err != nil {
		return err
	}
	log := logger.New("mindmirror-outbox-worker", logger.WithLevel(cfg.LogLevel))

	if cfg.PostgresDSN == "" {
		return fmt.Errorf("MINDMIRROR_POSTGRES_DSN is required")
	}
	if cfg.SearchIndexURL == "" {
		return fmt.Errorf("MINDMIRROR_WEAVIATE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bctx, cancel := context.WithTimeout(ctx, cfg.BootstrapTimeout())
	err = storepg.Bootstrap(bctx, cfg.PostgresDSN)
	cancel()
	if err != nil {
		return fmt.Errorf("postgres bootstrap: %w", err)
	}
	db, err := storepg.Open(cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("postgres open: %w", err)
	}
	defer db.Close()

	idx, err := factory.NewSearchIndex(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("search index: %w", err)
	}

	_, oaClient := factory.NewAnalysisEngine(cfg, log)
	emb := factory.NewEmbeddingProvider(ctx, cfg, oaClient, log)
	if vec, err := emb.Embed(ctx, "worker-startup-check"); err != nil || len(vec) == 0 {
		return fmt.Errorf("embedder not ready: provider=%s model=%s err=%v len=%d", cfg.EmbedProvider, cfg.EmbedModel, err, len(vec))
	}

	w := outbox.NewWorker(db, emb, idx, outbox.Config{
		BatchSize:   cfg.OutboxBatchSize,
		Interval:    cfg.OutboxInterval(),
		MaxAttempts: cfg.OutboxMaxAttempts,
		RetryBudget: cfg.IndexTimeout(),
	}, log)

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("outbox worker exit")
		return err
	}
	return nil
}
