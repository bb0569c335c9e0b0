package mindmirrorservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/mindmirror/mindmirror/internal/api"
	"github.com/mindmirror/mindmirror/internal/config"
	"github.com/mindmirror/mindmirror/internal/digest"
	emb "github.com/mindmirror/mindmirror/internal/embeddings"
	"github.com/mindmirror/mindmirror/internal/entrystore"
	"github.com/mindmirror/mindmirror/internal/factory"
	"github.com/mindmirror/mindmirror/internal/health"
	"github.com/mindmirror/mindmirror/internal/logger"
	"github.com/mindmirror/mindmirror/internal/searchindex"
	"github.com/mindmirror/mindmirror/internal/services"
	"github.com/mindmirror/mindmirror/internal/store"
)

// Run starts the MindMirror HTTP service and blocks until shutdown or error.
func Run() error {
	cfg, err := config.New()
	if err != nil {
		logger.New("mindmirror-service").Error().Err(err).Msg("Failed to load configuration")
		return err
	}
	var logOpts []logger.Option
	logOpts = append(logOpts, logger.WithLevel(cfg.LogLevel))
	if !cfg.IsProduction() {
		logOpts = append(logOpts, logger.WithConsole())
	}
	log := logger.New("mindmirror-service", logOpts...)

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Str("search_index_url", cfg.SearchIndexURL).
		Str("embed_provider", cfg.EmbedProvider).
		Msg("MindMirror service starting")

	ctx, stop := newServerContext()
	defer stop()

	storage := factory.NewStorage(ctx, cfg, log)
	defer func() { _ = storage.Close() }()

	engine, oaClient := factory.NewAnalysisEngine(cfg, log)

	idx, err := factory.NewSearchIndex(ctx, cfg, log)
	if err != nil {
		// similarity search is optional; run without it
		log.Warn().Err(err).Msg("search index unavailable")
		idx = nil
	}
	var embedder emb.Provider
	if idx != nil {
		embedder = factory.NewEmbeddingProvider(ctx, cfg, oaClient, log)
	}

	entries := entrystore.New(storage.Backend, log)
	opts := []services.Option{}
	if idx != nil {
		// without the outbox nothing else keeps the index current
		opts = append(opts, services.WithSearchIndex(idx, embedder, !storage.Outbox, cfg.IndexTimeout()))
	}
	journal := services.NewJournalService(entries, engine, log, opts...)

	svcHealth := startHealthCheckers(ctx, cfg, log, storage, idx, embedder)
	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	if cfg.DigestEnabled() {
		d := digest.New(journal, cfg.SlackWebhookURL, cfg.DigestUsers, cfg.DigestWindowDays, log)
		if err := d.Start(ctx, cfg.DigestCron); err != nil {
			log.Error().Err(err).Msg("digest disabled")
		}
	}

	handler := api.NewHandler(api.Deps{
		Journal:        journal,
		Health:         svcHealth,
		AllowedOrigins: cfg.AllowedOrigins,
		Log:            log,
	})
	server := newHTTPServer(ctx, cfg, handler)
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("Server forced to shutdown")
			return err
		}
		log.Info().Msg("Server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// startHealthCheckers starts component checkers and the service-level aggregator.
// Only the entry store gates service health; the index and embedder are reported.
func startHealthCheckers(ctx context.Context, cfg *config.Config, log zerolog.Logger, storage factory.Storage, idx searchindex.Index, embedder emb.Provider) *health.ServiceHealthChecker {
	probeTimeout := cfg.HealthProbeTimeout()
	interval := cfg.HealthInterval()

	var storeChecker health.HealthChecker
	if storage.Store != nil {
		storeChecker = store.NewStoreHealthChecker(storage.Store, log, probeTimeout)
	} else {
		// the in-memory backend cannot fail
		storeChecker = health.NewStaticChecker("store", true)
	}
	go storeChecker.Start(ctx, interval)

	var optional []health.HealthChecker
	if idx != nil {
		idxChecker := searchindex.NewSearchIndexHealthChecker(idx, log, probeTimeout)
		go idxChecker.Start(ctx, interval)
		optional = append(optional, idxChecker)
	}
	if embedder != nil {
		embChecker := emb.NewProviderHealthChecker(embedder, log, probeTimeout)
		go embChecker.Start(ctx, interval)
		optional = append(optional, embChecker)
	}

	svcHealth := health.NewServiceHealthChecker(log, storeChecker).WithOptional(optional...)
	go svcHealth.Start(ctx, interval)
	return svcHealth
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	// uploads and model calls need more than the usual write window
	writeTimeout := cfg.AnalysisTimeout() + 15*time.Second
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// calculateStartupHealthTimeout returns the startup health timeout in seconds,
// calculated as interval*2 with a minimum of 60 seconds.
func calculateStartupHealthTimeout(healthIntervalSeconds int) int {
	timeout := healthIntervalSeconds * 2
	if timeout < 60 {
		return 60
	}
	return timeout
}

// waitUntilHealthy blocks until service health is healthy or the startup window expires.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	timeoutSeconds := calculateStartupHealthTimeout(cfg.HealthIntervalSeconds)
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %d seconds", timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context that is cancelled on SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
