package factory

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mindmirror/mindmirror/internal/config"
	"github.com/mindmirror/mindmirror/internal/searchindex"
)

// NewSearchIndex returns nil when no index URL is configured.
// Launches async bootstrap; returns the index immediately for fast startup.
func NewSearchIndex(ctx context.Context, cfg *config.Config, log zerolog.Logger) (searchindex.Index, error) {
	if cfg.SearchIndexURL == "" {
		log.Info().Msg("search index not configured; similar-entry lookups disabled")
		return nil, nil
	}

	idx, err := searchindex.NewWeaviateIndex(cfg.SearchIndexURL)
	if err != nil {
		return nil, err
	}

	go func() {
		bootstrapCtx, cancel := context.WithTimeout(ctx, cfg.BootstrapTimeout())
		defer cancel()

		if err := searchindex.BootstrapWeaviate(bootstrapCtx, cfg.SearchIndexURL); err != nil {
			log.Warn().Err(err).Str("url", cfg.SearchIndexURL).Msg("search index bootstrap failed")
		} else {
			log.Debug().Str("url", cfg.SearchIndexURL).Msg("search index bootstrap completed")
		}
	}()

	return idx, nil
}
