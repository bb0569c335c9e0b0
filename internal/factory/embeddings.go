package factory

import (
	"context"

	oa "github.com/openai/openai-go"
	"github.com/rs/zerolog"

	"github.com/mindmirror/mindmirror/internal/config"
	emb "github.com/mindmirror/mindmirror/internal/embeddings"
	"github.com/mindmirror/mindmirror/internal/embeddings/ollama"
	embopenai "github.com/mindmirror/mindmirror/internal/embeddings/openai"
)

// NewEmbeddingProvider creates an embedding provider based on config.
// The openai provider needs a client; without one it degrades to hashing.
// Launches an async warmup; returns the provider immediately.
func NewEmbeddingProvider(ctx context.Context, cfg *config.Config, client *oa.Client, log zerolog.Logger) emb.Provider {
	var provider emb.Provider

	switch cfg.EmbedProvider {
	case config.EmbedOllama:
		provider = ollama.New(cfg.OllamaURL, cfg.EmbedModel)
	case config.EmbedOpenAI:
		if client == nil {
			log.Warn().Msg("openai embeddings requested without an API key; using hash embeddings")
			return emb.NewHashProvider()
		}
		provider = embopenai.New(client, cfg.EmbedModel)
	default:
		return emb.NewHashProvider()
	}

	go func() {
		warmupCtx, cancel := context.WithTimeout(ctx, cfg.BootstrapTimeout())
		defer cancel()

		if vec, err := provider.Embed(warmupCtx, "factory-warmup-check"); err != nil || len(vec) == 0 {
			log.Warn().Err(err).Int("vec_len", len(vec)).
				Str("provider", cfg.EmbedProvider).Str("model", cfg.EmbedModel).
				Msg("embedding provider warmup failed")
		} else {
			log.Debug().Str("provider", cfg.EmbedProvider).Str("model", cfg.EmbedModel).
				Msg("embedding provider warmup completed")
		}
	}()

	return provider
}
