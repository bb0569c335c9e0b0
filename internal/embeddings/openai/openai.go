// Package openai embeds text with the OpenAI embeddings endpoint.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
)

type Provider struct {
	client *openai.Client
	model  string
}

// New wraps an existing client. model defaults to text-embedding-3-small.
func New(client *openai.Client, model string) *Provider {
	if model == "" {
		model = string(openai.EmbeddingModelTextEmbedding3Small)
	}
	return &Provider{client: client, model: model}
}

func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("empty text")
	}
	resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(p.model),
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("openai embeddings: empty response")
	}
	src := resp.Data[0].Embedding
	vec := make([]float32, len(src))
	for i, v := range src {
		vec[i] = float32(v)
	}
	return vec, nil
}
