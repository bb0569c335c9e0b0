// Package embeddings turns entry text into vectors for the similarity index.
package embeddings

import (
	"context"
	"crypto/md5"
)

// Provider produces vector representations for text.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// HashDimensions matches the width of common hosted embedding models so hash
// vectors can share an index with real ones during local development.
const HashDimensions = 1536

// HashProvider derives a deterministic vector from the md5 of the text: each of
// the 16 digest bytes scaled to [0,1], tiled to HashDimensions. It needs no
// network and carries no semantics beyond exact-match.
type HashProvider struct{}

func NewHashProvider() HashProvider { return HashProvider{} }

func (HashProvider) Embed(_ context.Context, text string) ([]float32, error) {
	sum := md5.Sum([]byte(text))
	vec := make([]float32, HashDimensions)
	for i := range vec {
		vec[i] = float32(sum[i%len(sum)]) / 255.0
	}
	return vec, nil
}

// HealthPing implements health.HealthPinger; hashing cannot fail.
func (HashProvider) HealthPing(context.Context) error { return nil }

// EntryText is the text embedded for an entry.
func EntryText(transcript, mood string) string {
	return transcript + " " + mood
}
