package searchindex

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mindmirror/mindmirror/internal/model"
)

// Runs against a live Weaviate when MINDMIRROR_WEAVIATE_URL is set (host:port).
func TestWeaviateIndex_UpsertSearchDelete(t *testing.T) {
	url := os.Getenv("MINDMIRROR_WEAVIATE_URL")
	if url == "" {
		t.Skip("MINDMIRROR_WEAVIATE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	require.NoError(t, BootstrapWeaviate(ctx, url))
	idx, err := NewWeaviateIndex(url)
	require.NoError(t, err)

	user := "it_user_" + time.Now().Format("150405")
	vec := make([]float32, 8)
	for i := range vec {
		vec[i] = float32(i) / 8
	}
	e := model.EmotionEntry{UserID: user, Timestamp: "2024-01-01T10:00:00", Transcript: "walked by the sea", Mood: "peaceful", Summary: "calm walk"}
	require.NoError(t, idx.UpsertEntry(ctx, e, vec))
	require.NoError(t, idx.UpsertEntry(ctx, e, vec))

	var hits []model.SearchHit
	require.Eventually(t, func() bool {
		hits, err = idx.Search(ctx, user, "sea", vec, 5, 0.5)
		return err == nil && len(hits) == 1
	}, 10*time.Second, 200*time.Millisecond)
	require.Equal(t, "peaceful", hits[0].Mood)

	require.NoError(t, idx.DeleteUser(ctx, user))
	require.NoError(t, idx.DeleteUser(ctx, user))
}
