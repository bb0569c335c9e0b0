package outbox

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindmirror/mindmirror/internal/embeddings"
	"github.com/mindmirror/mindmirror/internal/model"
	"github.com/mindmirror/mindmirror/internal/store/postgres"
)

type recordingIndex struct {
	mu        sync.Mutex
	upserts   []model.EmotionEntry
	vecLens   []int
	deletes   []string
	failFirst int
	calls     int
}

func (r *recordingIndex) Search(context.Context, string, string, []float32, int, float32) ([]model.SearchHit, error) {
	return nil, nil
}

func (r *recordingIndex) UpsertEntry(_ context.Context, e model.EmotionEntry, vec []float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.calls <= r.failFirst {
		return errors.New("transient")
	}
	r.upserts = append(r.upserts, e)
	r.vecLens = append(r.vecLens, len(vec))
	return nil
}

func (r *recordingIndex) DeleteUser(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes = append(r.deletes, userID)
	return nil
}

func newTestWorker(idx *recordingIndex) *Worker {
	return NewWorker(nil, embeddings.NewHashProvider(), idx, Config{RetryBudget: time.Second}, zerolog.Nop())
}

func TestHandle_UpsertEntryEmbedsAndIndexes(t *testing.T) {
	idx := &recordingIndex{}
	w := newTestWorker(idx)

	payload := []byte(`{"user_id":"u1","timestamp":"2024-01-01T10:00:00","transcript":"long day","mood":"tired","summary":"s","reflection":"r","confidence":0.7}`)
	err := w.handle(context.Background(), job{id: 1, op: postgres.OpUpsertEntry, aggregateID: "u1_2024-01-01T10:00:00", payload: payload})
	require.NoError(t, err)

	require.Len(t, idx.upserts, 1)
	assert.Equal(t, "tired", idx.upserts[0].Mood)
	assert.InDelta(t, 0.7, idx.upserts[0].Confidence, 1e-9)
	assert.Equal(t, embeddings.HashDimensions, idx.vecLens[0])
}

func TestHandle_RetriesTransientIndexErrors(t *testing.T) {
	idx := &recordingIndex{failFirst: 2}
	w := newTestWorker(idx)

	payload := []byte(`{"user_id":"u1","timestamp":"2024-01-01T10:00:00","mood":"calm"}`)
	require.NoError(t, w.handle(context.Background(), job{op: postgres.OpUpsertEntry, payload: payload}))
	assert.Equal(t, 3, idx.calls)
	assert.Len(t, idx.upserts, 1)
}

func TestHandle_DeleteUserFallsBackToAggregateID(t *testing.T) {
	idx := &recordingIndex{}
	w := newTestWorker(idx)

	require.NoError(t, w.handle(context.Background(), job{op: postgres.OpDeleteUser, aggregateID: "u9", payload: []byte(`{}`)}))
	require.NoError(t, w.handle(context.Background(), job{op: postgres.OpDeleteUser, aggregateID: "ignored", payload: []byte(`{"user_id":"u2"}`)}))
	assert.Equal(t, []string{"u9", "u2"}, idx.deletes)
}

func TestHandle_RejectsBadInput(t *testing.T) {
	idx := &recordingIndex{}
	w := newTestWorker(idx)

	err := w.handle(context.Background(), job{op: postgres.OpUpsertEntry, payload: []byte(`not json`)})
	assert.ErrorIs(t, err, errBadPayload)

	err = w.handle(context.Background(), job{op: postgres.OpUpsertEntry, payload: []byte(`{"mood":"x"}`)})
	assert.ErrorIs(t, err, errBadPayload)

	err = w.handle(context.Background(), job{op: "reindex_all", payload: []byte(`{}`)})
	assert.Error(t, err)
	assert.Empty(t, idx.upserts)
}

func TestAttemptLimit(t *testing.T) {
	w := newTestWorker(&recordingIndex{})
	assert.Equal(t, 20, w.cfg.MaxAttempts)
	assert.Equal(t, 20, w.attemptLimit(errors.New("weaviate unavailable")))

	err := w.handle(context.Background(), job{id: 7, op: postgres.OpUpsertEntry, payload: []byte(`{"mood":"sad"}`)})
	require.ErrorIs(t, err, errBadPayload)
	assert.Equal(t, 1, w.attemptLimit(err))

	capped := NewWorker(nil, nil, &recordingIndex{}, Config{MaxAttempts: 3}, zerolog.Nop())
	assert.Equal(t, 3, capped.attemptLimit(errors.New("x")))
}
