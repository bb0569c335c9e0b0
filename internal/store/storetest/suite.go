package storetest

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/mindmirror/mindmirror/internal/model"
	"github.com/mindmirror/mindmirror/internal/store"
)

// Run exercises a compliance suite against a store.Store implementation.
// Implementations should provide a clean, isolated store and return it from makeStore.
func Run(t *testing.T, makeStore func(t *testing.T) store.Store) {
	t.Helper()

	s := makeStore(t)
	ctx := context.Background()

	userID := "u-" + uuid.New().String()
	other := "u-" + uuid.New().String()

	mk := func(user, ts, mood string) *model.EmotionEntry {
		return &model.EmotionEntry{
			UserID:     user,
			Timestamp:  ts,
			Transcript: "today was " + mood,
			Mood:       mood,
			Summary:    "summary",
			Reflection: "reflection?",
			Confidence: 0.9,
			Metadata:   map[string]interface{}{"source": "storetest"},
		}
	}

	for _, e := range []*model.EmotionEntry{
		mk(userID, "2024-01-01T09:00:00.000000", "happy"),
		mk(userID, "2024-01-03T09:00:00.000000", "sad"),
		mk(userID, "2024-01-02T09:00:00.000000", "calm"),
		// Duplicate (user, timestamp) is accepted.
		mk(userID, "2024-01-02T09:00:00.000000", "calm"),
		mk(other, "2024-01-02T09:00:00.000000", "angry"),
	} {
		if err := s.Entries().Create(ctx, e); err != nil {
			t.Fatalf("Create %s/%s: %v", e.UserID, e.Timestamp, err)
		}
	}

	// ListSince: filter and descending order
	got, err := s.Entries().ListSince(ctx, userID, "2024-01-02T00:00:00.000000")
	if err != nil {
		t.Fatalf("ListSince: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListSince: want 3 entries, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i-1].Timestamp < got[i].Timestamp {
			t.Fatalf("ListSince: not descending at %d: %s < %s", i, got[i-1].Timestamp, got[i].Timestamp)
		}
	}
	if got[0].Mood != "sad" || got[0].UserID != userID {
		t.Fatalf("ListSince: newest entry mismatch: %+v", got[0])
	}
	if got[0].Confidence != 0.9 {
		t.Fatalf("ListSince: confidence round-trip: %v", got[0].Confidence)
	}
	if got[0].Metadata["source"] != "storetest" {
		t.Fatalf("ListSince: metadata round-trip: %v", got[0].Metadata)
	}

	// Inclusive lower bound
	got, err = s.Entries().ListSince(ctx, userID, "2024-01-03T09:00:00.000000")
	if err != nil || len(got) != 1 {
		t.Fatalf("ListSince inclusive: n=%d err=%v", len(got), err)
	}

	// Unknown user yields empty, not error
	got, err = s.Entries().ListSince(ctx, "u-"+uuid.New().String(), "")
	if err != nil || len(got) != 0 {
		t.Fatalf("ListSince unknown user: n=%d err=%v", len(got), err)
	}

	// DeleteByUser scopes to the user and is idempotent
	n, err := s.Entries().DeleteByUser(ctx, userID)
	if err != nil || n != 4 {
		t.Fatalf("DeleteByUser: n=%d err=%v", n, err)
	}
	if n, err = s.Entries().DeleteByUser(ctx, userID); err != nil || n != 0 {
		t.Fatalf("DeleteByUser second call: n=%d err=%v", n, err)
	}
	if got, _ := s.Entries().ListSince(ctx, userID, ""); len(got) != 0 {
		t.Fatalf("entries remain after delete: %d", len(got))
	}
	if got, _ := s.Entries().ListSince(ctx, other, ""); len(got) != 1 {
		t.Fatalf("other user's entries affected: %d", len(got))
	}
}
