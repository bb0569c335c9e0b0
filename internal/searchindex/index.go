// Package searchindex keeps a per-user vector index of entries for
// "related reflections" lookups. It is a derived view: the entry store stays
// the source of truth and the outbox worker keeps this index in sync.
package searchindex

import (
	"context"

	"github.com/mindmirror/mindmirror/internal/model"
)

// Index provides vector search and index maintenance.
type Index interface {
	Search(ctx context.Context, userID, query string, vec []float32, topK int, alpha float32) ([]model.SearchHit, error)

	// UpsertEntry is idempotent on the entry's natural key.
	UpsertEntry(ctx context.Context, e model.EmotionEntry, vec []float32) error

	// DeleteUser drops every indexed entry of the user. Missing users are not an error.
	DeleteUser(ctx context.Context, userID string) error
}
