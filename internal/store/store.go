package store

import (
	"context"

	"github.com/mindmirror/mindmirror/internal/model"
)

// Store exposes persistence operations required by services.
// Implementations live under internal/store/<driver>/ (postgres, sqlite).
type Store interface {
	Entries() Entries
}

// Entries persists immutable emotion entries keyed by user.
type Entries interface {
	// Create appends an entry. Duplicate (user_id, timestamp) pairs are accepted.
	Create(ctx context.Context, e *model.EmotionEntry) error
	// ListSince returns the user's entries with timestamp >= since, newest first.
	ListSince(ctx context.Context, userID, since string) ([]model.EmotionEntry, error)
	// DeleteByUser removes every entry of the user and reports how many were removed.
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}
