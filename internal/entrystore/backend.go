package entrystore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/mindmirror/mindmirror/internal/model"
	"github.com/mindmirror/mindmirror/internal/store"
)

// Mode names the capability of a backend.
type Mode string

const (
	ModeLive     Mode = "live"
	ModeDegraded Mode = "degraded"
)

// Backend is the persistence capability behind an EntryStore. Errors returned
// here never reach EntryStore callers.
type Backend interface {
	Mode() Mode
	Insert(ctx context.Context, e model.EmotionEntry) error
	Query(ctx context.Context, userID, since string) ([]model.EmotionEntry, error)
	DeleteAll(ctx context.Context, userID string) error
}

// LiveBackend persists through a durable store. Every call is bounded by timeout;
// expiry surfaces as ErrTransientStorage.
type LiveBackend struct {
	entries store.Entries
	timeout time.Duration
}

// NewLiveBackend wraps s. A non-positive timeout defaults to 5s.
func NewLiveBackend(s store.Store, timeout time.Duration) *LiveBackend {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &LiveBackend{entries: s.Entries(), timeout: timeout}
}

func (b *LiveBackend) Mode() Mode { return ModeLive }

func (b *LiveBackend) Insert(ctx context.Context, e model.EmotionEntry) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	return transient(b.entries.Create(ctx, &e))
}

func (b *LiveBackend) Query(ctx context.Context, userID, since string) ([]model.EmotionEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	out, err := b.entries.ListSince(ctx, userID, since)
	return out, transient(err)
}

func (b *LiveBackend) DeleteAll(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	_, err := b.entries.DeleteByUser(ctx, userID)
	return transient(err)
}

func transient(err error) error {
	if err == nil {
		return nil
	}
	return errors.Wrapf(model.ErrTransientStorage, "%v", err)
}

// DegradedBackend keeps entries in process memory. It is selected when no
// durable store could be opened at startup; contents are lost on restart.
type DegradedBackend struct {
	mu      sync.RWMutex
	entries []model.EmotionEntry
}

func NewDegradedBackend() *DegradedBackend { return &DegradedBackend{} }

func (b *DegradedBackend) Mode() Mode { return ModeDegraded }

func (b *DegradedBackend) Insert(_ context.Context, e model.EmotionEntry) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, e)
	return nil
}

func (b *DegradedBackend) Query(_ context.Context, userID, since string) ([]model.EmotionEntry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := []model.EmotionEntry{}
	for _, e := range b.entries {
		if e.UserID == userID && e.Timestamp >= since {
			out = append(out, e)
		}
	}
	return out, nil
}

func (b *DegradedBackend) DeleteAll(_ context.Context, userID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.entries[:0]
	for _, e := range b.entries {
		if e.UserID != userID {
			kept = append(kept, e)
		}
	}
	b.entries = kept
	return nil
}

// sortNewestFirst orders entries by timestamp descending. Equal timestamps keep
// their relative order.
func sortNewestFirst(entries []model.EmotionEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})
}
