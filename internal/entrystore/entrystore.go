// Package entrystore is the fault-tolerant entry repository used by the journal.
// Reads never fail: a backend fault yields an empty result and a warning.
// Writes report success as a bool.
package entrystore

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/mindmirror/mindmirror/internal/metrics"
	"github.com/mindmirror/mindmirror/internal/model"
)

// EntryStore is safe for concurrent use.
type EntryStore struct {
	backend Backend
	log     zerolog.Logger
	now     func() time.Time
}

// New returns an EntryStore over the backend selected at startup.
func New(backend Backend, log zerolog.Logger) *EntryStore {
	return &EntryStore{backend: backend, log: log.With().Str("component", "entrystore").Logger(), now: time.Now}
}

// WithClock overrides the clock used by QueryWindow.
func (s *EntryStore) WithClock(now func() time.Time) *EntryStore {
	s.now = now
	return s
}

// Mode reports the backend capability.
func (s *EntryStore) Mode() Mode { return s.backend.Mode() }

// Available is true when entries survive a restart.
func (s *EntryStore) Available() bool { return s.backend.Mode() == ModeLive }

// Insert appends e and reports whether it was persisted.
func (s *EntryStore) Insert(ctx context.Context, e model.EmotionEntry) bool {
	mode := string(s.backend.Mode())
	if err := s.backend.Insert(ctx, e); err != nil {
		s.log.Warn().Err(err).Str("user_id", e.UserID).Str("mode", mode).Msg("entry insert failed")
		metrics.EntriesStored.WithLabelValues(mode, "failed").Inc()
		return false
	}
	metrics.EntriesStored.WithLabelValues(mode, "ok").Inc()
	s.log.Debug().Str("user_id", e.UserID).Str("mode", mode).Msg("stored emotion entry")
	return true
}

// Query returns the user's entries with timestamp >= since, newest first.
func (s *EntryStore) Query(ctx context.Context, userID, since string) []model.EmotionEntry {
	out, err := s.backend.Query(ctx, userID, since)
	if err != nil {
		mode := string(s.backend.Mode())
		s.log.Warn().Err(err).Str("user_id", userID).Str("mode", mode).Msg("entry query failed; returning empty history")
		metrics.DegradedReads.WithLabelValues(mode).Inc()
		return []model.EmotionEntry{}
	}
	if out == nil {
		out = []model.EmotionEntry{}
	}
	sortNewestFirst(out)
	s.log.Debug().Str("user_id", userID).Int("count", len(out)).Msg("retrieved entries")
	return out
}

// QueryWindow returns entries within [now-days, now]. Negative days count as 0.
func (s *EntryStore) QueryWindow(ctx context.Context, userID string, days int) []model.EmotionEntry {
	if days < 0 {
		days = 0
	}
	now := s.now()
	since := model.FormatTimestamp(now.AddDate(0, 0, -days))
	until := model.FormatTimestamp(now)

	all := s.Query(ctx, userID, since)
	out := all[:0]
	for _, e := range all {
		if e.Timestamp <= until {
			out = append(out, e)
		}
	}
	return out
}

// DeleteAll removes every entry of the user. Idempotent.
func (s *EntryStore) DeleteAll(ctx context.Context, userID string) bool {
	if err := s.backend.DeleteAll(ctx, userID); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("delete user entries failed")
		return false
	}
	s.log.Info().Str("user_id", userID).Msg("deleted all entries for user")
	return true
}
