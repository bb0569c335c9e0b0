package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mindmirror/mindmirror/internal/analysis"
	"github.com/mindmirror/mindmirror/internal/embeddings"
	"github.com/mindmirror/mindmirror/internal/entrystore"
	"github.com/mindmirror/mindmirror/internal/model"
	"github.com/mindmirror/mindmirror/internal/searchindex"
	"github.com/mindmirror/mindmirror/internal/trends"
)

// Default look-back windows in days.
const (
	DefaultHistoryDays = 7
	DefaultTrendDays   = 30
	DefaultSimilarTopK = 5
	MaxSimilarTopK     = 50
)

// similarAlpha weights vector similarity against keyword match in hybrid search.
const similarAlpha float32 = 0.6

var allowedAudioExt = map[string]bool{".wav": true, ".mp3": true, ".m4a": true, ".webm": true}

// ValidAudioFilename reports whether the upload name carries a supported audio extension.
func ValidAudioFilename(name string) bool {
	return allowedAudioExt[strings.ToLower(filepath.Ext(name))]
}

type AnalyzeResult struct {
	Success    bool    `json:"success"`
	Transcript string  `json:"transcript"`
	Mood       string  `json:"mood"`
	Summary    string  `json:"summary"`
	Reflection string  `json:"reflection"`
	Timestamp  string  `json:"timestamp"`
	Confidence float64 `json:"confidence"`
}

type History struct {
	UserID       string               `json:"user_id"`
	Entries      []model.EmotionEntry `json:"entries"`
	Trends       model.TrendSummary   `json:"trends"`
	TotalEntries int                  `json:"total_entries"`
}

type TrendReport struct {
	UserID     string             `json:"user_id"`
	PeriodDays int                `json:"period_days"`
	Trends     model.TrendSummary `json:"trends"`
	Insights   []string           `json:"insights"`
}

type ReflectionResult struct {
	Success    bool   `json:"success"`
	Reflection string `json:"reflection"`
	Timestamp  string `json:"timestamp"`
}

// JournalService orchestrates the voice journal use cases.
type JournalService struct {
	entries *entrystore.EntryStore
	engine  analysis.Engine
	log     zerolog.Logger
	now     func() time.Time

	idx          searchindex.Index
	emb          embeddings.Provider
	directIndex  bool
	indexTimeout time.Duration
}

type Option func(*JournalService)

// WithSearchIndex enables Similar. When direct is true the service also keeps
// the index in step with writes itself; otherwise an outbox worker does.
func WithSearchIndex(idx searchindex.Index, emb embeddings.Provider, direct bool, timeout time.Duration) Option {
	return func(s *JournalService) {
		s.idx = idx
		s.emb = emb
		s.directIndex = direct
		if timeout > 0 {
			s.indexTimeout = timeout
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *JournalService) { s.now = now }
}

func NewJournalService(entries *entrystore.EntryStore, engine analysis.Engine, log zerolog.Logger, opts ...Option) *JournalService {
	s := &JournalService{
		entries:      entries,
		engine:       engine,
		log:          log.With().Str("component", "journal").Logger(),
		now:          time.Now,
		indexTimeout: 5 * time.Second,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// StorageMode reports the entry store's backend capability.
func (s *JournalService) StorageMode() entrystore.Mode { return s.entries.Mode() }

// AnalysisLive reports whether a real model backs analysis.
func (s *JournalService) AnalysisLive() bool { return s.engine.Live() }

// Analyze transcribes and interprets one recording and records the entry.
// A failed insert is logged; the caller still gets the analysis.
func (s *JournalService) Analyze(ctx context.Context, userID, filename string, audio io.Reader) (AnalyzeResult, error) {
	if !ValidAudioFilename(filename) {
		return AnalyzeResult{}, fmt.Errorf("%w: %q", model.ErrInvalidAudio, filename)
	}
	if userID == "" {
		userID = model.DefaultUserID
	}

	transcript, err := s.engine.Transcribe(ctx, filename, audio)
	if err != nil {
		return AnalyzeResult{}, fmt.Errorf("analysis failed: %w", err)
	}
	a := s.engine.Analyze(ctx, transcript)

	entry := model.EmotionEntry{
		UserID:     userID,
		Timestamp:  model.FormatTimestamp(s.now()),
		Transcript: transcript,
		Mood:       a.Mood,
		Summary:    a.Summary,
		Reflection: a.Reflection,
		Confidence: a.Confidence,
	}
	if !s.entries.Insert(ctx, entry) {
		s.log.Warn().Str("user_id", userID).Msg("analysis returned without a stored entry")
	} else if s.directIndex {
		s.indexEntry(ctx, entry)
	}

	return AnalyzeResult{
		Success:    true,
		Transcript: transcript,
		Mood:       a.Mood,
		Summary:    a.Summary,
		Reflection: a.Reflection,
		Timestamp:  entry.Timestamp,
		Confidence: a.Confidence,
	}, nil
}

func (s *JournalService) History(ctx context.Context, userID string, days int) History {
	entries := s.entries.QueryWindow(ctx, userID, days)
	return History{
		UserID:       userID,
		Entries:      entries,
		Trends:       trends.Compute(entries),
		TotalEntries: len(entries),
	}
}

func (s *JournalService) Trends(ctx context.Context, userID string, days int) TrendReport {
	sum := trends.Compute(s.entries.QueryWindow(ctx, userID, days))
	return TrendReport{
		UserID:     userID,
		PeriodDays: days,
		Trends:     sum,
		Insights:   trends.Insights(sum),
	}
}

func (s *JournalService) MoodStatistics(ctx context.Context, userID string, days int) model.MoodStatistics {
	return trends.Statistics(s.entries.QueryWindow(ctx, userID, days))
}

func (s *JournalService) Reflection(ctx context.Context, req model.ReflectionRequest) ReflectionResult {
	return ReflectionResult{
		Success:    true,
		Reflection: s.engine.Reflect(ctx, req),
		Timestamp:  model.FormatTimestamp(s.now()),
	}
}

// DeleteUserData removes every entry of the user; the index is purged best effort.
func (s *JournalService) DeleteUserData(ctx context.Context, userID string) bool {
	ok := s.entries.DeleteAll(ctx, userID)
	if ok && s.directIndex && s.idx != nil {
		ictx, cancel := context.WithTimeout(ctx, s.indexTimeout)
		defer cancel()
		if err := s.idx.DeleteUser(ictx, userID); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("search index purge failed")
		}
	}
	return ok
}

// Similar returns past entries related to text. It is empty when no index is
// configured or the index cannot answer.
func (s *JournalService) Similar(ctx context.Context, userID, text string, limit int) []model.SearchHit {
	if s.idx == nil || userID == "" {
		return []model.SearchHit{}
	}
	if limit <= 0 {
		limit = DefaultSimilarTopK
	}
	if limit > MaxSimilarTopK {
		limit = MaxSimilarTopK
	}

	ctx, cancel := context.WithTimeout(ctx, s.indexTimeout)
	defer cancel()

	var vec []float32
	if s.emb != nil && text != "" {
		v, err := s.emb.Embed(ctx, text)
		if err != nil {
			s.log.Warn().Err(err).Msg("embedding query failed; falling back to keyword search")
		} else {
			vec = v
		}
	}
	hits, err := s.idx.Search(ctx, userID, text, vec, limit, similarAlpha)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("similar entries lookup failed")
		return []model.SearchHit{}
	}
	if hits == nil {
		hits = []model.SearchHit{}
	}
	return hits
}

func (s *JournalService) indexEntry(ctx context.Context, e model.EmotionEntry) {
	if s.idx == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.indexTimeout)
	defer cancel()

	var vec []float32
	if s.emb != nil {
		v, err := s.emb.Embed(ctx, embeddings.EntryText(e.Transcript, e.Mood))
		if err != nil {
			s.log.Warn().Err(err).Msg("entry embedding failed")
			return
		}
		vec = v
	}
	if err := s.idx.UpsertEntry(ctx, e, vec); err != nil {
		s.log.Warn().Err(err).Str("user_id", e.UserID).Msg("search index upsert failed")
	}
}
