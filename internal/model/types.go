package model

import "time"

// TimestampLayout is the zero-padded, zone-less layout stamped on new entries.
// Lexical order of values in this layout equals chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// DefaultConfidence is assumed when a stored entry carries no confidence value.
const DefaultConfidence = 0.8

// DefaultUserID is used when a caller does not identify the user.
const DefaultUserID = "default_user"

// EmotionEntry is an immutable journal record produced from one voice note.
type EmotionEntry struct {
	UserID     string                 `json:"user_id"`
	Timestamp  string                 `json:"timestamp"`
	Transcript string                 `json:"transcript"`
	Mood       string                 `json:"mood"`
	Summary    string                 `json:"summary"`
	Reflection string                 `json:"reflection"`
	Confidence float64                `json:"confidence"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// ID returns the natural key of the entry (user_id + "_" + timestamp).
func (e EmotionEntry) ID() string {
	return e.UserID + "_" + e.Timestamp
}

// Overall trend values.
const (
	TrendPositive = "positive"
	TrendNegative = "negative"
	TrendNeutral  = "neutral"
)

// TrendSummary aggregates a set of entries. Derived on every request, never stored.
type TrendSummary struct {
	MoodDistribution map[string]int      `json:"mood_distribution"`
	WeeklyPatterns   map[string][]string `json:"weekly_patterns"`
	OverallTrend     string              `json:"overall_trend"`
	TotalEntries     int                 `json:"total_entries"`
}

// MoodStatistics is the per-user statistics view.
type MoodStatistics struct {
	TotalEntries      int            `json:"total_entries"`
	MoodDistribution  map[string]int `json:"mood_distribution"`
	AverageConfidence float64        `json:"average_confidence"`
	MostCommonMood    *string        `json:"most_common_mood"`
}

// Analysis is the structured result of interpreting a transcript.
type Analysis struct {
	Mood       string  `json:"mood"`
	Summary    string  `json:"summary"`
	Reflection string  `json:"reflection"`
	Confidence float64 `json:"confidence"`
}

// ReflectionRequest asks for a personalised reflection prompt.
type ReflectionRequest struct {
	CurrentMood   string         `json:"current_mood"`
	RecentEntries []EmotionEntry `json:"recent_entries"`
	FocusArea     *string        `json:"focus_area,omitempty"`
}

// SearchHit is an entry returned by the similarity index.
type SearchHit struct {
	UserID    string  `json:"user_id"`
	Timestamp string  `json:"timestamp"`
	Mood      string  `json:"mood"`
	Summary   string  `json:"summary"`
	Score     float64 `json:"score"`
}

// FormatTimestamp renders t in TimestampLayout without zone conversion.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}
