// Package trends turns a user's mood-tagged entries into aggregate statistics
// and short natural-language observations. Everything here is pure: no I/O, no
// shared state, identical output for identical input.
package trends

import (
	"strings"
	"time"

	"github.com/mindmirror/mindmirror/internal/model"
)

// Weekdays lists the canonical weekly_patterns keys, Monday first.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

var (
	positiveMoods = map[string]struct{}{
		"happy": {}, "joyful": {}, "excited": {}, "content": {}, "peaceful": {},
	}
	negativeMoods = map[string]struct{}{
		"sad": {}, "anxious": {}, "stressed": {}, "angry": {}, "frustrated": {},
	}
)

// Accepted timestamp layouts. Zone-less layouts are read as wall-clock time;
// zoned layouts keep their own offset so no conversion happens either way.
var timestampLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02T15:04",
	"2006-01-02",
}

// Compute aggregates entries into a TrendSummary.
func Compute(entries []model.EmotionEntry) model.TrendSummary {
	sum := model.TrendSummary{
		MoodDistribution: map[string]int{},
		WeeklyPatterns:   emptyWeek(),
		OverallTrend:     model.TrendNeutral,
		TotalEntries:     len(entries),
	}
	if len(entries) == 0 {
		return sum
	}

	for _, e := range entries {
		sum.MoodDistribution[strings.ToLower(e.Mood)]++
	}

	for _, e := range entries {
		day, err := Weekday(e.Timestamp)
		if err != nil {
			continue
		}
		moods, ok := sum.WeeklyPatterns[day]
		if !ok {
			continue
		}
		sum.WeeklyPatterns[day] = append(moods, e.Mood)
	}

	sum.OverallTrend = Polarity(sum.MoodDistribution)
	return sum
}

// Polarity classifies a lowercase mood distribution as positive, negative or
// neutral. Moods outside both categories are ignored; ties are neutral.
func Polarity(dist map[string]int) string {
	var pos, neg int
	for mood, n := range dist {
		m := strings.ToLower(mood)
		if _, ok := positiveMoods[m]; ok {
			pos += n
		}
		if _, ok := negativeMoods[m]; ok {
			neg += n
		}
	}
	switch {
	case pos > neg:
		return model.TrendPositive
	case neg > pos:
		return model.TrendNegative
	default:
		return model.TrendNeutral
	}
}

// Weekday returns the lowercase weekday name of an ISO-8601 timestamp.
func Weekday(ts string) (string, error) {
	t, err := ParseTimestamp(ts)
	if err != nil {
		return "", err
	}
	return strings.ToLower(t.Weekday().String()), nil
}

// ParseTimestamp parses the timestamp layouts entries are stored with.
func ParseTimestamp(ts string) (time.Time, error) {
	ts = strings.TrimSpace(ts)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return t, nil
		}
	}
	return time.Time{}, model.ErrMalformedTimestamp
}

func emptyWeek() map[string][]string {
	week := make(map[string][]string, len(Weekdays))
	for _, d := range Weekdays {
		week[d] = []string{}
	}
	return week
}
