package trends

import (
	"fmt"
	"sort"

	"github.com/mindmirror/mindmirror/internal/model"
)

const (
	positiveInsight = "You've been experiencing more positive emotions lately"
	negativeInsight = "You've been experiencing more challenging emotions lately"

	// StreakThreshold is the entry count at which the consistency sentence appears.
	StreakThreshold = 7
)

// Insights derives ordered observations from a summary. The result may be empty.
func Insights(sum model.TrendSummary) []string {
	out := []string{}

	if mood, n, ok := MostFrequent(sum.MoodDistribution); ok {
		out = append(out, fmt.Sprintf("Your most frequent mood has been '%s' (%d times)", mood, n))
	}

	switch sum.OverallTrend {
	case model.TrendPositive:
		out = append(out, positiveInsight)
	case model.TrendNegative:
		out = append(out, negativeInsight)
	}

	if sum.TotalEntries >= StreakThreshold {
		out = append(out, fmt.Sprintf("You've been consistent with %d reflection sessions", sum.TotalEntries))
	}
	return out
}

// MostFrequent returns the mood with the highest count. Equal counts resolve to
// the lexicographically smallest mood so the answer never depends on map order.
func MostFrequent(dist map[string]int) (string, int, bool) {
	if len(dist) == 0 {
		return "", 0, false
	}
	moods := make([]string, 0, len(dist))
	for m := range dist {
		moods = append(moods, m)
	}
	sort.Strings(moods)

	best := moods[0]
	for _, m := range moods[1:] {
		if dist[m] > dist[best] {
			best = m
		}
	}
	return best, dist[best], true
}
