package trends

import (
	"strings"

	"github.com/mindmirror/mindmirror/internal/model"
)

// Statistics summarises confidence and mood frequency for a set of entries.
func Statistics(entries []model.EmotionEntry) model.MoodStatistics {
	st := model.MoodStatistics{MoodDistribution: map[string]int{}}
	if len(entries) == 0 {
		return st
	}

	var total float64
	for _, e := range entries {
		st.MoodDistribution[strings.ToLower(e.Mood)]++
		total += e.Confidence
	}
	st.TotalEntries = len(entries)
	st.AverageConfidence = total / float64(len(entries))
	if mood, _, ok := MostFrequent(st.MoodDistribution); ok {
		st.MostCommonMood = &mood
	}
	return st
}
