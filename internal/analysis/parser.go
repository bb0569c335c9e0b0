package analysis

import (
	"strings"

	"github.com/mindmirror/mindmirror/internal/model"
)

// DefaultFollowUp closes an analysis whose text carried no question of its own.
const DefaultFollowUp = "What would you like to explore further about your thoughts?"

// ParseAnalysis reads a free-text model answer. Lines starting with "mood:",
// "summary:" or "reflection:" (any case) are picked up directly. When summary
// or reflection is still missing the first two blank-line separated paragraphs
// are used instead, and failing that the whole text becomes the summary.
func ParseAnalysis(content string) model.Analysis {
	var mood, summary, reflection string

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "mood:"):
			mood = strings.ToLower(afterColon(line))
		case strings.HasPrefix(lower, "summary:"):
			summary = afterColon(line)
		case strings.HasPrefix(lower, "reflection:"):
			reflection = afterColon(line)
		}
	}

	if summary == "" || reflection == "" {
		parts := strings.Split(content, "\n\n")
		if len(parts) >= 2 {
			summary = strings.TrimSpace(parts[0])
			reflection = strings.TrimSpace(parts[1])
		} else {
			summary = strings.TrimSpace(content)
			reflection = DefaultFollowUp
		}
	}

	return model.Analysis{
		Mood:       NormalizeMood(mood),
		Summary:    summary,
		Reflection: reflection,
		Confidence: model.DefaultConfidence,
	}
}

// NormalizeMood lowercases and keeps the first word; empty input is neutral.
func NormalizeMood(mood string) string {
	fields := strings.Fields(strings.ToLower(mood))
	if len(fields) == 0 {
		return FallbackMood
	}
	return fields[0]
}

func afterColon(line string) string {
	_, v, _ := strings.Cut(line, ":")
	return strings.TrimSpace(v)
}
