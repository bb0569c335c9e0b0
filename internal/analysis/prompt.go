package analysis

import (
	"strings"

	"github.com/mindmirror/mindmirror/internal/model"
)

const analysisInstructions = `You are a compassionate AI journal guide. Your job is to analyze the user's tone and generate a calm, encouraging summary + one custom reflection question.

Analyze the emotional content and provide:
1. A single word mood (e.g., anxious, joyful, confused, peaceful, stressed, excited, sad, content)
2. A gentle summary of their mental state
3. One thoughtful reflection question to encourage deeper self-discovery

Keep responses warm, supportive, and non-judgmental. Focus on emotional awareness and growth.`

const reflectionInstructions = `You are a thoughtful AI companion helping users reflect on their emotional journey. Generate one gentle, open-ended reflection question that encourages self-discovery and emotional awareness.

The question should be:
- Personalized to their current emotional state
- Non-judgmental and supportive
- Open-ended to encourage deeper thinking
- Focused on growth and self-understanding`

// recentMoodWindow is how many of the latest entries feed the reflection context.
const recentMoodWindow = 3

func analysisInput(transcript string) string {
	return "Here is the user's thought dump transcript: " + transcript
}

// ReflectionContext renders the user message for a reflection request.
func ReflectionContext(req model.ReflectionRequest) string {
	var b strings.Builder
	b.WriteString("Current mood: ")
	b.WriteString(req.CurrentMood)

	if len(req.RecentEntries) > 0 {
		recent := req.RecentEntries
		if len(recent) > recentMoodWindow {
			recent = recent[len(recent)-recentMoodWindow:]
		}
		moods := make([]string, 0, len(recent))
		for _, e := range recent {
			m := e.Mood
			if m == "" {
				m = FallbackMood
			}
			moods = append(moods, m)
		}
		b.WriteString("\nRecent moods: ")
		b.WriteString(strings.Join(moods, ", "))
	}

	if req.FocusArea != nil && *req.FocusArea != "" {
		b.WriteString("\nFocus area: ")
		b.WriteString(*req.FocusArea)
	}
	return b.String()
}
