package analysis

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindmirror/mindmirror/internal/model"
)

func TestDemoEngine(t *testing.T) {
	var e Engine = NewDemo()
	ctx := context.Background()
	assert.False(t, e.Live())

	r := strings.NewReader("RIFF....")
	text, err := e.Transcribe(ctx, "note.wav", r)
	require.NoError(t, err)
	assert.Equal(t, DemoTranscript, text)
	assert.Zero(t, r.Len())

	a := e.Analyze(ctx, text)
	assert.Equal(t, model.Analysis{Mood: "neutral", Summary: DemoSummary, Reflection: DemoQuestion, Confidence: 0.5}, a)

	assert.Equal(t,
		"Demo reflection for happy mood. Add your OpenAI API key for personalized reflections.",
		e.Reflect(ctx, model.ReflectionRequest{CurrentMood: "happy"}))
}

func TestFallbackAnalysis(t *testing.T) {
	a := FallbackAnalysis()
	assert.Equal(t, "neutral", a.Mood)
	assert.Equal(t, "I heard your thoughts. Thank you for sharing.", a.Summary)
	assert.Equal(t, "What's one thing you'd like to explore further about your day?", a.Reflection)
	assert.InDelta(t, 0.5, a.Confidence, 1e-9)
}
