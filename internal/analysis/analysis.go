// Package analysis turns spoken journal entries into text, reads their
// emotional tone and writes reflection prompts.
package analysis

import (
	"context"
	"io"

	"github.com/mindmirror/mindmirror/internal/model"
)

// Transcriber converts recorded audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error)
}

// Analyzer derives mood, summary and a follow-up question from a transcript.
// Implementations answer with FallbackAnalysis rather than failing.
type Analyzer interface {
	Analyze(ctx context.Context, transcript string) model.Analysis
}

// Reflector writes one open-ended reflection question.
// Implementations answer with FallbackReflection rather than failing.
type Reflector interface {
	Reflect(ctx context.Context, req model.ReflectionRequest) string
}

// Engine bundles the three capabilities behind one value.
type Engine interface {
	Transcriber
	Analyzer
	Reflector
	// Live reports whether a real model backs the engine.
	Live() bool
}

const (
	FallbackMood       = "neutral"
	FallbackSummary    = "I heard your thoughts. Thank you for sharing."
	FallbackQuestion   = "What's one thing you'd like to explore further about your day?"
	FallbackConfidence = 0.5

	FallbackReflection = "What's one thing you'd like to explore about your emotional state today?"
)

// FallbackAnalysis is returned whenever the model cannot be reached or read.
func FallbackAnalysis() model.Analysis {
	return model.Analysis{
		Mood:       FallbackMood,
		Summary:    FallbackSummary,
		Reflection: FallbackQuestion,
		Confidence: FallbackConfidence,
	}
}
