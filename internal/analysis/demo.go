package analysis

import (
	"context"
	"fmt"
	"io"

	"github.com/mindmirror/mindmirror/internal/model"
)

const (
	DemoTranscript = "This is a demo transcript. Please add your OpenAI API key for real voice analysis."
	DemoSummary    = "This is a demo response. Add your OpenAI API key to get real emotional analysis."
	DemoQuestion   = "What would you like to explore about your thoughts today?"
)

// Demo answers with canned text so the service runs without an API key.
type Demo struct{}

func NewDemo() Demo { return Demo{} }

func (Demo) Live() bool { return false }

// Transcribe drains the upload and returns the demo transcript.
func (Demo) Transcribe(_ context.Context, _ string, audio io.Reader) (string, error) {
	if audio != nil {
		if _, err := io.Copy(io.Discard, audio); err != nil {
			return "", err
		}
	}
	return DemoTranscript, nil
}

func (Demo) Analyze(context.Context, string) model.Analysis {
	return model.Analysis{
		Mood:       FallbackMood,
		Summary:    DemoSummary,
		Reflection: DemoQuestion,
		Confidence: FallbackConfidence,
	}
}

func (Demo) Reflect(_ context.Context, req model.ReflectionRequest) string {
	return fmt.Sprintf("Demo reflection for %s mood. Add your OpenAI API key for personalized reflections.", req.CurrentMood)
}
