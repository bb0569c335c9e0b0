package analysis

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mindmirror/mindmirror/internal/model"
)

func responseBody(text string) map[string]interface{} {
	return map[string]interface{}{
		"id":         "resp_test",
		"object":     "response",
		"created_at": 0,
		"model":      "gpt-4o-mini",
		"status":     "completed",
		"output": []interface{}{
			map[string]interface{}{
				"id":     "msg_test",
				"type":   "message",
				"role":   "assistant",
				"status": "completed",
				"content": []interface{}{
					map[string]interface{}{"type": "output_text", "text": text, "annotations": []interface{}{}},
				},
			},
		},
	}
}

func newTestEngine(t *testing.T, h http.HandlerFunc) *OpenAI {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	client := NewClient("test-key", srv.URL+"/")
	return NewOpenAI(client, Options{Timeout: 5 * time.Second, RetryBudget: time.Second}, zerolog.Nop())
}

func TestOpenAI_AnalyzeStructured(t *testing.T) {
	e := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/responses"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(responseBody(`{"mood":"Excited","summary":"big news","reflection":"What next?"}`))
	})
	got := e.Analyze(context.Background(), "I got the job")
	assert.Equal(t, model.Analysis{Mood: "excited", Summary: "big news", Reflection: "What next?", Confidence: 0.8}, got)
}

func TestOpenAI_AnalyzeFallsBackOnClientError(t *testing.T) {
	var calls atomic.Int32
	e := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad","type":"invalid_request_error"}}`))
	})
	assert.Equal(t, FallbackAnalysis(), e.Analyze(context.Background(), "x"))
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAI_ReflectRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	e := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":{"message":"busy","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(responseBody("  What felt lighter today?  "))
	})
	got := e.Reflect(context.Background(), model.ReflectionRequest{CurrentMood: "tired"})
	assert.Equal(t, "What felt lighter today?", got)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOpenAI_ReflectFallback(t *testing.T) {
	e := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	assert.Equal(t, FallbackReflection, e.Reflect(context.Background(), model.ReflectionRequest{CurrentMood: "sad"}))
}

func TestOpenAI_Transcribe(t *testing.T) {
	e := newTestEngine(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/audio/transcriptions"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text":" hello there "}`))
	})
	text, err := e.Transcribe(context.Background(), "clip.webm", strings.NewReader("audio"))
	require.NoError(t, err)
	assert.Equal(t, "hello there", text)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, isRateLimitError(errString("HTTP 429 Too Many Requests")))
	assert.True(t, isServerError(errString("500 Internal Server Error")))
	assert.False(t, isRetryable(errString("401 unauthorized")))
}

type errString string

func (e errString) Error() string { return string(e) }

func TestAudioContentType(t *testing.T) {
	assert.Equal(t, "audio/mpeg", audioContentType("a.MP3"))
	assert.Equal(t, "application/octet-stream", audioContentType("a.ogg"))
}
