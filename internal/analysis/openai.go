package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/rs/zerolog"

	"github.com/mindmirror/mindmirror/internal/metrics"
	"github.com/mindmirror/mindmirror/internal/model"
)

// Options tune the OpenAI engine.
type Options struct {
	BaseURL         string
	TranscribeModel string
	AnalysisModel   string
	// Timeout bounds each model call including retries.
	Timeout time.Duration
	// RetryBudget bounds the time spent retrying rate limits and server errors.
	RetryBudget time.Duration
}

// OpenAI is the Engine backed by the OpenAI API.
type OpenAI struct {
	client *openai.Client
	opts   Options
	log    zerolog.Logger
}

// NewClient builds an OpenAI client; retries are left to the callers.
func NewClient(apiKey, baseURL string) *openai.Client {
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(reqOpts...)
	return &client
}

func NewOpenAI(client *openai.Client, opts Options, log zerolog.Logger) *OpenAI {
	if opts.TranscribeModel == "" {
		opts.TranscribeModel = string(openai.AudioModelWhisper1)
	}
	if opts.AnalysisModel == "" {
		opts.AnalysisModel = "gpt-4o-mini"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.RetryBudget <= 0 {
		opts.RetryBudget = opts.Timeout / 2
	}
	return &OpenAI{client: client, opts: opts, log: log.With().Str("component", "analysis").Logger()}
}

func (o *OpenAI) Live() bool { return true }

func (o *OpenAI) Transcribe(ctx context.Context, filename string, audio io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.opts.Timeout)
	defer cancel()

	// the upload stream can be consumed only once, so transcription is not retried
	res, err := o.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:  openai.File(audio, filepath.Base(filename), audioContentType(filename)),
		Model: openai.AudioModel(o.opts.TranscribeModel),
	})
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}
	text := strings.TrimSpace(res.Text)
	o.log.Info().Int("chars", len(text)).Msg("transcribed audio")
	return text, nil
}

func (o *OpenAI) Analyze(ctx context.Context, transcript string) model.Analysis {
	ctx, cancel := context.WithTimeout(ctx, o.opts.Timeout)
	defer cancel()

	params := responses.ResponseNewParams{
		Model:           o.opts.AnalysisModel,
		MaxOutputTokens: openai.Int(300),
		Temperature:     openai.Float(0.7),
		Instructions:    openai.String(analysisInstructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(analysisInput(transcript), responses.EasyInputMessageRoleUser),
			},
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Name:        "EmotionAnalysis",
					Schema:      analysisSchema,
					Strict:      openai.Bool(true),
					Description: openai.String("Mood, summary and reflection question for a journal entry"),
					Type:        "json_schema",
				},
			},
		},
	}

	resp, err := o.callWithRetry(ctx, params)
	if err != nil {
		metrics.AnalysisFallbacks.WithLabelValues("analysis").Inc()
		o.log.Error().Err(err).Msg("emotion analysis failed; using fallback")
		return FallbackAnalysis()
	}

	out := DecodeAnalysis(resp.OutputText())
	o.log.Info().Str("mood", out.Mood).Msg("analyzed emotion")
	return out
}

// DecodeAnalysis reads a structured answer and falls back to the free-text
// parser when the output is not the expected JSON object.
func DecodeAnalysis(output string) model.Analysis {
	var sa structuredAnalysis
	if err := decodeModelJSON(output, &sa); err == nil && sa.Summary != "" && sa.Reflection != "" {
		return model.Analysis{
			Mood:       NormalizeMood(sa.Mood),
			Summary:    strings.TrimSpace(sa.Summary),
			Reflection: strings.TrimSpace(sa.Reflection),
			Confidence: model.DefaultConfidence,
		}
	}
	return ParseAnalysis(output)
}

func (o *OpenAI) Reflect(ctx context.Context, req model.ReflectionRequest) string {
	ctx, cancel := context.WithTimeout(ctx, o.opts.Timeout)
	defer cancel()

	params := responses.ResponseNewParams{
		Model:           o.opts.AnalysisModel,
		MaxOutputTokens: openai.Int(150),
		Temperature:     openai.Float(0.8),
		Instructions:    openai.String(reflectionInstructions),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: []responses.ResponseInputItemUnionParam{
				responses.ResponseInputItemParamOfMessage(ReflectionContext(req), responses.EasyInputMessageRoleUser),
			},
		},
	}

	resp, err := o.callWithRetry(ctx, params)
	if err != nil {
		metrics.AnalysisFallbacks.WithLabelValues("reflection").Inc()
		o.log.Error().Err(err).Msg("reflection generation failed; using fallback")
		return FallbackReflection
	}
	text := strings.TrimSpace(resp.OutputText())
	if text == "" {
		metrics.AnalysisFallbacks.WithLabelValues("reflection").Inc()
		return FallbackReflection
	}
	return text
}

// callWithRetry retries rate limits and server errors with exponential backoff.
func (o *OpenAI) callWithRetry(ctx context.Context, params responses.ResponseNewParams) (*responses.Response, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxElapsedTime = o.opts.RetryBudget

	var resp *responses.Response
	op := func() error {
		r, err := o.client.Responses.New(ctx, params)
		if err != nil {
			if isRetryable(err) {
				o.log.Warn().Err(err).Msg("openai call failed; retrying")
				return err
			}
			return backoff.Permanent(err)
		}
		resp = r
		return nil
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return resp, nil
}

func isRetryable(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	return isRateLimitError(err) || isServerError(err)
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "429") ||
		strings.Contains(s, "rate limit") ||
		strings.Contains(s, "too many requests")
}

func isServerError(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "500") ||
		strings.Contains(s, "502") ||
		strings.Contains(s, "503") ||
		strings.Contains(s, "internal server error") ||
		strings.Contains(s, "server_error")
}

// decodeModelJSON unmarshals JSON from a model response, tolerating text
// wrapped around the first top-level object.
func decodeModelJSON(outputText string, v any) error {
	s := strings.TrimSpace(outputText)
	if s == "" {
		return io.ErrUnexpectedEOF
	}
	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end <= start {
		return fmt.Errorf("no JSON object found in model output (len=%d)", len(s))
	}
	sub := s[start : end+1]
	if err := json.Unmarshal([]byte(sub), v); err != nil {
		return fmt.Errorf("failed to unmarshal extracted JSON (len=%d): %w", len(sub), err)
	}
	return nil
}

func audioContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".wav":
		return "audio/wav"
	case ".mp3":
		return "audio/mpeg"
	case ".m4a":
		return "audio/mp4"
	case ".webm":
		return "audio/webm"
	default:
		return "application/octet-stream"
	}
}
