package factory

import (
	oa "github.com/openai/openai-go"
	"github.com/rs/zerolog"

	"github.com/mindmirror/mindmirror/internal/analysis"
	"github.com/mindmirror/mindmirror/internal/config"
)

// NewAnalysisEngine returns the OpenAI engine and its client when a key is
// configured, and the demo engine with a nil client otherwise.
func NewAnalysisEngine(cfg *config.Config, log zerolog.Logger) (analysis.Engine, *oa.Client) {
	if cfg.OpenAIAPIKey == "" || cfg.OpenAIAPIKey == "your_openai_api_key_here" {
		log.Warn().Msg("no OpenAI API key; running analysis in demo mode")
		return analysis.NewDemo(), nil
	}
	client := analysis.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	return analysis.NewOpenAI(client, analysis.Options{
		TranscribeModel: cfg.TranscribeModel,
		AnalysisModel:   cfg.AnalysisModel,
		Timeout:         cfg.AnalysisTimeout(),
	}, log), client
}
