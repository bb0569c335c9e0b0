package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Environment represents different deployment environments
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvProduction  Environment = "production"
)

// Storage drivers accepted by DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Embedding providers accepted by EMBED_PROVIDER.
const (
	EmbedHash   = "hash"
	EmbedOllama = "ollama"
	EmbedOpenAI = "openai"
)

// Config holds the configuration for the MindMirror service.
// Environment variables are parsed from the MINDMIRROR_ prefix.
type Config struct {
	// Build target selects high-level environment: local, cloud-dev, cloud
	BuildTarget string `envconfig:"BUILD_TARGET" default:"local"`

	// DB_DRIVER=auto derives the driver from BUILD_TARGET
	DBDriver string `envconfig:"DB_DRIVER" default:"auto"`

	Environment Environment `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string      `envconfig:"LOG_LEVEL" default:"info"`

	// HTTP
	HTTPPort       int      `envconfig:"HTTP_PORT" default:"8000"`
	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`

	// Storage
	PostgresDSN string `envconfig:"POSTGRES_DSN" default:""`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"./data/mindmirror.db"`

	// Search index is optional; empty disables similarity search.
	SearchIndexURL string `envconfig:"WEAVIATE_URL" default:""`
	EmbedProvider  string `envconfig:"EMBED_PROVIDER" default:"hash"`
	EmbedModel     string `envconfig:"EMBED_MODEL" default:"text-embedding-3-small"`
	OllamaURL      string `envconfig:"OLLAMA_URL" default:"http://localhost:11434"`

	// OpenAI. An empty key selects the demo analyzer.
	OpenAIAPIKey    string `envconfig:"OPENAI_API_KEY" default:""`
	OpenAIBaseURL   string `envconfig:"OPENAI_BASE_URL" default:""`
	TranscribeModel string `envconfig:"TRANSCRIBE_MODEL" default:"whisper-1"`
	AnalysisModel   string `envconfig:"ANALYSIS_MODEL" default:"gpt-4o-mini"`

	// Timeouts on external calls
	StorageTimeoutSeconds     int `envconfig:"STORAGE_TIMEOUT_SECONDS" default:"5"`
	AnalysisTimeoutSeconds    int `envconfig:"ANALYSIS_TIMEOUT_SECONDS" default:"60"`
	IndexTimeoutSeconds       int `envconfig:"INDEX_TIMEOUT_SECONDS" default:"5"`
	HealthProbeTimeoutSeconds int `envconfig:"HEALTH_PROBE_TIMEOUT_SECONDS" default:"2"`
	HealthIntervalSeconds     int `envconfig:"HEALTH_INTERVAL_SECONDS" default:"10"`
	BootstrapTimeoutSeconds   int `envconfig:"BOOTSTRAP_TIMEOUT_SECONDS" default:"5"`
	ShutdownTimeoutSeconds    int `envconfig:"SHUTDOWN_TIMEOUT_SECONDS" default:"10"`

	// Outbox worker
	OutboxBatchSize      int `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
	OutboxIntervalMillis int `envconfig:"OUTBOX_INTERVAL_MILLIS" default:"2000"`
	OutboxMaxAttempts    int `envconfig:"OUTBOX_MAX_ATTEMPTS" default:"20"`

	// Weekly digest; disabled unless both a webhook and users are set.
	DigestCron       string   `envconfig:"DIGEST_CRON" default:"0 9 * * MON"`
	DigestUsers      []string `envconfig:"DIGEST_USERS" default:""`
	DigestWindowDays int      `envconfig:"DIGEST_WINDOW_DAYS" default:"7"`
	SlackWebhookURL  string   `envconfig:"SLACK_WEBHOOK_URL" default:""`
}

// ResolveDefaults validates BuildTarget and derives DBDriver when set to "auto" or empty.
func (c *Config) ResolveDefaults() error {
	var defaultDB string

	switch c.BuildTarget {
	case "local":
		defaultDB = DriverSQLite
	case "cloud-dev", "cloud":
		defaultDB = DriverPostgres
	default:
		return fmt.Errorf("unsupported BUILD_TARGET: %s", c.BuildTarget)
	}

	if c.DBDriver == "" || c.DBDriver == "auto" {
		c.DBDriver = defaultDB
	}

	switch c.EmbedProvider {
	case "", EmbedHash:
		c.EmbedProvider = EmbedHash
	case EmbedOllama, EmbedOpenAI:
	default:
		return fmt.Errorf("unsupported EMBED_PROVIDER: %s", c.EmbedProvider)
	}

	allowedDB := map[string]bool{DriverPostgres: true, DriverSQLite: true, DriverMemory: true}
	if !allowedDB[c.DBDriver] {
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.DigestWindowDays < 0 {
		return fmt.Errorf("DIGEST_WINDOW_DAYS must be >= 0, got %d", c.DigestWindowDays)
	}
	return nil
}

// New creates a new Config by parsing environment variables.
// A .env file in the working directory is loaded first when present; variables
// already set in the environment win. OPENAI_API_KEY is honoured as a fallback
// for MINDMIRROR_OPENAI_API_KEY.
func New() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("MINDMIRROR", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if cfg.OpenAIAPIKey == "" {
		cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}

	if err := cfg.ResolveDefaults(); err != nil {
		return nil, err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Str("environment", string(cfg.Environment)).
		Int("port", cfg.HTTPPort).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Bool("postgres_dsn_present", cfg.PostgresDSN != "").
		Str("weaviate_url", cfg.SearchIndexURL).
		Str("embed_provider", cfg.EmbedProvider).
		Bool("openai_key_present", cfg.OpenAIAPIKey != "").
		Bool("digest_enabled", cfg.DigestEnabled()).
		Msg("Configuration loaded")

	return &cfg, nil
}

// NewForTesting creates a hermetic config: in-memory storage, no external services.
func NewForTesting() *Config {
	return &Config{
		BuildTarget:               "local",
		DBDriver:                  DriverMemory,
		Environment:               EnvTesting,
		LogLevel:                  "debug",
		HTTPPort:                  8000,
		AllowedOrigins:            []string{"http://localhost:3000"},
		SQLitePath:                "",
		EmbedProvider:             "hash",
		OllamaURL:                 "http://localhost:11434",
		TranscribeModel:           "whisper-1",
		AnalysisModel:             "gpt-4o-mini",
		StorageTimeoutSeconds:     1,
		AnalysisTimeoutSeconds:    5,
		IndexTimeoutSeconds:       1,
		HealthProbeTimeoutSeconds: 1,
		HealthIntervalSeconds:     1,
		BootstrapTimeoutSeconds:   1,
		ShutdownTimeoutSeconds:    1,
		OutboxBatchSize:           10,
		OutboxIntervalMillis:      100,
		OutboxMaxAttempts:         3,
		DigestCron:                "0 9 * * MON",
		DigestWindowDays:          7,
	}
}

// IsTesting returns true if the environment is set to testing
func (c *Config) IsTesting() bool {
	return c.Environment == EnvTesting
}

// IsProduction returns true if the environment is set to production
func (c *Config) IsProduction() bool {
	return c.Environment == EnvProduction
}

// DigestEnabled reports whether the weekly digest has somewhere to go and someone to report on.
func (c *Config) DigestEnabled() bool {
	return c.SlackWebhookURL != "" && len(c.DigestUsers) > 0
}

// GetHTTPAddr returns the HTTP server address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func seconds(n int) time.Duration { return time.Duration(n) * time.Second }

func (c *Config) StorageTimeout() time.Duration     { return seconds(c.StorageTimeoutSeconds) }
func (c *Config) AnalysisTimeout() time.Duration    { return seconds(c.AnalysisTimeoutSeconds) }
func (c *Config) IndexTimeout() time.Duration       { return seconds(c.IndexTimeoutSeconds) }
func (c *Config) HealthProbeTimeout() time.Duration { return seconds(c.HealthProbeTimeoutSeconds) }
func (c *Config) HealthInterval() time.Duration     { return seconds(c.HealthIntervalSeconds) }
func (c *Config) BootstrapTimeout() time.Duration   { return seconds(c.BootstrapTimeoutSeconds) }
func (c *Config) ShutdownTimeout() time.Duration    { return seconds(c.ShutdownTimeoutSeconds) }
func (c *Config) OutboxInterval() time.Duration {
	return time.Duration(c.OutboxIntervalMillis) * time.Millisecond
}
