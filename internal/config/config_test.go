package config

import (
	"os"
	"testing"
	"time"
)

func TestConfigLoad_Defaults(t *testing.T) {
	unsetBuildEnv()

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.HTTPPort != 8000 || cfg.EmbedProvider != "hash" || cfg.TranscribeModel != "whisper-1" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:3000" {
		t.Fatalf("unexpected allowed origins: %v", cfg.AllowedOrigins)
	}
	if cfg.StorageTimeout() != 5*time.Second {
		t.Fatalf("unexpected storage timeout: %s", cfg.StorageTimeout())
	}
	if cfg.DigestEnabled() {
		t.Fatalf("digest should be disabled without webhook and users")
	}
}

func TestConfigLoad_AllowedOriginsList(t *testing.T) {
	_ = os.Setenv("MINDMIRROR_ALLOWED_ORIGINS", "http://a.test,http://b.test")
	defer func() { _ = os.Unsetenv("MINDMIRROR_ALLOWED_ORIGINS") }()

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Fatalf("allowed origins override failed, got %v", cfg.AllowedOrigins)
	}
}

func TestConfigLoad_OpenAIKeyFallback(t *testing.T) {
	_ = os.Unsetenv("MINDMIRROR_OPENAI_API_KEY")
	_ = os.Setenv("OPENAI_API_KEY", "sk-test")
	defer func() { _ = os.Unsetenv("OPENAI_API_KEY") }()

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.OpenAIAPIKey != "sk-test" {
		t.Fatalf("expected fallback key, got %q", cfg.OpenAIAPIKey)
	}
}

func TestConfigLoad_DigestEnabled(t *testing.T) {
	_ = os.Setenv("MINDMIRROR_SLACK_WEBHOOK_URL", "https://hooks.slack.test/x")
	_ = os.Setenv("MINDMIRROR_DIGEST_USERS", "alice,bob")
	defer func() {
		_ = os.Unsetenv("MINDMIRROR_SLACK_WEBHOOK_URL")
		_ = os.Unsetenv("MINDMIRROR_DIGEST_USERS")
	}()

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if !cfg.DigestEnabled() || len(cfg.DigestUsers) != 2 {
		t.Fatalf("digest config not picked up: %+v", cfg)
	}
}
