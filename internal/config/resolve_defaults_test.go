package config

import (
	"os"
	"testing"
)

func unsetBuildEnv() {
	_ = os.Unsetenv("MINDMIRROR_BUILD_TARGET")
	_ = os.Unsetenv("MINDMIRROR_DB_DRIVER")
}

func TestResolveDefaultsCloudDev(t *testing.T) {
	unsetBuildEnv()
	_ = os.Setenv("MINDMIRROR_BUILD_TARGET", "cloud-dev")
	defer unsetBuildEnv()

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.DBDriver != DriverPostgres {
		t.Fatalf("unexpected mapping: %s", cfg.DBDriver)
	}
}

func TestResolveDefaultsLocal(t *testing.T) {
	unsetBuildEnv()
	_ = os.Setenv("MINDMIRROR_BUILD_TARGET", "local")
	defer unsetBuildEnv()

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.DBDriver != DriverSQLite {
		t.Fatalf("unexpected mapping for local: %s", cfg.DBDriver)
	}
}

func TestResolveDefaultsOverride(t *testing.T) {
	unsetBuildEnv()
	_ = os.Setenv("MINDMIRROR_BUILD_TARGET", "cloud")
	_ = os.Setenv("MINDMIRROR_DB_DRIVER", "memory")
	defer unsetBuildEnv()

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.DBDriver != DriverMemory {
		t.Fatalf("override failed, got %s", cfg.DBDriver)
	}
}

func TestResolveDefaultsRejectsUnknown(t *testing.T) {
	cfg := NewForTesting()
	cfg.BuildTarget = "mainframe"
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatalf("expected error for unknown build target")
	}

	cfg = NewForTesting()
	cfg.DBDriver = "pinecone"
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}

func TestResolveDefaultsEmbedProvider(t *testing.T) {
	cfg := NewForTesting()
	cfg.EmbedProvider = ""
	if err := cfg.ResolveDefaults(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.EmbedProvider != EmbedHash {
		t.Fatalf("empty provider should become hash, got %q", cfg.EmbedProvider)
	}

	cfg = NewForTesting()
	cfg.EmbedProvider = EmbedOllama
	if err := cfg.ResolveDefaults(); err != nil {
		t.Fatalf("ollama should be accepted: %v", err)
	}

	cfg = NewForTesting()
	cfg.EmbedProvider = "word2vec"
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatalf("expected error for unsupported embed provider")
	}
}
