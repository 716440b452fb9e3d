package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "callisto.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_ValidFile(t *testing.T) {
	path := writeConfig(t, `
engine:
  default_budget: 4000
  reserved_tokens: 150
tokens:
  chars_per_token: 3
reduction:
  policy: priority
  steps: [100, 50, 20]
cache:
  default_ttl: 90s
offload:
  backend: sqlite
  sqlite:
    path: ./resources.db
    driver: sqlite3
telemetry:
  logging:
    level: debug
    format: text
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Engine.DefaultBudget != 4000 {
		t.Errorf("expected default budget 4000, got %d", cfg.Engine.DefaultBudget)
	}
	if cfg.Engine.ReservedTokens != 150 {
		t.Errorf("expected reserved tokens 150, got %d", cfg.Engine.ReservedTokens)
	}
	if cfg.Tokens.CharsPerToken != 3 {
		t.Errorf("expected chars per token 3, got %d", cfg.Tokens.CharsPerToken)
	}
	if cfg.Reduction.Policy != "priority" {
		t.Errorf("expected policy priority, got %q", cfg.Reduction.Policy)
	}
	if len(cfg.Reduction.Steps) != 3 || cfg.Reduction.Steps[2] != 20 {
		t.Errorf("expected steps [100 50 20], got %v", cfg.Reduction.Steps)
	}
	if cfg.Cache.DefaultTTL != 90*time.Second {
		t.Errorf("expected TTL 90s, got %v", cfg.Cache.DefaultTTL)
	}
	if cfg.Offload.SQLite.Driver != "sqlite3" {
		t.Errorf("expected driver sqlite3, got %q", cfg.Offload.SQLite.Driver)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("expected level debug, got %q", cfg.Telemetry.Logging.Level)
	}

	// Untouched sections keep their defaults
	if cfg.Engine.PreviewTokens != DefaultPreviewTokens {
		t.Errorf("expected preview tokens %d, got %d", DefaultPreviewTokens, cfg.Engine.PreviewTokens)
	}
	if !cfg.Cache.Enabled {
		t.Error("expected cache to stay enabled when omitted")
	}
	if !cfg.Offload.Compress {
		t.Error("expected compression to stay enabled when omitted")
	}
}

func TestLoadConfig_ExplicitFalse(t *testing.T) {
	path := writeConfig(t, `
cache:
  enabled: false
offload:
  enabled: false
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Cache.Enabled {
		t.Error("expected cache disabled")
	}
	if cfg.Offload.Enabled {
		t.Error("expected offload disabled")
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected os.ErrNotExist in chain, got %v", err)
	}
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "engine: [unterminated")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadConfig_ValidationFailure(t *testing.T) {
	path := writeConfig(t, `
reduction:
  policy: random
`)

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected validation error")
	}

	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(verr.Errors) != 1 || verr.Errors[0].Field != "reduction.policy" {
		t.Errorf("expected single reduction.policy error, got %v", verr.Errors)
	}
}

func TestLoadConfigWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
engine:
  default_budget: 4000
`)

	t.Setenv("CALLISTO_ENGINE_DEFAULT_BUDGET", "1200")
	t.Setenv("CALLISTO_ENGINE_SINGLE_FLIGHT", "true")
	t.Setenv("CALLISTO_CACHE_DEFAULT_TTL", "2m")
	t.Setenv("CALLISTO_REDUCTION_STEPS", "100, 60, 30")
	t.Setenv("CALLISTO_TELEMETRY_LOGGING_LEVEL", "WARN")
	t.Setenv("CALLISTO_TOKENS_SAMPLE_SEED", "7")

	cfg, err := LoadConfigWithEnvOverrides(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Engine.DefaultBudget != 1200 {
		t.Errorf("expected budget override 1200, got %d", cfg.Engine.DefaultBudget)
	}
	if !cfg.Engine.SingleFlight {
		t.Error("expected single flight enabled")
	}
	if cfg.Cache.DefaultTTL != 2*time.Minute {
		t.Errorf("expected TTL 2m, got %v", cfg.Cache.DefaultTTL)
	}
	if len(cfg.Reduction.Steps) != 3 || cfg.Reduction.Steps[1] != 60 {
		t.Errorf("expected steps [100 60 30], got %v", cfg.Reduction.Steps)
	}
	if cfg.Telemetry.Logging.Level != "warn" {
		t.Errorf("expected level warn, got %q", cfg.Telemetry.Logging.Level)
	}
	if cfg.Tokens.SampleSeed != 7 {
		t.Errorf("expected seed 7, got %d", cfg.Tokens.SampleSeed)
	}
}

func TestLoadConfigWithEnvOverrides_IgnoresGarbage(t *testing.T) {
	t.Setenv("CALLISTO_ENGINE_DEFAULT_BUDGET", "lots")
	t.Setenv("CALLISTO_REDUCTION_STEPS", "100,half")

	cfg, err := LoadConfigWithEnvOverrides("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Engine.DefaultBudget != DefaultBudget {
		t.Errorf("expected default budget %d, got %d", DefaultBudget, cfg.Engine.DefaultBudget)
	}
	if len(cfg.Reduction.Steps) != len(DefaultReductionSteps) {
		t.Errorf("expected default steps, got %v", cfg.Reduction.Steps)
	}
}

func TestNewDefaultConfig_IsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default configuration should be valid: %v", err)
	}
	if cfg.Tokens.CharsPerToken != 4 {
		t.Errorf("expected 4 chars per token, got %d", cfg.Tokens.CharsPerToken)
	}
	if cfg.Tokens.FallbackCost != 100 {
		t.Errorf("expected fallback cost 100, got %d", cfg.Tokens.FallbackCost)
	}
	if cfg.Cache.DefaultTTL != 5*time.Minute {
		t.Errorf("expected TTL 5m, got %v", cfg.Cache.DefaultTTL)
	}
}

func TestApplyDefaults_DoesNotShareSteps(t *testing.T) {
	a := &Config{}
	ApplyDefaults(a)
	a.Reduction.Steps[0] = 1

	b := &Config{}
	ApplyDefaults(b)
	if b.Reduction.Steps[0] != 100 {
		t.Errorf("expected independent default steps, got %v", b.Reduction.Steps)
	}
}
