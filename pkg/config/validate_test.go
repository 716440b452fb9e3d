package config

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		modify    func(*Config)
		wantField string
	}{
		{
			name:      "zero budget",
			modify:    func(c *Config) { c.Engine.DefaultBudget = 0 },
			wantField: "engine.default_budget",
		},
		{
			name:      "insight share too large",
			modify:    func(c *Config) { c.Engine.InsightBudgetPercent = 80 },
			wantField: "engine.insight_budget_percent",
		},
		{
			name:      "zero chars per token",
			modify:    func(c *Config) { c.Tokens.CharsPerToken = 0 },
			wantField: "tokens.chars_per_token",
		},
		{
			name:      "sample larger than threshold",
			modify:    func(c *Config) { c.Tokens.SampleSize = 80 },
			wantField: "tokens.sample_threshold",
		},
		{
			name:      "step out of range",
			modify:    func(c *Config) { c.Reduction.Steps = []int{100, 0} },
			wantField: "reduction.steps[1]",
		},
		{
			name:      "min insights above max",
			modify:    func(c *Config) { c.Insights.MinInsights = 9 },
			wantField: "insights.min_insights",
		},
		{
			name:      "negative ttl",
			modify:    func(c *Config) { c.Cache.DefaultTTL = -time.Second },
			wantField: "cache.default_ttl",
		},
		{
			name:      "sweep ratio above one",
			modify:    func(c *Config) { c.Cache.SweepRatio = 1.5 },
			wantField: "cache.sweep_ratio",
		},
		{
			name:      "unknown backend",
			modify:    func(c *Config) { c.Offload.Backend = "s3" },
			wantField: "offload.backend",
		},
		{
			name: "unknown sqlite driver",
			modify: func(c *Config) {
				c.Offload.Backend = "sqlite"
				c.Offload.SQLite.Driver = "postgres"
			},
			wantField: "offload.sqlite.driver",
		},
		{
			name:      "scheme with separator",
			modify:    func(c *Config) { c.Offload.URIScheme = "a://b" },
			wantField: "offload.uri_scheme",
		},
		{
			name:      "bad cron schedule",
			modify:    func(c *Config) { c.Offload.Retention.Schedule = "every tuesday" },
			wantField: "offload.retention.schedule",
		},
		{
			name:      "bad listen address",
			modify:    func(c *Config) { c.Server.ListenAddress = "localhost" },
			wantField: "server.listen_address",
		},
		{
			name:      "bad log level",
			modify:    func(c *Config) { c.Telemetry.Logging.Level = "trace" },
			wantField: "telemetry.logging.level",
		},
		{
			name:      "bad sampler",
			modify:    func(c *Config) { c.Telemetry.Tracing.Sampler = "sometimes" },
			wantField: "telemetry.tracing.sampler",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.modify(cfg)

			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %T", err)
			}

			found := false
			for _, fe := range verr.Errors {
				if fe.Field == tt.wantField {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on %q, got %v", tt.wantField, verr.Errors)
			}
		})
	}
}

func TestValidate_CronSkippedWithoutRetention(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Offload.Retention.MaxAge = 0
	cfg.Offload.Retention.Schedule = "not a schedule"

	if err := Validate(cfg); err != nil {
		t.Errorf("expected schedule to be ignored when retention is disabled, got %v", err)
	}
}

func TestValidationError_Error(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	if got := single.Error(); got != "configuration validation failed: a: bad" {
		t.Errorf("unexpected single error message %q", got)
	}

	multi := ValidationError{Errors: []FieldError{
		{Field: "a", Message: "bad"},
		{Field: "b", Message: "worse"},
	}}
	msg := multi.Error()
	if !strings.Contains(msg, "2 errors") || !strings.Contains(msg, "  - b: worse") {
		t.Errorf("unexpected multi error message %q", msg)
	}
}
