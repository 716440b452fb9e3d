package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "cache.default_ttl").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateEngine(&cfg.Engine)...)
	errs = append(errs, validateTokens(&cfg.Tokens)...)
	errs = append(errs, validateReduction(&cfg.Reduction)...)
	errs = append(errs, validateInsights(&cfg.Insights)...)
	errs = append(errs, validateCache(&cfg.Cache)...)
	errs = append(errs, validateOffload(&cfg.Offload)...)
	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateEngine(cfg *EngineConfig) []FieldError {
	var errs []FieldError

	if cfg.DefaultBudget < 1 {
		errs = append(errs, FieldError{
			Field:   "engine.default_budget",
			Message: "default budget must be positive",
		})
	}
	if cfg.ReservedTokens < 0 {
		errs = append(errs, FieldError{
			Field:   "engine.reserved_tokens",
			Message: "reserved tokens cannot be negative",
		})
	}
	if cfg.PreviewTokens < 1 {
		errs = append(errs, FieldError{
			Field:   "engine.preview_tokens",
			Message: "preview tokens must be positive",
		})
	}
	if cfg.InsightBudgetPercent < 0 || cfg.InsightBudgetPercent > 50 {
		errs = append(errs, FieldError{
			Field:   "engine.insight_budget_percent",
			Message: fmt.Sprintf("insight budget percent must be between 0 and 50, got %d", cfg.InsightBudgetPercent),
		})
	}
	if cfg.ComputeTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "engine.compute_timeout",
			Message: "compute timeout cannot be negative",
		})
	}

	return errs
}

func validateTokens(cfg *TokensConfig) []FieldError {
	var errs []FieldError

	if cfg.CharsPerToken < 1 {
		errs = append(errs, FieldError{
			Field:   "tokens.chars_per_token",
			Message: "chars per token must be at least 1",
		})
	}
	if cfg.FallbackCost < 1 {
		errs = append(errs, FieldError{
			Field:   "tokens.fallback_cost",
			Message: "fallback cost must be positive",
		})
	}
	if cfg.ItemOverhead < 0 {
		errs = append(errs, FieldError{
			Field:   "tokens.item_overhead",
			Message: "item overhead cannot be negative",
		})
	}
	if cfg.StringOverhead < 0 {
		errs = append(errs, FieldError{
			Field:   "tokens.string_overhead",
			Message: "string overhead cannot be negative",
		})
	}
	if cfg.SampleSize < 1 {
		errs = append(errs, FieldError{
			Field:   "tokens.sample_size",
			Message: "sample size must be positive",
		})
	}
	if cfg.SampleThreshold < cfg.SampleSize {
		errs = append(errs, FieldError{
			Field:   "tokens.sample_threshold",
			Message: fmt.Sprintf("sample threshold (%d) must not be smaller than sample size (%d)", cfg.SampleThreshold, cfg.SampleSize),
		})
	}

	return errs
}

func validateReduction(cfg *ReductionConfig) []FieldError {
	var errs []FieldError

	validPolicies := map[string]bool{"stepped": true, "priority": true}
	if !validPolicies[cfg.Policy] {
		errs = append(errs, FieldError{
			Field:   "reduction.policy",
			Message: fmt.Sprintf("invalid reduction policy %q: must be 'stepped' or 'priority'", cfg.Policy),
		})
	}
	for i, step := range cfg.Steps {
		if step < 1 || step > 100 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("reduction.steps[%d]", i),
				Message: fmt.Sprintf("step %d must be between 1 and 100", step),
			})
		}
	}
	if cfg.ItemOverhead < 0 {
		errs = append(errs, FieldError{
			Field:   "reduction.item_overhead",
			Message: "item overhead cannot be negative",
		})
	}

	return errs
}

func validateInsights(cfg *InsightsConfig) []FieldError {
	var errs []FieldError

	if cfg.MinInsights < 0 || cfg.MinInsights > cfg.MaxInsights {
		errs = append(errs, FieldError{
			Field:   "insights.min_insights",
			Message: fmt.Sprintf("min insights must be between 0 and max insights (%d)", cfg.MaxInsights),
		})
	}
	if cfg.MinActions < 0 || cfg.MinActions > cfg.MaxActions {
		errs = append(errs, FieldError{
			Field:   "insights.min_actions",
			Message: fmt.Sprintf("min actions must be between 0 and max actions (%d)", cfg.MaxActions),
		})
	}

	return errs
}

func validateCache(cfg *CacheConfig) []FieldError {
	var errs []FieldError

	if cfg.DefaultTTL <= 0 {
		errs = append(errs, FieldError{
			Field:   "cache.default_ttl",
			Message: "default TTL must be positive",
		})
	}
	if cfg.MaxEntries < 0 {
		errs = append(errs, FieldError{
			Field:   "cache.max_entries",
			Message: "max entries cannot be negative",
		})
	}
	if cfg.SweepSample < 1 {
		errs = append(errs, FieldError{
			Field:   "cache.sweep_sample",
			Message: "sweep sample must be positive",
		})
	}
	if cfg.SweepMax < cfg.SweepSample {
		errs = append(errs, FieldError{
			Field:   "cache.sweep_max",
			Message: fmt.Sprintf("sweep max (%d) must not be smaller than sweep sample (%d)", cfg.SweepMax, cfg.SweepSample),
		})
	}
	if cfg.SweepRatio <= 0 || cfg.SweepRatio > 1 {
		errs = append(errs, FieldError{
			Field:   "cache.sweep_ratio",
			Message: "sweep ratio must be in (0.0, 1.0]",
		})
	}
	if cfg.SweepEvery < 1 {
		errs = append(errs, FieldError{
			Field:   "cache.sweep_every",
			Message: "sweep every must be at least 1",
		})
	}

	return errs
}

func validateOffload(cfg *OffloadConfig) []FieldError {
	var errs []FieldError

	validBackends := map[string]bool{"memory": true, "sqlite": true}
	if !validBackends[cfg.Backend] {
		errs = append(errs, FieldError{
			Field:   "offload.backend",
			Message: fmt.Sprintf("invalid backend %q: must be 'memory' or 'sqlite'", cfg.Backend),
		})
	}
	if cfg.URIScheme == "" || strings.ContainsAny(cfg.URIScheme, ":/ ") {
		errs = append(errs, FieldError{
			Field:   "offload.uri_scheme",
			Message: fmt.Sprintf("invalid URI scheme %q", cfg.URIScheme),
		})
	}

	if cfg.Backend == "sqlite" {
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "offload.sqlite.path",
				Message: "SQLite path is required when backend is 'sqlite'",
			})
		}
		validDrivers := map[string]bool{"sqlite": true, "sqlite3": true}
		if !validDrivers[cfg.SQLite.Driver] {
			errs = append(errs, FieldError{
				Field:   "offload.sqlite.driver",
				Message: fmt.Sprintf("invalid driver %q: must be 'sqlite' or 'sqlite3'", cfg.SQLite.Driver),
			})
		}
		if cfg.SQLite.BusyTimeout < 0 {
			errs = append(errs, FieldError{
				Field:   "offload.sqlite.busy_timeout",
				Message: "busy timeout cannot be negative",
			})
		}
	}

	if cfg.Retention.MaxAge < 0 {
		errs = append(errs, FieldError{
			Field:   "offload.retention.max_age",
			Message: "max age cannot be negative",
		})
	}
	if cfg.Retention.MaxAge > 0 {
		if _, err := cron.ParseStandard(cfg.Retention.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "offload.retention.schedule",
				Message: fmt.Sprintf("invalid cron schedule %q: %v", cfg.Retention.Schedule, err),
			})
		}
	}

	return errs
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid listen address %q: %v", cfg.ListenAddress, err),
		})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.shutdown_timeout",
			Message: "shutdown timeout cannot be negative",
		})
	}
	if cfg.MaxBodyBytes < 1 {
		errs = append(errs, FieldError{
			Field:   "server.max_body_bytes",
			Message: "max body bytes must be positive",
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid logging level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid logging format %q: must be 'json' or 'text'", cfg.Logging.Format),
		})
	}

	for i, p := range cfg.Logging.RedactPatterns {
		if p.Name == "" || p.Pattern == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("telemetry.logging.redact_patterns[%d]", i),
				Message: "redact pattern requires a name and a pattern",
			})
		}
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with '/'",
		})
	}

	validSamplers := map[string]bool{"always": true, "never": true, "ratio": true}
	if !validSamplers[cfg.Tracing.Sampler] {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sampler",
			Message: fmt.Sprintf("invalid sampler %q: must be 'always', 'never', or 'ratio'", cfg.Tracing.Sampler),
		})
	}
	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.endpoint",
			Message: "tracing endpoint is required when tracing is enabled",
		})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1.0 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "sample ratio must be between 0.0 and 1.0",
		})
	}

	return errs
}
