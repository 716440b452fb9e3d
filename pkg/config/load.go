package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// envPrefix is the prefix of every environment override.
const envPrefix = "CALLISTO_"

// LoadConfig loads configuration from a YAML file at the specified path.
// The file is decoded on top of NewDefaultConfig, remaining zero values are
// defaulted and the result is validated. Environment variables are not
// consulted; use LoadConfigWithEnvOverrides for that.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML configuration bytes on top of the defaults. It does not
// validate.
func Parse(data []byte) (*Config, error) {
	cfg := NewDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(cfg)
	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention CALLISTO_SECTION_FIELD (e.g., CALLISTO_CACHE_DEFAULT_TTL) and
// always take precedence over the file.
//
// An empty path skips the file and starts from the defaults.
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = NewDefaultConfig()
	} else {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Unparseable values are ignored.
func applyEnvOverrides(cfg *Config) {
	// Engine
	envInt("ENGINE_DEFAULT_BUDGET", &cfg.Engine.DefaultBudget)
	envInt("ENGINE_RESERVED_TOKENS", &cfg.Engine.ReservedTokens)
	envInt("ENGINE_PREVIEW_TOKENS", &cfg.Engine.PreviewTokens)
	envInt("ENGINE_INSIGHT_BUDGET_PERCENT", &cfg.Engine.InsightBudgetPercent)
	envBool("ENGINE_SINGLE_FLIGHT", &cfg.Engine.SingleFlight)
	envDuration("ENGINE_COMPUTE_TIMEOUT", &cfg.Engine.ComputeTimeout)

	// Tokens
	envInt("TOKENS_CHARS_PER_TOKEN", &cfg.Tokens.CharsPerToken)
	envInt("TOKENS_FALLBACK_COST", &cfg.Tokens.FallbackCost)
	envInt("TOKENS_SAMPLE_THRESHOLD", &cfg.Tokens.SampleThreshold)
	envInt("TOKENS_SAMPLE_SIZE", &cfg.Tokens.SampleSize)
	if val := os.Getenv(envPrefix + "TOKENS_SAMPLE_SEED"); val != "" {
		if u, err := strconv.ParseUint(val, 10, 64); err == nil {
			cfg.Tokens.SampleSeed = u
		}
	}

	// Reduction
	if val := os.Getenv(envPrefix + "REDUCTION_POLICY"); val != "" {
		cfg.Reduction.Policy = strings.ToLower(val)
	}
	if val := os.Getenv(envPrefix + "REDUCTION_STEPS"); val != "" {
		var steps []int
		for _, part := range strings.Split(val, ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				steps = nil
				break
			}
			steps = append(steps, n)
		}
		if len(steps) > 0 {
			cfg.Reduction.Steps = steps
		}
	}

	// Cache
	envBool("CACHE_ENABLED", &cfg.Cache.Enabled)
	envDuration("CACHE_DEFAULT_TTL", &cfg.Cache.DefaultTTL)
	envInt("CACHE_MAX_ENTRIES", &cfg.Cache.MaxEntries)

	// Offload
	envBool("OFFLOAD_ENABLED", &cfg.Offload.Enabled)
	envString("OFFLOAD_BACKEND", &cfg.Offload.Backend)
	envString("OFFLOAD_URI_SCHEME", &cfg.Offload.URIScheme)
	envBool("OFFLOAD_COMPRESS", &cfg.Offload.Compress)
	envString("OFFLOAD_SQLITE_PATH", &cfg.Offload.SQLite.Path)
	envString("OFFLOAD_SQLITE_DRIVER", &cfg.Offload.SQLite.Driver)
	envDuration("OFFLOAD_RETENTION_MAX_AGE", &cfg.Offload.Retention.MaxAge)
	envString("OFFLOAD_RETENTION_SCHEDULE", &cfg.Offload.Retention.Schedule)

	// Format
	envString("FORMAT_DEFAULT_ENVIRONMENT", &cfg.Format.DefaultEnvironment)

	// Server
	envString("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	// Telemetry
	if val := os.Getenv(envPrefix + "TELEMETRY_LOGGING_LEVEL"); val != "" {
		cfg.Telemetry.Logging.Level = strings.ToLower(val)
	}
	if val := os.Getenv(envPrefix + "TELEMETRY_LOGGING_FORMAT"); val != "" {
		cfg.Telemetry.Logging.Format = strings.ToLower(val)
	}
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
}

func envString(name string, dst *string) {
	if val := os.Getenv(envPrefix + name); val != "" {
		*dst = val
	}
}

func envInt(name string, dst *int) {
	if val := os.Getenv(envPrefix + name); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envBool(name string, dst *bool) {
	if val := os.Getenv(envPrefix + name); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envDuration(name string, dst *time.Duration) {
	if val := os.Getenv(envPrefix + name); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
