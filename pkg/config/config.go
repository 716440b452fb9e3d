package config

import "time"

// Config is the root configuration structure for Callisto.
// It contains the settings for the response engine, token estimation,
// reduction, caching, offload storage, formatting, the HTTP surface and
// telemetry.
type Config struct {
	// Engine contains settings for the adaptive response builder including
	// the default budget, reserved scaffolding overhead and preview size.
	Engine EngineConfig `yaml:"engine"`

	// Tokens contains token estimation settings.
	Tokens TokensConfig `yaml:"tokens"`

	// Reduction contains the collection reduction policy settings.
	Reduction ReductionConfig `yaml:"reduction"`

	// Insights contains bounds for supplementary insights and actions.
	Insights InsightsConfig `yaml:"insights"`

	// Cache contains response cache settings.
	Cache CacheConfig `yaml:"cache"`

	// Offload contains settings for the durable store that holds results
	// too large to return inline.
	Offload OffloadConfig `yaml:"offload"`

	// Format contains client environment detection settings.
	Format FormatConfig `yaml:"format"`

	// Server contains HTTP server configuration for the retrieval,
	// estimation, metrics and health endpoints.
	Server ServerConfig `yaml:"server"`

	// Telemetry contains configuration for observability including logging,
	// metrics, and distributed tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// EngineConfig contains configuration for the adaptive response builder.
type EngineConfig struct {
	// DefaultBudget is the token budget used when a request does not carry one.
	// Default: 8000
	DefaultBudget int `yaml:"default_budget"`

	// ReservedTokens is subtracted from every budget to leave room for the
	// response scaffolding (metadata, notices, fences).
	// Default: 200
	ReservedTokens int `yaml:"reserved_tokens"`

	// PreviewTokens is the size of the inline preview returned alongside an
	// offloaded resource handle.
	// Default: 500
	PreviewTokens int `yaml:"preview_tokens"`

	// InsightBudgetPercent is the share of the budget given to supplementary
	// insights and actions.
	// Default: 10
	InsightBudgetPercent int `yaml:"insight_budget_percent"`

	// SingleFlight collapses concurrent identical cache misses into a single
	// tool invocation. When false, concurrent misses may compute twice and
	// the last write to the cache wins.
	// Default: false
	SingleFlight bool `yaml:"single_flight"`

	// ComputeTimeout bounds a single tool invocation. Zero means the caller's
	// context is the only bound.
	// Default: 0
	ComputeTimeout time.Duration `yaml:"compute_timeout"`
}

// TokensConfig contains token estimation configuration.
type TokensConfig struct {
	// CharsPerToken is the character-to-token ratio of the estimation
	// heuristic. Costs are rounded up.
	// Default: 4
	CharsPerToken int `yaml:"chars_per_token"`

	// FallbackCost is the conservative cost assigned to values that cannot
	// be serialized or contain reference cycles.
	// Default: 100
	FallbackCost int `yaml:"fallback_cost"`

	// ItemOverhead is the structural cost added per collection element.
	// Default: 1
	ItemOverhead int `yaml:"item_overhead"`

	// StringOverhead is added to every non-empty string.
	// Default: 0
	StringOverhead int `yaml:"string_overhead"`

	// SampleThreshold is the collection size above which costs are
	// extrapolated from a sample.
	// Default: 50
	SampleThreshold int `yaml:"sample_threshold"`

	// SampleSize is the number of elements sampled from a large collection.
	// Default: 20
	SampleSize int `yaml:"sample_size"`

	// SampleSeed seeds the sampler so estimates are reproducible.
	// Default: 42
	SampleSeed uint64 `yaml:"sample_seed"`
}

// ReductionConfig contains collection reduction configuration.
type ReductionConfig struct {
	// Policy selects the default reduction policy.
	// Options: "stepped", "priority"
	// Default: "stepped"
	Policy string `yaml:"policy"`

	// Steps are the retention percentages tried by the stepped policy.
	// Default: [100, 75, 50, 25, 10]
	Steps []int `yaml:"steps"`

	// ItemOverhead is the structural cost charged per retained element.
	// Default: 1
	ItemOverhead int `yaml:"item_overhead"`
}

// InsightsConfig bounds the supplementary insights and actions attached
// to a response.
type InsightsConfig struct {
	// MinInsights is the minimum number of insights. A fallback insight is
	// generated when templates produce fewer.
	// Default: 1
	MinInsights int `yaml:"min_insights"`

	// MaxInsights caps the number of insights.
	// Default: 5
	MaxInsights int `yaml:"max_insights"`

	// MinActions is the minimum number of suggested actions.
	// Default: 0
	MinActions int `yaml:"min_actions"`

	// MaxActions caps the number of suggested actions.
	// Default: 3
	MaxActions int `yaml:"max_actions"`
}

// CacheConfig contains response cache configuration.
type CacheConfig struct {
	// Enabled controls whether built responses are cached.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// DefaultTTL is the time-to-live applied when a write does not carry one.
	// Default: 5m
	DefaultTTL time.Duration `yaml:"default_ttl"`

	// MaxEntries bounds the number of entries. Zero means unbounded.
	// Default: 0
	MaxEntries int `yaml:"max_entries"`

	// SweepSample is the number of entries inspected on each write.
	// Default: 10
	SweepSample int `yaml:"sweep_sample"`

	// SweepMax bounds the number of entries visited by a full sweep pass.
	// Default: 100
	SweepMax int `yaml:"sweep_max"`

	// SweepRatio is the fraction of expired entries in the sample above
	// which a full sweep pass runs.
	// Default: 0.25
	SweepRatio float64 `yaml:"sweep_ratio"`

	// SweepEvery runs the sweep on every Nth write.
	// Default: 1
	SweepEvery int `yaml:"sweep_every"`
}

// OffloadConfig contains configuration for the offload resource store.
type OffloadConfig struct {
	// Enabled controls whether oversized results are offloaded. When false
	// oversized results are truncated inline.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Backend selects the storage backend.
	// Options: "memory", "sqlite"
	// Default: "memory"
	Backend string `yaml:"backend"`

	// URIScheme is the scheme of resource handles (scheme://resources/<id>).
	// Default: "callisto"
	URIScheme string `yaml:"uri_scheme"`

	// Compress enables zstd compression of payloads at rest (sqlite only).
	// Default: true
	Compress bool `yaml:"compress"`

	// SQLite contains SQLite backend settings.
	SQLite OffloadSQLiteConfig `yaml:"sqlite"`

	// Retention contains pruning settings for stored resources.
	Retention OffloadRetentionConfig `yaml:"retention"`
}

// OffloadSQLiteConfig contains SQLite-specific configuration.
type OffloadSQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/resources.db"
	Path string `yaml:"path"`

	// Driver selects the database/sql driver.
	// Options: "sqlite" (modernc, pure Go), "sqlite3" (mattn, cgo)
	// Default: "sqlite"
	Driver string `yaml:"driver"`

	// BusyTimeout is how long to wait on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`

	// WALMode enables write-ahead logging.
	// Default: true
	WALMode bool `yaml:"wal_mode"`
}

// OffloadRetentionConfig contains retention configuration for offloaded
// resources.
type OffloadRetentionConfig struct {
	// MaxAge is how long resources are kept. Zero disables pruning.
	// Default: 24h
	MaxAge time.Duration `yaml:"max_age"`

	// Schedule is the cron schedule for pruning (standard 5-field syntax).
	// Default: "*/15 * * * *"
	Schedule string `yaml:"schedule"`
}

// FormatConfig contains client environment detection configuration.
type FormatConfig struct {
	// DefaultEnvironment is the client name assumed when detection yields
	// nothing.
	// Default: "" (plain text)
	DefaultEnvironment string `yaml:"default_environment"`

	// ClientEnvVar is the environment variable naming the client.
	// Default: "CALLISTO_CLIENT"
	ClientEnvVar string `yaml:"client_env_var"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Format: "host:port" (e.g., "127.0.0.1:8090").
	// Default: "127.0.0.1:8090"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out response writes.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// ShutdownTimeout is the grace period for in-flight requests on shutdown.
	// Default: 15s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxBodyBytes bounds request bodies accepted by the estimate endpoint.
	// Default: 10MB
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text"
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// Redact masks secret-looking values (API keys, bearer tokens,
	// passwords) in log attributes.
	// Default: true
	Redact bool `yaml:"redact"`

	// RedactPatterns contains additional redaction patterns.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern defines a custom redaction pattern.
type RedactPattern struct {
	// Name is a descriptive name for the pattern.
	Name string `yaml:"name"`

	// Pattern is the regular expression to match.
	Pattern string `yaml:"pattern"`

	// Replacement is the string to replace matches with.
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "mercator"
	Namespace string `yaml:"namespace"`

	// Subsystem is the metric subsystem name.
	// Default: "callisto"
	Subsystem string `yaml:"subsystem"`

	// BuildDurationBuckets defines histogram buckets for response build
	// duration (seconds).
	// Default: [0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5]
	BuildDurationBuckets []float64 `yaml:"build_duration_buckets"`

	// TokenCountBuckets defines histogram buckets for estimated token counts.
	// Default: [100, 500, 1000, 5000, 10000, 50000, 100000]
	TokenCountBuckets []float64 `yaml:"token_count_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "callisto"
	ServiceName string `yaml:"service_name"`

	// Insecure disables TLS for the collector connection.
	// Default: true
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for span exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}
