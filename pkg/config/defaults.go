package config

import "time"

// Default values for configuration fields.
const (
	// Engine defaults
	DefaultBudget               = 8000
	DefaultReservedTokens       = 200
	DefaultPreviewTokens        = 500
	DefaultInsightBudgetPercent = 10
	DefaultSingleFlight         = false

	// Token estimation defaults
	DefaultCharsPerToken   = 4
	DefaultFallbackCost    = 100
	DefaultItemOverhead    = 1
	DefaultSampleThreshold = 50
	DefaultSampleSize      = 20
	DefaultSampleSeed      = uint64(42)

	// Reduction defaults
	DefaultReductionPolicy = "stepped"

	// Insight defaults
	DefaultMinInsights = 1
	DefaultMaxInsights = 5
	DefaultMinActions  = 0
	DefaultMaxActions  = 3

	// Cache defaults
	DefaultCacheEnabled     = true
	DefaultCacheTTL         = 5 * time.Minute
	DefaultCacheSweepSample = 10
	DefaultCacheSweepMax    = 100
	DefaultCacheSweepRatio  = 0.25
	DefaultCacheSweepEvery  = 1

	// Offload defaults
	DefaultOffloadEnabled           = true
	DefaultOffloadBackend           = "memory"
	DefaultOffloadURIScheme         = "callisto"
	DefaultOffloadCompress          = true
	DefaultOffloadSQLitePath        = "data/resources.db"
	DefaultOffloadSQLiteDriver      = "sqlite"
	DefaultOffloadSQLiteBusyTimeout = 5 * time.Second
	DefaultOffloadSQLiteWALMode     = true
	DefaultOffloadRetentionMaxAge   = 24 * time.Hour
	DefaultOffloadRetentionSchedule = "*/15 * * * *"

	// Format defaults
	DefaultClientEnvVar = "CALLISTO_CLIENT"

	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8090"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultMaxBodyBytes    = int64(10 << 20)

	// Telemetry defaults
	DefaultLogLevel           = "info"
	DefaultLogFormat          = "json"
	DefaultLogRedact          = true
	DefaultMetricsEnabled     = true
	DefaultMetricsPath        = "/metrics"
	DefaultMetricsNamespace   = "mercator"
	DefaultMetricsSubsystem   = "callisto"
	DefaultTracingEnabled     = false
	DefaultTracingSampler     = "ratio"
	DefaultTracingSampleRatio = 0.1
	DefaultTracingEndpoint    = "localhost:4317"
	DefaultTracingServiceName = "callisto"
	DefaultTracingInsecure    = true
	DefaultTracingTimeout     = 10 * time.Second
)

// DefaultReductionSteps are the retention percentages tried by the stepped
// reduction policy, largest first.
var DefaultReductionSteps = []int{100, 75, 50, 25, 10}

// NewDefaultConfig returns a configuration with every field set to its
// default. LoadConfig decodes YAML on top of it so that boolean settings
// which default to true keep that value when the file omits them.
func NewDefaultConfig() *Config {
	cfg := &Config{
		Engine: EngineConfig{
			SingleFlight: DefaultSingleFlight,
		},
		Cache: CacheConfig{
			Enabled: DefaultCacheEnabled,
		},
		Offload: OffloadConfig{
			Enabled:  DefaultOffloadEnabled,
			Compress: DefaultOffloadCompress,
			SQLite: OffloadSQLiteConfig{
				WALMode: DefaultOffloadSQLiteWALMode,
			},
		},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{
				Redact: DefaultLogRedact,
			},
			Metrics: MetricsConfig{
				Enabled: DefaultMetricsEnabled,
			},
			Tracing: TracingConfig{
				Enabled:  DefaultTracingEnabled,
				Insecure: DefaultTracingInsecure,
			},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with their defaults. Fields that
// are already set are left untouched.
func ApplyDefaults(cfg *Config) {
	applyEngineDefaults(&cfg.Engine)
	applyTokensDefaults(&cfg.Tokens)
	applyReductionDefaults(&cfg.Reduction)
	applyInsightsDefaults(&cfg.Insights)
	applyCacheDefaults(&cfg.Cache)
	applyOffloadDefaults(&cfg.Offload)

	if cfg.Format.ClientEnvVar == "" {
		cfg.Format.ClientEnvVar = DefaultClientEnvVar
	}

	applyServerDefaults(&cfg.Server)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyEngineDefaults(e *EngineConfig) {
	if e.DefaultBudget == 0 {
		e.DefaultBudget = DefaultBudget
	}
	if e.ReservedTokens == 0 {
		e.ReservedTokens = DefaultReservedTokens
	}
	if e.PreviewTokens == 0 {
		e.PreviewTokens = DefaultPreviewTokens
	}
	if e.InsightBudgetPercent == 0 {
		e.InsightBudgetPercent = DefaultInsightBudgetPercent
	}
}

func applyTokensDefaults(t *TokensConfig) {
	if t.CharsPerToken == 0 {
		t.CharsPerToken = DefaultCharsPerToken
	}
	if t.FallbackCost == 0 {
		t.FallbackCost = DefaultFallbackCost
	}
	if t.ItemOverhead == 0 {
		t.ItemOverhead = DefaultItemOverhead
	}
	if t.SampleThreshold == 0 {
		t.SampleThreshold = DefaultSampleThreshold
	}
	if t.SampleSize == 0 {
		t.SampleSize = DefaultSampleSize
	}
	if t.SampleSeed == 0 {
		t.SampleSeed = DefaultSampleSeed
	}
}

func applyReductionDefaults(r *ReductionConfig) {
	if r.Policy == "" {
		r.Policy = DefaultReductionPolicy
	}
	if len(r.Steps) == 0 {
		r.Steps = append([]int(nil), DefaultReductionSteps...)
	}
	if r.ItemOverhead == 0 {
		r.ItemOverhead = DefaultItemOverhead
	}
}

func applyInsightsDefaults(i *InsightsConfig) {
	if i.MinInsights == 0 {
		i.MinInsights = DefaultMinInsights
	}
	if i.MaxInsights == 0 {
		i.MaxInsights = DefaultMaxInsights
	}
	if i.MaxActions == 0 {
		i.MaxActions = DefaultMaxActions
	}
}

func applyCacheDefaults(c *CacheConfig) {
	if c.DefaultTTL == 0 {
		c.DefaultTTL = DefaultCacheTTL
	}
	if c.SweepSample == 0 {
		c.SweepSample = DefaultCacheSweepSample
	}
	if c.SweepMax == 0 {
		c.SweepMax = DefaultCacheSweepMax
	}
	if c.SweepRatio == 0 {
		c.SweepRatio = DefaultCacheSweepRatio
	}
	if c.SweepEvery == 0 {
		c.SweepEvery = DefaultCacheSweepEvery
	}
}

func applyOffloadDefaults(o *OffloadConfig) {
	if o.Backend == "" {
		o.Backend = DefaultOffloadBackend
	}
	if o.URIScheme == "" {
		o.URIScheme = DefaultOffloadURIScheme
	}
	if o.SQLite.Path == "" {
		o.SQLite.Path = DefaultOffloadSQLitePath
	}
	if o.SQLite.Driver == "" {
		o.SQLite.Driver = DefaultOffloadSQLiteDriver
	}
	if o.SQLite.BusyTimeout == 0 {
		o.SQLite.BusyTimeout = DefaultOffloadSQLiteBusyTimeout
	}
	if o.Retention.MaxAge == 0 {
		o.Retention.MaxAge = DefaultOffloadRetentionMaxAge
	}
	if o.Retention.Schedule == "" {
		o.Retention.Schedule = DefaultOffloadRetentionSchedule
	}
}

func applyServerDefaults(s *ServerConfig) {
	if s.ListenAddress == "" {
		s.ListenAddress = DefaultListenAddress
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = DefaultReadTimeout
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = DefaultWriteTimeout
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = DefaultShutdownTimeout
	}
	if s.MaxBodyBytes == 0 {
		s.MaxBodyBytes = DefaultMaxBodyBytes
	}
}

func applyTelemetryDefaults(t *TelemetryConfig) {
	if t.Logging.Level == "" {
		t.Logging.Level = DefaultLogLevel
	}
	if t.Logging.Format == "" {
		t.Logging.Format = DefaultLogFormat
	}

	if t.Metrics.Path == "" {
		t.Metrics.Path = DefaultMetricsPath
	}
	if t.Metrics.Namespace == "" {
		t.Metrics.Namespace = DefaultMetricsNamespace
	}
	if t.Metrics.Subsystem == "" {
		t.Metrics.Subsystem = DefaultMetricsSubsystem
	}
	if len(t.Metrics.BuildDurationBuckets) == 0 {
		t.Metrics.BuildDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}
	}
	if len(t.Metrics.TokenCountBuckets) == 0 {
		t.Metrics.TokenCountBuckets = []float64{100, 500, 1000, 5000, 10000, 50000, 100000}
	}

	if t.Tracing.Sampler == "" {
		t.Tracing.Sampler = DefaultTracingSampler
	}
	if t.Tracing.SampleRatio == 0 {
		t.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if t.Tracing.Endpoint == "" {
		t.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if t.Tracing.ServiceName == "" {
		t.Tracing.ServiceName = DefaultTracingServiceName
	}
	if t.Tracing.Timeout == 0 {
		t.Tracing.Timeout = DefaultTracingTimeout
	}
}
