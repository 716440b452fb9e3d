package tokens

import (
	"fmt"
	"log/slog"
	"reflect"
	"unicode/utf8"

	"mercator-hq/callisto/pkg/config"
)

// DefaultCharsPerToken is the character-to-token ratio used when the
// configuration does not set one.
const DefaultCharsPerToken = config.DefaultCharsPerToken

// Estimator costs values in abstract tokens. It is safe for concurrent use;
// each call walks the value with its own Walker.
type Estimator struct {
	cfg      config.TokensConfig
	registry *Registry
	logger   *slog.Logger
}

// NewEstimator creates an estimator with the built-in strategies. A nil
// config uses the defaults. Non-positive ratios, costs and sample sizes are
// replaced by their defaults.
func NewEstimator(cfg *config.TokensConfig, logger *slog.Logger) *Estimator {
	var c config.TokensConfig
	if cfg != nil {
		c = *cfg
	} else {
		c = config.NewDefaultConfig().Tokens
	}

	if c.CharsPerToken < 1 {
		c.CharsPerToken = config.DefaultCharsPerToken
	}
	if c.FallbackCost < 1 {
		c.FallbackCost = config.DefaultFallbackCost
	}
	if c.SampleSize < 1 {
		c.SampleSize = config.DefaultSampleSize
	}
	if c.SampleThreshold < c.SampleSize {
		c.SampleThreshold = c.SampleSize
	}
	if c.ItemOverhead < 0 {
		c.ItemOverhead = 0
	}
	if c.StringOverhead < 0 {
		c.StringOverhead = 0
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Estimator{
		cfg:      c,
		registry: NewRegistry(),
		logger:   logger.With("component", "tokens.estimator"),
	}
}

// Registry returns the estimator's strategy registry.
func (e *Estimator) Registry() *Registry {
	return e.registry
}

// CharsPerToken returns the configured character-to-token ratio.
func (e *Estimator) CharsPerToken() int {
	return e.cfg.CharsPerToken
}

// Estimate returns the cost of v. nil costs 0. Values with reference cycles
// or that make a strategy panic cost FallbackCost.
func (e *Estimator) Estimate(v any) int {
	if v == nil {
		return 0
	}
	return e.EstimateValue(reflect.ValueOf(v))
}

// EstimateValue is Estimate for an already reflected value.
func (e *Estimator) EstimateValue(v reflect.Value) (cost int) {
	w := newWalker(e)

	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("estimation strategy panicked, using fallback cost",
				"type", typeName(v),
				"panic", fmt.Sprint(r),
			)
			cost = e.cfg.FallbackCost
		}
	}()

	cost = w.Estimate(v)
	if err := w.Err(); err != nil {
		e.logger.Debug("estimation aborted, using fallback cost",
			"type", typeName(v),
			"error", err,
		)
		return e.cfg.FallbackCost
	}
	return cost
}

// EstimateText costs a string: ceil(runes / CharsPerToken), plus the string
// overhead for non-empty input.
func (e *Estimator) EstimateText(s string) int {
	if s == "" {
		return 0
	}
	return CeilDiv(utf8.RuneCountInString(s), e.cfg.CharsPerToken) + e.cfg.StringOverhead
}

// Cost adapts Estimate to the element cost function used by reduction.
func Cost[T any](e *Estimator) func(T) int {
	return func(item T) int {
		return e.Estimate(item)
	}
}

func typeName(v reflect.Value) string {
	if !v.IsValid() {
		return "invalid"
	}
	return v.Type().String()
}
