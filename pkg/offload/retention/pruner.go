package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/offload"
)

// Config contains configuration for the retention pruner.
type Config struct {
	// MaxAge is how long resources are kept. 0 keeps them forever.
	MaxAge time.Duration

	// Schedule is a cron expression for scheduled pruning.
	// Example: "*/15 * * * *" (every 15 minutes)
	Schedule string
}

// FromConfig converts the offload retention section.
func FromConfig(cfg *config.OffloadRetentionConfig) *Config {
	return &Config{MaxAge: cfg.MaxAge, Schedule: cfg.Schedule}
}

// Pruner enforces the retention policy on an offload store.
type Pruner struct {
	store     offload.Store
	config    *Config
	logger    *slog.Logger
	now       func() time.Time
	report    func(deleted int64, err error)
	scheduler *Scheduler
}

// NewPruner creates a pruner for store. A nil config disables pruning.
func NewPruner(store offload.Store, cfg *Config, logger *slog.Logger) *Pruner {
	if cfg == nil {
		cfg = &Config{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pruner{
		store:  store,
		config: cfg,
		logger: logger.With("component", "offload.retention"),
		now:    time.Now,
	}
	p.scheduler = NewScheduler(p)
	return p
}

// OnPrune registers a callback invoked after every pruning cycle.
func (p *Pruner) OnPrune(fn func(deleted int64, err error)) {
	p.report = fn
}

// Scheduler returns the pruner's scheduler.
func (p *Pruner) Scheduler() *Scheduler {
	return p.scheduler
}

// Cutoff returns the creation time before which resources are pruned.
func (p *Pruner) Cutoff() time.Time {
	return p.now().Add(-p.config.MaxAge)
}

// Prune deletes resources older than MaxAge and returns how many were
// deleted.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if p.config.MaxAge <= 0 {
		p.logger.Debug("retention disabled, nothing pruned")
		return 0, nil
	}

	cutoff := p.Cutoff()
	deleted, err := p.store.Prune(ctx, cutoff)
	if p.report != nil {
		p.report(deleted, err)
	}
	if err != nil {
		return 0, fmt.Errorf("prune by age failed: %w", err)
	}

	if deleted > 0 {
		p.logger.Info("pruned offloaded resources",
			"deleted_count", deleted,
			"cutoff_time", cutoff,
			"max_age", p.config.MaxAge.String(),
		)
	} else {
		p.logger.Debug("no resources pruned", "cutoff_time", cutoff)
	}

	return deleted, nil
}
