package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"mercator-hq/callisto/pkg/cache"
	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/offload"
	"mercator-hq/callisto/pkg/response"
	"mercator-hq/callisto/pkg/telemetry"
	"mercator-hq/callisto/pkg/telemetry/health"
)

// app holds the components shared by the commands.
type app struct {
	cfg       *config.Config
	telemetry *telemetry.Telemetry
	logger    *slog.Logger
	store     offload.Store
	builder   *response.Builder
}

// newApp wires telemetry, the offload store and the response builder from
// cfg. Logs go to logw.
func newApp(cfg *config.Config, logw io.Writer) (*app, error) {
	tel, err := telemetry.New(&cfg.Telemetry, logw)
	if err != nil {
		return nil, cli.NewConfigError("telemetry", err.Error())
	}
	logger := tel.Logger()

	a := &app{cfg: cfg, telemetry: tel, logger: logger}

	opts := []response.Option{
		response.WithLogger(logger),
		response.WithRecorder(tel.Metrics()),
		response.WithTracer(tel.Tracer()),
	}

	if cfg.Offload.Enabled {
		store, err := offload.Open(&cfg.Offload, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open offload store: %w", err)
		}
		a.store = store
		tel.Health().Register("offload", health.PingCheck(store))
		opts = append(opts, response.WithStore(store))
	}

	if cfg.Cache.Enabled {
		mc := cache.NewMemoryCache(&cfg.Cache)
		mc.SetObserver(tel.Metrics().CacheObserver("response"))
		opts = append(opts, response.WithCache(mc))
	}

	a.builder = response.NewBuilder(cfg, opts...)
	return a, nil
}

// requireStore returns the offload store or an error when offloading is
// disabled.
func (a *app) requireStore() (offload.Store, error) {
	if a.store == nil {
		return nil, cli.NewConfigError("offload.enabled", "offloading is disabled")
	}
	return a.store, nil
}

// Close releases the store and flushes telemetry.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close offload store: %w", err))
		}
	}
	if err := a.telemetry.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("shutdown telemetry: %w", err))
	}
	return errors.Join(errs...)
}
