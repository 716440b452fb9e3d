package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/config"
	"mercator-hq/callisto/pkg/offload"
	"mercator-hq/callisto/pkg/offload/retention"
	"mercator-hq/callisto/pkg/server"
	"mercator-hq/callisto/pkg/telemetry/metrics"
)

var serveFlags struct {
	listenAddress string
	watch         bool
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the retrieval server",
	Long: `Start the HTTP server for offloaded resources.

The server exposes:
  GET    /v1/resources/{id}   page or query an offloaded resource
  DELETE /v1/resources/{id}   delete an offloaded resource
  POST   /v1/estimate         estimate the token cost of a JSON body
  GET    /metrics             Prometheus metrics
  GET    /health, /ready      probes
  GET    /version             build information

Offloaded resources are pruned on the retention schedule. With --watch the
configuration file is reloaded on change and the retention schedule is
replaced.

Examples:
  # Start with defaults
  callisto serve

  # Start with a config file and reload it on change
  callisto serve --config /etc/callisto/config.yaml --watch

  # Override the listen address
  callisto serve --listen 0.0.0.0:8090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().BoolVar(&serveFlags.watch, "watch", false, "reload the config file when it changes")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "wire every component and exit without serving")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}

	a, err := newApp(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	ctx, stop := cli.SetupSignalHandler(commandContext(cmd))
	defer stop()

	metricsPath := ""
	if cfg.Telemetry.Metrics.Enabled {
		metricsPath = cfg.Telemetry.Metrics.Path
	}
	srv := server.New(&cfg.Server, metricsPath, server.Deps{
		Store:     a.store,
		Estimator: a.builder.Estimator(),
		Metrics:   a.telemetry.Metrics(),
		Health:    a.telemetry.Health(),
		Logger:    a.logger,
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildDate,
	})

	if serveFlags.dryRun {
		fmt.Fprintln(cmd.OutOrStdout(), "✓ Configuration valid, components wired")
		return nil
	}

	if a.store != nil {
		sched := newRetentionRunner(a.store, a.telemetry.Metrics(), a.logger)
		if err := sched.apply(ctx, &cfg.Offload.Retention); err != nil {
			return cli.NewConfigError("offload.retention.schedule", err.Error())
		}
		defer sched.stop()

		if serveFlags.watch && cfgFile != "" {
			go watchConfig(ctx, a.logger, sched)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Callisto v%s listening on %s\n", Version, cfg.Server.ListenAddress)
	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "✓ Server stopped")
	return nil
}

// retentionRunner owns the active retention scheduler and replaces it when
// the retention settings change.
type retentionRunner struct {
	store   offload.Store
	metrics *metrics.Collector
	logger  *slog.Logger

	mu      sync.Mutex
	current config.OffloadRetentionConfig
	pruner  *retention.Pruner
}

func newRetentionRunner(store offload.Store, m *metrics.Collector, logger *slog.Logger) *retentionRunner {
	return &retentionRunner{store: store, metrics: m, logger: logger}
}

// apply starts a scheduler for cfg, stopping the previous one. Unchanged
// settings keep the running scheduler.
func (r *retentionRunner) apply(ctx context.Context, cfg *config.OffloadRetentionConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pruner != nil && r.current == *cfg {
		return nil
	}

	pruner := retention.NewPruner(r.store, retention.FromConfig(cfg), r.logger)
	pruner.OnPrune(func(deleted int64, err error) {
		if err == nil {
			r.metrics.RecordPruned(deleted)
		}
	})
	if err := pruner.Scheduler().Start(ctx); err != nil {
		return err
	}

	if r.pruner != nil {
		r.pruner.Scheduler().Stop()
	}
	r.pruner = pruner
	r.current = *cfg
	if next := pruner.Scheduler().NextRun(); next != nil {
		r.logger.Debug("retention scheduler armed", "next_run", next)
	}
	return nil
}

func (r *retentionRunner) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pruner != nil {
		r.pruner.Scheduler().Stop()
	}
}

func watchConfig(ctx context.Context, logger *slog.Logger, sched *retentionRunner) {
	w, err := config.NewWatcher(cfgFile, 0, logger)
	if err != nil {
		logger.Error("failed to start config watcher", "error", err)
		return
	}
	err = w.Watch(ctx, func(cfg *config.Config) {
		if err := sched.apply(ctx, &cfg.Offload.Retention); err != nil {
			logger.Error("failed to apply reloaded retention settings", "error", err)
			return
		}
		logger.Info("reloaded configuration applied; server and storage settings take effect on restart")
	})
	if err != nil {
		logger.Error("config watcher stopped", "error", err)
	}
}
