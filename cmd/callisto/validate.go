package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a configuration file",
	Long: `Load a configuration file with environment overrides applied and report
any validation errors. Without an argument the --config file is checked.

Examples:
  callisto validate callisto.yaml
  CALLISTO_ENGINE_DEFAULT_BUDGET=4000 callisto validate callisto.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if len(args) == 1 {
		path = args[0]
	}
	f, format, err := formatter()
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfigWithEnvOverrides(path)
	if err != nil {
		return cli.NewConfigError(path, err.Error())
	}

	table := &cli.Table{Headers: []string{"setting", "value"}}
	table.Append("engine.default_budget", strconv.Itoa(cfg.Engine.DefaultBudget))
	table.Append("engine.reserved_tokens", strconv.Itoa(cfg.Engine.ReservedTokens))
	table.Append("reduction.policy", cfg.Reduction.Policy)
	table.Append("cache.enabled", strconv.FormatBool(cfg.Cache.Enabled))
	table.Append("offload.enabled", strconv.FormatBool(cfg.Offload.Enabled))
	table.Append("offload.backend", cfg.Offload.Backend)
	table.Append("server.listen_address", cfg.Server.ListenAddress)
	table.Append("telemetry.metrics.enabled", strconv.FormatBool(cfg.Telemetry.Metrics.Enabled))
	table.Append("telemetry.tracing.enabled", strconv.FormatBool(cfg.Telemetry.Tracing.Enabled))

	if format == cli.FormatText {
		source := path
		if source == "" {
			source = "defaults"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Configuration valid (%s)\n\n", source)
	}
	return f.FormatTo(cmd.OutOrStdout(), table)
}
