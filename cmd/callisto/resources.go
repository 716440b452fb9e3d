package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/offload"
	"mercator-hq/callisto/pkg/offload/retention"
)

var resourcesFlags struct {
	offset int64
	limit  int64
	path   string
	maxAge time.Duration
}

var resourcesCmd = &cobra.Command{
	Use:   "resources",
	Short: "Inspect and prune offloaded resources",
	Long: `Work with payloads offloaded by the response builder.

Subcommands:
  get     - Print an offloaded payload, a byte range of it or a JSON path
  delete  - Delete an offloaded payload
  prune   - Delete payloads older than the retention age

Handles are accepted either as URIs (callisto://resources/<id>) or as bare
resource IDs. Resources only outlive the process with the sqlite backend.`,
}

var resourcesGetCmd = &cobra.Command{
	Use:   "get <handle>",
	Short: "Print an offloaded resource",
	Long: `Print an offloaded resource to stdout.

Examples:
  # Whole payload
  callisto resources get callisto://resources/<id>

  # Second 4 KiB page
  callisto resources get <id> --offset 4096 --limit 4096

  # JSON path query
  callisto resources get <id> --path "items.#.name"`,
	Args: cobra.ExactArgs(1),
	RunE: runResourcesGet,
}

var resourcesDeleteCmd = &cobra.Command{
	Use:   "delete <handle>",
	Short: "Delete an offloaded resource",
	Args:  cobra.ExactArgs(1),
	RunE:  runResourcesDelete,
}

var resourcesPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete resources older than the retention age",
	Long: `Delete offloaded resources older than offload.retention.max_age, or
--max-age when given.`,
	Args: cobra.NoArgs,
	RunE: runResourcesPrune,
}

func init() {
	rootCmd.AddCommand(resourcesCmd)
	resourcesCmd.AddCommand(resourcesGetCmd, resourcesDeleteCmd, resourcesPruneCmd)

	resourcesGetCmd.Flags().Int64Var(&resourcesFlags.offset, "offset", 0, "byte offset of the first byte to print")
	resourcesGetCmd.Flags().Int64Var(&resourcesFlags.limit, "limit", 0, "maximum bytes to print (0 prints the remainder)")
	resourcesGetCmd.Flags().StringVar(&resourcesFlags.path, "path", "", "gjson path to extract from a JSON payload")
	resourcesPruneCmd.Flags().DurationVar(&resourcesFlags.maxAge, "max-age", 0, "override offload.retention.max_age")
}

// withStore opens the configured store for the duration of fn.
func withStore(cmd *cobra.Command, name string, fn func(ctx context.Context, a *app, store offload.Store) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	defer a.Close(context.WithoutCancel(ctx))

	store, err := a.requireStore()
	if err != nil {
		return err
	}
	if err := fn(ctx, a, store); err != nil {
		return cli.NewCommandError(name, err)
	}
	return nil
}

func runResourcesGet(cmd *cobra.Command, args []string) error {
	return withStore(cmd, "resources get", func(ctx context.Context, _ *app, store offload.Store) error {
		out := cmd.OutOrStdout()
		if resourcesFlags.path != "" {
			raw, err := offload.Query(ctx, store, args[0], resourcesFlags.path)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, string(raw))
			return err
		}

		page, err := offload.RetrieveRange(ctx, store, args[0], resourcesFlags.offset, resourcesFlags.limit)
		if err != nil {
			return err
		}
		if _, err := out.Write(page.Data); err != nil {
			return err
		}
		fmt.Fprintln(out)
		if page.More {
			next := page.Offset + int64(len(page.Data))
			fmt.Fprintf(cmd.ErrOrStderr(), "%s of %s shown, continue with --offset %s\n",
				cli.Bytes(next), cli.Bytes(page.Total), strconv.FormatInt(next, 10))
		}
		return nil
	})
}

func runResourcesDelete(cmd *cobra.Command, args []string) error {
	return withStore(cmd, "resources delete", func(ctx context.Context, _ *app, store offload.Store) error {
		if err := store.Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted %s\n", args[0])
		return nil
	})
}

func runResourcesPrune(cmd *cobra.Command, args []string) error {
	return withStore(cmd, "resources prune", func(ctx context.Context, a *app, store offload.Store) error {
		rcfg := retention.FromConfig(&a.cfg.Offload.Retention)
		if resourcesFlags.maxAge > 0 {
			rcfg.MaxAge = resourcesFlags.maxAge
		}
		if rcfg.MaxAge <= 0 {
			return fmt.Errorf("retention max age is not set")
		}

		pruner := retention.NewPruner(store, rcfg, a.logger)
		pruner.OnPrune(func(deleted int64, err error) {
			if err == nil {
				a.telemetry.Metrics().RecordPruned(deleted)
			}
		})
		deleted, err := pruner.Prune(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Pruned %d resources created before %s\n",
			deleted, pruner.Cutoff().UTC().Format(time.RFC3339))
		return nil
	})
}
