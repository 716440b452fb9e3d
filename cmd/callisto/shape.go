package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/response"
)

var shapeFlags struct {
	budget int
	client string
	meta   bool
}

var shapeCmd = &cobra.Command{
	Use:   "shape <file>",
	Short: "Shape a JSON file to a token budget",
	Long: `Run the response builder over a JSON file as if a tool had returned it.

The file is reduced, offloaded or truncated as needed to fit the budget and
rendered for the client environment. With --format json the complete
response including metadata is printed.

Examples:
  # Shape to the configured default budget
  callisto shape results.json

  # Shape for a markdown client with a small budget
  callisto shape results.json --budget 500 --client vscode`,
	Args: cobra.ExactArgs(1),
	RunE: runShape,
}

func init() {
	rootCmd.AddCommand(shapeCmd)

	shapeCmd.Flags().IntVarP(&shapeFlags.budget, "budget", "b", 0, "token budget (0 uses engine.default_budget)")
	shapeCmd.Flags().StringVar(&shapeFlags.client, "client", "", "client name for environment detection")
	shapeCmd.Flags().BoolVar(&shapeFlags.meta, "meta", false, "print response metadata after the content (text output)")
}

// fileTool returns the decoded contents of a JSON file.
func fileTool(path string) response.Tool {
	return response.ToolFunc{
		ToolName: "file",
		Fn: func(ctx context.Context, params map[string]any) (any, error) {
			v, _, err := readJSONFile(path)
			return v, err
		},
	}
}

func runShape(cmd *cobra.Command, args []string) error {
	if shapeFlags.budget < 0 {
		return fmt.Errorf("--budget must be non-negative, got %d", shapeFlags.budget)
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	f, format, err := formatter()
	if err != nil {
		return err
	}
	if format == cli.FormatCSV {
		return fmt.Errorf("shape does not support csv output")
	}

	a, err := newApp(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	defer a.Close(context.WithoutCancel(ctx))

	path := args[0]
	resp, err := a.builder.Build(ctx, response.Request{
		Params: map[string]any{"path": path},
		Budget: shapeFlags.budget,
		Client: shapeFlags.client,
	}, fileTool(path))
	if err != nil {
		return cli.NewCommandError("shape", err)
	}

	if resp.Meta.ResourceAvailable && cfg.Offload.Backend == "memory" {
		fmt.Fprintln(cmd.ErrOrStderr(), "note: the memory backend discards offloaded resources on exit; use offload.backend sqlite to keep them")
	}

	if format == cli.FormatJSON {
		return f.FormatTo(cmd.OutOrStdout(), resp)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, resp.Content)
	if shapeFlags.meta || verbose {
		printMeta(out, resp.Meta)
	}
	return nil
}

func printMeta(w io.Writer, m response.Meta) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "path: %s\n", m.Path)
	fmt.Fprintf(w, "environment: %s\n", m.Environment)
	fmt.Fprintf(w, "tokens: %d of %d (original %d)\n", m.EstimatedTokens, m.Budget, m.OriginalTokens)
	for _, r := range m.Reductions {
		fmt.Fprintf(w, "reduced %s: %d of %d (%s)\n", r.Field, r.RetainedCount, r.OriginalCount, r.Policy)
	}
	if m.ResourceAvailable {
		fmt.Fprintf(w, "resource: %s (%s)\n", m.ResourceURI, cli.Bytes(m.ResourceSize))
	}
	if m.OffloadFailed {
		fmt.Fprintln(w, "offload failed, content truncated")
	}
}
