package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/processing/tokens"
	"mercator-hq/callisto/pkg/telemetry/logging"
)

var estimateFlags struct {
	progress bool
}

var estimateCmd = &cobra.Command{
	Use:   "estimate <file>...",
	Short: "Estimate the token cost of JSON files",
	Long: `Estimate the token cost of one or more JSON files using the configured
estimator (characters per token, item overhead and sampling of large
collections).

Examples:
  # Single file
  callisto estimate results.json

  # Several files as CSV with a progress bar on stderr
  callisto estimate --progress --format csv *.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runEstimate,
}

func init() {
	rootCmd.AddCommand(estimateCmd)

	estimateCmd.Flags().BoolVar(&estimateFlags.progress, "progress", false, "report progress on stderr")
}

// fileEstimate is the estimate of one file.
type fileEstimate struct {
	File   string `json:"file"`
	Bytes  int64  `json:"bytes"`
	Tokens int    `json:"tokens"`
}

func runEstimate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	f, format, err := formatter()
	if err != nil {
		return err
	}

	est := tokens.NewEstimator(&cfg.Tokens, logging.Discard())

	var progress cli.ProgressReporter
	if estimateFlags.progress {
		progress = cli.NewProgressReporter(cmd.ErrOrStderr(), "files")
		progress.Start(int64(len(args)))
	}

	results := make([]fileEstimate, 0, len(args))
	for i, path := range args {
		v, size, err := readJSONFile(path)
		if err != nil {
			if progress != nil {
				progress.Error(err)
			}
			return cli.NewCommandError("estimate", err)
		}
		results = append(results, fileEstimate{File: path, Bytes: size, Tokens: est.Estimate(v)})
		if progress != nil {
			progress.Update(int64(i + 1))
		}
	}
	if progress != nil {
		progress.Finish()
	}

	if format == cli.FormatJSON {
		return f.FormatTo(cmd.OutOrStdout(), results)
	}

	table := &cli.Table{Headers: []string{"file", "size", "tokens"}}
	for _, r := range results {
		size := cli.Bytes(r.Bytes)
		if format == cli.FormatCSV {
			size = strconv.FormatInt(r.Bytes, 10)
		}
		table.Append(r.File, size, strconv.Itoa(r.Tokens))
	}
	return f.FormatTo(cmd.OutOrStdout(), table)
}

// readJSONFile decodes a JSON file keeping numbers as json.Number.
func readJSONFile(path string) (any, int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, 0, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return v, int64(len(data)), nil
}
