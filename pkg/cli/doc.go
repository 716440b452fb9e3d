/*
Package cli provides the helpers shared by the callisto commands: output
formatters, a progress reporter, signal handling and error types that map
to exit codes.

Output Formatting:

	formatter := cli.NewFormatter(cli.FormatJSON)
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
		return err
	}

Tabular results use Table so that the text and CSV formatters can lay them
out:

	table := &cli.Table{Headers: []string{"file", "tokens"}}
	table.Append("a.json", "120")

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
