// Callisto shapes tool results to fit a token budget.
//
// The binary runs the retrieval server for offloaded resources and offers
// offline commands for estimating and shaping JSON payloads.
//
// Usage:
//
//	# Serve offloaded resources, metrics and health probes
//	callisto serve --config callisto.yaml
//
//	# Estimate the token cost of JSON files
//	callisto estimate results.json other.json
//
//	# Shape a JSON file to a 2000 token budget
//	callisto shape results.json --budget 2000 --client vscode
//
//	# Page through an offloaded resource
//	callisto resources get callisto://resources/<id> --offset 0 --limit 4096
//
//	# Check a configuration file
//	callisto validate callisto.yaml
package main

import (
	"os"

	"mercator-hq/callisto/pkg/cli"
)

func main() {
	os.Exit(cli.ExitCode(Execute()))
}
