// Package format detects the client environment a response is rendered for
// and renders responses as plain text, markdown or rich markup.
//
// Detection is a chain of Detectors. NewDetector builds the standard chain:
//
//  1. the client name carried by the request or its context
//  2. the client name in an environment variable (CALLISTO_CLIENT)
//  3. the configured default environment
//
// Client names resolve through a table of known clients. A chain that
// resolves nothing returns ErrUndetected and callers render plain text.
package format
