// Package logging builds the process *slog.Logger.
//
// The returned logger writes JSON or text through a Handler that
//
//   - adds request-scoped fields stored in the context (request_id, tool,
//     fingerprint, client) to every record logged with a *Context method
//   - redacts secrets: values under sensitive keys (token, api_key,
//     password, ...) are masked and string values are scrubbed of API keys,
//     bearer tokens and similar patterns
//
// Components receive a *slog.Logger and tag it with
// With("component", "<package>").
//
//	logger, err := logging.New(logging.FromConfig(&cfg.Telemetry.Logging, os.Stderr))
//	if err != nil {
//	    return err
//	}
//	ctx = logging.WithRequestID(ctx, "req-123")
//	logger.InfoContext(ctx, "response built", "path", "inline")
package logging
