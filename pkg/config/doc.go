// Package config provides configuration management for Callisto.
//
// Configuration is read from a YAML file, decoded on top of the defaults,
// overridden from the environment and validated:
//
//	cfg, err := config.LoadConfigWithEnvOverrides("callisto.yaml")
//
// # Environment Variable Overrides
//
// Environment variables follow the naming convention CALLISTO_SECTION_FIELD.
// For example:
//
//   - CALLISTO_ENGINE_DEFAULT_BUDGET overrides engine.default_budget
//   - CALLISTO_CACHE_DEFAULT_TTL overrides cache.default_ttl
//   - CALLISTO_OFFLOAD_SQLITE_DRIVER overrides offload.sqlite.driver
//   - CALLISTO_TELEMETRY_LOGGING_LEVEL overrides telemetry.logging.level
//
// # Validation
//
// Validate collects every problem into a ValidationError so that a broken
// file is reported in one pass.
//
// # Global Configuration
//
// Initialize stores the loaded configuration as a process-wide instance
// for the CLI. A Watcher reloads it when the file changes; a reload that
// fails validation keeps the previous configuration.
package config
