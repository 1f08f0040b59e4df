// Package logging provides centralized structured logging for lumen.
//
// The package wraps go.uber.org/zap with a global logger and package-level
// helper functions. By default logging is silent; set the LUMEN_LOG_LEVEL
// environment variable (or pass --log-level to the daemon command) to one
// of "debug", "info", "warn", "error" to enable output.
//
// # Usage Example
//
//	logging.Initialize("info")
//	logging.Info("Config reloaded", zap.String("path", path))
//
// Validation failures in configuration fields and unavailable OS services
// have dedicated helpers (FieldWarning, ServiceUnavailable) so that their
// log shape stays consistent across packages.
package logging
