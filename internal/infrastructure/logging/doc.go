// Package logging provides structured logging for the hiome-ifttt bridge.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the bridge.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version, site) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0").WithSite(siteID)
//	logger.Info("bridge started", "topic", topic)
//
// # Security
//
// Never log the IFTTT key. Log whether a key is provisioned, not its value.
package logging
