// Package logging provides structured logging for huectl.
//
// This package wraps zap with convenience functions for the logging patterns
// used throughout the tool. Logging is silent by default so that library use
// and plain CLI output stay clean; set HUECTL_LOG_LEVEL to enable it.
//
// # Log Levels
//
//   - Debug: per-packet discovery traces, bridge request/response detail
//   - Info: normal operations (session start, bridge resolved, user paired)
//   - Warn: non-fatal issues (malformed discovery packets, failed resolves)
//   - Error: fatal issues (socket bind failures)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Bridge resolved",
//	    zap.String("location", loc),
//	    zap.String("name", b.Device.FriendlyName),
//	)
//
// # Configuration
//
// Initialize logging at startup:
//
//	if err := logging.InitializeFromEnv(); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use.
package logging
