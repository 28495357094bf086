// Package logging provides structured logging for conductor.
//
// This package wraps Go's log/slog to provide JSON-formatted logs with
// persistent context attributes. Logs are written to a file under a log
// directory or to stderr, never to stdout: stdout is the channel conductor
// captures and forwards, so log lines there would be classified as simulator
// output.
//
// # Features
//
//   - JSON-formatted structured logging via slog
//   - Configurable log levels (DEBUG, INFO, WARN, ERROR)
//   - Persistent attributes via [Logger.With] and [Logger.WithComponent]
//   - Size-based rotation with a bounded number of backups ([RotatingWriter])
//
// # Thread Safety
//
// All types in this package are safe for concurrent use. Child loggers
// created via With* methods share the underlying writer.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger("/var/log/conductor", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	monitorLog := logger.WithComponent("monitor")
//	monitorLog.Info("drained", "bytes", 18, "category", "bell_on")
//
// Output:
//
//	{"time":"...","level":"INFO","msg":"drained","component":"monitor","bytes":18,"category":"bell_on"}
package logging
