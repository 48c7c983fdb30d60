// Package logging provides structured logging using uber/zap.
//
// One logger interface backs three competing output formats, selected by
// configuration rather than separately wired code paths:
//   - json: machine-parseable JSON (production default)
//   - logfmt: key=value pairs via go-logfmt
//   - text: human-readable console output for development
//
// Log Levels:
//   - Debug: Verbose debugging information
//   - Info: General informational messages
//   - Warn: Warning messages
//   - Error: Error messages
//   - Fatal: Fatal errors (exits process)
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Server starting", zap.String("port", "8000"))
//	logger.Error("Failed to connect", zap.Error(err))
package logging
