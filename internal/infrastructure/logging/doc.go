// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: colored console output for human readability
//
// Loggers are constructed once at startup and injected into each
// component; there is no package-level logger.
//
// Example:
//
//	logger := logging.NewDefault()
//	logger.Info("server starting", zap.String("port", "8000"))
package logging
