// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Components take a *zap.Logger; the Logger wrapper only exists to build one
// from configuration and to hand out named children.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Server starting", zap.String("port", "4317"))
//	logger.Named("pty").Warn("read failed", zap.String("id", id), zap.Error(err))
package logging
