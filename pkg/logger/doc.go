// Package logger provides the structured logging interface used by every coversync component.
//
// It wraps zerolog with:
// - Multiple log levels (Debug, Info, Warn, Error, Fatal)
// - Structured logging with fields
// - Colored console output on stderr, leaving stdout to the change report
// - Optional size-rotated file output through lumberjack
// - A global logger instance for the CLI
//
// Basic Usage:
//
//	err := logger.Initialize(&config.LoggingConfig{
//	    Level: "info",
//	    File:  "/var/log/coversync.log",
//	})
//
//	logger.Info("Sync started")
//	logger.WithField("collection", "Bat Stuff").Info("Collection found")
//
// Components receive a Logger and derive children carrying context:
//
//	log := base.WithField("collection", col.Title)
//	log.WithError(err).WarnWithFields("Cover download failed", map[string]interface{}{
//	    "file": "Batman(1940)#1.jpg",
//	})
//
// Tests use NewNopLogger, or NewTestLogger to assert on what was logged.
package logger
