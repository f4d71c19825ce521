// Package logging provides structured logging for the streamstats
// binaries.
//
// The library core is a pure data structure and never logs; this
// package wraps log/slog so the binaries built on top of it share one
// handler, one level, and a component attribute on every record.
//
// Usage:
//
//	logging.Init(slog.LevelInfo, false) // text output
//	logging.Init(slog.LevelInfo, true)  // JSON output
//
//	log := logging.Component("demo")
//	log.Info("window", "size", snap.Size(), "p99_ms", snap.P99())
package logging

import (
	"log/slog"
	"os"
)

// Logger is the global logger instance.
var Logger *slog.Logger

// Init initializes the global logger with the specified level and
// format. If jsonFormat is true, records are emitted as JSON;
// otherwise as human-readable text.
func Init(level slog.Level, jsonFormat bool) {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var handler slog.Handler
	if jsonFormat {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

// InitWithHandler initializes the global logger with a custom handler.
// Useful for tests and custom output destinations.
func InitWithHandler(handler slog.Handler) {
	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

// Component returns a logger for a specific component. The component
// name is added as an attribute to all log entries.
func Component(name string) *slog.Logger {
	if Logger == nil {
		Init(slog.LevelInfo, false)
	}
	return Logger.With("component", name)
}
