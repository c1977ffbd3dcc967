// Package observability provides the converter's logger and Prometheus
// metrics.
package observability

import (
	"log/slog"
	"os"
)

// NewLogger builds a slog.Logger writing to stderr. Format is "json" or
// "text"; level is one of "debug", "info", "warn", "error". Unknown values
// fall back to text at info.
func NewLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
