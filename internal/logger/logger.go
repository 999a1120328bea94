// Package logger builds the application's structured logger.
package logger

import (
	"io"
	"log/slog"
	"strings"
)

// Setup creates a JSON logger writing to out at the given level and installs
// it as the slog default. Unknown levels fall back to info with a warning.
func Setup(level string, out io.Writer) *slog.Logger {
	lvl, ok := ParseLevel(level)

	logger := slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	if !ok {
		logger.Warn("invalid log level configured, using default level",
			"configured_level", level,
			"default_level", "info")
	}
	return logger
}

// ParseLevel maps a case-insensitive level name onto a slog.Level.
func ParseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
