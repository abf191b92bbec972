// ABOUTME: Structured logging configuration using log/slog.
// ABOUTME: Provides Init() to configure the default logger on stderr with level and format.

package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Init configures the default slog logger writing to stderr.
// level: debug, info, warn, error (default: warn)
// format: text, json (default: text)
func Init(level, format string) *slog.Logger {
	return InitWriter(os.Stderr, level, format)
}

// InitWriter is Init with an explicit destination
func InitWriter(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	l := slog.New(handler)
	slog.SetDefault(l)
	return l
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}
