// Package log provides structured logging for go-polrov.
// It wraps slog; POLROV_ENV=production switches to JSON output.
package log

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	level  = new(slog.LevelVar)
	logger *slog.Logger
	once   sync.Once
)

// ParseLevel maps "debug", "info", "warn" or "error" to a slog level.
// Anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func setup() {
	once.Do(func() {
		opts := &slog.HandlerOptions{Level: level}
		if os.Getenv("POLROV_ENV") == "production" {
			logger = slog.New(slog.NewJSONHandler(os.Stdout, opts))
		} else {
			logger = slog.New(slog.NewTextHandler(os.Stdout, opts))
		}
		slog.SetDefault(logger)
	})
}

// Init sets the global log level. It may be called again to change it.
func Init(lvl string) {
	setup()
	level.Set(ParseLevel(lvl))
}

// Level returns the current level.
func Level() slog.Level {
	return level.Level()
}

// L returns the global logger instance.
func L() *slog.Logger {
	setup()
	return logger
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	L().Debug(msg, args...)
}

// Info logs at info level.
func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	L().Warn(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	L().Error(msg, args...)
}

// With returns a logger with the given attributes.
func With(args ...any) *slog.Logger {
	return L().With(args...)
}
