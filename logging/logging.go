// Package logging builds the slog loggers shared by the orrery binaries.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config controls basic logger behaviour.
type Config struct {
	Level     string // debug, info, warn, error
	Format    string // json or text
	AddSource bool
	// Output defaults to stderr so the terminal frontend keeps stdout.
	Output io.Writer
}

// New constructs a slog logger from cfg.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level:     ParseLevel(cfg.Level),
		AddSource: cfg.AddSource,
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	default:
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler)
}

// NewFromEnv reads ORRERY_LOG_LEVEL and ORRERY_LOG_FORMAT, defaulting to text at info.
func NewFromEnv() *slog.Logger {
	return New(Config{
		Level:  os.Getenv("ORRERY_LOG_LEVEL"),
		Format: os.Getenv("ORRERY_LOG_FORMAT"),
	})
}

// Noop returns a logger that drops everything.
func Noop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// ParseLevel maps a level name to a slog level. Unknown names mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
