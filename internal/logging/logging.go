// Package logging provides structured logging setup for care-billing.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Setup initializes the default slog logger on stderr, leaving stdout for
// command output. Dev mode uses colored text; prod uses JSON.
func Setup(devMode bool, level slog.Level) {
	slog.SetDefault(slog.New(NewHandler(os.Stderr, devMode, level)))
}

// NewHandler builds the handler Setup installs.
func NewHandler(w io.Writer, devMode bool, level slog.Level) slog.Handler {
	if devMode {
		return tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
}

// LevelFromEnv reads CB_LOG_LEVEL (debug, info, warn, error), returning
// fallback when it is unset or unrecognized.
func LevelFromEnv(fallback slog.Level) slog.Level {
	switch strings.ToLower(os.Getenv("CB_LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return fallback
	}
}
