// Package log provides the structured logging interface used across burnrate.
//
// The interface is slog-shaped (message plus alternating key/value pairs) and
// is backed by zerolog in production. Components receive a Logger through
// options and fall back to GetLogger when none is supplied.
//
// Example usage:
//
//	logger := log.GetLogger().With(
//	    log.ComponentKey, "training",
//	    log.RunIDKey, runID,
//	)
//	logger.Info("candidate fitted",
//	    log.ModelNameKey, "Ridge",
//	    log.MSEKey, 0.0031,
//	)
package log

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"
)

// Logger defines a structured logging interface compatible with Go's log/slog.
//
// If the first field passed to Error is an error value, implementations
// attach it under the "error" key together with its stack trace.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)

	// With returns a new Logger with the given fields pre-populated.
	With(fields ...any) Logger

	// Enabled reports whether the logger emits log records at the given level.
	Enabled(ctx context.Context, level Level) bool
}

// Level represents a logging level, compatible with slog.Level.
type Level int

// Standard logging levels, values are compatible with slog.Level.
const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a configuration string ("debug", "info", "warn", "error")
// into a Level. Matching is case-insensitive.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, errors.Newf("invalid log level: %q", s)
	}
}
