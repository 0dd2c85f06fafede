// Package logging provides structured logging using Go's slog package.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// SessionIDKey is the context key for import session IDs.
	SessionIDKey ContextKey = "session_id"
)

var (
	// defaultLogger is the global logger instance.
	defaultLogger *slog.Logger
)

func init() {
	// Initialize with a default logger (JSON format, Info level)
	InitLoggerTo(os.Stderr, LevelInfo, FormatJSON)
}

// Level represents a log level.
type Level int

const (
	// LevelDebug is for debug messages.
	LevelDebug Level = iota
	// LevelInfo is for informational messages.
	LevelInfo
	// LevelWarn is for warning messages.
	LevelWarn
	// LevelError is for error messages.
	LevelError
)

// Format represents a log output format.
type Format int

const (
	// FormatJSON outputs logs in JSON format.
	FormatJSON Format = iota
	// FormatText outputs logs in human-readable text format.
	FormatText
)

// ParseLevel maps "debug", "info", "warn" and "error" to a Level.
// Unknown names map to LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	}
	return LevelInfo
}

// ParseFormat maps "text" to FormatText and anything else to FormatJSON.
func ParseFormat(s string) Format {
	if strings.EqualFold(s, "text") {
		return FormatText
	}
	return FormatJSON
}

// InitLoggerTo initializes the global logger writing to w. The CLI uses it to
// keep logs on stderr while segments go to stdout.
func InitLoggerTo(w io.Writer, level Level, format Format) {
	var slogLevel slog.Level
	switch level {
	case LevelDebug:
		slogLevel = slog.LevelDebug
	case LevelInfo:
		slogLevel = slog.LevelInfo
	case LevelWarn:
		slogLevel = slog.LevelWarn
	case LevelError:
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			// Customize timestamp format
			if a.Key == slog.TimeKey {
				return slog.String(slog.TimeKey, a.Value.Time().Format(time.RFC3339))
			}
			return a
		},
	}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	defaultLogger = slog.New(handler)
	slog.SetDefault(defaultLogger)
}

// GetLogger returns the global logger instance.
func GetLogger() *slog.Logger {
	return defaultLogger
}

// WithSessionID adds an import session ID to the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

// GetSessionID retrieves the import session ID from the context.
func GetSessionID(ctx context.Context) string {
	if id, ok := ctx.Value(SessionIDKey).(string); ok {
		return id
	}
	return ""
}

// LoggerFromContext returns a logger with context values attached.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	logger := defaultLogger
	if id := GetSessionID(ctx); id != "" {
		logger = logger.With("session_id", id)
	}
	return logger
}

// Helper functions for common logging patterns

// ErrorContext logs an error message with context.
func ErrorContext(ctx context.Context, msg string, args ...any) {
	LoggerFromContext(ctx).Error(msg, args...)
}

// SourceOpened logs the start of reading one source file.
func SourceOpened(logger *slog.Logger, path, encoding, domain string, args ...any) {
	allArgs := []any{
		"path", path,
		"encoding", encoding,
		"domain", domain,
	}
	allArgs = append(allArgs, args...)
	logger.Debug("source_opened", allArgs...)
}

// SourceFinished logs the end of one source file.
func SourceFinished(logger *slog.Logger, path string, lines int, args ...any) {
	allArgs := []any{
		"path", path,
		"lines", lines,
	}
	allArgs = append(allArgs, args...)
	logger.Debug("source_finished", allArgs...)
}

// ImportFinished logs the summary of an import session.
func ImportFinished(ctx context.Context, segments int, duration time.Duration, args ...any) {
	allArgs := []any{
		"segments", segments,
		"duration_ms", duration.Milliseconds(),
	}
	allArgs = append(allArgs, args...)
	LoggerFromContext(ctx).Info("import_finished", allArgs...)
}
