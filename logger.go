package omnifs

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with omnifs-specific context.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
// level sets the minimum log level (e.g., slog.LevelDebug, slog.LevelInfo).
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
// Use this to disable logging entirely.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithScheme adds a scheme field to the logger.
func (l *Logger) WithScheme(scheme string) *Logger {
	return &Logger{
		Logger: l.Logger.With("scheme", scheme),
	}
}

// WithURL adds a url field to the logger.
func (l *Logger) WithURL(url string) *Logger {
	return &Logger{
		Logger: l.Logger.With("url", url),
	}
}

// LogResolve logs a URL resolution.
func (l *Logger) LogResolve(ctx context.Context, url, scheme string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "resolve failed",
			"url", url,
			"scheme", scheme,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "resolved backend",
			"url", url,
			"scheme", scheme,
		)
	}
}

// LogForkReset logs a reset triggered by fork detection.
func (l *Logger) LogForkReset(ctx context.Context, scheme string, pid int) {
	l.DebugContext(ctx, "fork detected, resetting backend resources",
		"scheme", scheme,
		"pid", pid,
	)
}
