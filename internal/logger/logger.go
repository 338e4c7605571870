// Package logger provides structured logging configuration for the application.
// It configures log/slog with JSON output format and source location tracking,
// making logs machine-parseable and suitable for log aggregation systems.
// Errors are additionally shipped to Sentry when a DSN is configured.
package logger

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

// Setup initializes the global slog logger with JSON output and source location.
// With a non-empty sentryDSN, error records are also sent to Sentry.
// The returned func flushes buffered Sentry events and is safe to call always.
func Setup(level slog.Level, sentryDSN string) func() {
	handler := NewHandler(os.Stdout, level, sentryDSN)
	slog.SetDefault(slog.New(handler))

	return func() {
		if sentryDSN != "" {
			sentry.Flush(2 * time.Second)
		}
	}
}

// NewHandler builds the stdout JSON handler and fans out to Sentry when configured.
func NewHandler(w io.Writer, level slog.Level, sentryDSN string) slog.Handler {
	handlers := []slog.Handler{
		slog.NewJSONHandler(w, &slog.HandlerOptions{
			AddSource: true,
			Level:     level,
		}),
	}

	if sentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              sentryDSN,
			TracesSampleRate: 1.0,
		})
		if err == nil {
			handlers = append(handlers, slogsentry.Option{
				Level: slog.LevelError,
			}.NewSentryHandler())
		} else {
			slog.New(handlers[0]).Warn("sentry disabled", "error", err)
		}
	}

	if len(handlers) == 1 {
		return handlers[0]
	}
	return slogmulti.Fanout(handlers...)
}

// ParseLevel converts a string log level to slog.Level.
// Valid values: "debug", "info", "warn", "error".
// Unrecognized values default to info level.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
