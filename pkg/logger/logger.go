// Package logger configures the process-wide slog logger and carries
// request-scoped attributes through context.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

type requestIDKey struct{}

// Setup installs the default slog logger with the given level and format
// ("json" or "text") writing to stdout, and returns it tagged with the
// service name.
func Setup(service, level, format string) *slog.Logger {
	return SetupWriter(os.Stdout, service, level, format)
}

// SetupWriter is Setup with an explicit destination, mainly for tests.
func SetupWriter(w io.Writer, service, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	switch format {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	root := slog.New(handler).With("service", service)
	slog.SetDefault(root)
	return root
}

// WithComponent returns the default logger tagged with a component name.
// Subsystems call this once at construction and keep the result.
func WithComponent(component string) *slog.Logger {
	return slog.Default().With("component", component)
}

// WithRequestID stores a request id in ctx for FromContext to pick up.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the request id stored in ctx, if any.
func RequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok
}

// FromContext returns the default logger, tagged with the request id when
// ctx carries one.
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()
	if id, ok := RequestID(ctx); ok {
		logger = logger.With("request_id", id)
	}
	return logger
}

func parseLevel(level string) slog.Level {
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
