// Package logging builds the service's slog loggers and carries
// request-scoped loggers through context.
//
//	logger := logging.New("info", "json", os.Stderr)
//
// The HTTP middleware enriches a child logger with request_id and
// correlation_id and stores it via WithLogger; service and repository code
// pulls it back out with FromContext, so one task operation's log lines all
// share identifiers. Error logs name the operation and the task involved:
//
//	logger.ErrorContext(ctx, "failed to fetch task",
//	    slog.String("operation", "Get"),
//	    slog.String("task_id", id.String()),
//	    slog.Any("error", err),
//	)
//
// Every handler output passes through the masq redaction layer defined in
// redact_handler.go before it is written.
package logging

import (
	"context"
	"io"
	"log/slog"
	"strings"
)

type contextKey struct{}

// New builds a logger at the given level ("debug", "info", "warn", "error";
// anything else means info) in the given format ("text" or JSON for
// everything else). Debug level also turns on source locations.
func New(level, format string, w io.Writer) *slog.Logger {
	lvl := levelFrom(level)
	opts := &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   lvl == slog.LevelDebug,
		ReplaceAttr: newRedactAttr(),
	}

	if format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// WithLogger stores a logger on the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the stored logger, or slog.Default() when none is
// stored.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

func levelFrom(level string) slog.Level {
	switch strings.ToLower(level) {
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
