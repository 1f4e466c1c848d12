package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/stackbound/task-service/internal/platform/logging"
)

// Logging emits a started/completed log pair per request and plants a child
// logger carrying request_id and correlation_id into the context, so service
// and repository logs line up with the request that caused them. At debug
// level the request headers are logged too, passed through RedactHeaders
// first.
func Logging(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			reqLog := logger.With(
				slog.String("request_id", RequestIDFromContext(r.Context())),
				slog.String("correlation_id", CorrelationIDFromContext(r.Context())),
			)
			ctx := logging.WithLogger(r.Context(), reqLog)

			reqLog.InfoContext(ctx, "request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)
			logHeaders(ctx, reqLog, r)

			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r.WithContext(ctx))

			reqLog.InfoContext(ctx, "request completed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

func logHeaders(ctx context.Context, log *slog.Logger, r *http.Request) {
	if !log.Enabled(ctx, slog.LevelDebug) {
		return
	}
	attrs := RedactHeaders(r.Header)
	args := make([]any, len(attrs))
	for i, a := range attrs {
		args[i] = a
	}
	log.DebugContext(ctx, "request headers", args...)
}
