package middleware

import (
	"context"
	"net/http"

	"github.com/stackbound/task-service/internal/platform/httpclient"
)

const headerCorrelationID = "X-Correlation-ID"

type correlationIDKey struct{}

// WithCorrelationID stores the correlation ID on the context, both for
// CorrelationIDFromContext and for the outbound notify client, which stamps
// it onto its requests.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	ctx = context.WithValue(ctx, correlationIDKey{}, id)
	return httpclient.WithCorrelationID(ctx, id)
}

// CorrelationIDFromContext returns the stored correlation ID, or "" when the
// middleware has not run.
func CorrelationIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(correlationIDKey{}).(string)
	return id
}

// CorrelationID propagates the caller's X-Correlation-ID across the task
// API and its downstream notification calls. A request without the header
// adopts its own request ID, so every request ends up correlatable. Must sit
// after RequestID in the chain for that fallback to hold.
func CorrelationID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			id := r.Header.Get(headerCorrelationID)
			if id == "" {
				id = RequestIDFromContext(ctx)
			}

			w.Header().Set(headerCorrelationID, id)
			next.ServeHTTP(w, r.WithContext(WithCorrelationID(ctx, id)))
		})
	}
}
