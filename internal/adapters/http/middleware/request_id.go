package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/stackbound/task-service/internal/platform/httpclient"
)

const headerRequestID = "X-Request-ID"

// requestIDKey is separate from httpclient's key on purpose: each package
// reads only its own key.
type requestIDKey struct{}

// WithRequestID stores the request ID on the context, both for
// RequestIDFromContext and for the outbound notify client, which stamps it
// onto its requests.
func WithRequestID(ctx context.Context, id string) context.Context {
	ctx = context.WithValue(ctx, requestIDKey{}, id)
	return httpclient.WithRequestID(ctx, id)
}

// RequestIDFromContext returns the stored request ID, or "" when the
// middleware has not run.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// RequestID assigns each request an ID, reusing the caller's X-Request-ID
// header when present and minting a UUID otherwise. The ID lands in the
// context and on the response.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(headerRequestID)
			if id == "" {
				id = uuid.NewString()
			}

			w.Header().Set(headerRequestID, id)
			next.ServeHTTP(w, r.WithContext(WithRequestID(r.Context(), id)))
		})
	}
}
