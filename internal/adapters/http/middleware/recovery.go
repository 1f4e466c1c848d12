package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/stackbound/task-service/internal/adapters/http/dto"
)

// errRecoveredPanic is what the client sees after a panic. The panic value
// and stack stay in the logs only.
var errRecoveredPanic = errors.New("internal server error")

// Recovery turns a handler panic into a logged RFC 9457 500 response. When
// the handler already sent headers before panicking, the response is left
// alone and only the log entry is written.
func Recovery(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := newStatusRecorder(w)

			defer func() {
				v := recover()
				if v == nil {
					return
				}

				logger.ErrorContext(r.Context(), "panic recovered",
					slog.String("panic", fmt.Sprint(v)),
					slog.String("stack", string(debug.Stack())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
				)

				if !rec.wroteHeader {
					dto.WriteErrorResponse(rec, r, errRecoveredPanic)
				}
			}()

			next.ServeHTTP(rec, r)
		})
	}
}
