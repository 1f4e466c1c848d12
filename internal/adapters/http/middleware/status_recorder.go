// Package middleware implements the task API's inbound request pipeline.
//
// The server composes the stack with Chain; requests flow through
// Recovery, RequestID, CorrelationID, OpenTelemetry, Logging, and Timeout
// before reaching a handler.
package middleware

import "net/http"

// statusRecorder wraps an http.ResponseWriter so the recovery, tracing, and
// logging middleware can observe the status code and body size after the
// handler runs.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	bytes       int64
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

// WriteHeader records the status on the first call; later calls are dropped
// so a recovered panic cannot clobber an already-sent status.
func (sr *statusRecorder) WriteHeader(code int) {
	if sr.wroteHeader {
		return
	}
	sr.wroteHeader = true
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	// A bare Write implies 200, same as net/http.
	sr.wroteHeader = true
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += int64(n)
	return n, err
}

// Unwrap lets http.ResponseController and Flusher/Hijacker assertions reach
// the wrapped writer.
func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}
