package middleware

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/stackbound/task-service/internal/platform/telemetry"
)

const tracerName = "github.com/stackbound/task-service/internal/adapters/http"

// OpenTelemetry opens a server span per request on the task API and records
// the request duration and count instruments. Incoming W3C Trace Context
// headers are honored, so spans join a caller's trace when one exists. A nil
// metrics bundle disables metric recording but keeps the tracing.
func OpenTelemetry(metrics *telemetry.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := otel.GetTracerProvider().Tracer(tracerName).Start(ctx,
				r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.method", r.Method),
					attribute.String("http.url", r.URL.String()),
				),
			)
			defer span.End()

			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r.WithContext(ctx))

			span.SetAttributes(attribute.Int("http.status_code", rec.status))
			if rec.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(rec.status))
			}

			if metrics != nil {
				attrs := metric.WithAttributes(
					telemetry.AttrHTTPMethod.String(r.Method),
					telemetry.AttrHTTPStatus.Int(rec.status),
					telemetry.AttrResult.String(requestResult(rec.status)),
				)
				metrics.ServerRequestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
				metrics.ServerRequestTotal.Add(ctx, 1, attrs)
			}
		})
	}
}

func requestResult(status int) string {
	if status >= http.StatusBadRequest {
		return "error"
	}
	return "success"
}
