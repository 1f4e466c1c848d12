// Package httpclient is the outbound HTTP layer for notification delivery.
// Every request runs through a circuit breaker, then an optional rate
// limiter, identity header stamping, an OpenTelemetry client span, and retry
// with jittered exponential backoff.
//
//	client := httpclient.New(&cfg.Notify.Client, "notify-api", metrics, logger)
//	req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
//	resp, err := client.Do(ctx, req)
//
// The inbound middleware stores request and correlation IDs on the context
// via WithRequestID and WithCorrelationID; Do copies them onto the outbound
// headers so the notification backend sees the same identifiers.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/stackbound/task-service/internal/platform/config"
	"github.com/stackbound/task-service/internal/platform/telemetry"
)

const clientTracerName = "github.com/stackbound/task-service/internal/platform/httpclient"

type (
	requestIDKey     struct{}
	correlationIDKey struct{}
)

// WithRequestID stores the request ID for header stamping on outbound calls.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// WithCorrelationID stores the correlation ID for header stamping on
// outbound calls.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

// backoffPolicy is the retry policy, copied out of config so the rest of the
// package does not touch the config types.
type backoffPolicy struct {
	attempts int
	initial  time.Duration
	cap      time.Duration
	factor   float64
}

// Client talks to one named downstream, the notification backend in this
// service. It reports that downstream's breaker state as a health check.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	serviceName string
	breaker     *gobreaker.CircuitBreaker[struct{}]
	limiter     *rate.Limiter // nil disables rate limiting
	policy      backoffPolicy
	metrics     *telemetry.Metrics
	logger      *slog.Logger
}

// New builds a Client for the named downstream. serviceName labels spans,
// metrics, and health output. Metrics may be nil.
func New(cfg *config.ClientConfig, serviceName string, metrics *telemetry.Metrics, logger *slog.Logger) *Client {
	var limiter *rate.Limiter
	if cfg.RateLimit.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.BurstSize)
	}

	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     cfg.BaseURL,
		serviceName: serviceName,
		breaker:     newBreaker(cfg, serviceName, logger),
		limiter:     limiter,
		policy: backoffPolicy{
			attempts: cfg.Retry.MaxAttempts,
			initial:  cfg.Retry.InitialInterval,
			cap:      cfg.Retry.MaxInterval,
			factor:   cfg.Retry.Multiplier,
		},
		metrics: metrics,
		logger:  logger,
	}
}

func newBreaker(cfg *config.ClientConfig, serviceName string, logger *slog.Logger) *gobreaker.CircuitBreaker[struct{}] {
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        serviceName,
		MaxRequests: toUint32(cfg.CircuitBreaker.HalfOpenLimit),
		Timeout:     cfg.CircuitBreaker.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return int(counts.ConsecutiveFailures) >= cfg.CircuitBreaker.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
		},
	})
}

// Do sends the request through the full pipeline. On success resp is non-nil
// with an open body the caller closes. When retries exhaust on a retryable
// status, resp and err are both non-nil and the body is still open. Breaker
// rejections and transport failures return a nil resp.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()
	method := req.Method

	var resp *http.Response
	_, err := c.breaker.Execute(func() (struct{}, error) {
		if err := c.admit(ctx); err != nil {
			return struct{}{}, err
		}

		c.stampIdentityHeaders(ctx, req)

		spanCtx, span := c.openSpan(ctx, req)
		defer span.End()

		// The span context must ride the request for cancellation and
		// trace propagation.
		req = req.WithContext(spanCtx)

		retryErr := c.doWithRetry(spanCtx, req, &resp)
		closeSpan(span, resp, retryErr)

		return struct{}{}, retryErr
	})

	// Observed outside the breaker so rejected calls count too.
	c.observe(ctx, method, start, resp, err)

	return resp, err
}

// BaseURL reports the configured downstream base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Name identifies the downstream in health reports.
func (c *Client) Name() string {
	return c.serviceName
}

// HealthCheck maps the breaker state to a health result without touching the
// network: closed is healthy, half-open is degraded, open is failing. This
// describes the downstream, not the service; notifications are advisory, so
// readiness elsewhere does not hinge on it.
func (c *Client) HealthCheck(_ context.Context) error {
	switch state := c.breaker.State(); state {
	case gobreaker.StateClosed:
		return nil
	case gobreaker.StateHalfOpen:
		return fmt.Errorf("%s: degraded (circuit breaker half-open)", c.serviceName)
	case gobreaker.StateOpen:
		return fmt.Errorf("%s: failing (circuit breaker open)", c.serviceName)
	default:
		return fmt.Errorf("%s: unknown circuit breaker state %v", c.serviceName, state)
	}
}

// admit blocks until the rate limiter lets the request through or the
// context dies. No-op without a limiter.
func (c *Client) admit(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// stampIdentityHeaders copies the request and correlation IDs from the
// context onto the outbound request.
func (c *Client) stampIdentityHeaders(ctx context.Context, req *http.Request) {
	if id, _ := ctx.Value(requestIDKey{}).(string); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	if id, _ := ctx.Value(correlationIDKey{}).(string); id != "" {
		req.Header.Set("X-Correlation-ID", id)
	}
}

// openSpan starts the client span and injects W3C trace context into the
// outbound headers.
func (c *Client) openSpan(ctx context.Context, req *http.Request) (context.Context, trace.Span) {
	ctx, span := otel.GetTracerProvider().Tracer(clientTracerName).Start(ctx,
		req.Method+" "+c.serviceName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.url", req.URL.String()),
			attribute.String("peer.service", c.serviceName),
		),
	)

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	return ctx, span
}

func closeSpan(span trace.Span, resp *http.Response, err error) {
	if resp != nil {
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// observe records the client duration and count instruments. Nil metrics
// disables recording.
func (c *Client) observe(ctx context.Context, method string, start time.Time, resp *http.Response, err error) {
	if c.metrics == nil {
		return
	}

	statusCode := 0
	result := "error"
	if resp != nil {
		statusCode = resp.StatusCode
		if statusCode < http.StatusBadRequest {
			result = "success"
		}
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		result = "circuit_open"
	}

	attrs := metric.WithAttributes(
		telemetry.AttrHTTPMethod.String(method),
		telemetry.AttrHTTPStatus.Int(statusCode),
		telemetry.AttrPeerService.String(c.serviceName),
		telemetry.AttrResult.String(result),
	)

	c.metrics.ClientRequestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	c.metrics.ClientRequestTotal.Add(ctx, 1, attrs)
}

// toUint32 clamps an int into uint32 range; negatives become zero.
func toUint32(v int) uint32 {
	if v <= 0 {
		return 0
	}
	if v > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}
