// Package telemetry initializes OpenTelemetry tracing and metrics for the
// task service and bundles the metric instruments the rest of the code
// records against.
//
// Two exporter families are supported, selected by config: "otlp" ships to a
// collector over OTLP/HTTP, anything else writes to stdout for local work.
package telemetry

import (
	"context"
	"fmt"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
)

// ExporterOTLP selects the OTLP/HTTP exporters; every other exporter value
// falls back to stdout.
const ExporterOTLP = "otlp"

// Attribute keys shared by the server middleware, the notify client, and the
// dispatch bookkeeping in the service layer.
var (
	AttrHTTPMethod  = attribute.Key("http.method")
	AttrHTTPStatus  = attribute.Key("http.status_code")
	AttrPeerService = attribute.Key("peer.service")
	AttrResult      = attribute.Key("result")
	AttrEvent       = attribute.Key("notification.event")
)

// Metrics bundles the service's instruments. Server instruments cover the
// inbound task API, client instruments cover calls to the notification
// backend, and NotificationTotal counts advisory dispatch outcomes.
type Metrics struct {
	ServerRequestDuration metric.Float64Histogram
	ServerRequestTotal    metric.Int64Counter
	ClientRequestDuration metric.Float64Histogram
	ClientRequestTotal    metric.Int64Counter
	NotificationTotal     metric.Int64Counter
}

// InitTracer builds a TracerProvider for the chosen exporter, installs it
// globally together with a TraceContext+Baggage propagator, and returns it
// for shutdown at exit.
func InitTracer(ctx context.Context, serviceName, exporter, endpoint string) (*sdktrace.TracerProvider, error) {
	res, err := newResource(serviceName)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var spanExporter sdktrace.SpanExporter
	switch exporter {
	case ExporterOTLP:
		spanExporter, err = otlptracehttp.New(ctx, otlpTraceOptions(endpoint)...)
	default:
		spanExporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	}
	if err != nil {
		return nil, fmt.Errorf("creating span exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(spanExporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp, nil
}

// InitMeter builds a MeterProvider for the chosen exporter, installs it
// globally, and returns it for shutdown at exit.
func InitMeter(ctx context.Context, serviceName, exporter, endpoint string) (*sdkmetric.MeterProvider, error) {
	res, err := newResource(serviceName)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var metricExporter sdkmetric.Exporter
	switch exporter {
	case ExporterOTLP:
		metricExporter, err = otlpmetrichttp.New(ctx, otlpMetricOptions(endpoint)...)
	default:
		metricExporter, err = stdoutmetric.New()
	}
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	return mp, nil
}

// NewMetrics registers the service's instruments on a meter scoped to
// serviceName.
func NewMetrics(mp *sdkmetric.MeterProvider, serviceName string) (*Metrics, error) {
	meter := mp.Meter(serviceName)
	m := &Metrics{}

	for _, inst := range []struct {
		name string
		unit string
		desc string
		hist *metric.Float64Histogram
		ctr  *metric.Int64Counter
	}{
		{
			name: "tasks.http.server.duration",
			unit: "s",
			desc: "Duration of task API requests",
			hist: &m.ServerRequestDuration,
		},
		{
			name: "tasks.http.server.requests",
			unit: "{request}",
			desc: "Count of task API requests",
			ctr:  &m.ServerRequestTotal,
		},
		{
			name: "tasks.notify.client.duration",
			unit: "s",
			desc: "Duration of calls to the notification backend",
			hist: &m.ClientRequestDuration,
		},
		{
			name: "tasks.notify.client.requests",
			unit: "{request}",
			desc: "Count of calls to the notification backend",
			ctr:  &m.ClientRequestTotal,
		},
		{
			name: "tasks.notifications",
			unit: "{notification}",
			desc: "Advisory notification dispatch attempts by outcome",
			ctr:  &m.NotificationTotal,
		},
	} {
		var err error
		if inst.hist != nil {
			*inst.hist, err = meter.Float64Histogram(inst.name,
				metric.WithDescription(inst.desc), metric.WithUnit(inst.unit))
		} else {
			*inst.ctr, err = meter.Int64Counter(inst.name,
				metric.WithDescription(inst.desc), metric.WithUnit(inst.unit))
		}
		if err != nil {
			return nil, fmt.Errorf("creating %s: %w", inst.name, err)
		}
	}

	return m, nil
}

func newResource(serviceName string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
}

func otlpTraceOptions(endpoint string) []otlptracehttp.Option {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(hostPort(endpoint))}
	if !isHTTPS(endpoint) {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return opts
}

func otlpMetricOptions(endpoint string) []otlpmetrichttp.Option {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(hostPort(endpoint))}
	if !isHTTPS(endpoint) {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	return opts
}

// hostPort strips the scheme from a collector URL; the OTLP option wants
// bare host:port.
func hostPort(endpoint string) string {
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return endpoint
	}
	return u.Host
}

func isHTTPS(endpoint string) bool {
	u, err := url.Parse(endpoint)
	if err != nil {
		return false
	}
	return u.Scheme == "https"
}
