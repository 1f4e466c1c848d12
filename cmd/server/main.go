// Package main is the entry point for the task service. It wires all
// dependencies using samber/do v2, starts the HTTP server, and handles
// graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/do/v2"

	adapthttp "github.com/stackbound/task-service/internal/adapters/http"
	"github.com/stackbound/task-service/internal/adapters/http/handlers"
	"github.com/stackbound/task-service/internal/adapters/http/middleware"

	"github.com/stackbound/task-service/internal/adapters/notify"
	"github.com/stackbound/task-service/internal/adapters/storage/memory"
	"github.com/stackbound/task-service/internal/adapters/storage/sqlite"
	"github.com/stackbound/task-service/internal/app"
	"github.com/stackbound/task-service/internal/platform/config"
	"github.com/stackbound/task-service/internal/platform/health"
	"github.com/stackbound/task-service/internal/platform/httpclient"
	"github.com/stackbound/task-service/internal/platform/logging"
	"github.com/stackbound/task-service/internal/platform/telemetry"
	"github.com/stackbound/task-service/internal/ports"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

const (
	serverShutdownTimeout = 15 * time.Second
	otelShutdownTimeout   = 5 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	profile := os.Getenv("APP_PROFILE")
	if profile == "" {
		return errors.New("APP_PROFILE environment variable is required (e.g. local, prod)")
	}

	// Bootstrap: config, logger, telemetry.
	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	ctx := context.Background()
	otel, err := initTelemetry(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	// DI container.
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, logger)
	do.ProvideValue(injector, otel.metrics)

	registerDependencies(injector, cfg, logger)

	// Resolve the server (eagerly wires the full graph).
	server, err := do.Invoke[*adapthttp.Server](injector)
	if err != nil {
		return fmt.Errorf("resolving server: %w", err)
	}

	// Register health checkers after the graph is wired. The repository and
	// notifier report readiness; the webhook client additionally surfaces
	// its breaker state.
	registry := do.MustInvoke[ports.HealthRegistry](injector)
	repo := do.MustInvoke[ports.TaskRepository](injector)
	if checker, ok := repo.(ports.HealthChecker); ok {
		registry.Register(checker)
	}
	if cfg.Notify.Mode == config.NotifyModeWebhook {
		registry.Register(do.MustInvoke[*httpclient.Client](injector))
	} else if checker, ok := do.MustInvoke[ports.Notifier](injector).(ports.HealthChecker); ok {
		registry.Register(checker)
	}

	// Start server in background.
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	// Wait for shutdown signal or server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", slog.String("signal", sig.String()))
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	// Graceful shutdown: drain HTTP requests.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
	}

	// Wait for Start() goroutine to return.
	<-serverErr

	// Release storage resources.
	if closer, ok := repo.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			logger.Error("repository close error", slog.Any("error", err))
		}
	}

	// Flush telemetry.
	otelCtx, otelCancel := context.WithTimeout(context.Background(), otelShutdownTimeout)
	defer otelCancel()

	if err := otel.Shutdown(otelCtx); err != nil {
		logger.Error("telemetry shutdown error", slog.Any("error", err))
	}

	logger.Info("shutdown complete")
	return nil
}

// otelProviders bundles OpenTelemetry provider lifecycle. All fields are nil
// when telemetry is disabled.
type otelProviders struct {
	tracer  *sdktrace.TracerProvider
	meter   *sdkmetric.MeterProvider
	metrics *telemetry.Metrics
}

// Shutdown flushes both providers. Nil-safe.
func (o *otelProviders) Shutdown(ctx context.Context) error {
	var errs []error
	if o.tracer != nil {
		if err := o.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}
	if o.meter != nil {
		if err := o.meter.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

func initTelemetry(ctx context.Context, cfg *config.Config) (*otelProviders, error) {
	if !cfg.Telemetry.Enabled {
		return &otelProviders{}, nil
	}

	tp, err := telemetry.InitTracer(ctx,
		cfg.Telemetry.ServiceName,
		cfg.Telemetry.Exporter,
		cfg.Telemetry.Endpoint,
	)
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	mp, err := telemetry.InitMeter(ctx,
		cfg.Telemetry.ServiceName,
		cfg.Telemetry.Exporter,
		cfg.Telemetry.Endpoint,
	)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, fmt.Errorf("init meter: %w", err)
	}

	metrics, err := telemetry.NewMetrics(mp, cfg.Telemetry.ServiceName)
	if err != nil {
		_ = tp.Shutdown(ctx)
		_ = mp.Shutdown(ctx)
		return nil, fmt.Errorf("creating metrics: %w", err)
	}

	return &otelProviders{
		tracer:  tp,
		meter:   mp,
		metrics: metrics,
	}, nil
}

func registerDependencies(injector *do.RootScope, cfg *config.Config, logger *slog.Logger) {
	do.Provide(injector, func(_ do.Injector) (ports.TaskRepository, error) {
		switch cfg.Storage.Backend {
		case config.StorageBackendSQLite:
			return sqlite.New(cfg.Storage.Path)
		default:
			return memory.New(), nil
		}
	})

	do.Provide(injector, func(i do.Injector) (*httpclient.Client, error) {
		metrics := do.MustInvoke[*telemetry.Metrics](i)
		return httpclient.New(&cfg.Notify.Client, "notify-api", metrics, logger), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.Notifier, error) {
		if cfg.Notify.Mode == config.NotifyModeWebhook {
			client := do.MustInvoke[*httpclient.Client](i)
			return notify.NewWebhookNotifier(client, logger), nil
		}
		faults := notify.NewRandomFaults(uint64(time.Now().UnixNano()))
		return notify.NewSimulatedNotifier(faults, logger), nil
	})

	do.Provide(injector, func(i do.Injector) (ports.TaskService, error) {
		repo := do.MustInvoke[ports.TaskRepository](i)
		notifier := do.MustInvoke[ports.Notifier](i)
		metrics := do.MustInvoke[*telemetry.Metrics](i)
		return app.NewTaskService(repo, notifier, metrics, logger, cfg.Notify.Timeout), nil
	})

	do.Provide(injector, func(_ do.Injector) (ports.HealthRegistry, error) {
		return health.New(), nil
	})

	do.Provide(injector, func(i do.Injector) (*handlers.TaskHandler, error) {
		svc := do.MustInvoke[ports.TaskService](i)
		return handlers.NewTaskHandler(svc), nil
	})

	do.Provide(injector, func(i do.Injector) (*handlers.HealthHandler, error) {
		registry := do.MustInvoke[ports.HealthRegistry](i)
		return handlers.NewHealthHandler(registry), nil
	})

	do.Provide(injector, func(i do.Injector) (nethttp.Handler, error) {
		taskH := do.MustInvoke[*handlers.TaskHandler](i)
		healthH := do.MustInvoke[*handlers.HealthHandler](i)
		metrics := do.MustInvoke[*telemetry.Metrics](i)

		stack := middleware.Chain(
			middleware.Recovery(logger),
			middleware.RequestID(),
			middleware.CorrelationID(),
			middleware.OpenTelemetry(metrics),
			middleware.Logging(logger),
			middleware.Timeout(cfg.Server.RequestTimeout),
		)

		return adapthttp.NewRouter(taskH, healthH, stack), nil
	})

	do.Provide(injector, func(i do.Injector) (*adapthttp.Server, error) {
		handler := do.MustInvoke[nethttp.Handler](i)
		return adapthttp.NewServer(cfg.Server, handler, logger), nil
	})
}
