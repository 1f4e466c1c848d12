// Package notify provides Notifier implementations: a webhook-backed
// notifier for production and a simulated notifier for local development
// and tests.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/stackbound/task-service/internal/domain"
	"github.com/stackbound/task-service/internal/ports"
)

// Compile-time interface checks.
var (
	_ ports.Notifier      = (*SimulatedNotifier)(nil)
	_ ports.HealthChecker = (*SimulatedNotifier)(nil)
)

// SimulatedNotifier imitates a flaky downstream notification API without any
// network I/O. Latency and outcome per call come from the injected
// FaultStrategy, so development runs see realistic behavior and tests can
// script exact failure sequences.
type SimulatedNotifier struct {
	faults FaultStrategy
	logger *slog.Logger
}

// NewSimulatedNotifier creates a SimulatedNotifier driven by the given
// fault strategy.
func NewSimulatedNotifier(faults FaultStrategy, logger *slog.Logger) *SimulatedNotifier {
	return &SimulatedNotifier{faults: faults, logger: logger}
}

// NotifyCreated simulates the fan-out for a new task: a webhook call and an
// email, each a separate downstream delivery with its own latency and
// outcome draw. One leg failing does not stop the other.
func (n *SimulatedNotifier) NotifyCreated(ctx context.Context, id uuid.UUID, title string) error {
	attrs := []any{slog.String("id", id.String()), slog.String("title", title)}

	webhookErr := n.deliver(ctx, "created", "webhook", attrs...)
	emailErr := n.deliver(ctx, "created", "email", attrs...)
	return errors.Join(webhookErr, emailErr)
}

// NotifyCompleted simulates the analytics delivery for a completed task.
func (n *SimulatedNotifier) NotifyCompleted(ctx context.Context, id uuid.UUID, title string) error {
	return n.deliver(ctx, "completed", "analytics", slog.String("id", id.String()), slog.String("title", title))
}

// NotifySummary simulates the aggregation delivery for a created batch.
func (n *SimulatedNotifier) NotifySummary(ctx context.Context, count int) error {
	return n.deliver(ctx, "summary", "aggregation", slog.Int("count", count))
}

func (n *SimulatedNotifier) deliver(ctx context.Context, event, channel string, attrs ...any) error {
	latency, outcome := n.faults.Next()

	if latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return fmt.Errorf("simulated %s %s notification: %w", event, channel, domain.ErrUnavailable)
		case <-timer.C:
		}
	}

	switch outcome {
	case OutcomeFailure:
		return fmt.Errorf("simulated %s %s notification: downstream rejected the event", event, channel)
	case OutcomeThrottled:
		return fmt.Errorf("simulated %s %s notification: %w", event, channel, domain.ErrThrottled)
	default:
		n.logger.DebugContext(ctx, "simulated notification delivered",
			append([]any{
				slog.String("event", event),
				slog.String("channel", channel),
				slog.Duration("latency", latency),
			}, attrs...)...)
		return nil
	}
}

// Name identifies this notifier in health reports.
func (n *SimulatedNotifier) Name() string { return "notify-simulated" }

// HealthCheck always succeeds; the simulation has no real downstream.
func (n *SimulatedNotifier) HealthCheck(_ context.Context) error { return nil }
