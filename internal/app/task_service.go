// Package app provides application services that orchestrate use cases by
// coordinating between domain logic and infrastructure through port interfaces.
package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"

	"github.com/stackbound/task-service/internal/domain"
	"github.com/stackbound/task-service/internal/domain/task"
	"github.com/stackbound/task-service/internal/platform/telemetry"
	"github.com/stackbound/task-service/internal/ports"
)

// Compile-time check that TaskService implements ports.TaskService.
var _ ports.TaskService = (*TaskService)(nil)

// defaultNotifyTimeout bounds a detached notification dispatch so a slow
// downstream cannot hold a goroutine indefinitely.
const defaultNotifyTimeout = 10 * time.Second

// Dispatcher runs a notification function. The default implementation
// detaches it onto a goroutine with a bounded-timeout context derived via
// context.WithoutCancel, so the dispatch outlives the originating request.
// Tests inject a synchronous dispatcher for deterministic assertions.
type Dispatcher func(ctx context.Context, fn func(context.Context))

// TaskService implements ports.TaskService. It assigns identity and
// timestamps, sequences repository calls, and dispatches advisory
// notifications. Repository failures are the operation's failure; notifier
// failures are logged and counted but never surfaced to the caller.
// The service holds no mutable state and is safe for concurrent use.
type TaskService struct {
	repo     ports.TaskRepository
	notifier ports.Notifier
	metrics  *telemetry.Metrics
	logger   *slog.Logger
	dispatch Dispatcher
	now      func() time.Time
}

// Option customizes a TaskService.
type Option func(*TaskService)

// WithDispatcher replaces the detached-goroutine dispatcher. Tests use this
// to run notification dispatch synchronously.
func WithDispatcher(d Dispatcher) Option {
	return func(s *TaskService) { s.dispatch = d }
}

// WithClock replaces the time source used for assigned timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *TaskService) { s.now = now }
}

// NewTaskService creates a TaskService. notifyTimeout bounds each detached
// notification dispatch; zero or negative selects the default. metrics may be
// nil, in which case dispatch outcomes are only logged.
func NewTaskService(repo ports.TaskRepository, notifier ports.Notifier, metrics *telemetry.Metrics, logger *slog.Logger, notifyTimeout time.Duration, opts ...Option) *TaskService {
	if notifyTimeout <= 0 {
		notifyTimeout = defaultNotifyTimeout
	}

	s := &TaskService{
		repo:     repo,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
	s.dispatch = func(ctx context.Context, fn func(context.Context)) {
		// Detach from the request's cancellation but keep its values
		// (trace context, request metadata) for the outbound call.
		detached := context.WithoutCancel(ctx)
		go func() {
			notifyCtx, cancel := context.WithTimeout(detached, notifyTimeout)
			defer cancel()
			fn(notifyCtx)
		}()
	}

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create assigns a fresh ID and timestamps, validates, persists, and signals
// creation advisorily.
func (s *TaskService) Create(ctx context.Context, title, description string) (*task.Task, error) {
	t := task.New(title, description, s.now())

	if err := t.Validate(); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "creating task",
		slog.String("id", t.ID.String()),
		slog.String("title", t.Title),
	)

	created, err := s.repo.Create(ctx, t)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create task",
			slog.String("operation", "Create"),
			slog.String("id", t.ID.String()),
			slog.Any("error", err),
		)
		return nil, err
	}

	s.notifyCreated(ctx, created.ID, created.Title)

	return created, nil
}

// Get returns a single task by ID.
func (s *TaskService) Get(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	t, err := s.repo.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.ErrorContext(ctx, "failed to fetch task",
				slog.String("operation", "Get"),
				slog.String("id", id.String()),
				slog.Any("error", err),
			)
		}
		return nil, err
	}
	return t, nil
}

// List returns all tasks, newest first.
func (s *TaskService) List(ctx context.Context) ([]task.Task, error) {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list tasks",
			slog.String("operation", "List"),
			slog.Any("error", err),
		)
		return nil, err
	}
	return tasks, nil
}

// Update fetches the task, merges the patch onto the stored state, bumps
// UpdatedAt, and persists the result. An incomplete-to-complete transition
// dispatches a completion signal; re-completing an already complete task or
// un-completing one does not.
func (s *TaskService) Update(ctx context.Context, id uuid.UUID, patch task.Patch) (*task.Task, error) {
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := *current
	justCompleted := patch.Apply(&merged, s.now())

	if err := merged.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, merged)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to update task",
			slog.String("operation", "Update"),
			slog.String("id", id.String()),
			slog.Any("error", err),
		)
		return nil, err
	}

	if justCompleted {
		s.notifyCompleted(ctx, updated.ID, updated.Title)
	}

	return updated, nil
}

// Delete removes a task. No notification is defined for deletes.
func (s *TaskService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.ErrorContext(ctx, "failed to delete task",
				slog.String("operation", "Delete"),
				slog.String("id", id.String()),
				slog.Any("error", err),
			)
		}
		return err
	}

	s.logger.InfoContext(ctx, "deleted task", slog.String("id", id.String()))
	return nil
}

// CreateBatch assigns fresh IDs and timestamps to every input and persists
// them in order. The first repository failure aborts the batch; tasks
// committed before it stay committed and are reported in the result. A fully
// successful batch dispatches a summary signal.
func (s *TaskService) CreateBatch(ctx context.Context, inputs []ports.BatchInput) (*ports.BatchResult, error) {
	now := s.now()
	tasks := make([]task.Task, 0, len(inputs))
	for i, in := range inputs {
		t := task.New(in.Title, in.Description, now)
		if err := t.Validate(); err != nil {
			s.logger.WarnContext(ctx, "rejecting batch",
				slog.String("operation", "CreateBatch"),
				slog.Int("index", i),
				slog.Any("error", err),
			)
			return nil, err
		}
		tasks = append(tasks, t)
	}

	s.logger.InfoContext(ctx, "creating task batch", slog.Int("count", len(tasks)))

	created, err := s.repo.CreateBatch(ctx, tasks)
	result := &ports.BatchResult{
		Total:   len(inputs),
		Created: created,
		Errors:  []string{},
	}

	if err != nil {
		s.logger.ErrorContext(ctx, "batch create aborted",
			slog.String("operation", "CreateBatch"),
			slog.Int("requested", len(inputs)),
			slog.Int("committed", len(created)),
			slog.Any("error", err),
		)
		result.Errors = append(result.Errors, err.Error())
		return result, nil
	}

	if len(created) > 0 {
		s.notifySummary(ctx, len(created))
	}

	return result, nil
}

// DeleteCompleted removes all completed tasks and returns the count.
func (s *TaskService) DeleteCompleted(ctx context.Context) (int64, error) {
	count, err := s.repo.DeleteCompleted(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to delete completed tasks",
			slog.String("operation", "DeleteCompleted"),
			slog.Any("error", err),
		)
		return 0, err
	}

	s.logger.InfoContext(ctx, "deleted completed tasks", slog.Int64("count", count))
	return count, nil
}

func (s *TaskService) notifyCreated(ctx context.Context, id uuid.UUID, title string) {
	s.dispatch(ctx, func(ctx context.Context) {
		err := s.notifier.NotifyCreated(ctx, id, title)
		s.recordNotify(ctx, "created", id.String(), err)
	})
}

func (s *TaskService) notifyCompleted(ctx context.Context, id uuid.UUID, title string) {
	s.dispatch(ctx, func(ctx context.Context) {
		err := s.notifier.NotifyCompleted(ctx, id, title)
		s.recordNotify(ctx, "completed", id.String(), err)
	})
}

func (s *TaskService) notifySummary(ctx context.Context, count int) {
	s.dispatch(ctx, func(ctx context.Context) {
		err := s.notifier.NotifySummary(ctx, count)
		s.recordNotify(ctx, "summary", "", err)
	})
}

// recordNotify logs and counts a dispatch outcome. Notification failures are
// advisory and stop here; they never reach the caller.
func (s *TaskService) recordNotify(ctx context.Context, event, id string, err error) {
	result := "success"
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrThrottled):
		result = "throttled"
	case errors.Is(err, domain.ErrUnavailable):
		result = "unavailable"
	default:
		result = "error"
	}

	if err != nil {
		s.logger.WarnContext(ctx, "notification failed",
			slog.String("event", event),
			slog.String("id", id),
			slog.String("result", result),
			slog.Any("error", err),
		)
	} else {
		s.logger.DebugContext(ctx, "notification delivered",
			slog.String("event", event),
			slog.String("id", id),
		)
	}

	if s.metrics != nil {
		s.metrics.NotificationTotal.Add(ctx, 1, metric.WithAttributes(
			telemetry.AttrEvent.String(event),
			telemetry.AttrResult.String(result),
		))
	}
}
