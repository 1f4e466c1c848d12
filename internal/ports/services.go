package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/stackbound/task-service/internal/domain/task"
)

// TaskService defines the service port for task use cases. Implemented by the
// application layer; called by inbound adapters (handlers). The service
// sequences repository calls (mandatory: failure is the operation's failure)
// and notifier calls (advisory: failure is logged and discarded).
type TaskService interface {
	// Create assigns a fresh ID and timestamps, persists the task, and
	// advisorily signals creation. Returns domain.ErrValidation if the input
	// fails validation.
	Create(ctx context.Context, title, description string) (*task.Task, error)

	// Get returns a single task by ID.
	// Returns domain.ErrNotFound if the task does not exist.
	Get(ctx context.Context, id uuid.UUID) (*task.Task, error)

	// List returns all tasks, newest first.
	List(ctx context.Context) ([]task.Task, error)

	// Update fetches the task, applies the patch (nil fields unchanged),
	// bumps UpdatedAt, and persists the merged state. If the patch
	// transitions the task from incomplete to complete, a completion signal
	// is dispatched advisorily. Returns domain.ErrNotFound if the task does
	// not exist; no notifier call is made in that case.
	Update(ctx context.Context, id uuid.UUID, patch task.Patch) (*task.Task, error)

	// Delete removes a task. Returns domain.ErrNotFound if it does not
	// exist. No notification is defined for deletes.
	Delete(ctx context.Context, id uuid.UUID) error

	// CreateBatch assigns fresh IDs and timestamps to every input and
	// persists them in order. The result always reports the total requested
	// and the prefix actually committed, so a partial failure is
	// reconcilable; tasks committed before the failure remain committed.
	CreateBatch(ctx context.Context, inputs []BatchInput) (*BatchResult, error)

	// DeleteCompleted removes all completed tasks and returns the count.
	DeleteCompleted(ctx context.Context) (int64, error)
}

// BatchInput is a single task specification within a batch create request.
type BatchInput struct {
	Title       string
	Description string
}

// BatchResult holds the outcome of a batch create. Created is the prefix of
// tasks actually committed, in input order. When the batch aborted partway,
// Errors carries the failure message and len(Created) < Total; commits before
// the failure are durable and independently retrievable.
type BatchResult struct {
	Total   int
	Created []task.Task
	Errors  []string
}
