package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/stackbound/task-service/internal/domain/task"
)

// TaskRepository defines the durable storage port for tasks, addressable by
// ID. Implemented by outbound storage adapters; called by the application
// layer. The repository never synthesizes IDs or timestamps; it persists
// exactly what it is given and reports whether the target existed.
//
// Implementations must be safe for concurrent use and must serialize
// concurrent writers to the same ID: last-write-wins is acceptable, partial
// field interleaving is not. Writes to unrelated IDs should not block each
// other beyond what the backing store requires.
type TaskRepository interface {
	// Create persists a new record. Returns domain.ErrConflict if the ID
	// already exists, or domain.ErrStorage on a storage fault. On success the
	// stored task is returned unchanged.
	Create(ctx context.Context, t task.Task) (*task.Task, error)

	// Get returns the current stored state for the given ID.
	// Returns domain.ErrNotFound if no record exists.
	Get(ctx context.Context, id uuid.UUID) (*task.Task, error)

	// List returns all tasks ordered by creation time descending (newest
	// first). An empty slice is a valid, non-error result.
	List(ctx context.Context) ([]task.Task, error)

	// Update replaces the stored record for t.ID with the given full state.
	// This is a full overwrite, not a partial patch; the caller is
	// responsible for having fetched and merged the prior state first.
	// Returns domain.ErrNotFound if no matching record exists.
	Update(ctx context.Context, t task.Task) (*task.Task, error)

	// Delete removes the record. Returns domain.ErrNotFound if absent.
	Delete(ctx context.Context, id uuid.UUID) error

	// CreateBatch persists tasks one at a time, in input order. The first
	// failure aborts the batch and is returned alongside the prefix of tasks
	// committed before it; earlier commits are NOT rolled back. Callers
	// needing all-or-nothing semantics must provide their own transaction
	// boundary, which this port deliberately does not provide.
	CreateBatch(ctx context.Context, tasks []task.Task) ([]task.Task, error)

	// DeleteCompleted removes every record with Completed set and returns
	// the number removed. Zero matches is success, not an error.
	DeleteCompleted(ctx context.Context) (int64, error)
}
