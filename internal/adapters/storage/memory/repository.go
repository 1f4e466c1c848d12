// Package memory provides an in-memory task repository backed by a mutex
// protected map. It is the default backend for local development and the
// reference implementation the application tests run against.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/stackbound/task-service/internal/domain"
	"github.com/stackbound/task-service/internal/domain/task"
	"github.com/stackbound/task-service/internal/ports"
)

// Compile-time interface checks.
var (
	_ ports.TaskRepository = (*Repository)(nil)
	_ ports.HealthChecker  = (*Repository)(nil)
)

// Repository stores tasks in a map keyed by ID. A single RWMutex guards the
// whole table: readers run concurrently, writers serialize. Coarse locking
// is fine at this scale and makes the consistency guarantees trivial.
type Repository struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]task.Task
}

// New creates an empty in-memory repository.
func New() *Repository {
	return &Repository{tasks: make(map[uuid.UUID]task.Task)}
}

// Create persists a new record. Returns domain.ErrConflict if the ID exists.
func (r *Repository) Create(_ context.Context, t task.Task) (*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[t.ID]; ok {
		return nil, domain.ErrConflict
	}
	r.tasks[t.ID] = t

	stored := t
	return &stored, nil
}

// Get returns the stored state for the given ID.
func (r *Repository) Get(_ context.Context, id uuid.UUID) (*task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, &domain.NotFoundError{ID: id.String()}
	}
	return &t, nil
}

// List returns all tasks ordered by creation time descending. Ties on
// CreatedAt (common within a batch, where every task shares a timestamp)
// break on ID so the order is stable.
func (r *Repository) List(_ context.Context) ([]task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]task.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})

	return out, nil
}

// Update replaces the stored record for t.ID with the given full state.
func (r *Repository) Update(_ context.Context, t task.Task) (*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[t.ID]; !ok {
		return nil, &domain.NotFoundError{ID: t.ID.String()}
	}
	r.tasks[t.ID] = t

	stored := t
	return &stored, nil
}

// Delete removes the record. Returns domain.ErrNotFound if absent.
func (r *Repository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return &domain.NotFoundError{ID: id.String()}
	}
	delete(r.tasks, id)
	return nil
}

// CreateBatch persists tasks one at a time, in input order. The first
// failure aborts the batch; earlier inserts stay committed.
func (r *Repository) CreateBatch(_ context.Context, tasks []task.Task) ([]task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if _, ok := r.tasks[t.ID]; ok {
			return created, domain.ErrConflict
		}
		r.tasks[t.ID] = t
		created = append(created, t)
	}
	return created, nil
}

// DeleteCompleted removes every completed record and returns the count.
func (r *Repository) DeleteCompleted(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var count int64
	for id, t := range r.tasks {
		if t.Completed {
			delete(r.tasks, id)
			count++
		}
	}
	return count, nil
}

// Name identifies this backend in health reports.
func (r *Repository) Name() string { return "memory" }

// HealthCheck always succeeds; the map cannot fail.
func (r *Repository) HealthCheck(_ context.Context) error { return nil }
