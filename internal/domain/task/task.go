// Package task defines the Task entity, its invariants, and the Patch type
// used for partial updates.
package task

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stackbound/task-service/internal/domain"
)

// Task is the persisted task record. IDs and timestamps are assigned by the
// application layer at creation time; the repository persists exactly what it
// is given.
type Task struct {
	ID          uuid.UUID
	Title       string
	Description string
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// New creates a Task with a fresh UUID v4 and both timestamps set to now
// (UTC, truncated to whole seconds to match the persisted RFC 3339 form).
func New(title, description string, now time.Time) Task {
	ts := now.UTC().Truncate(time.Second)
	return Task{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Completed:   false,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
}

// Validate checks business rules for the Task entity. Returns a
// *domain.ValidationError (wrapping domain.ErrValidation) with per-field
// details, or nil if all rules pass.
func (t *Task) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(t.Title) == "" {
		fields["title"] = "is required"
	}
	if t.ID == uuid.Nil {
		fields["id"] = "must not be the zero UUID"
	}
	if t.UpdatedAt.Before(t.CreatedAt) {
		fields["updated_at"] = "must not precede created_at"
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// Patch describes a partial update. Nil fields are left untouched; the
// application layer applies a Patch to a freshly fetched copy of the stored
// task, never to a blank entity.
type Patch struct {
	Title       *string
	Description *string
	Completed   *bool
}

// Apply merges the patch onto t and bumps UpdatedAt to now. Fields absent
// from the patch keep their prior values. Returns whether this patch
// transitions the task from incomplete to complete, which is the only
// transition that triggers a completion notification.
func (p Patch) Apply(t *Task, now time.Time) (justCompleted bool) {
	wasCompleted := t.Completed

	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	t.UpdatedAt = now.UTC().Truncate(time.Second)

	return !wasCompleted && t.Completed
}
