package dto

import (
	"fmt"
	"strings"

	"github.com/stackbound/task-service/internal/domain"
	"github.com/stackbound/task-service/internal/domain/task"
	"github.com/stackbound/task-service/internal/ports"
)

const (
	msgRequired     = "is required"
	msgMustNotEmpty = "must not be empty"
)

// maxBatchSize caps a single batch create request.
const maxBatchSize = 100

// CreateTaskRequest represents the JSON body for creating a new task.
type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Validate checks that required fields are present.
// Returns a *domain.ValidationError if any checks fail.
func (r *CreateTaskRequest) Validate() error {
	fields := make(map[string]string)

	if strings.TrimSpace(r.Title) == "" {
		fields["title"] = msgRequired
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// UpdateTaskRequest represents the JSON body for a partial task update.
// All fields are optional; nil means "do not change this field".
type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// Validate checks that any provided fields have valid values.
// Returns a *domain.ValidationError if any checks fail.
func (r *UpdateTaskRequest) Validate() error {
	fields := make(map[string]string)

	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		fields["title"] = msgMustNotEmpty
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// ToPatch converts the request to a domain patch.
func (r *UpdateTaskRequest) ToPatch() task.Patch {
	return task.Patch{
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
	}
}

// BatchCreateRequest represents the JSON body for creating several tasks in
// one request.
type BatchCreateRequest struct {
	Tasks []CreateTaskRequest `json:"tasks"`
}

// Validate checks the batch shape and each entry's required fields.
// Returns a *domain.ValidationError if any checks fail.
func (r *BatchCreateRequest) Validate() error {
	fields := make(map[string]string)

	if len(r.Tasks) == 0 {
		fields["tasks"] = msgMustNotEmpty
	}
	if len(r.Tasks) > maxBatchSize {
		fields["tasks"] = fmt.Sprintf("must not exceed %d entries, got %d", maxBatchSize, len(r.Tasks))
	}
	for i, t := range r.Tasks {
		if strings.TrimSpace(t.Title) == "" {
			fields[fmt.Sprintf("tasks[%d].title", i)] = msgRequired
		}
	}

	if len(fields) > 0 {
		return &domain.ValidationError{Fields: fields}
	}
	return nil
}

// ToInputs converts the request to service batch inputs.
func (r *BatchCreateRequest) ToInputs() []ports.BatchInput {
	inputs := make([]ports.BatchInput, len(r.Tasks))
	for i, t := range r.Tasks {
		inputs[i] = ports.BatchInput{Title: t.Title, Description: t.Description}
	}
	return inputs
}
