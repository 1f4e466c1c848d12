// Package dto provides HTTP request/response data transfer objects and
// RFC 9457 Problem Details error responses for the inbound HTTP adapter layer.
package dto

import (
	"time"

	"github.com/stackbound/task-service/internal/domain/task"
	"github.com/stackbound/task-service/internal/ports"
)

// TaskResponse represents a single task in HTTP responses. Timestamps are
// RFC 3339 UTC.
type TaskResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// ToTaskResponse converts a domain Task entity to an HTTP response DTO.
func ToTaskResponse(t *task.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID.String(),
		Title:       t.Title,
		Description: t.Description,
		Completed:   t.Completed,
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   t.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// TaskListResponse represents a list of tasks in HTTP responses.
type TaskListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Count int            `json:"count"`
}

// ToTaskListResponse converts a slice of domain Task entities to an HTTP
// list response DTO.
func ToTaskListResponse(tasks []task.Task) TaskListResponse {
	items := make([]TaskResponse, len(tasks))
	for i := range tasks {
		items[i] = ToTaskResponse(&tasks[i])
	}
	return TaskListResponse{
		Tasks: items,
		Count: len(items),
	}
}

// BatchCreateResponse represents the result of a batch create. Created holds
// the prefix of tasks actually committed in input order; Errors carries the
// aborting failure message when the batch stopped early.
type BatchCreateResponse struct {
	Total   int            `json:"total"`
	Created []TaskResponse `json:"created"`
	Errors  []string       `json:"errors"`
}

// ToBatchCreateResponse converts a ports.BatchResult to an HTTP response DTO.
func ToBatchCreateResponse(result *ports.BatchResult) BatchCreateResponse {
	created := make([]TaskResponse, len(result.Created))
	for i := range result.Created {
		created[i] = ToTaskResponse(&result.Created[i])
	}

	errs := result.Errors
	if errs == nil {
		errs = []string{}
	}

	return BatchCreateResponse{
		Total:   result.Total,
		Created: created,
		Errors:  errs,
	}
}

// DeleteCompletedResponse reports how many completed tasks a sweep removed.
type DeleteCompletedResponse struct {
	DeletedCount int64 `json:"deleted_count"`
}
