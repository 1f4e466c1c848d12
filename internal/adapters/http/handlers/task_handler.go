// Package handlers provides the inbound HTTP handlers that translate
// requests into service port calls and results into JSON responses.
package handlers

import (
	"net/http"

	"github.com/stackbound/task-service/internal/adapters/http/dto"
	"github.com/stackbound/task-service/internal/ports"
)

// TaskHandler handles HTTP requests for task CRUD and batch operations.
type TaskHandler struct {
	service ports.TaskService
}

// NewTaskHandler creates a new TaskHandler with the given service port.
func NewTaskHandler(service ports.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// ListTasks handles GET /api/v1/tasks.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.service.List(r.Context())
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToTaskListResponse(tasks))
}

// CreateTask handles POST /api/v1/tasks.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	created, err := h.service.Create(r.Context(), req.Title, req.Description)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ToTaskResponse(created))
}

// GetTask handles GET /api/v1/tasks/{id}.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	t, err := h.service.Get(r.Context(), id)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToTaskResponse(t))
}

// UpdateTask handles PATCH /api/v1/tasks/{id}.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	var req dto.UpdateTaskRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	updated, err := h.service.Update(r.Context(), id, req.ToPatch())
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToTaskResponse(updated))
}

// DeleteTask handles DELETE /api/v1/tasks/{id}.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// BatchCreateTasks handles POST /api/v1/tasks/batch. A batch that aborted
// partway still returns 200: the response reports the committed prefix and
// the aborting failure so the caller can reconcile.
func (h *TaskHandler) BatchCreateTasks(w http.ResponseWriter, r *http.Request) {
	var req dto.BatchCreateRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.CreateBatch(r.Context(), req.ToInputs())
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToBatchCreateResponse(result))
}

// DeleteCompletedTasks handles DELETE /api/v1/tasks/completed.
func (h *TaskHandler) DeleteCompletedTasks(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.DeleteCompleted(r.Context())
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DeleteCompletedResponse{DeletedCount: count})
}
