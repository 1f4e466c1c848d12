package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stackbound/task-service/internal/domain/task"
	"github.com/stackbound/task-service/internal/ports"
)

var testTime = time.Date(2026, 2, 12, 15, 4, 5, 0, time.UTC)

// stubService is a hand-rolled ports.TaskService test double. Only the
// function fields a test sets are expected to be called; calling an unset
// field panics, which surfaces as a test failure.
type stubService struct {
	createFn          func(ctx context.Context, title, description string) (*task.Task, error)
	getFn             func(ctx context.Context, id uuid.UUID) (*task.Task, error)
	listFn            func(ctx context.Context) ([]task.Task, error)
	updateFn          func(ctx context.Context, id uuid.UUID, patch task.Patch) (*task.Task, error)
	deleteFn          func(ctx context.Context, id uuid.UUID) error
	createBatchFn     func(ctx context.Context, inputs []ports.BatchInput) (*ports.BatchResult, error)
	deleteCompletedFn func(ctx context.Context) (int64, error)
}

func (s *stubService) Create(ctx context.Context, title, description string) (*task.Task, error) {
	return s.createFn(ctx, title, description)
}

func (s *stubService) Get(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	return s.getFn(ctx, id)
}

func (s *stubService) List(ctx context.Context) ([]task.Task, error) {
	return s.listFn(ctx)
}

func (s *stubService) Update(ctx context.Context, id uuid.UUID, patch task.Patch) (*task.Task, error) {
	return s.updateFn(ctx, id, patch)
}

func (s *stubService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.deleteFn(ctx, id)
}

func (s *stubService) CreateBatch(ctx context.Context, inputs []ports.BatchInput) (*ports.BatchResult, error) {
	return s.createBatchFn(ctx, inputs)
}

func (s *stubService) DeleteCompleted(ctx context.Context) (int64, error) {
	return s.deleteCompletedFn(ctx)
}

// stubRegistry is a hand-rolled ports.HealthRegistry test double that returns
// a fixed result set.
type stubRegistry struct {
	results map[string]error
}

func (s *stubRegistry) Register(ports.HealthChecker) {}

func (s *stubRegistry) CheckAll(context.Context) map[string]error {
	return s.results
}

func withChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func validTask() task.Task {
	return task.Task{
		ID:          uuid.MustParse("a6f4f9a0-1db6-4e3f-9d25-55a7a041b3a1"),
		Title:       "Buy groceries",
		Description: "Milk, eggs, bread",
		Completed:   false,
		CreatedAt:   testTime,
		UpdatedAt:   testTime,
	}
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		t.Fatalf("failed to encode JSON body: %v", err)
	}
	return buf
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var result T
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode JSON response: %v", err)
	}
	return result
}

func requireStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Errorf("status = %d, want %d; body = %s", rec.Code, want, rec.Body.String())
	}
}
