package dto_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stackbound/task-service/internal/adapters/http/dto"
	"github.com/stackbound/task-service/internal/domain"
)

func stringPtr(s string) *string { return &s }
func boolPtr(b bool) *bool       { return &b }

// requireValidationField asserts err wraps ErrValidation and the resulting
// ValidationError contains the expected field key.
func requireValidationField(t *testing.T, err error, field string) {
	t.Helper()

	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("errors.Is(err, ErrValidation) = false, got %v", err)
	}

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("errors.As(err, *ValidationError) = false, got %T", err)
	}
	if _, ok := verr.Fields[field]; !ok {
		t.Errorf("ValidationError.Fields missing key %q, got %v", field, verr.Fields)
	}
}

func TestCreateTaskRequest_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		req       dto.CreateTaskRequest
		wantErr   bool
		wantField string
	}{
		{
			name: "valid request passes",
			req: dto.CreateTaskRequest{
				Title:       "Buy groceries",
				Description: "Milk, eggs, bread",
			},
			wantErr: false,
		},
		{
			name:    "description optional",
			req:     dto.CreateTaskRequest{Title: "Buy groceries"},
			wantErr: false,
		},
		{
			name:      "empty title fails",
			req:       dto.CreateTaskRequest{Title: "", Description: "Some description"},
			wantErr:   true,
			wantField: "title",
		},
		{
			name:      "whitespace-only title fails",
			req:       dto.CreateTaskRequest{Title: "   "},
			wantErr:   true,
			wantField: "title",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.req.Validate()
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			requireValidationField(t, err, tt.wantField)
		})
	}
}

func TestUpdateTaskRequest_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		req       dto.UpdateTaskRequest
		wantErr   bool
		wantField string
	}{
		{
			name:    "empty patch passes",
			req:     dto.UpdateTaskRequest{},
			wantErr: false,
		},
		{
			name: "all fields set passes",
			req: dto.UpdateTaskRequest{
				Title:       stringPtr("New title"),
				Description: stringPtr("New description"),
				Completed:   boolPtr(true),
			},
			wantErr: false,
		},
		{
			name:    "clearing description passes",
			req:     dto.UpdateTaskRequest{Description: stringPtr("")},
			wantErr: false,
		},
		{
			name:      "empty title fails",
			req:       dto.UpdateTaskRequest{Title: stringPtr("")},
			wantErr:   true,
			wantField: "title",
		},
		{
			name:      "whitespace-only title fails",
			req:       dto.UpdateTaskRequest{Title: stringPtr("  ")},
			wantErr:   true,
			wantField: "title",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.req.Validate()
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			requireValidationField(t, err, tt.wantField)
		})
	}
}

func TestUpdateTaskRequest_ToPatch(t *testing.T) {
	t.Parallel()

	req := dto.UpdateTaskRequest{
		Title:     stringPtr("New title"),
		Completed: boolPtr(true),
	}

	patch := req.ToPatch()

	if patch.Title == nil || *patch.Title != "New title" {
		t.Errorf("patch.Title = %v, want %q", patch.Title, "New title")
	}
	if patch.Description != nil {
		t.Errorf("patch.Description = %v, want nil", patch.Description)
	}
	if patch.Completed == nil || !*patch.Completed {
		t.Errorf("patch.Completed = %v, want true", patch.Completed)
	}
}

func TestBatchCreateRequest_Validate(t *testing.T) {
	t.Parallel()

	oversized := make([]dto.CreateTaskRequest, 101)
	for i := range oversized {
		oversized[i] = dto.CreateTaskRequest{Title: fmt.Sprintf("task %d", i)}
	}

	tests := []struct {
		name      string
		req       dto.BatchCreateRequest
		wantErr   bool
		wantField string
	}{
		{
			name: "valid batch passes",
			req: dto.BatchCreateRequest{Tasks: []dto.CreateTaskRequest{
				{Title: "one"},
				{Title: "two", Description: "with description"},
			}},
			wantErr: false,
		},
		{
			name:      "empty batch fails",
			req:       dto.BatchCreateRequest{},
			wantErr:   true,
			wantField: "tasks",
		},
		{
			name:      "oversized batch fails",
			req:       dto.BatchCreateRequest{Tasks: oversized},
			wantErr:   true,
			wantField: "tasks",
		},
		{
			name: "entry with empty title fails with indexed field",
			req: dto.BatchCreateRequest{Tasks: []dto.CreateTaskRequest{
				{Title: "ok"},
				{Title: ""},
			}},
			wantErr:   true,
			wantField: "tasks[1].title",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.req.Validate()
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			requireValidationField(t, err, tt.wantField)
		})
	}
}

func TestBatchCreateRequest_ToInputs(t *testing.T) {
	t.Parallel()

	req := dto.BatchCreateRequest{Tasks: []dto.CreateTaskRequest{
		{Title: "one", Description: "first"},
		{Title: "two"},
	}}

	inputs := req.ToInputs()

	if len(inputs) != 2 {
		t.Fatalf("len(inputs) = %d, want 2", len(inputs))
	}
	if inputs[0].Title != "one" || inputs[0].Description != "first" {
		t.Errorf("inputs[0] = %+v, want title/description carried over", inputs[0])
	}
	if inputs[1].Title != "two" || inputs[1].Description != "" {
		t.Errorf("inputs[1] = %+v, want empty description", inputs[1])
	}
}
