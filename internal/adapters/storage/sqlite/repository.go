// Package sqlite provides a task repository backed by a SQLite database in
// WAL mode. It is the production storage backend; timestamps are persisted as
// RFC 3339 UTC text so rows stay readable with the sqlite3 shell.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/stackbound/task-service/internal/domain"
	"github.com/stackbound/task-service/internal/domain/task"
	"github.com/stackbound/task-service/internal/ports"
)

// Compile-time interface checks.
var (
	_ ports.TaskRepository = (*Repository)(nil)
	_ ports.HealthChecker  = (*Repository)(nil)
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id          TEXT PRIMARY KEY,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	completed   INTEGER NOT NULL DEFAULT 0,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_completed ON tasks(completed);
CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks(created_at);
`

// Repository persists tasks in a SQLite database.
type Repository struct {
	db *sql.DB
}

// New opens (creating if necessary) the database at path, applies WAL mode
// and related pragmas, and ensures the schema exists.
func New(path string) (*Repository, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite: db path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: exec %q: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ensure schema: %w", err)
	}

	return &Repository{db: db}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Create persists a new record. Returns domain.ErrConflict if the ID exists.
func (r *Repository) Create(ctx context.Context, t task.Task) (*task.Task, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tasks (id, title, description, completed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID.String(), t.Title, t.Description, boolToInt(t.Completed),
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return nil, domain.ErrConflict
		}
		return nil, &domain.StorageError{Op: "sqlite.Create", Err: err}
	}

	stored := t
	return &stored, nil
}

// Get returns the stored state for the given ID.
func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, title, description, completed, created_at, updated_at
		FROM tasks WHERE id = ?`, id.String())

	t, err := scanTask(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{ID: id.String()}
		}
		return nil, &domain.StorageError{Op: "sqlite.Get", Err: err}
	}
	return t, nil
}

// List returns all tasks ordered by creation time descending, with ID as a
// tiebreaker so rows created in the same second keep a stable order.
func (r *Repository) List(ctx context.Context) ([]task.Task, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, description, completed, created_at, updated_at
		FROM tasks ORDER BY created_at DESC, id ASC`)
	if err != nil {
		return nil, &domain.StorageError{Op: "sqlite.List", Err: err}
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]task.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows.Scan)
		if err != nil {
			return nil, &domain.StorageError{Op: "sqlite.List", Err: err}
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StorageError{Op: "sqlite.List", Err: err}
	}
	return tasks, nil
}

// Update replaces the stored record for t.ID with the given full state.
func (r *Repository) Update(ctx context.Context, t task.Task) (*task.Task, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks SET title = ?, description = ?, completed = ?, updated_at = ?
		WHERE id = ?`,
		t.Title, t.Description, boolToInt(t.Completed), formatTime(t.UpdatedAt),
		t.ID.String(),
	)
	if err != nil {
		return nil, &domain.StorageError{Op: "sqlite.Update", Err: err}
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, &domain.StorageError{Op: "sqlite.Update", Err: err}
	}
	if affected == 0 {
		return nil, &domain.NotFoundError{ID: t.ID.String()}
	}

	stored := t
	return &stored, nil
}

// Delete removes the record. Returns domain.ErrNotFound if absent.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id.String())
	if err != nil {
		return &domain.StorageError{Op: "sqlite.Delete", Err: err}
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return &domain.StorageError{Op: "sqlite.Delete", Err: err}
	}
	if affected == 0 {
		return &domain.NotFoundError{ID: id.String()}
	}
	return nil
}

// CreateBatch inserts tasks one at a time, in input order. The first failure
// aborts the batch and earlier inserts stay committed; each insert is its own
// implicit transaction, matching the port's no-rollback contract.
func (r *Repository) CreateBatch(ctx context.Context, tasks []task.Task) ([]task.Task, error) {
	created := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		stored, err := r.Create(ctx, t)
		if err != nil {
			return created, err
		}
		created = append(created, *stored)
	}
	return created, nil
}

// DeleteCompleted removes every completed record and returns the count.
func (r *Repository) DeleteCompleted(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE completed = 1`)
	if err != nil {
		return 0, &domain.StorageError{Op: "sqlite.DeleteCompleted", Err: err}
	}

	count, err := res.RowsAffected()
	if err != nil {
		return 0, &domain.StorageError{Op: "sqlite.DeleteCompleted", Err: err}
	}
	return count, nil
}

// Name identifies this backend in health reports.
func (r *Repository) Name() string { return "sqlite" }

// HealthCheck pings the database.
func (r *Repository) HealthCheck(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// scanTask reads one row into a Task, parsing the RFC 3339 timestamp columns.
func scanTask(scan func(dest ...any) error) (*task.Task, error) {
	var (
		idStr              string
		title, description string
		completed          int
		createdStr, updStr string
	)
	if err := scan(&idStr, &title, &description, &completed, &createdStr, &updStr); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("parse id %q: %w", idStr, err)
	}
	createdAt, err := time.Parse(time.RFC3339, createdStr)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdStr, err)
	}
	updatedAt, err := time.Parse(time.RFC3339, updStr)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at %q: %w", updStr, err)
	}

	return &task.Task{
		ID:          id,
		Title:       title,
		Description: description,
		Completed:   completed != 0,
		CreatedAt:   createdAt.UTC(),
		UpdatedAt:   updatedAt.UTC(),
	}, nil
}

// isConstraintViolation reports whether err is a SQLite primary key or unique
// constraint failure.
func isConstraintViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
