package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrTaskNotFound reports a task id with no row behind it.
var ErrTaskNotFound = errors.New("task not found")

// Task is one row of the task list.
type Task struct {
	ID          int64
	Title       string
	Notes       string
	Done        bool
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// TaskStore persists the task list.
type TaskStore struct {
	db *sql.DB
}

// Add inserts a new open task and returns it.
func (s *TaskStore) Add(ctx context.Context, title, notes string) (Task, error) {
	if title == "" {
		return Task{}, fmt.Errorf("task title cannot be empty")
	}
	now := time.Now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (title, notes, done, created_at) VALUES (?, ?, 0, ?)`,
		title, notes, now.Unix(),
	)
	if err != nil {
		return Task{}, fmt.Errorf("insert task: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Task{}, fmt.Errorf("task id: %w", err)
	}
	return Task{ID: id, Title: title, Notes: notes, CreatedAt: now}, nil
}

// Get returns one task by id.
func (s *TaskStore) Get(ctx context.Context, id int64) (Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, notes, done, created_at, completed_at FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	return task, err
}

// List returns tasks in creation order. When includeDone is false only open
// tasks are returned.
func (s *TaskStore) List(ctx context.Context, includeDone bool) ([]Task, error) {
	query := `SELECT id, title, notes, done, created_at, completed_at FROM tasks`
	if !includeDone {
		query += ` WHERE done = 0`
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// Complete marks a task done and returns the updated row. Completing an
// already-done task is a no-op that returns the task unchanged.
func (s *TaskStore) Complete(ctx context.Context, id int64) (Task, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return Task{}, err
	}
	if task.Done {
		return task, nil
	}

	now := time.Now()
	if _, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET done = 1, completed_at = ? WHERE id = ?`, now.Unix(), id); err != nil {
		return Task{}, fmt.Errorf("complete task: %w", err)
	}
	task.Done = true
	task.CompletedAt = &now
	return task, nil
}

// Delete removes a task.
func (s *TaskStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %d", ErrTaskNotFound, id)
	}
	return nil
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row scanner) (Task, error) {
	var (
		task        Task
		done        int
		createdAt   int64
		completedAt sql.NullInt64
	)
	if err := row.Scan(&task.ID, &task.Title, &task.Notes, &done, &createdAt, &completedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Task{}, err
		}
		return Task{}, fmt.Errorf("scan task: %w", err)
	}
	task.Done = done != 0
	task.CreatedAt = time.Unix(createdAt, 0)
	if completedAt.Valid {
		t := time.Unix(completedAt.Int64, 0)
		task.CompletedAt = &t
	}
	return task, nil
}
