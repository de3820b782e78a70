package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle status of a task.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in_progress"
	StatusInReview   TaskStatus = "in_review"
	StatusDone       TaskStatus = "done"
)

// ErrTaskNotFound is returned when no task matches the lookup.
var ErrTaskNotFound = errors.New("task not found")

// Task is a unit of agent work tracked across decisions.
type Task struct {
	ID                 string
	Title              string
	Status             TaskStatus
	ExecutionProcessID uuid.UUID
	UpdatedAt          time.Time
}

// UpsertTask inserts or replaces a task.
func (d *DB) UpsertTask(t *Task) error {
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = time.Now()
	}
	_, err := d.conn.Exec(`
		INSERT INTO tasks (id, title, status, execution_process_id, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			status = excluded.status,
			execution_process_id = excluded.execution_process_id,
			updated_at = excluded.updated_at
	`, t.ID, t.Title, string(t.Status), t.ExecutionProcessID.String(), t.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert task: %w", err)
	}
	return nil
}

// GetTask loads a task by id.
func (d *DB) GetTask(id string) (*Task, error) {
	return d.scanTask(d.conn.QueryRow(`
		SELECT id, title, status, execution_process_id, updated_at
		FROM tasks WHERE id = ?
	`, id))
}

// GetTaskByProcess loads the task owning an execution process.
func (d *DB) GetTaskByProcess(processID uuid.UUID) (*Task, error) {
	return d.scanTask(d.conn.QueryRow(`
		SELECT id, title, status, execution_process_id, updated_at
		FROM tasks WHERE execution_process_id = ?
		ORDER BY updated_at DESC LIMIT 1
	`, processID.String()))
}

// UpdateTaskStatus sets the status of a task.
func (d *DB) UpdateTaskStatus(id string, status TaskStatus) error {
	res, err := d.conn.Exec(`
		UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?
	`, string(status), time.Now().Format(time.RFC3339), id)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTaskNotFound
	}
	return nil
}

// MarkInReview moves the task owning the process into review. A process
// with no task is not an error: the decision proceeds without a status
// transition.
func (d *DB) MarkInReview(processID uuid.UUID) error {
	_, err := d.conn.Exec(`
		UPDATE tasks SET status = ?, updated_at = ?
		WHERE execution_process_id = ? AND status != ?
	`, string(StatusInReview), time.Now().Format(time.RFC3339), processID.String(), string(StatusDone))
	if err != nil {
		return fmt.Errorf("mark task in review: %w", err)
	}
	return nil
}

// MarkInProgress moves the task owning the process back to in_progress,
// but only when it currently sits in review.
func (d *DB) MarkInProgress(processID uuid.UUID) error {
	_, err := d.conn.Exec(`
		UPDATE tasks SET status = ?, updated_at = ?
		WHERE execution_process_id = ? AND status = ?
	`, string(StatusInProgress), time.Now().Format(time.RFC3339), processID.String(), string(StatusInReview))
	if err != nil {
		return fmt.Errorf("mark task in progress: %w", err)
	}
	return nil
}

func (d *DB) scanTask(row *sql.Row) (*Task, error) {
	var t Task
	var status, processID, updatedAt string
	if err := row.Scan(&t.ID, &t.Title, &status, &processID, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	t.Status = TaskStatus(status)
	if id, err := uuid.Parse(processID); err == nil {
		t.ExecutionProcessID = id
	}
	if ts, err := time.Parse(time.RFC3339, updatedAt); err == nil {
		t.UpdatedAt = ts
	}
	return &t, nil
}
