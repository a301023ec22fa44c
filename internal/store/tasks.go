package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"taskapi/internal/models"
)

const taskColumns = "task_id, title, description, status, priority, due_date, created_at, updated_at, attachments"

// PutTask writes the full record, replacing any existing row with the same id.
func (s *SQLiteStore) PutTask(ctx context.Context, task *models.Task) error {
	if task == nil {
		return fmt.Errorf("task is required")
	}
	attachments, err := encodeAttachments(task.Attachments)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		task.ID,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		nullIfEmpty(task.DueDate),
		formatTime(task.CreatedAt),
		formatTime(task.UpdatedAt),
		attachments,
	)
	return err
}

// GetTask returns a task by id, or nil when absent.
func (s *SQLiteStore) GetTask(ctx context.Context, id string) (*models.Task, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE task_id = ?", id)
	return scanTask(row)
}

// UpdateTask merges the non-nil fields of update and returns the new record.
func (s *SQLiteStore) UpdateTask(ctx context.Context, id string, update TaskUpdate) (*models.Task, error) {
	if id == "" {
		return nil, fmt.Errorf("id is required")
	}

	set := []string{}
	args := []any{}

	if update.Title != nil {
		set = append(set, "title = ?")
		args = append(args, *update.Title)
	}
	if update.Description != nil {
		set = append(set, "description = ?")
		args = append(args, *update.Description)
	}
	if update.Status != nil {
		set = append(set, "status = ?")
		args = append(args, *update.Status)
	}
	if update.Priority != nil {
		set = append(set, "priority = ?")
		args = append(args, *update.Priority)
	}
	if update.DueDate != nil {
		set = append(set, "due_date = ?")
		args = append(args, nullIfEmpty(*update.DueDate))
	}

	set = append(set, "updated_at = ?")
	args = append(args, formatTime(update.UpdatedAt))

	args = append(args, id)
	query := fmt.Sprintf("UPDATE tasks SET %s WHERE task_id = ? RETURNING %s", strings.Join(set, ", "), taskColumns)
	task, err := scanTask(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrNotFound
	}
	return task, nil
}

// DeleteTask removes a task row. Deleting a missing task is not an error.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE task_id = ?", id)
	return err
}

// ScanTasks returns every task, or those whose status equals filter.Status.
func (s *SQLiteStore) ScanTasks(ctx context.Context, filter ScanFilter) ([]models.Task, error) {
	query := "SELECT " + taskColumns + " FROM tasks"
	args := []any{}
	if filter.Status != "" {
		query += " WHERE status = ?"
		args = append(args, filter.Status)
	}
	query += " ORDER BY created_at, task_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tasks, nil
}

func scanTask(scanner interface {
	Scan(dest ...any) error
}) (*models.Task, error) {
	var task models.Task
	var dueDate sql.NullString
	var createdAt, updatedAt, attachments string

	if err := scanner.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&task.Status,
		&task.Priority,
		&dueDate,
		&createdAt,
		&updatedAt,
		&attachments,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	task.DueDate = dueDate.String

	parsedCreated, err := parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	parsedUpdated, err := parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	task.CreatedAt = parsedCreated
	task.UpdatedAt = parsedUpdated

	task.Attachments, err = decodeAttachments(attachments)
	if err != nil {
		return nil, fmt.Errorf("decode attachments for task %s: %w", task.ID, err)
	}
	task.Normalize()

	return &task, nil
}

func encodeAttachments(attachments []models.Attachment) (string, error) {
	if attachments == nil {
		attachments = []models.Attachment{}
	}
	payload, err := json.Marshal(attachments)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

func decodeAttachments(raw string) ([]models.Attachment, error) {
	if strings.TrimSpace(raw) == "" {
		return []models.Attachment{}, nil
	}
	var attachments []models.Attachment
	if err := json.Unmarshal([]byte(raw), &attachments); err != nil {
		return nil, err
	}
	return attachments, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, value)
}
