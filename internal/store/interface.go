package store

import (
	"context"
	"errors"
	"time"

	"taskapi/internal/models"
)

// ErrNotFound is returned when a conditional write targets a missing task or
// attachment entry.
var ErrNotFound = errors.New("not found")

// TaskUpdate carries the fields to merge into a stored task. Nil fields are
// left untouched; UpdatedAt is always written.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	DueDate     *string
	UpdatedAt   time.Time
}

// ScanFilter narrows ScanTasks. An empty Status returns every task.
type ScanFilter struct {
	Status string
}

// TaskTable is the key-value surface the services need from a task backend.
//
// GetTask returns (nil, nil) when the task does not exist.
type TaskTable interface {
	GetTask(ctx context.Context, id string) (*models.Task, error)
	PutTask(ctx context.Context, task *models.Task) error
	UpdateTask(ctx context.Context, id string, update TaskUpdate) (*models.Task, error)
	DeleteTask(ctx context.Context, id string) error
	ScanTasks(ctx context.Context, filter ScanFilter) ([]models.Task, error)

	// AppendAttachment appends to the task's attachment sequence, creating
	// the sequence when absent.
	AppendAttachment(ctx context.Context, taskID string, attachment models.Attachment) error
	// RemoveAttachment removes the entry with fileID, preserving the order of
	// the remaining entries.
	RemoveAttachment(ctx context.Context, taskID, fileID string) error
}

var (
	_ TaskTable = (*SQLiteStore)(nil)
	_ TaskTable = (*DynamoStore)(nil)
	_ TaskTable = (*RedisStore)(nil)
)
