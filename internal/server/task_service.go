package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"taskapi/internal/api"
	"taskapi/internal/blobstore"
	"taskapi/internal/models"
	"taskapi/internal/store"
)

// TaskService centralizes task validation and defaults.
type TaskService struct {
	store  store.TaskTable
	logger *slog.Logger
	now    func() time.Time
	newID  func() string

	blobs         blobstore.BlobStore
	cascadeDelete bool
}

// NewTaskService constructs a TaskService.
func NewTaskService(table store.TaskTable, logger *slog.Logger) *TaskService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskService{
		store:  table,
		logger: logger.With("component", "tasks"),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  store.NewTaskID,
	}
}

// ConfigureCascadeDelete makes Delete remove attachment blobs after the task
// record is gone.
func (s *TaskService) ConfigureCascadeDelete(blobs blobstore.BlobStore, enabled bool) {
	s.blobs = blobs
	s.cascadeDelete = enabled && blobs != nil
}

// Create validates req, applies defaults and stores a new task.
func (s *TaskService) Create(ctx context.Context, req api.TaskCreateRequest) (*models.Task, error) {
	title, err := normalizeTitle(req.Title)
	if err != nil {
		return nil, err
	}

	status := string(models.DefaultStatus)
	if req.Status != nil {
		if status, err = normalizeStatus(*req.Status); err != nil {
			return nil, err
		}
	}

	priority := string(models.DefaultPriority)
	if req.Priority != nil {
		if priority, err = normalizePriority(*req.Priority); err != nil {
			return nil, err
		}
	}

	dueDate := ""
	if req.DueDate != nil {
		if dueDate, err = normalizeDueDate(*req.DueDate); err != nil {
			return nil, err
		}
	}

	now := s.now()
	task := &models.Task{
		ID:          s.newID(),
		Title:       title,
		Description: valueOrEmpty(req.Description),
		Status:      status,
		Priority:    priority,
		DueDate:     dueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
		Attachments: []models.Attachment{},
	}

	if err := s.store.PutTask(ctx, task); err != nil {
		return nil, storeFailure(err)
	}
	return task, nil
}

// List returns every task, or those whose status equals status exactly.
func (s *TaskService) List(ctx context.Context, status string) (api.TaskListResponse, error) {
	tasks, err := s.store.ScanTasks(ctx, store.ScanFilter{Status: status})
	if err != nil {
		return api.TaskListResponse{}, storeFailure(err)
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	return api.TaskListResponse{Tasks: tasks, Count: len(tasks)}, nil
}

// Get returns one task or a not-found error.
func (s *TaskService) Get(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, storeFailure(err)
	}
	if task == nil {
		return nil, taskNotFound()
	}
	task.Normalize()
	return task, nil
}

// Update merges the present fields of req into the stored task and refreshes
// updatedAt.
func (s *TaskService) Update(ctx context.Context, id string, req api.TaskUpdateRequest) (*models.Task, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}

	update := store.TaskUpdate{UpdatedAt: s.now()}
	if req.Title != nil {
		title, err := normalizeTitle(*req.Title)
		if err != nil {
			return nil, err
		}
		update.Title = &title
	}
	if req.Description != nil {
		description := *req.Description
		update.Description = &description
	}
	if req.Status != nil {
		status, err := normalizeStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		update.Status = &status
	}
	if req.Priority != nil {
		priority, err := normalizePriority(*req.Priority)
		if err != nil {
			return nil, err
		}
		update.Priority = &priority
	}
	if req.DueDate != nil {
		dueDate, err := normalizeDueDate(*req.DueDate)
		if err != nil {
			return nil, err
		}
		update.DueDate = &dueDate
	}

	task, err := s.store.UpdateTask(ctx, id, update)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, taskNotFound()
		}
		return nil, storeFailure(err)
	}
	task.Normalize()
	return task, nil
}

// Delete removes the task record and, when cascade delete is configured, the
// blobs of its attachments.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	task, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTask(ctx, id); err != nil {
		return storeFailure(err)
	}

	if !s.cascadeDelete {
		return nil
	}
	for _, attachment := range task.Attachments {
		if err := s.blobs.Delete(ctx, attachment.S3Key); err != nil {
			s.logger.Warn("cascade blob delete failed", "task_id", id, "file_id", attachment.FileID, "key", attachment.S3Key, "error", err)
		}
	}
	return nil
}
