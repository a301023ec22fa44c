package api

import "taskapi/internal/models"

// TaskCreateRequest defines the payload for creating a task.
type TaskCreateRequest struct {
	Title       string  `json:"title" yaml:"title"`
	Description *string `json:"description,omitempty" yaml:"description,omitempty"`
	Status      *string `json:"status,omitempty" yaml:"status,omitempty"`
	Priority    *string `json:"priority,omitempty" yaml:"priority,omitempty"`
	DueDate     *string `json:"dueDate,omitempty" yaml:"dueDate,omitempty"`
}

// TaskUpdateRequest defines the payload for updating a task. Absent fields
// are left unchanged.
type TaskUpdateRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	DueDate     *string `json:"dueDate,omitempty"`
}

// IsEmpty reports whether no field is set.
func (r TaskUpdateRequest) IsEmpty() bool {
	return r.Title == nil && r.Description == nil && r.Status == nil && r.Priority == nil && r.DueDate == nil
}

// TaskListResponse is the body of GET /tasks.
type TaskListResponse struct {
	Tasks []models.Task `json:"tasks"`
	Count int           `json:"count"`
}
