package models

import "time"

// Task is one tracked work item. Attachments are embedded, newest last.
type Task struct {
	ID          string       `json:"taskId" dynamodbav:"taskId"`
	Title       string       `json:"title" dynamodbav:"title"`
	Description string       `json:"description" dynamodbav:"description"`
	Status      string       `json:"status" dynamodbav:"status"`
	Priority    string       `json:"priority" dynamodbav:"priority"`
	DueDate     string       `json:"dueDate,omitempty" dynamodbav:"dueDate,omitempty"`
	CreatedAt   time.Time    `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt" dynamodbav:"updatedAt"`
	Attachments []Attachment `json:"attachments" dynamodbav:"attachments"`
}

// Normalize fills collection fields that must never be nil.
func (t *Task) Normalize() {
	if t == nil {
		return
	}
	if t.Attachments == nil {
		t.Attachments = []Attachment{}
	}
}

// FindAttachment returns the index of the attachment with fileID, or -1.
func (t *Task) FindAttachment(fileID string) int {
	if t == nil {
		return -1
	}
	for i, attachment := range t.Attachments {
		if attachment.FileID == fileID {
			return i
		}
	}
	return -1
}
