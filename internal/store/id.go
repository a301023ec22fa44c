package store

import "github.com/google/uuid"

// NewTaskID returns a new opaque task identifier.
func NewTaskID() string {
	return uuid.NewString()
}

// NewFileID returns a new opaque attachment file identifier.
func NewFileID() string {
	return uuid.NewString()
}
