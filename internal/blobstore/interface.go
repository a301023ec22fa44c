package blobstore

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidKey is returned for empty, absolute or escaping object keys.
	ErrInvalidKey = errors.New("invalid blob key")
	// ErrSignature is returned when a signed download URL fails verification.
	ErrSignature = errors.New("invalid or expired signature")
)

// PutOptions carries object attributes stored alongside the bytes.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// BlobStore is the byte-storage abstraction used by the attachment service.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, opts PutOptions) error
	// PresignGet returns a time-limited URL granting read access to key.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

var (
	_ BlobStore = (*LocalStore)(nil)
	_ BlobStore = (*S3Store)(nil)
)
