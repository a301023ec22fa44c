package server

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"taskapi/internal/api"
	"taskapi/internal/blobstore"
	"taskapi/internal/models"
	"taskapi/internal/store"
)

const (
	DefaultMaxUploadBytes  int64 = 10 << 20
	DefaultDownloadLinkTTL       = time.Hour

	uploadSuccessMessage = "File uploaded successfully"
	deleteSuccessMessage = "Attachment deleted successfully"
)

// AttachmentService orchestrates blob writes and metadata updates for task
// attachments.
type AttachmentService struct {
	tasks  store.TaskTable
	blobs  blobstore.BlobStore
	logger *slog.Logger
	now    func() time.Time
	newID  func() string

	maxUploadBytes int64
	linkTTL        time.Duration
}

// NewAttachmentService constructs an AttachmentService.
func NewAttachmentService(tasks store.TaskTable, blobs blobstore.BlobStore, logger *slog.Logger) *AttachmentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AttachmentService{
		tasks:          tasks,
		blobs:          blobs,
		logger:         logger.With("component", "attachments"),
		now:            func() time.Time { return time.Now().UTC() },
		newID:          store.NewFileID,
		maxUploadBytes: DefaultMaxUploadBytes,
		linkTTL:        DefaultDownloadLinkTTL,
	}
}

// ConfigurePolicy overrides the upload size limit and download link lifetime.
// Non-positive values keep the defaults.
func (s *AttachmentService) ConfigurePolicy(maxUploadBytes int64, linkTTL time.Duration) {
	if maxUploadBytes > 0 {
		s.maxUploadBytes = maxUploadBytes
	}
	if linkTTL > 0 {
		s.linkTTL = linkTTL
	}
}

// MaxUploadBytes reports the decoded payload limit.
func (s *AttachmentService) MaxUploadBytes() int64 {
	return s.maxUploadBytes
}

// Upload stores the decoded file, appends its metadata entry and returns a
// download link.
func (s *AttachmentService) Upload(ctx context.Context, taskID string, req api.AttachmentUploadRequest) (api.AttachmentUploadResponse, error) {
	var resp api.AttachmentUploadResponse

	if _, err := s.requireTask(ctx, taskID); err != nil {
		return resp, err
	}

	if req.FileName == "" || req.FileContent == "" {
		return resp, badRequestCode(errors.New("fileName and fileContent are required"), ErrCodeMissingRequired)
	}

	data, err := decodeFileContent(req.FileContent)
	if err != nil {
		return resp, err
	}
	if int64(len(data)) > s.maxUploadBytes {
		return resp, badRequestCode(fmt.Errorf("file exceeds maximum size of %d bytes", s.maxUploadBytes), ErrCodeFileTooLarge)
	}

	contentType := strings.TrimSpace(req.ContentType)
	if contentType == "" {
		contentType = models.DefaultAttachmentContentType
	}

	fileID := s.newID()
	now := s.now()
	attachment := models.Attachment{
		FileID:      fileID,
		FileName:    req.FileName,
		S3Key:       attachmentKey(taskID, fileID, req.FileName),
		ContentType: contentType,
		UploadedAt:  now,
	}

	err = s.blobs.Put(ctx, attachment.S3Key, data, blobstore.PutOptions{
		ContentType: contentType,
		Metadata: map[string]string{
			"taskId":           taskID,
			"originalFileName": req.FileName,
			"uploadedAt":       now.Format(time.RFC3339),
		},
	})
	if err != nil {
		return resp, blobFailure(err)
	}

	if err := s.tasks.AppendAttachment(ctx, taskID, attachment); err != nil {
		if delErr := s.blobs.Delete(ctx, attachment.S3Key); delErr != nil {
			s.logger.Warn("orphaned blob after failed metadata append", "task_id", taskID, "key", attachment.S3Key, "error", delErr)
		}
		if errors.Is(err, store.ErrNotFound) {
			return resp, taskNotFound()
		}
		return resp, storeFailure(err)
	}

	link, err := s.blobs.PresignGet(ctx, attachment.S3Key, s.linkTTL)
	if err != nil {
		return resp, blobFailure(err)
	}

	return api.AttachmentUploadResponse{
		Message:     uploadSuccessMessage,
		Attachment:  attachment,
		DownloadURL: link,
	}, nil
}

// List returns the task's attachments, each with a fresh download link.
func (s *AttachmentService) List(ctx context.Context, taskID string) (api.AttachmentListResponse, error) {
	task, err := s.requireTask(ctx, taskID)
	if err != nil {
		return api.AttachmentListResponse{}, err
	}

	views := make([]api.AttachmentView, 0, len(task.Attachments))
	for _, attachment := range task.Attachments {
		link, err := s.blobs.PresignGet(ctx, attachment.S3Key, s.linkTTL)
		if err != nil {
			return api.AttachmentListResponse{}, blobFailure(err)
		}
		views = append(views, api.AttachmentView{Attachment: attachment, DownloadURL: link})
	}

	return api.AttachmentListResponse{TaskID: taskID, Attachments: views, Count: len(views)}, nil
}

// Delete removes the blob first, then the metadata entry. A blob delete
// failure leaves the metadata untouched.
func (s *AttachmentService) Delete(ctx context.Context, taskID, fileID string) error {
	task, err := s.requireTask(ctx, taskID)
	if err != nil {
		return err
	}

	idx := task.FindAttachment(fileID)
	if idx < 0 {
		return attachmentNotFound()
	}
	attachment := task.Attachments[idx]

	if err := s.blobs.Delete(ctx, attachment.S3Key); err != nil {
		return blobFailure(err)
	}

	if err := s.tasks.RemoveAttachment(ctx, taskID, fileID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return attachmentNotFound()
		}
		return storeFailure(err)
	}
	return nil
}

func (s *AttachmentService) requireTask(ctx context.Context, taskID string) (*models.Task, error) {
	task, err := s.tasks.GetTask(ctx, taskID)
	if err != nil {
		return nil, storeFailure(err)
	}
	if task == nil {
		return nil, taskNotFound()
	}
	task.Normalize()
	return task, nil
}

func attachmentNotFound() error {
	return notFoundCode(errors.New("Attachment not found"), ErrCodeAttachmentNotFound)
}

func decodeFileContent(content string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(content))
	if err != nil {
		return nil, badRequestCode(errors.New("Invalid base64 encoded file content"), ErrCodeInvalidFileContent)
	}
	return data, nil
}
