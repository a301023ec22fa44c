package api

import "taskapi/internal/models"

// AttachmentUploadRequest carries one file as base64 inside JSON.
type AttachmentUploadRequest struct {
	FileName    string `json:"fileName"`
	FileContent string `json:"fileContent"`
	ContentType string `json:"contentType,omitempty"`
}

// AttachmentView is attachment metadata plus a short-lived download link.
type AttachmentView struct {
	models.Attachment
	DownloadURL string `json:"downloadUrl,omitempty"`
}

// AttachmentUploadResponse is the body of a successful upload.
type AttachmentUploadResponse struct {
	Message     string            `json:"message"`
	Attachment  models.Attachment `json:"attachment"`
	DownloadURL string            `json:"downloadUrl"`
}

// AttachmentListResponse is the body of GET /tasks/{taskId}/attachments.
type AttachmentListResponse struct {
	TaskID      string           `json:"taskId"`
	Attachments []AttachmentView `json:"attachments"`
	Count       int              `json:"count"`
}
