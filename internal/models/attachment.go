package models

import "time"

// DefaultAttachmentContentType is used when an upload declares no content type.
const DefaultAttachmentContentType = "application/octet-stream"

// Attachment is the metadata entry for one stored file, owned by a Task.
type Attachment struct {
	FileID      string    `json:"fileId" dynamodbav:"fileId"`
	FileName    string    `json:"fileName" dynamodbav:"fileName"`
	S3Key       string    `json:"s3Key" dynamodbav:"s3Key"`
	ContentType string    `json:"contentType" dynamodbav:"contentType"`
	UploadedAt  time.Time `json:"uploadedAt" dynamodbav:"uploadedAt"`
}
