package store

import (
	"context"
	"encoding/json"

	"taskapi/internal/models"
)

// AppendAttachment appends one entry to the task's attachment array in a
// single statement.
func (s *SQLiteStore) AppendAttachment(ctx context.Context, taskID string, attachment models.Attachment) error {
	payload, err := json.Marshal(attachment)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET attachments = json_insert(COALESCE(NULLIF(attachments, ''), '[]'), '$[#]', json(?))
		WHERE task_id = ?
	`, string(payload), taskID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

// RemoveAttachment drops the first entry whose fileId matches, leaving the
// order of the rest unchanged.
func (s *SQLiteStore) RemoveAttachment(ctx context.Context, taskID, fileID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET attachments = json_remove(attachments, '$[' || (
			SELECT key FROM json_each(tasks.attachments)
			WHERE json_extract(value, '$.fileId') = ?1
			ORDER BY key LIMIT 1
		) || ']')
		WHERE task_id = ?2 AND EXISTS (
			SELECT 1 FROM json_each(tasks.attachments)
			WHERE json_extract(value, '$.fileId') = ?1
		)
	`, fileID, taskID)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func requireAffected(res interface{ RowsAffected() (int64, error) }) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// withoutAttachment returns attachments minus the entry with fileID, keeping
// the order of the rest.
func withoutAttachment(attachments []models.Attachment, fileID string) ([]models.Attachment, bool) {
	out := make([]models.Attachment, 0, len(attachments))
	removed := false
	for _, attachment := range attachments {
		if !removed && attachment.FileID == fileID {
			removed = true
			continue
		}
		out = append(out, attachment)
	}
	return out, removed
}
