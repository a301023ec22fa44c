package server

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"taskapi/internal/models"
)

const dueDateLayout = "2006-01-02"

func normalizeTitle(value string) (string, error) {
	title := strings.TrimSpace(value)
	if title == "" {
		return "", badRequestCode(errors.New("Title is required"), ErrCodeMissingRequired)
	}
	return title, nil
}

func normalizeStatus(value string) (string, error) {
	status, err := models.ParseTaskStatus(value)
	if err != nil {
		return "", badRequestCode(err, ErrCodeInvalidStatus)
	}
	return string(status), nil
}

func normalizePriority(value string) (string, error) {
	priority, err := models.ParseTaskPriority(value)
	if err != nil {
		return "", badRequestCode(err, ErrCodeInvalidPriority)
	}
	return string(priority), nil
}

// normalizeDueDate accepts YYYY-MM-DD or RFC3339 and returns the trimmed input
// unchanged. An empty value clears the due date.
func normalizeDueDate(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", nil
	}
	if _, err := time.Parse(dueDateLayout, value); err == nil {
		return value, nil
	}
	if _, err := time.Parse(time.RFC3339, value); err == nil {
		return value, nil
	}
	return "", badRequestCode(fmt.Errorf("invalid dueDate: expected YYYY-MM-DD or RFC3339"), ErrCodeInvalidDueDate)
}

// fileExtension returns the text after the last dot in name when it is a
// non-empty run of ASCII letters and digits.
func fileExtension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 || idx == len(name)-1 {
		return ""
	}
	ext := name[idx+1:]
	for _, r := range ext {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return ""
		}
	}
	return ext
}

// attachmentKey builds tasks/{taskId}/{fileId}[.{ext}].
func attachmentKey(taskID, fileID, fileName string) string {
	key := "tasks/" + taskID + "/" + fileID
	if ext := fileExtension(fileName); ext != "" {
		key += "." + ext
	}
	return key
}
