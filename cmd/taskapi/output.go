package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"taskapi/internal/api"
	"taskapi/internal/format"
	"taskapi/internal/models"
)

var outputFormatter format.Formatter = format.JSONFormatter{Indent: "  "}

func writeJSON(w io.Writer, payload any) error {
	return outputFormatter.Write(w, payload)
}

func writePlain(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeTaskList(w io.Writer, tasks []models.Task) error {
	for _, task := range tasks {
		if err := writePlain(w, "%s\n", formatTaskLine(task)); err != nil {
			return err
		}
	}
	return nil
}

func writeTaskDetail(w io.Writer, task models.Task) error {
	lines := []string{
		fmt.Sprintf("id: %s", task.ID),
		fmt.Sprintf("title: %s", task.Title),
		fmt.Sprintf("status: %s", task.Status),
		fmt.Sprintf("priority: %s", task.Priority),
		fmt.Sprintf("created_at: %s", formatTime(task.CreatedAt)),
		fmt.Sprintf("updated_at: %s", formatTime(task.UpdatedAt)),
	}
	if task.DueDate != "" {
		lines = append(lines, fmt.Sprintf("due_date: %s", task.DueDate))
	}
	if task.Description != "" {
		lines = append(lines, fmt.Sprintf("description: %s", task.Description))
	}
	if len(task.Attachments) > 0 {
		lines = append(lines, "attachments:")
		for _, a := range task.Attachments {
			lines = append(lines, fmt.Sprintf("  - %s %s (%s)", a.FileID, a.FileName, a.ContentType))
		}
	}

	return writePlain(w, "%s\n", strings.Join(lines, "\n"))
}

func writeAttachmentList(w io.Writer, resp api.AttachmentListResponse) error {
	for _, view := range resp.Attachments {
		if err := writePlain(w, "%s\t%s\t%s\t%s\n", view.FileID, view.FileName, view.ContentType, view.DownloadURL); err != nil {
			return err
		}
	}
	return nil
}

func formatTaskLine(task models.Task) string {
	line := fmt.Sprintf("%s %s [%s] [%s] - %s", statusMarker(task.Status), task.ID, task.Priority, task.Status, task.Title)
	if task.DueDate != "" {
		line += " (due " + task.DueDate + ")"
	}
	return line
}

func statusMarker(status string) string {
	switch status {
	case "completed":
		return "●"
	case "in-progress":
		return "◐"
	default:
		return "○"
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
