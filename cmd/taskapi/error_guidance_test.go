package main

import (
	"context"
	"fmt"
	"net"
	"testing"

	"taskapi/internal/api"
)

func TestFormatCLIError_NetworkGuidance(t *testing.T) {
	err := &net.DNSError{Err: "dial tcp: connection refused", Name: "127.0.0.1", IsTemporary: true}
	lines := formatCLIError(err)
	if !containsLine(lines, "hint: ensure a task API is running at TASKAPI_API_URL.") {
		t.Fatalf("expected connectivity guidance, got %v", lines)
	}
	if !containsLine(lines, "hint: start local server manually with: taskapi srv") {
		t.Fatalf("expected manual-start guidance, got %v", lines)
	}
}

func TestFormatCLIError_UnknownServiceGuidance(t *testing.T) {
	for _, err := range []*api.APIError{
		{Status: 404, Message: "404 Not Found"},
		{Status: 404, Code: "not_found", ErrorCode: routeNotFoundErrorCode, Message: "Route not found"},
	} {
		lines := formatCLIError(err)
		if !containsLine(lines, "hint: verify TASKAPI_API_URL points to a task API.") {
			t.Fatalf("expected api-url guidance for %v, got %v", err, lines)
		}
	}
}

func TestFormatCLIError_TaskNotFoundHasNoHint(t *testing.T) {
	err := &api.APIError{Status: 404, Code: "not_found", ErrorCode: 2001, Message: "Task not found"}
	lines := formatCLIError(err)
	if len(lines) != 1 || lines[0] != "not_found: Task not found" {
		t.Fatalf("expected bare error, got %v", lines)
	}
}

func TestFormatCLIError_AuthGuidance(t *testing.T) {
	err := &api.APIError{Status: 401, Code: "unauthorized", Message: "missing or invalid api key"}
	lines := formatCLIError(err)
	if !containsLine(lines, "hint: set TASKAPI_API_KEY to the key the server was started with.") {
		t.Fatalf("expected auth guidance, got %v", lines)
	}
}

func TestFormatCLIError_InternalGuidance(t *testing.T) {
	err := &api.APIError{Status: 500, Code: "internal", Message: "Internal server error"}
	lines := formatCLIError(err)
	if !containsLine(lines, "hint: server returned an internal error; check server logs for details.") {
		t.Fatalf("expected internal-error guidance, got %v", lines)
	}
}

func TestFormatCLIError_Timeout(t *testing.T) {
	lines := formatCLIError(fmt.Errorf("list tasks: %w", context.DeadlineExceeded))
	if !containsLine(lines, "hint: request timed out; check server health or increase TASKAPI_HTTP_TIMEOUT.") {
		t.Fatalf("expected timeout guidance, got %v", lines)
	}
}

func containsLine(lines []string, expected string) bool {
	for _, line := range lines {
		if line == expected {
			return true
		}
	}
	return false
}
