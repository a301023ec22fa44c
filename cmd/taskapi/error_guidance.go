package main

import (
	"context"
	"errors"
	"net"

	"taskapi/internal/api"
)

// routeNotFoundErrorCode mirrors the server's code for unmatched routes.
const routeNotFoundErrorCode = 2005

func formatCLIError(err error) []string {
	if err == nil {
		return nil
	}

	lines := []string{err.Error()}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case "unauthorized":
			lines = append(lines, "hint: set TASKAPI_API_KEY to the key the server was started with.")
		case "not_found":
			if apiErr.ErrorCode == routeNotFoundErrorCode {
				lines = append(lines, "hint: verify TASKAPI_API_URL points to a task API.")
			}
		}
		if apiErr.Code == "" {
			lines = append(lines, "hint: verify TASKAPI_API_URL points to a task API.")
		}
		if apiErr.Status >= 500 {
			lines = append(lines, "hint: server returned an internal error; check server logs for details.")
		}
		return uniqueLines(lines)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		lines = append(lines, "hint: request timed out; check server health or increase TASKAPI_HTTP_TIMEOUT.")
		return uniqueLines(lines)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		lines = append(lines,
			"hint: ensure a task API is running at TASKAPI_API_URL.",
			"hint: start local server manually with: taskapi srv",
		)
		return uniqueLines(lines)
	}

	return uniqueLines(lines)
}

func uniqueLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}
