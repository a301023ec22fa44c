package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"taskapi/internal/models"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	httpTimeoutEnvKey  = "TASKAPI_HTTP_TIMEOUT"
	apiKeyEnvKey       = "TASKAPI_API_KEY"
)

// Client is a simple HTTP client for the task API.
type Client struct {
	baseURL string
	http    *http.Client
	apiKey  string
}

// NewClient creates a new API client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: httpTimeoutFromEnv()},
		apiKey:  strings.TrimSpace(os.Getenv(apiKeyEnvKey)),
	}
}

// Ping checks whether the API server is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil, nil)
}

func (c *Client) CreateTask(ctx context.Context, req TaskCreateRequest) (models.Task, error) {
	var resp models.Task
	err := c.do(ctx, http.MethodPost, "/tasks", nil, req, &resp)
	return resp, err
}

func (c *Client) ListTasks(ctx context.Context, status string) (TaskListResponse, error) {
	var resp TaskListResponse
	var query url.Values
	if status != "" {
		query = url.Values{"status": {status}}
	}
	err := c.do(ctx, http.MethodGet, "/tasks", query, nil, &resp)
	return resp, err
}

func (c *Client) GetTask(ctx context.Context, id string) (models.Task, error) {
	var resp models.Task
	err := c.do(ctx, http.MethodGet, "/tasks/"+url.PathEscape(id), nil, nil, &resp)
	return resp, err
}

func (c *Client) UpdateTask(ctx context.Context, id string, req TaskUpdateRequest) (models.Task, error) {
	var resp models.Task
	err := c.do(ctx, http.MethodPut, "/tasks/"+url.PathEscape(id), nil, req, &resp)
	return resp, err
}

func (c *Client) DeleteTask(ctx context.Context, id string) (MessageResponse, error) {
	var resp MessageResponse
	err := c.do(ctx, http.MethodDelete, "/tasks/"+url.PathEscape(id), nil, nil, &resp)
	return resp, err
}

func (c *Client) UploadAttachment(ctx context.Context, taskID string, req AttachmentUploadRequest) (AttachmentUploadResponse, error) {
	var resp AttachmentUploadResponse
	err := c.do(ctx, http.MethodPost, "/tasks/"+url.PathEscape(taskID)+"/attachments", nil, req, &resp)
	return resp, err
}

func (c *Client) ListAttachments(ctx context.Context, taskID string) (AttachmentListResponse, error) {
	var resp AttachmentListResponse
	err := c.do(ctx, http.MethodGet, "/tasks/"+url.PathEscape(taskID)+"/attachments", nil, nil, &resp)
	return resp, err
}

func (c *Client) DeleteAttachment(ctx context.Context, taskID, fileID string) (MessageResponse, error) {
	var resp MessageResponse
	path := "/tasks/" + url.PathEscape(taskID) + "/attachments/" + url.PathEscape(fileID)
	err := c.do(ctx, http.MethodDelete, path, nil, nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func decodeError(resp *http.Response) error {
	var errResp ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Message != "" {
		return &APIError{
			Status:    resp.StatusCode,
			Code:      errResp.Code,
			ErrorCode: errResp.ErrorCode,
			Message:   errResp.Message,
			Detail:    errResp.Error,
		}
	}
	return &APIError{Status: resp.StatusCode, Message: resp.Status}
}

func httpTimeoutFromEnv() time.Duration {
	value := strings.TrimSpace(os.Getenv(httpTimeoutEnvKey))
	if value == "" {
		return defaultHTTPTimeout
	}

	if duration, err := time.ParseDuration(value); err == nil && duration > 0 {
		return duration
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}

	return defaultHTTPTimeout
}
