package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"taskapi/internal/api"
)

const (
	corsAllowHeaders      = "Content-Type,X-Amz-Date,Authorization,X-Api-Key,X-Amz-Security-Token"
	taskAllowMethods      = "GET,POST,PUT,DELETE,OPTIONS"
	attachmentAllowMethod = "GET,POST,DELETE,OPTIONS"
)

// Request is a front-end neutral inbound HTTP event.
type Request struct {
	Method          string
	Path            string
	PathParameters  map[string]string
	QueryParameters map[string]string
	Headers         map[string]string
	Body            string
	IsBase64Encoded bool
}

// Response is the dispatcher's output, written back by the front-end.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       string
}

type resource int

const (
	resourceUnknown resource = iota
	resourceTasks
	resourceAttachments
)

func (r resource) allowMethods() string {
	switch r {
	case resourceTasks:
		return taskAllowMethods
	case resourceAttachments:
		return attachmentAllowMethod
	default:
		return taskAllowMethods
	}
}

type reply struct {
	status int
	body   any
}

type operation func(ctx context.Context, req *Request, params map[string]string) (reply, error)

type route struct {
	method   string
	segments []string
	resource resource
	op       operation
}

// Router maps method and path onto task and attachment operations.
type Router struct {
	tasks       *TaskService
	attachments *AttachmentService
	logger      *slog.Logger
	routes      []route
}

// NewRouter wires the route table over the two services.
func NewRouter(tasks *TaskService, attachments *AttachmentService, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	rt := &Router{tasks: tasks, attachments: attachments, logger: logger.With("component", "router")}
	rt.routes = []route{
		{http.MethodPost, split("/tasks"), resourceTasks, rt.createTask},
		{http.MethodGet, split("/tasks"), resourceTasks, rt.listTasks},
		{http.MethodGet, split("/tasks/{taskId}"), resourceTasks, rt.getTask},
		{http.MethodPut, split("/tasks/{taskId}"), resourceTasks, rt.updateTask},
		{http.MethodDelete, split("/tasks/{taskId}"), resourceTasks, rt.deleteTask},
		{http.MethodPost, split("/tasks/{taskId}/attachments"), resourceAttachments, rt.uploadAttachment},
		{http.MethodGet, split("/tasks/{taskId}/attachments"), resourceAttachments, rt.listAttachments},
		{http.MethodDelete, split("/tasks/{taskId}/attachments/{fileId}"), resourceAttachments, rt.deleteAttachment},
		{http.MethodDelete, split("/attachments/{fileId}"), resourceAttachments, rt.deleteAttachment},
	}
	return rt
}

func split(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

// Dispatch runs the operation matching req and always returns a response.
func (rt *Router) Dispatch(ctx context.Context, req Request) (resp Response) {
	rt.logger.Debug("event received", "method", req.Method, "path", req.Path, "path_params", req.PathParameters, "query", req.QueryParameters)

	res := resourceForPath(req.Path)
	defer func() {
		if rec := recover(); rec != nil {
			rt.logger.Error("operation panicked", "method", req.Method, "path", req.Path, "panic", rec, "stack", string(debug.Stack()))
			resp = rt.errorResponse(&req, res, internalError(fmt.Errorf("panic: %v", rec)))
		}
	}()

	if strings.EqualFold(req.Method, http.MethodOptions) {
		return rt.response(res, http.StatusOK, "")
	}

	matched, params := rt.match(req.Method, req.Path)
	if matched == nil {
		return rt.errorResponse(&req, res, routeNotFound())
	}
	for k, v := range req.PathParameters {
		if v != "" {
			params[k] = v
		}
	}

	out, err := matched.op(ctx, &req, params)
	if err != nil {
		return rt.errorResponse(&req, matched.resource, err)
	}
	return rt.jsonResponse(matched.resource, out.status, out.body)
}

func (rt *Router) match(method, path string) (*route, map[string]string) {
	segments := split(path)
	for i := range rt.routes {
		r := &rt.routes[i]
		if !strings.EqualFold(r.method, method) || len(r.segments) != len(segments) {
			continue
		}
		params := map[string]string{}
		ok := true
		for j, seg := range r.segments {
			if strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}") {
				params[seg[1:len(seg)-1]] = segments[j]
				continue
			}
			if seg != segments[j] {
				ok = false
				break
			}
		}
		if ok {
			return r, params
		}
	}
	return nil, nil
}

func resourceForPath(path string) resource {
	segments := split(path)
	switch {
	case len(segments) >= 3 && segments[0] == "tasks" && segments[2] == "attachments":
		return resourceAttachments
	case len(segments) >= 1 && segments[0] == "attachments":
		return resourceAttachments
	case len(segments) >= 1 && segments[0] == "tasks":
		return resourceTasks
	default:
		return resourceUnknown
	}
}

func (rt *Router) response(res resource, status int, body string) Response {
	return Response{
		StatusCode: status,
		Headers: map[string]string{
			"Content-Type":                 "application/json",
			"Access-Control-Allow-Origin":  "*",
			"Access-Control-Allow-Headers": corsAllowHeaders,
			"Access-Control-Allow-Methods": res.allowMethods(),
		},
		Body: body,
	}
}

func (rt *Router) jsonResponse(res resource, status int, payload any) Response {
	body, err := json.Marshal(payload)
	if err != nil {
		return rt.errorResponse(nil, res, internalError(fmt.Errorf("encode response: %w", err)))
	}
	return rt.response(res, status, string(body))
}

func (rt *Router) errorResponse(req *Request, res resource, err error) Response {
	status, body := errorResponse(err)

	fields := []any{"status", status, "code", body.Code, "error_code", body.ErrorCode, "error", err}
	if req != nil {
		fields = append(fields, "method", req.Method, "path", req.Path)
	}
	if status >= 500 {
		rt.logger.Error("request error", fields...)
	} else {
		rt.logger.Debug("request rejected", fields...)
	}

	payload, mErr := json.Marshal(body)
	if mErr != nil {
		payload = []byte(`{"message":"` + internalErrorMessage + `"}`)
	}
	return rt.response(res, status, string(payload))
}

func (rt *Router) createTask(ctx context.Context, req *Request, _ map[string]string) (reply, error) {
	var body api.TaskCreateRequest
	if err := decodeJSON(req, &body); err != nil {
		return reply{}, err
	}
	task, err := rt.tasks.Create(ctx, body)
	if err != nil {
		return reply{}, err
	}
	return reply{http.StatusCreated, task}, nil
}

func (rt *Router) listTasks(ctx context.Context, req *Request, _ map[string]string) (reply, error) {
	resp, err := rt.tasks.List(ctx, req.QueryParameters["status"])
	if err != nil {
		return reply{}, err
	}
	return reply{http.StatusOK, resp}, nil
}

func (rt *Router) getTask(ctx context.Context, _ *Request, params map[string]string) (reply, error) {
	task, err := rt.tasks.Get(ctx, params["taskId"])
	if err != nil {
		return reply{}, err
	}
	return reply{http.StatusOK, task}, nil
}

func (rt *Router) updateTask(ctx context.Context, req *Request, params map[string]string) (reply, error) {
	var body api.TaskUpdateRequest
	if err := decodeJSON(req, &body); err != nil {
		return reply{}, err
	}
	task, err := rt.tasks.Update(ctx, params["taskId"], body)
	if err != nil {
		return reply{}, err
	}
	return reply{http.StatusOK, task}, nil
}

func (rt *Router) deleteTask(ctx context.Context, _ *Request, params map[string]string) (reply, error) {
	if err := rt.tasks.Delete(ctx, params["taskId"]); err != nil {
		return reply{}, err
	}
	return reply{http.StatusOK, api.MessageResponse{Message: "Task deleted successfully"}}, nil
}

func (rt *Router) uploadAttachment(ctx context.Context, req *Request, params map[string]string) (reply, error) {
	var body api.AttachmentUploadRequest
	if err := decodeJSON(req, &body); err != nil {
		// Task existence is reported before body problems.
		if _, taskErr := rt.attachments.requireTask(ctx, params["taskId"]); taskErr != nil {
			return reply{}, taskErr
		}
		return reply{}, err
	}
	resp, err := rt.attachments.Upload(ctx, params["taskId"], body)
	if err != nil {
		return reply{}, err
	}
	return reply{http.StatusCreated, resp}, nil
}

func (rt *Router) listAttachments(ctx context.Context, _ *Request, params map[string]string) (reply, error) {
	resp, err := rt.attachments.List(ctx, params["taskId"])
	if err != nil {
		return reply{}, err
	}
	return reply{http.StatusOK, resp}, nil
}

func (rt *Router) deleteAttachment(ctx context.Context, req *Request, params map[string]string) (reply, error) {
	taskID := params["taskId"]
	if taskID == "" {
		taskID = req.QueryParameters["taskId"]
	}
	if taskID == "" {
		return reply{}, badRequestCode(errors.New("taskId is required"), ErrCodeMissingRequired)
	}
	if err := rt.attachments.Delete(ctx, taskID, params["fileId"]); err != nil {
		return reply{}, err
	}
	return reply{http.StatusOK, api.MessageResponse{Message: deleteSuccessMessage}}, nil
}
