package server

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"

	"taskapi/internal/models"
)

func TestLambdaHandlerRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	handler := NewLambdaHandler(env.router)

	resp, err := handler.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodPost,
		Path:       "/tasks",
		Body:       `{"title":"from lambda"}`,
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if resp.StatusCode != http.StatusCreated || resp.Headers["Access-Control-Allow-Origin"] != "*" {
		t.Fatalf("unexpected response %d %#v", resp.StatusCode, resp.Headers)
	}
	var task models.Task
	if err := json.Unmarshal([]byte(resp.Body), &task); err != nil {
		t.Fatalf("decode: %v", err)
	}

	resp, err = handler.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:     http.MethodGet,
		Path:           "/tasks/{taskId}",
		PathParameters: map[string]string{"taskId": task.ID},
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get via path parameters: %d %s", resp.StatusCode, resp.Body)
	}
}

func TestLambdaHandlerEncodesFailures(t *testing.T) {
	env := newTestEnv(t)
	resp, err := NewLambdaHandler(env.router).Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		Path:       "/nowhere",
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}
