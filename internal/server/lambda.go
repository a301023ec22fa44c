package server

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
)

// LambdaHandler adapts API Gateway proxy events to the router.
type LambdaHandler struct {
	router *Router
}

// NewLambdaHandler wraps router for use with lambda.Start.
func NewLambdaHandler(router *Router) *LambdaHandler {
	return &LambdaHandler{router: router}
}

// Handle converts the proxy event, dispatches it and converts the response.
// Operation failures are encoded in the response; the returned error is
// always nil.
func (h *LambdaHandler) Handle(ctx context.Context, ev events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	resp := h.router.Dispatch(ctx, Request{
		Method:          ev.HTTPMethod,
		Path:            ev.Path,
		PathParameters:  ev.PathParameters,
		QueryParameters: ev.QueryStringParameters,
		Headers:         ev.Headers,
		Body:            ev.Body,
		IsBase64Encoded: ev.IsBase64Encoded,
	})
	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       resp.Body,
	}, nil
}
