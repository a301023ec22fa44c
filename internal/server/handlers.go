package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"taskapi/internal/api"
)

const internalErrorMessage = "Internal server error"

// errorKind classifies a failed operation. The dispatcher maps each kind to
// exactly one status.
type errorKind string

const (
	kindValidation   errorKind = "validation"
	kindNotFound     errorKind = "not_found"
	kindRoute        errorKind = "route"
	kindUnauthorized errorKind = "unauthorized"
	kindInternal     errorKind = "internal"
)

func (k errorKind) status() int {
	switch k {
	case kindValidation:
		return http.StatusBadRequest
	case kindNotFound, kindRoute:
		return http.StatusNotFound
	case kindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func (k errorKind) code() string {
	switch k {
	case kindValidation:
		return "invalid_argument"
	case kindNotFound, kindRoute:
		return "not_found"
	case kindUnauthorized:
		return "unauthorized"
	default:
		return "internal"
	}
}

type apiError struct {
	kind    errorKind
	errCode int
	err     error
}

func (e apiError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e apiError) Unwrap() error {
	return e.err
}

func makeAPIError(kind errorKind, errCode int, err error) error {
	if err == nil {
		err = errors.New(http.StatusText(kind.status()))
	}

	var existing apiError
	if errors.As(err, &existing) && existing.kind != "" {
		return existing
	}

	return apiError{kind: kind, errCode: errCode, err: err}
}

func badRequest(err error) error {
	return badRequestCode(err, ErrCodeInvalidArgument)
}

func badRequestCode(err error, code int) error {
	return makeAPIError(kindValidation, code, err)
}

func notFoundCode(err error, code int) error {
	return makeAPIError(kindNotFound, code, err)
}

func taskNotFound() error {
	return notFoundCode(errors.New("Task not found"), ErrCodeTaskNotFound)
}

func routeNotFound() error {
	return makeAPIError(kindRoute, ErrCodeRouteNotFound, errors.New("Route not found"))
}

func unauthorized(err error) error {
	return makeAPIError(kindUnauthorized, ErrCodeUnauthorized, err)
}

func internalError(err error) error {
	return makeAPIError(kindInternal, ErrCodeInternal, err)
}

func storeFailure(err error) error {
	return makeAPIError(kindInternal, ErrCodeStoreFailure, err)
}

func blobFailure(err error) error {
	return makeAPIError(kindInternal, ErrCodeBlobFailure, err)
}

// classifyError returns the kind and numeric code for any error. Untagged
// errors are internal.
func classifyError(err error) (errorKind, int) {
	var apiErr apiError
	if errors.As(err, &apiErr) && apiErr.kind != "" {
		code := apiErr.errCode
		if code == 0 {
			code = defaultErrorCodeByStatus(apiErr.kind.status())
		}
		return apiErr.kind, code
	}
	return kindInternal, ErrCodeInternal
}

// errorResponse builds the status and JSON body for err.
func errorResponse(err error) (int, api.ErrorResponse) {
	kind, code := classifyError(err)
	body := api.ErrorResponse{Code: kind.code(), ErrorCode: code}
	if kind == kindInternal {
		body.Message = internalErrorMessage
		if err != nil {
			body.Error = err.Error()
		}
	} else {
		body.Message = err.Error()
	}
	return kind.status(), body
}

// requestBody returns the raw body bytes, decoding base64 when the front-end
// flagged it.
func requestBody(req *Request) ([]byte, error) {
	if !req.IsBase64Encoded {
		return []byte(req.Body), nil
	}
	raw, err := base64.StdEncoding.DecodeString(req.Body)
	if err != nil {
		return nil, badRequestCode(fmt.Errorf("invalid base64 request body"), ErrCodeInvalidJSON)
	}
	return raw, nil
}

// decodeJSON decodes the request body into dst. An empty body decodes as {}.
func decodeJSON(req *Request, dst any) error {
	raw, err := requestBody(req)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.NewDecoder(bytes.NewReader(raw)).Decode(dst); err != nil {
		return classifyDecodeJSONError(err)
	}
	return nil
}

func classifyDecodeJSONError(err error) error {
	if err == nil {
		return nil
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return badRequestCode(fmt.Errorf("request body too large"), ErrCodeRequestTooLarge)
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return badRequestCode(fmt.Errorf("Invalid JSON payload"), ErrCodeInvalidJSON)
	}

	var unmarshalErr *json.UnmarshalTypeError
	if errors.As(err, &unmarshalErr) {
		return badRequestCode(fmt.Errorf("Invalid JSON payload: field %s must be %s", unmarshalErr.Field, unmarshalErr.Type), ErrCodeInvalidJSON)
	}

	return badRequestCode(fmt.Errorf("Invalid JSON payload"), ErrCodeInvalidJSON)
}

func valueOrEmpty(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return strings.TrimSpace(*ptr)
}
