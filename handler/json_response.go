package handler

import (
	"encoding/json"
	"errors"
	"net/http"
)

// JSONResponse is the standard JSON response structure
type JSONResponse struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string              `json:"code,omitempty"`
	Message string              `json:"message,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

// MetaError is an error carrying structured data for the response meta block.
type MetaError interface {
	error
	Meta() map[string]any
}

// jsonResponse implements Response for JSON rendering
type jsonResponse struct {
	status int
	header http.Header
	body   JSONResponse
}

func (j *jsonResponse) Render(w http.ResponseWriter, r *http.Request) error {
	for k, v := range j.header {
		w.Header()[k] = v
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// StatusCode reports the status the response will be written with.
func (j *jsonResponse) StatusCode() int {
	return j.status
}

// JSONOption configures JSON response
type JSONOption func(*jsonResponse)

// WithJSONStatus sets custom HTTP status code
func WithJSONStatus(status int) JSONOption {
	return func(r *jsonResponse) {
		r.status = status
	}
}

// WithJSONMeta adds metadata to response
func WithJSONMeta(meta map[string]any) JSONOption {
	return func(r *jsonResponse) {
		if r.body.Meta == nil {
			r.body.Meta = make(map[string]any, len(meta))
		}
		for k, v := range meta {
			r.body.Meta[k] = v
		}
	}
}

// WithJSONHeader sets a response header.
func WithJSONHeader(key, value string) JSONOption {
	return func(r *jsonResponse) {
		if r.header == nil {
			r.header = make(http.Header)
		}
		r.header.Set(key, value)
	}
}

// JSON creates a JSON response with options
func JSON(v any, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusOK}

	switch val := v.(type) {
	case JSONResponse:
		r.body = val
	case *ErrorDetail:
		r.body.Error = val
		r.status = http.StatusInternalServerError
	case error:
		r.body.Error = errorToDetail(val, &r.status)
		withErrorMeta(r, val)
	default:
		r.body.Data = v
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// JSONError creates a JSON error response from an error with options
func JSONError(err any, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusInternalServerError}

	switch e := err.(type) {
	case *ErrorDetail:
		r.body.Error = e
	case error:
		r.body.Error = errorToDetail(e, &r.status)
		withErrorMeta(r, e)
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

func withErrorMeta(r *jsonResponse, err error) {
	var me MetaError
	if errors.As(err, &me) {
		WithJSONMeta(me.Meta())(r)
	}
}

// errorToDetail converts error to ErrorDetail and sets appropriate status.
// Errors that do not carry an HTTPError are reported as a bare 500 so
// storage and driver messages never reach the client.
func errorToDetail(err error, status *int) *ErrorDetail {
	var httpErr HTTPError
	if !errors.As(err, &httpErr) {
		*status = http.StatusInternalServerError
		return &ErrorDetail{
			Code:    ErrInternal.Key,
			Message: http.StatusText(http.StatusInternalServerError),
		}
	}

	*status = httpErr.Code
	message := http.StatusText(httpErr.Code)
	if _, plain := err.(HTTPError); !plain {
		message = err.Error()
	}

	return &ErrorDetail{
		Code:    httpErr.Key,
		Message: message,
	}
}

type emptyResponse struct {
	status int
}

func (e emptyResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.WriteHeader(e.status)
	return nil
}

func (e emptyResponse) StatusCode() int {
	return e.status
}

// Empty responds with 204 No Content.
func Empty() Response {
	return emptyResponse{status: http.StatusNoContent}
}

// StatusOf reports the status a response will be written with.
// Responses that do not expose one are assumed to succeed with 200.
func StatusOf(resp Response) int {
	if sc, ok := resp.(interface{ StatusCode() int }); ok {
		return sc.StatusCode()
	}
	return http.StatusOK
}

// IsSuccess classifies a handler outcome: any status below 400 is a success.
func IsSuccess(resp Response) bool {
	return resp != nil && StatusOf(resp) < http.StatusBadRequest
}

// headerResponse decorates another response with extra headers.
type headerResponse struct {
	Response
	header http.Header
}

// WithHeaders returns resp with the given headers added before it renders.
// When wrappers nest, the outermost one wins on a shared header name.
func WithHeaders(resp Response, header http.Header) Response {
	if len(header) == 0 {
		return resp
	}
	return &headerResponse{Response: resp, header: header}
}

func (h *headerResponse) Render(w http.ResponseWriter, r *http.Request) error {
	for k, v := range h.header {
		k = http.CanonicalHeaderKey(k)
		if _, exists := w.Header()[k]; !exists {
			w.Header()[k] = v
		}
	}
	return h.Response.Render(w, r)
}

func (h *headerResponse) StatusCode() int {
	return StatusOf(h.Response)
}
