// Package handlers holds the transport-neutral request handlers and the
// adapters that serve them over net/http and API Gateway.
package handlers

import (
	"context"
	"net/http"
	"strings"

	"certidesk/internal/domain"
)

// Request is an inbound call, independent of how it arrived
type Request struct {
	Method  string
	Path    string
	Headers map[string]string
	Body    []byte
}

// Header returns the value of the named header, ignoring case
func (r *Request) Header(name string) string {
	if v, ok := r.Headers[name]; ok {
		return v
	}
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

// Response is the outcome of a handler. A nil Body produces an empty body.
type Response struct {
	StatusCode int
	Headers    map[string]string
	Body       any
}

// HandlerFunc handles one request
type HandlerFunc func(ctx context.Context, req *Request) *Response

// JSON builds a JSON response
func JSON(status int, body any) *Response {
	return &Response{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}

// ErrorResponse is the body of a failed request
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// MethodNotAllowedResponse is the body of a 405
type MethodNotAllowedResponse struct {
	Error string `json:"error"`
}

// ContactCreatedResponse is the body of a saved submission
type ContactCreatedResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	ID      uint                  `json:"id"`
	Data    *domain.ContactRecord `json:"data"`
}

// NotifyResponse is the body of a notification attempt
type NotifyResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// HealthResponse is the body of the health check
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version,omitempty"`
}

func methodNotAllowed() *Response {
	resp := JSON(http.StatusMethodNotAllowed, MethodNotAllowedResponse{Error: "method not allowed"})
	resp.Headers["Allow"] = "POST, OPTIONS"
	return resp
}
