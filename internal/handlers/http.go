package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	goahttp "goa.design/goa/v3/http"
	"goa.design/goa/v3/http/middleware"
)

// MaxBodyBytes caps the size of a request body read by the HTTP adapter
const MaxBodyBytes = 1 << 20

// mountedMethods are routed to a handler so it can answer 405 itself
var mountedMethods = []string{
	http.MethodGet,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
	http.MethodOptions,
}

// Mount registers h on every method of path
func Mount(mux goahttp.Muxer, path string, h HandlerFunc) {
	var handler http.Handler = HTTPHandler(h)
	handler = middleware.PopulateRequestContext()(handler)
	handler = middleware.RequestID()(handler)
	for _, method := range mountedMethods {
		mux.Handle(method, path, handler.ServeHTTP)
	}
}

// HTTPHandler serves h over net/http
func HTTPHandler(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
		if err != nil {
			status := http.StatusBadRequest
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			writeResponse(r.Context(), w, JSON(status, ErrorResponse{Success: false, Error: "request body could not be read"}))
			return
		}

		headers := make(map[string]string, len(r.Header))
		for k := range r.Header {
			headers[k] = r.Header.Get(k)
		}

		resp := h(r.Context(), &Request{
			Method:  r.Method,
			Path:    r.URL.Path,
			Headers: headers,
			Body:    body,
		})
		writeResponse(r.Context(), w, resp)
	}
}

func writeResponse(ctx context.Context, w http.ResponseWriter, resp *Response) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	if resp.Body == nil {
		w.WriteHeader(resp.StatusCode)
		return
	}
	// The goa encoder sets the content type itself and suffixes an existing
	// one, and bodies are always JSON whatever the Accept header says
	w.Header().Del("Content-Type")
	enc := goahttp.ResponseEncoder(context.WithValue(ctx, goahttp.ContentTypeKey, "application/json"), w)
	w.WriteHeader(resp.StatusCode)
	if err := enc.Encode(resp.Body); err != nil {
		logrus.WithError(err).Warn("Failed to encode response")
	}
}

// HealthHandler answers the liveness check
func HealthHandler(service, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeResponse(r.Context(), w, JSON(http.StatusOK, HealthResponse{
			Status:  "healthy",
			Service: service,
			Version: version,
		}))
	}
}

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RequestLogging logs every request and its outcome, skipping health checks
func RequestLogging(logger logrus.FieldLogger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		entry := logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   wrapped.statusCode,
			"duration": time.Since(start).String(),
			"remote":   r.RemoteAddr,
		})
		if wrapped.statusCode >= http.StatusInternalServerError {
			entry.Warn("Request failed")
			return
		}
		entry.Info("Request handled")
	})
}
