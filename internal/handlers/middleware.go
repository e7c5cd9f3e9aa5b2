package handlers

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"certidesk/internal/config"
)

// Middleware decorates a HandlerFunc
type Middleware func(HandlerFunc) HandlerFunc

// Chain applies middlewares so the first one listed runs outermost
func Chain(h HandlerFunc, mws ...Middleware) HandlerFunc {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// CORS answers preflight requests with 200 and an empty body and adds the
// cross-origin headers to every response
func CORS(cfg config.CORSConfig) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) *Response {
			var resp *Response
			if req.Method == http.MethodOptions {
				resp = &Response{StatusCode: http.StatusOK}
			} else {
				resp = next(ctx, req)
			}
			if resp.Headers == nil {
				resp.Headers = map[string]string{}
			}

			if origin := allowedOrigin(cfg.AllowedOrigins, req.Header("Origin")); origin != "" {
				resp.Headers["Access-Control-Allow-Origin"] = origin
				if origin != "*" {
					resp.Headers["Vary"] = "Origin"
				}
			}
			resp.Headers["Access-Control-Allow-Methods"] = strings.Join(cfg.AllowedMethods, ", ")
			resp.Headers["Access-Control-Allow-Headers"] = strings.Join(cfg.AllowedHeaders, ", ")
			if cfg.MaxAge > 0 {
				resp.Headers["Access-Control-Max-Age"] = strconv.Itoa(cfg.MaxAge)
			}
			return resp
		}
	}
}

// allowedOrigin returns the Access-Control-Allow-Origin value for origin,
// empty when the origin is not allowed
func allowedOrigin(allowed []string, origin string) string {
	for _, a := range allowed {
		if a == "*" {
			return "*"
		}
		if origin != "" && a == origin {
			return origin
		}
	}
	return ""
}

// SecurityHeaders adds the standard hardening headers
func SecurityHeaders() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) *Response {
			resp := next(ctx, req)
			if resp.Headers == nil {
				resp.Headers = map[string]string{}
			}
			resp.Headers["X-Content-Type-Options"] = "nosniff"
			resp.Headers["X-Frame-Options"] = "DENY"
			resp.Headers["Referrer-Policy"] = "strict-origin-when-cross-origin"
			resp.Headers["Permissions-Policy"] = "geolocation=(), microphone=(), camera=()"
			return resp
		}
	}
}

// Recover turns a panic into a 500 with a generic message
func Recover(logger logrus.FieldLogger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) (resp *Response) {
			defer func() {
				if r := recover(); r != nil {
					logger.WithFields(logrus.Fields{
						"method": req.Method,
						"path":   req.Path,
						"panic":  fmt.Sprint(r),
					}).Error("Handler panicked\n" + string(debug.Stack()))
					resp = JSON(http.StatusInternalServerError, ErrorResponse{Success: false, Error: "internal server error"})
				}
			}()
			return next(ctx, req)
		}
	}
}
