package api

import (
	"context"
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"

	"namegrouper/internal/logging"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestID returns the correlation ID the middleware attached to the
// request context, or an empty string outside a request.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// requestIDMiddleware tags every request with a correlation ID. An inbound
// X-Request-Id from a proxy is kept; otherwise a fresh UUID is issued. The
// ID is echoed in the response header and carried in the context for
// handlers and audit events.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware records one line per request with status, duration and
// bytes written, after the handler chain below it has finished.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := httpsnoop.CaptureMetrics(next, w, r)
		logging.WithRequestID(logging.CategoryAPI, RequestID(r.Context())).
			Info("%s %s -> %d (%v, %d bytes)", r.Method, r.URL.Path, m.Code, m.Duration, m.Written)
	})
}

// recoverMiddleware converts handler panics into a 500 JSON response so a
// single bad request cannot take the server down.
func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logging.APIError("Panic handling %s %s: %v", r.Method, r.URL.Path, rec)
				writeDetail(w, http.StatusInternalServerError, "Internal server error.")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
