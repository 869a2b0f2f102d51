package router

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/dukerupert/dynamite/internal/handler"
	"github.com/dukerupert/dynamite/internal/middleware"
	"github.com/dukerupert/dynamite/internal/telemetry"
)

// Logger logs one line per request with status and duration. It expects
// middleware.WithRequestLogger to run first so the line carries request_id.
func Logger(fallback *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			logger := middleware.GetLogger(r.Context(), fallback)
			level := slog.LevelInfo
			switch {
			case wrapped.statusCode >= 500:
				level = slog.LevelError
			case r.URL.Path == "/healthz" || r.URL.Path == "/metrics":
				level = slog.LevelDebug
			}
			logger.Log(r.Context(), level, "request",
				"status", wrapped.statusCode,
				"bytes", wrapped.bytes,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	bytes       int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// Recovery turns a panic into a 500 and reports it to Sentry.
// http.ErrAbortHandler is re-panicked so net/http can abort the connection.
func Recovery(fallback *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				err := fmt.Errorf("panic: %v", rec)
				middleware.GetLogger(r.Context(), fallback).Error("panic recovered",
					"error", err,
					"stack", string(debug.Stack()),
				)
				telemetry.CaptureErrorFromContext(r.Context(), err, map[string]interface{}{
					"request_id": middleware.GetRequestID(r.Context()),
					"path":       r.URL.Path,
				})
				handler.WriteJSON(w, http.StatusInternalServerError, handler.ErrorBody{
					Error: handler.ErrorDetail{Code: "internal", Message: "An internal error occurred. Please try again later."},
				})
			}()
			next.ServeHTTP(w, r)
		})
	}
}
