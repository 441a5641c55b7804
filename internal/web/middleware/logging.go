// Package middleware provides HTTP middleware for the companion server.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/unitrack/internal/logging"
)

// Observer receives one call per finished request. route is the chi route
// pattern, or the raw path when no route matched.
type Observer func(method, route string, status int, elapsed time.Duration)

// Logger logs every request with its request id and reports it to observe,
// which may be nil. 5xx responses log at warn.
//
// Log fields:
//   - method, path, route
//   - status, duration_ms
//   - ip (RemoteAddr, already rewritten by TrustedRealIP)
func Logger(observe Observer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(ww, r)

			elapsed := time.Since(start)
			route := RoutePattern(r)

			level := slog.LevelInfo
			if ww.status >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			logging.FromContext(r.Context()).Log(r.Context(), level, "request",
				"method", r.Method,
				"path", r.URL.Path,
				"route", route,
				"status", ww.status,
				"duration_ms", elapsed.Milliseconds(),
				"ip", r.RemoteAddr,
			)

			if observe != nil {
				observe(r.Method, route, ww.status, elapsed)
			}
		})
	}
}

// RoutePattern returns the matched chi pattern for r, falling back to the
// URL path.
func RoutePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
