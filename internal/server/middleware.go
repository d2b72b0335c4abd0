package server

import (
	"net/http"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

// instrument tags the request with an id, then logs and records metrics for
// it under the route pattern.
func (s *Server) instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		m := httpsnoop.CaptureMetrics(next, w, r)

		s.logger.InfoContext(r.Context(), "Handled request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", m.Code,
			"bytes", m.Written,
			"duration_ms", m.Duration.Milliseconds())

		if s.metrics != nil {
			s.metrics.ObserveRequest(r.Method, route, m.Code, m.Duration)
		}
	})
}

// limit rejects requests with 429 once the token bucket is empty.
func (s *Server) limit(next http.HandlerFunc) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			s.logger.WarnContext(r.Context(), "Rate limit exceeded", "path", r.URL.Path)
			writeText(w, "Too many requests, slow down.", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	})
}
