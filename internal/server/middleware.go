package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/tmessner/mailminder/internal/logging"
)

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withObservability wraps a handler with request logging and HTTP
// metrics. Each request is tagged with a correlation ID.
func (s *Server) withObservability(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		outcome := logging.StatusSuccess
		if rec.status >= http.StatusBadRequest {
			outcome = logging.StatusError
		}
		s.metrics.RecordHTTPRequest(r.Context(), r.Method, r.URL.Path, rec.status, duration)
		s.logger.Info("request handled",
			logging.RequestID(requestID),
			"method", r.Method,
			"path", r.URL.Path,
			"status_code", rec.status,
			logging.Status(outcome),
			"duration_ms", duration.Milliseconds(),
		)
	})
}
