package server

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// withMiddleware adds request ids, panic recovery, request logging and
// latency recording around every handler.
func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				s.logger.Error("handler panic", map[string]interface{}{
					"requestId": requestID,
					"path":      r.URL.Path,
					"panic":     p,
				})
				writeError(rec, http.StatusInternalServerError, "internal error")
			}

			duration := time.Since(started)
			status := statusClass(rec.status)
			if s.obs != nil {
				s.obs.RecordRequest(r.Context(), r.URL.Path, status)
				s.obs.RecordRequestDuration(r.Context(), duration, status)
			}
			s.logger.Info("request handled", map[string]interface{}{
				"requestId":  requestID,
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     rec.status,
				"durationMs": duration.Milliseconds(),
			})
		}()

		next.ServeHTTP(rec, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (r *statusRecorder) WriteHeader(status int) {
	if !r.wroteHeader {
		r.status = status
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(status)
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "error"
	case status >= 400:
		return "client_error"
	default:
		return "ok"
	}
}
