package middleware

import (
	"context"
	"net/http"
	"time"

	"task-manager/backend/logging"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const RequestIDHeader = "X-Request-ID"

const requestIDKey contextKey = "requestID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// RequestLogger tags each request with an id, echoed in X-Request-ID, and
// logs one access line when it completes.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), requestIDKey, requestID)))

		entry := logging.Logger.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"duration":   time.Since(start).String(),
		})
		if rec.status >= http.StatusInternalServerError {
			entry.Errorf("Event ID: HTTP_REQUEST, Description: %s %s -> %d", r.Method, r.URL.Path, rec.status)
			return
		}
		entry.Infof("Event ID: HTTP_REQUEST, Description: %s %s -> %d", r.Method, r.URL.Path, rec.status)
	})
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
