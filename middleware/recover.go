package middleware

import (
	"net/http"
	"runtime/debug"

	"task-manager/backend/logging"
)

// Recover turns a handler panic into a 500 and keeps the server running.
func Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logging.Logger.Errorf("Event ID: PANIC_RECOVERED, Description: %s %s panicked: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())
				writeError(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
