package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"task-manager/backend/logging"
	"task-manager/backend/services"
	"task-manager/backend/store"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Logger.Errorf("Event ID: RESPONSE_ENCODE_FAILED, Description: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeMessage(w http.ResponseWriter, msg, warning string) {
	body := map[string]string{"message": msg}
	if warning != "" {
		body["warning"] = warning
	}
	writeJSON(w, http.StatusOK, body)
}

// writeServiceError maps the service error taxonomy onto status codes. 5xx
// bodies never carry the underlying cause.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var badRequest *BadRequestError
	var partial *services.PartialFailureError

	switch {
	case errors.As(err, &badRequest):
		writeError(w, http.StatusBadRequest, badRequest.Error())
	case errors.As(err, &partial):
		logging.Logger.Errorf("Event ID: PARTIAL_FAILURE, Description: %s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error":   fmt.Sprintf("%s %s was saved but %s failed", partial.Entity, partial.ID.Hex(), partial.Step),
			"partial": true,
		})
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "Invalid token")
	case errors.Is(err, store.ErrUnavailable):
		logging.Logger.Warnf("Event ID: STORE_UNAVAILABLE, Description: %s %s: %v", r.Method, r.URL.Path, err)
		writeError(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
	default:
		logging.Logger.Errorf("Event ID: INTERNAL_ERROR, Description: %s %s: %v", r.Method, r.URL.Path, err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// pathID parses the named mux variable as an ObjectID. A malformed id cannot
// name a stored document, so it is answered with 404.
func pathID(r *http.Request, name string) (primitive.ObjectID, error) {
	raw := mux.Vars(r)[name]
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid %s %q: %w", name, raw, services.ErrNotFound)
	}
	return id, nil
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func parseDate(field, value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Time{}, &BadRequestError{Path: field, Message: "must be an RFC 3339 timestamp or a YYYY-MM-DD date"}
}

func parseOptionalDate(field string, value *string) (*time.Time, error) {
	if value == nil {
		return nil, nil
	}
	t, err := parseDate(field, *value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
