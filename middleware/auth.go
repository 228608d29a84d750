package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"task-manager/backend/logging"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type contextKey string

const userIDKey contextKey = "userID"

// TokenValidator maps a bearer token to the user id it was issued for.
type TokenValidator interface {
	Validate(token string) (primitive.ObjectID, error)
}

// JWTAuth rejects requests without a valid bearer token with 401 before the
// handler runs. Accepted requests carry the user id in their context.
func JWTAuth(v TokenValidator) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logging.Logger.Warnf("Event ID: JWT_AUTH_MISSING_HEADER, Description: Authorization header missing for request to %s %s", r.Method, r.URL.Path)
				writeError(w, http.StatusUnauthorized, "Authorization header missing")
				return
			}

			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenStr == authHeader || tokenStr == "" {
				logging.Logger.Warnf("Event ID: JWT_AUTH_BEARER_PREFIX_MISSING, Description: Bearer prefix missing in Authorization header for request to %s %s", r.Method, r.URL.Path)
				writeError(w, http.StatusUnauthorized, "Authorization header must use the Bearer scheme")
				return
			}
			logging.Logger.Debugf("Event ID: JWT_AUTH_TOKEN_EXTRACTED, Description: Extracted token (truncated) for request to %s %s: %s...", r.Method, r.URL.Path, tokenStr[:min(len(tokenStr), 10)])

			userID, err := v.Validate(tokenStr)
			if err != nil {
				logging.Logger.Warnf("Event ID: JWT_AUTH_INVALID_TOKEN, Description: Invalid token provided for request to %s %s: %v", r.Method, r.URL.Path, err)
				writeError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserIDFromContext returns the id attached by JWTAuth.
func UserIDFromContext(ctx context.Context) (primitive.ObjectID, bool) {
	id, ok := ctx.Value(userIDKey).(primitive.ObjectID)
	return id, ok
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
