package handlers

import (
	"net/http"

	"task-manager/backend/middleware"
	"task-manager/backend/services"
)

type AuthHandler struct {
	Service   *services.AuthService
	Validator *BodyValidator
}

func NewAuthHandler(service *services.AuthService, validator *BodyValidator) *AuthHandler {
	return &AuthHandler{Service: service, Validator: validator}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := h.Validator.Decode(r, "register", &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	user, err := h.Service.Register(r.Context(), services.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"message": "User registered successfully",
		"id":      user.ID.Hex(),
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := h.Validator.Decode(r, "login", &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	token, err := h.Service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Profile returns the caller's own user. It must run behind JWTAuth.
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Authorization header missing")
		return
	}

	user, err := h.Service.Profile(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.ListUsers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}
