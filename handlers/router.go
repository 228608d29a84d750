package handlers

import (
	"context"
	"net/http"
	"time"

	"task-manager/backend/logging"
	"task-manager/backend/middleware"
	"task-manager/backend/services"

	"github.com/gorilla/mux"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type RouterDeps struct {
	Auth       *services.AuthService
	Projects   *services.ProjectService
	Tasks      *services.TaskService
	Issues     *services.IssueService
	Health     Pinger
	CORSOrigin string
}

// NewRouter wires every route. Only /auth/profile requires a bearer token.
// The middleware chain wraps the whole router so unmatched requests are
// logged and preflight requests are answered on any path.
func NewRouter(deps RouterDeps) (http.Handler, error) {
	validator, err := NewBodyValidator()
	if err != nil {
		return nil, err
	}

	authHandler := NewAuthHandler(deps.Auth, validator)
	projectHandler := NewProjectHandler(deps.Projects, validator)
	taskHandler := NewTaskHandler(deps.Tasks, validator)
	issueHandler := NewIssueHandler(deps.Issues, validator)

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.HandleFunc("/healthz", healthHandler(deps.Health)).Methods("GET")

	auth := r.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", authHandler.Register).Methods("POST")
	auth.HandleFunc("/login", authHandler.Login).Methods("POST")
	auth.HandleFunc("/users", authHandler.ListUsers).Methods("GET")
	auth.Handle("/profile", middleware.JWTAuth(deps.Auth)(http.HandlerFunc(authHandler.Profile))).Methods("GET")

	r.HandleFunc("/projects", projectHandler.CreateProject).Methods("POST")
	r.HandleFunc("/projects", projectHandler.ListProjects).Methods("GET")
	r.HandleFunc("/projects/{id}", projectHandler.GetProject).Methods("GET")
	r.HandleFunc("/projects/{id}", projectHandler.UpdateProject).Methods("PUT")
	r.HandleFunc("/projects/{id}", projectHandler.DeleteProject).Methods("DELETE")
	r.HandleFunc("/projects/{id}/status", projectHandler.UpdateProjectStatus).Methods("PATCH")

	r.HandleFunc("/projects/{projectId}/issues", issueHandler.CreateIssue).Methods("POST")
	r.HandleFunc("/projects/{projectId}/issues", issueHandler.GetIssues).Methods("GET")
	r.HandleFunc("/projects/{projectId}/issues/{issueId}", issueHandler.GetIssue).Methods("GET")
	r.HandleFunc("/projects/{projectId}/issues/{issueId}", issueHandler.UpdateIssue).Methods("PUT")
	r.HandleFunc("/projects/{projectId}/issues/{issueId}", issueHandler.DeleteIssue).Methods("DELETE")

	r.HandleFunc("/tasks", taskHandler.CreateTask).Methods("POST")
	r.HandleFunc("/tasks/project/{projectId}", taskHandler.GetTasksByProject).Methods("GET")
	r.HandleFunc("/tasks/{id}", taskHandler.GetTask).Methods("GET")
	r.HandleFunc("/tasks/{id}", taskHandler.UpdateTask).Methods("PUT")
	r.HandleFunc("/tasks/{id}", taskHandler.DeleteTask).Methods("DELETE")

	var h http.Handler = middleware.CORS(deps.CORSOrigin)(r)
	h = middleware.RequestLogger(h)
	return middleware.Recover(h), nil
}

func healthHandler(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			logging.Logger.Warnf("Event ID: HEALTH_CHECK_FAILED, Description: %v", err)
			writeError(w, http.StatusServiceUnavailable, "Store unreachable")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
