package handlers

import (
	"net/http"

	"task-manager/backend/models"
	"task-manager/backend/services"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type IssueHandler struct {
	Service   *services.IssueService
	Validator *BodyValidator
}

func NewIssueHandler(service *services.IssueService, validator *BodyValidator) *IssueHandler {
	return &IssueHandler{Service: service, Validator: validator}
}

type createIssueRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Status      models.IssueStatus   `json:"status"`
	Priority    models.IssuePriority `json:"priority"`
}

type updateIssueRequest struct {
	Title       *string               `json:"title"`
	Description *string               `json:"description"`
	Status      *models.IssueStatus   `json:"status"`
	Priority    *models.IssuePriority `json:"priority"`
}

// issuePath reads the projectId and, when present, issueId path variables.
func issuePath(r *http.Request, withIssue bool) (projectID, issueID primitive.ObjectID, err error) {
	if projectID, err = pathID(r, "projectId"); err != nil {
		return
	}
	if withIssue {
		issueID, err = pathID(r, "issueId")
	}
	return
}

func (h *IssueHandler) CreateIssue(w http.ResponseWriter, r *http.Request) {
	projectID, _, err := issuePath(r, false)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req createIssueRequest
	if err := h.Validator.Decode(r, "issue-create", &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	issue, err := h.Service.Create(r.Context(), projectID, services.IssueInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, issue)
}

func (h *IssueHandler) GetIssues(w http.ResponseWriter, r *http.Request) {
	projectID, _, err := issuePath(r, false)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	issues, err := h.Service.List(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, issues)
}

func (h *IssueHandler) GetIssue(w http.ResponseWriter, r *http.Request) {
	projectID, issueID, err := issuePath(r, true)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	issue, err := h.Service.Get(r.Context(), projectID, issueID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

func (h *IssueHandler) UpdateIssue(w http.ResponseWriter, r *http.Request) {
	projectID, issueID, err := issuePath(r, true)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req updateIssueRequest
	if err := h.Validator.Decode(r, "issue-update", &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	issue, err := h.Service.Update(r.Context(), projectID, issueID, models.IssuePatch{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, issue)
}

func (h *IssueHandler) DeleteIssue(w http.ResponseWriter, r *http.Request) {
	projectID, issueID, err := issuePath(r, true)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	warning, err := h.Service.Delete(r.Context(), projectID, issueID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, "Issue deleted successfully", warning)
}
