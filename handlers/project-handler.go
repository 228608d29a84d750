package handlers

import (
	"net/http"
	"time"

	"task-manager/backend/models"
	"task-manager/backend/services"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProjectHandler struct {
	Service   *services.ProjectService
	Validator *BodyValidator
}

func NewProjectHandler(service *services.ProjectService, validator *BodyValidator) *ProjectHandler {
	return &ProjectHandler{Service: service, Validator: validator}
}

type projectRequest struct {
	Name        *string               `json:"name"`
	Description *string               `json:"description"`
	StartDate   *string               `json:"startDate"`
	EndDate     *string               `json:"endDate"`
	Status      *models.ProjectStatus `json:"status"`
	UserIDs     *[]string             `json:"userIds"`
}

type statusRequest struct {
	Status models.ProjectStatus `json:"status"`
}

func (req projectRequest) patch() (models.ProjectPatch, error) {
	patch := models.ProjectPatch{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	}
	var err error
	if patch.StartDate, err = parseOptionalDate("startDate", req.StartDate); err != nil {
		return patch, err
	}
	if patch.EndDate, err = parseOptionalDate("endDate", req.EndDate); err != nil {
		return patch, err
	}
	if req.UserIDs != nil {
		ids, err := models.ParseIDs(*req.UserIDs)
		if err != nil {
			return patch, &BadRequestError{Path: "userIds", Message: "must contain valid ids"}
		}
		patch.UserIDs = &ids
	}
	return patch, nil
}

func (h *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	if err := h.Validator.Decode(r, "project-create", &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	patch, err := req.patch()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	in := services.ProjectInput{
		Name:      *patch.Name,
		StartDate: *patch.StartDate,
		EndDate:   *patch.EndDate,
	}
	if patch.Description != nil {
		in.Description = *patch.Description
	}
	if patch.Status != nil {
		in.Status = *patch.Status
	}
	if patch.UserIDs != nil {
		in.UserIDs = *patch.UserIDs
	}

	project, err := h.Service.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

// ListProjects filters by the userId, id, startDate and endDate query
// parameters. startDate keeps projects starting on or after it, endDate keeps
// projects ending on or before it.
func (h *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	var filter models.ProjectFilter
	query := r.URL.Query()

	for param, dst := range map[string]**primitive.ObjectID{"userId": &filter.UserID, "id": &filter.ID} {
		if raw := query.Get(param); raw != "" {
			id, err := primitive.ObjectIDFromHex(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, param+": must be a valid id")
				return
			}
			*dst = &id
		}
	}
	for param, dst := range map[string]**time.Time{"startDate": &filter.StartFrom, "endDate": &filter.EndBy} {
		if raw := query.Get(param); raw != "" {
			t, err := parseDate(param, raw)
			if err != nil {
				writeServiceError(w, r, err)
				return
			}
			*dst = &t
		}
	}

	projects, err := h.Service.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	project, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req projectRequest
	if err := h.Validator.Decode(r, "project-update", &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	patch, err := req.patch()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	project, err := h.Service.Update(r.Context(), id, patch)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) UpdateProjectStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req statusRequest
	if err := h.Validator.Decode(r, "project-status", &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	project, err := h.Service.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (h *ProjectHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, "Project deleted successfully", "")
}
