package handlers

import (
	"net/http"

	"task-manager/backend/models"
	"task-manager/backend/services"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskHandler struct {
	Service   *services.TaskService
	Validator *BodyValidator
}

func NewTaskHandler(service *services.TaskService, validator *BodyValidator) *TaskHandler {
	return &TaskHandler{Service: service, Validator: validator}
}

type createTaskRequest struct {
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Status      models.TaskStatus `json:"status"`
	ProjectID   string            `json:"projectId"`
}

type updateTaskRequest struct {
	Name        *string            `json:"name"`
	Description *string            `json:"description"`
	Status      *models.TaskStatus `json:"status"`
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := h.Validator.Decode(r, "task-create", &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	projectID, err := primitive.ObjectIDFromHex(req.ProjectID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "projectId: must be a valid id")
		return
	}

	task, err := h.Service.Create(r.Context(), services.TaskInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		ProjectID:   projectID,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) GetTasksByProject(w http.ResponseWriter, r *http.Request) {
	projectID, err := pathID(r, "projectId")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	tasks, err := h.Service.ListByProject(r.Context(), projectID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	task, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	var req updateTaskRequest
	if err := h.Validator.Decode(r, "task-update", &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	task, err := h.Service.Update(r.Context(), id, models.TaskPatch{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	warning, err := h.Service.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeMessage(w, "Task deleted successfully", warning)
}
