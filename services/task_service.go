package services

import (
	"context"
	"strings"

	"task-manager/backend/logging"
	"task-manager/backend/models"
	"task-manager/backend/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskInput struct {
	Name        string
	Description string
	Status      models.TaskStatus
	ProjectID   primitive.ObjectID
}

type TaskService struct {
	store store.Store
}

func NewTaskService(s store.Store) *TaskService {
	return &TaskService{store: s}
}

// Create stores the task and appends it to its project's task list. The
// project must exist.
func (s *TaskService) Create(ctx context.Context, in TaskInput) (*models.Task, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, validationErr("name is required")
	}
	if in.Status == "" {
		in.Status = models.StatusPending
	}
	if !in.Status.Valid() {
		return nil, validationErr("invalid task status %q", in.Status)
	}

	task := &models.Task{
		Name:        in.Name,
		Description: in.Description,
		Status:      in.Status,
		ProjectID:   in.ProjectID,
	}
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := requireProject(ctx, s.store, in.ProjectID); err != nil {
			return err
		}
		if err := s.store.Tasks().Create(ctx, task); err != nil {
			return fromStore(err, "task")
		}
		return secondaryFailed(s.store, "task", task.ID, "adding it to project "+task.ProjectID.Hex(),
			s.store.Projects().AddTask(ctx, task.ProjectID, task.ID))
	})
	if err != nil {
		return nil, err
	}

	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Task %s created in project %s", task.ID.Hex(), task.ProjectID.Hex())
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	task, err := s.store.Tasks().FindByID(ctx, id)
	if err != nil {
		return nil, fromStore(err, "task")
	}
	return task, nil
}

func (s *TaskService) ListByProject(ctx context.Context, projectID primitive.ObjectID) ([]models.Task, error) {
	tasks, err := s.store.Tasks().Find(ctx, models.TaskFilter{ProjectID: &projectID})
	if err != nil {
		return nil, fromStore(err, "tasks")
	}
	return tasks, nil
}

func (s *TaskService) Update(ctx context.Context, id primitive.ObjectID, patch models.TaskPatch) (*models.Task, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, validationErr("name must not be empty")
		}
		patch.Name = &name
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, validationErr("invalid task status %q", *patch.Status)
	}

	task, err := s.store.Tasks().Update(ctx, id, patch)
	if err != nil {
		return nil, fromStore(err, "task")
	}
	logging.Logger.Infof("Event ID: TASK_UPDATED, Description: Task %s updated", id.Hex())
	return task, nil
}

// Delete removes the task and pulls it from its project. The returned warning
// is set when the project had already gone.
func (s *TaskService) Delete(ctx context.Context, id primitive.ObjectID) (string, error) {
	var warning string
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		task, err := s.store.Tasks().Delete(ctx, id)
		if err != nil {
			return fromStore(err, "task")
		}
		warning, err = detachFromProject(ctx, s.store, "task", task.ID, task.ProjectID, s.store.Projects().PullTask)
		return err
	})
	if err != nil {
		return "", err
	}

	logging.Logger.Infof("Event ID: TASK_DELETED, Description: Task %s deleted", id.Hex())
	return warning, nil
}
