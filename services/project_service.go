package services

import (
	"context"
	"strings"
	"time"

	"task-manager/backend/logging"
	"task-manager/backend/models"
	"task-manager/backend/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProjectInput struct {
	Name        string
	Description string
	StartDate   time.Time
	EndDate     time.Time
	Status      models.ProjectStatus
	UserIDs     []primitive.ObjectID
}

// ProjectView is a project with its member users populated.
type ProjectView struct {
	models.Project
	Users []models.User `json:"users"`
}

type ProjectService struct {
	store store.Store
}

func NewProjectService(s store.Store) *ProjectService {
	return &ProjectService{store: s}
}

// Create stores the project and adds it to every listed user.
func (s *ProjectService) Create(ctx context.Context, in ProjectInput) (*models.Project, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, validationErr("name is required")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return nil, validationErr("startDate and endDate are required")
	}
	if in.EndDate.Before(in.StartDate) {
		return nil, validationErr("endDate must not precede startDate")
	}
	if in.Status == "" {
		in.Status = models.ProjectNotStarted
	}
	if !in.Status.Valid() {
		return nil, validationErr("invalid project status %q", in.Status)
	}

	project := &models.Project{
		Name:        in.Name,
		Description: in.Description,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Status:      in.Status,
	}
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		userIDs, err := requireUsers(ctx, s.store, in.UserIDs)
		if err != nil {
			return err
		}
		project.UserIDs = userIDs

		if err := s.store.Projects().Create(ctx, project); err != nil {
			return fromStore(err, "project")
		}
		return secondaryFailed(s.store, "project", project.ID, "adding it to its users",
			s.store.Users().AddProject(ctx, project.ID, project.UserIDs))
	})
	if err != nil {
		return nil, err
	}

	logging.Logger.Infof("Event ID: PROJECT_CREATED, Description: Project %s created with %d users", project.ID.Hex(), len(project.UserIDs))
	return project, nil
}

func (s *ProjectService) Get(ctx context.Context, id primitive.ObjectID) (*ProjectView, error) {
	views, err := s.List(ctx, models.ProjectFilter{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, notFound("project")
	}
	return &views[0], nil
}

// List returns matching projects with their users populated by one lookup.
func (s *ProjectService) List(ctx context.Context, f models.ProjectFilter) ([]ProjectView, error) {
	projects, err := s.store.Projects().Find(ctx, f)
	if err != nil {
		return nil, fromStore(err, "projects")
	}

	ids := []primitive.ObjectID{}
	for _, p := range projects {
		ids = append(ids, p.UserIDs...)
	}
	users, err := s.store.Users().Find(ctx, models.UserFilter{IDs: models.UniqueIDs(ids)})
	if err != nil {
		return nil, fromStore(err, "users")
	}
	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	views := make([]ProjectView, 0, len(projects))
	for _, p := range projects {
		view := ProjectView{Project: p, Users: []models.User{}}
		for _, uid := range p.UserIDs {
			if u, ok := byID[uid]; ok {
				view.Users = append(view.Users, u)
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// Update applies a partial change. A new user list is synced both ways: the
// project is added to every listed user and pulled from users no longer listed.
func (s *ProjectService) Update(ctx context.Context, id primitive.ObjectID, patch models.ProjectPatch) (*models.Project, error) {
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, validationErr("name must not be empty")
		}
		patch.Name = &name
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, validationErr("invalid project status %q", *patch.Status)
	}

	var updated *models.Project
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		current, err := s.store.Projects().FindByID(ctx, id)
		if err != nil {
			return fromStore(err, "project")
		}
		merged := patch.Apply(*current)
		if merged.EndDate.Before(merged.StartDate) {
			return validationErr("endDate must not precede startDate")
		}

		var removed []primitive.ObjectID
		if patch.UserIDs != nil {
			userIDs, err := requireUsers(ctx, s.store, *patch.UserIDs)
			if err != nil {
				return err
			}
			patch.UserIDs = &userIDs
			removed = models.DiffIDs(current.UserIDs, userIDs)
		}

		updated, err = s.store.Projects().Update(ctx, id, patch)
		if err != nil {
			return fromStore(err, "project")
		}
		if patch.UserIDs == nil {
			return nil
		}

		if err := s.store.Users().AddProject(ctx, id, updated.UserIDs); err != nil {
			return secondaryFailed(s.store, "project", id, "adding it to its users", err)
		}
		return secondaryFailed(s.store, "project", id, "removing it from dropped users",
			s.store.Users().PullProject(ctx, id, removed))
	})
	if err != nil {
		return nil, err
	}

	logging.Logger.Infof("Event ID: PROJECT_UPDATED, Description: Project %s updated", id.Hex())
	return updated, nil
}

// UpdateStatus rejects values outside the enum before touching the store.
func (s *ProjectService) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.ProjectStatus) (*models.Project, error) {
	if !status.Valid() {
		return nil, validationErr("invalid project status %q", status)
	}
	return s.Update(ctx, id, models.ProjectPatch{Status: &status})
}

// Delete removes the project, detaches it from its members and deletes its
// tasks and issues.
func (s *ProjectService) Delete(ctx context.Context, id primitive.ObjectID) error {
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		project, err := s.store.Projects().Delete(ctx, id)
		if err != nil {
			return fromStore(err, "project")
		}
		if err := s.store.Users().PullProject(ctx, id, project.UserIDs); err != nil {
			return secondaryFailed(s.store, "project", id, "removing it from its users", err)
		}

		tasks, err := s.store.Tasks().DeleteByProject(ctx, id)
		if err != nil {
			return secondaryFailed(s.store, "project", id, "deleting its tasks", err)
		}
		issues, err := s.store.Issues().DeleteByProject(ctx, id)
		if err != nil {
			return secondaryFailed(s.store, "project", id, "deleting its issues", err)
		}
		logging.Logger.Infof("Event ID: PROJECT_CASCADE, Description: Project %s removed %d tasks and %d issues", id.Hex(), tasks, issues)
		return nil
	})
	if err != nil {
		return err
	}

	logging.Logger.Infof("Event ID: PROJECT_DELETED, Description: Project %s deleted", id.Hex())
	return nil
}
