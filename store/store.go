// Package store persists users, projects, tasks and issues. Callers depend on
// the Store interface; MongoStore backs production and MemoryStore backs tests
// and local runs.
package store

import (
	"context"
	"errors"

	"task-manager/backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate key")
	// ErrUnavailable is returned while the store's circuit breaker is open.
	ErrUnavailable = errors.New("store unavailable")
)

type Store interface {
	Users() Users
	Projects() Projects
	Tasks() Tasks
	Issues() Issues

	// WithTransaction runs fn as one unit when the store supports
	// transactions, and plainly otherwise. fn must use the ctx it is given.
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	// Transactional reports whether WithTransaction is atomic.
	Transactional() bool

	EnsureIndexes(ctx context.Context) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// Create methods assign the id and timestamps on the passed document.
// Update methods apply a partial patch and return the stored result.
// Delete methods return the document as it was before removal.

type Users interface {
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Find(ctx context.Context, f models.UserFilter) ([]models.User, error)
	// AddProject adds projectID to each user's project set without duplicates.
	AddProject(ctx context.Context, projectID primitive.ObjectID, userIDs []primitive.ObjectID) error
	PullProject(ctx context.Context, projectID primitive.ObjectID, userIDs []primitive.ObjectID) error
}

type Projects interface {
	Create(ctx context.Context, p *models.Project) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error)
	Find(ctx context.Context, f models.ProjectFilter) ([]models.Project, error)
	Update(ctx context.Context, id primitive.ObjectID, patch models.ProjectPatch) (*models.Project, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*models.Project, error)

	// The list maintenance calls return ErrNotFound when the project is gone.
	AddTask(ctx context.Context, projectID, taskID primitive.ObjectID) error
	PullTask(ctx context.Context, projectID, taskID primitive.ObjectID) error
	AddIssue(ctx context.Context, projectID, issueID primitive.ObjectID) error
	PullIssue(ctx context.Context, projectID, issueID primitive.ObjectID) error
}

type Tasks interface {
	Create(ctx context.Context, t *models.Task) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	Find(ctx context.Context, f models.TaskFilter) ([]models.Task, error)
	Update(ctx context.Context, id primitive.ObjectID, patch models.TaskPatch) (*models.Task, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error)
}

type Issues interface {
	Create(ctx context.Context, i *models.Issue) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error)
	Find(ctx context.Context, f models.IssueFilter) ([]models.Issue, error)
	Update(ctx context.Context, id primitive.ObjectID, patch models.IssuePatch) (*models.Issue, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*models.Issue, error)
	DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error)
}

func emptyIfNil(ids []primitive.ObjectID) []primitive.ObjectID {
	if ids == nil {
		return []primitive.ObjectID{}
	}
	return ids
}
