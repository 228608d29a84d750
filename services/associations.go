package services

import (
	"context"
	"errors"

	"task-manager/backend/logging"
	"task-manager/backend/models"
	"task-manager/backend/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// secondaryFailed reports a failed association step that followed a
// committed primary write. Inside a transaction the error aborts and rolls
// back, so it is returned as an ordinary store failure.
func secondaryFailed(s store.Store, entity string, id primitive.ObjectID, step string, err error) error {
	if err == nil {
		return nil
	}
	if s.Transactional() {
		logging.Logger.Errorf("Event ID: ASSOCIATION_ROLLBACK, Description: %s %s rolled back, %s failed: %v", entity, id.Hex(), step, err)
		return fromStore(err, entity)
	}
	logging.Logger.Errorf("Event ID: ASSOCIATION_PARTIAL_FAILURE, Description: %s %s saved but %s failed: %v", entity, id.Hex(), step, err)
	return &PartialFailureError{Entity: entity, ID: id, Step: step, Err: err}
}

// requireUsers de-duplicates ids and checks that each one names a user.
func requireUsers(ctx context.Context, s store.Store, ids []primitive.ObjectID) ([]primitive.ObjectID, error) {
	ids = models.UniqueIDs(ids)
	if len(ids) == 0 {
		return ids, nil
	}
	found, err := s.Users().Find(ctx, models.UserFilter{IDs: ids})
	if err != nil {
		return nil, fromStore(err, "users")
	}
	if len(found) != len(ids) {
		return nil, notFound("user")
	}
	return ids, nil
}

// requireProject fails with ErrNotFound when the owning project is absent.
func requireProject(ctx context.Context, s store.Store, id primitive.ObjectID) (*models.Project, error) {
	if id.IsZero() {
		return nil, validationErr("projectId is required")
	}
	project, err := s.Projects().FindByID(ctx, id)
	if err != nil {
		return nil, fromStore(err, "project")
	}
	return project, nil
}

// detachFromProject pulls a deleted child from its project. A missing project
// is not fatal and comes back as a warning.
func detachFromProject(ctx context.Context, s store.Store, entity string, childID, projectID primitive.ObjectID, pull func(ctx context.Context, projectID, childID primitive.ObjectID) error) (string, error) {
	err := pull(ctx, projectID, childID)
	if errors.Is(err, store.ErrNotFound) {
		logging.Logger.Warnf("Event ID: OWNING_PROJECT_MISSING, Description: %s %s deleted, project %s no longer exists", entity, childID.Hex(), projectID.Hex())
		return "owning project not found", nil
	}
	return "", secondaryFailed(s, entity, childID, "removing it from project "+projectID.Hex(), err)
}
