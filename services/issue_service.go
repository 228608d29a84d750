package services

import (
	"context"
	"strings"

	"task-manager/backend/logging"
	"task-manager/backend/models"
	"task-manager/backend/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type IssueInput struct {
	Title       string
	Description string
	Status      models.IssueStatus
	Priority    models.IssuePriority
}

// IssueService scopes every issue operation to the project in the path: an
// issue that belongs to another project is reported as not found.
type IssueService struct {
	store store.Store
}

func NewIssueService(s store.Store) *IssueService {
	return &IssueService{store: s}
}

func (s *IssueService) Create(ctx context.Context, projectID primitive.ObjectID, in IssueInput) (*models.Issue, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, validationErr("title is required")
	}
	if in.Status == "" {
		in.Status = models.IssueOpen
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if !in.Status.Valid() {
		return nil, validationErr("invalid issue status %q", in.Status)
	}
	if !in.Priority.Valid() {
		return nil, validationErr("invalid issue priority %q", in.Priority)
	}

	issue := &models.Issue{
		Title:       in.Title,
		Description: in.Description,
		Status:      in.Status,
		Priority:    in.Priority,
		ProjectID:   projectID,
	}
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := requireProject(ctx, s.store, projectID); err != nil {
			return err
		}
		if err := s.store.Issues().Create(ctx, issue); err != nil {
			return fromStore(err, "issue")
		}
		return secondaryFailed(s.store, "issue", issue.ID, "adding it to project "+projectID.Hex(),
			s.store.Projects().AddIssue(ctx, projectID, issue.ID))
	})
	if err != nil {
		return nil, err
	}

	logging.Logger.Infof("Event ID: ISSUE_CREATED, Description: Issue %s created in project %s", issue.ID.Hex(), projectID.Hex())
	return issue, nil
}

func (s *IssueService) List(ctx context.Context, projectID primitive.ObjectID) ([]models.Issue, error) {
	if _, err := requireProject(ctx, s.store, projectID); err != nil {
		return nil, err
	}
	issues, err := s.store.Issues().Find(ctx, models.IssueFilter{ProjectID: &projectID})
	if err != nil {
		return nil, fromStore(err, "issues")
	}
	return issues, nil
}

func (s *IssueService) Get(ctx context.Context, projectID, issueID primitive.ObjectID) (*models.Issue, error) {
	issue, err := s.store.Issues().FindByID(ctx, issueID)
	if err != nil {
		return nil, fromStore(err, "issue")
	}
	if issue.ProjectID != projectID {
		return nil, notFound("issue")
	}
	return issue, nil
}

func (s *IssueService) Update(ctx context.Context, projectID, issueID primitive.ObjectID, patch models.IssuePatch) (*models.Issue, error) {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, validationErr("title must not be empty")
		}
		patch.Title = &title
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, validationErr("invalid issue status %q", *patch.Status)
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		return nil, validationErr("invalid issue priority %q", *patch.Priority)
	}

	if _, err := s.Get(ctx, projectID, issueID); err != nil {
		return nil, err
	}
	issue, err := s.store.Issues().Update(ctx, issueID, patch)
	if err != nil {
		return nil, fromStore(err, "issue")
	}
	logging.Logger.Infof("Event ID: ISSUE_UPDATED, Description: Issue %s updated", issueID.Hex())
	return issue, nil
}

// Delete removes the issue and pulls it from its project, returning a warning
// when the project no longer exists.
func (s *IssueService) Delete(ctx context.Context, projectID, issueID primitive.ObjectID) (string, error) {
	var warning string
	err := s.store.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.Get(ctx, projectID, issueID); err != nil {
			return err
		}
		issue, err := s.store.Issues().Delete(ctx, issueID)
		if err != nil {
			return fromStore(err, "issue")
		}
		warning, err = detachFromProject(ctx, s.store, "issue", issue.ID, issue.ProjectID, s.store.Projects().PullIssue)
		return err
	})
	if err != nil {
		return "", err
	}

	logging.Logger.Infof("Event ID: ISSUE_DELETED, Description: Issue %s deleted", issueID.Hex())
	return warning, nil
}
