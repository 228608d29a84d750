package services

import (
	"context"
	"errors"
	"io"
	"testing"

	"task-manager/backend/logging"
	"task-manager/backend/models"
	"task-manager/backend/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

var errInjected = errors.New("injected store failure")

func init() {
	logging.Logger.SetOutput(io.Discard)
}

// faultStore wraps a Store and fails the named association calls.
type faultStore struct {
	store.Store
	fail          map[string]error
	transactional bool
}

func newFaultStore(inner store.Store, fail map[string]error) *faultStore {
	return &faultStore{Store: inner, fail: fail}
}

func (f *faultStore) Transactional() bool { return f.transactional }
func (f *faultStore) Users() store.Users  { return faultUsers{Users: f.Store.Users(), fail: f.fail} }
func (f *faultStore) Projects() store.Projects {
	return faultProjects{Projects: f.Store.Projects(), fail: f.fail}
}
func (f *faultStore) Tasks() store.Tasks { return faultTasks{Tasks: f.Store.Tasks(), fail: f.fail} }

type faultUsers struct {
	store.Users
	fail map[string]error
}

func (u faultUsers) AddProject(ctx context.Context, projectID primitive.ObjectID, userIDs []primitive.ObjectID) error {
	if err := u.fail["Users.AddProject"]; err != nil {
		return err
	}
	return u.Users.AddProject(ctx, projectID, userIDs)
}

func (u faultUsers) PullProject(ctx context.Context, projectID primitive.ObjectID, userIDs []primitive.ObjectID) error {
	if err := u.fail["Users.PullProject"]; err != nil {
		return err
	}
	return u.Users.PullProject(ctx, projectID, userIDs)
}

type faultProjects struct {
	store.Projects
	fail map[string]error
}

func (p faultProjects) AddTask(ctx context.Context, projectID, taskID primitive.ObjectID) error {
	if err := p.fail["Projects.AddTask"]; err != nil {
		return err
	}
	return p.Projects.AddTask(ctx, projectID, taskID)
}

func (p faultProjects) AddIssue(ctx context.Context, projectID, issueID primitive.ObjectID) error {
	if err := p.fail["Projects.AddIssue"]; err != nil {
		return err
	}
	return p.Projects.AddIssue(ctx, projectID, issueID)
}

type faultTasks struct {
	store.Tasks
	fail map[string]error
}

func (t faultTasks) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	if err := t.fail["Tasks.DeleteByProject"]; err != nil {
		return 0, err
	}
	return t.Tasks.DeleteByProject(ctx, projectID)
}

func newAuth(s store.Store) *AuthService {
	return NewAuthService(s, NewJWTService("test-secret"), bcrypt.MinCost)
}

func mustRegister(t *testing.T, s store.Store, name string) *models.User {
	t.Helper()
	u, err := newAuth(s).Register(context.Background(), RegisterInput{
		Username: name,
		Email:    name + "@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("register %s: %v", name, err)
	}
	return u
}

func mustProject(t *testing.T, s store.Store, users ...primitive.ObjectID) *models.Project {
	t.Helper()
	p, err := NewProjectService(s).Create(context.Background(), ProjectInput{
		Name:      "project",
		StartDate: day(1, 1),
		EndDate:   day(3, 1),
		UserIDs:   users,
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	return p
}

func mustUser(t *testing.T, s store.Store, id primitive.ObjectID) *models.User {
	t.Helper()
	u, err := s.Users().FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	return u
}

func mustFindProject(t *testing.T, s store.Store, id primitive.ObjectID) *models.Project {
	t.Helper()
	p, err := s.Projects().FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("find project: %v", err)
	}
	return p
}

func countID(ids []primitive.ObjectID, id primitive.ObjectID) int {
	n := 0
	for _, v := range ids {
		if v == id {
			n++
		}
	}
	return n
}
