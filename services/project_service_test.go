package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"task-manager/backend/models"
	"task-manager/backend/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func day(month, d int) time.Time {
	return time.Date(2024, time.Month(month), d, 0, 0, 0, 0, time.UTC)
}

func TestCreateProjectLinksUsers(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	u1 := mustRegister(t, s, "u1")
	u2 := mustRegister(t, s, "u2")

	p, err := NewProjectService(s).Create(ctx, ProjectInput{
		Name:      "alpha",
		StartDate: day(1, 1),
		EndDate:   day(2, 1),
		UserIDs:   []primitive.ObjectID{u1.ID, u2.ID, u1.ID},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Status != models.ProjectNotStarted {
		t.Errorf("default status: got %q", p.Status)
	}
	if len(p.UserIDs) != 2 {
		t.Errorf("user ids should be de-duplicated, got %v", p.UserIDs)
	}
	for _, u := range []*models.User{u1, u2} {
		if got := countID(mustUser(t, s, u.ID).ProjectIDs, p.ID); got != 1 {
			t.Errorf("user %s holds project %d times, want 1", u.Username, got)
		}
	}
}

func TestCreateProjectValidation(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	svc := NewProjectService(s)

	tests := []struct {
		name string
		in   ProjectInput
		want error
	}{
		{"missing name", ProjectInput{StartDate: day(1, 1), EndDate: day(2, 1)}, ErrValidation},
		{"missing dates", ProjectInput{Name: "p"}, ErrValidation},
		{"end before start", ProjectInput{Name: "p", StartDate: day(2, 1), EndDate: day(1, 1)}, ErrValidation},
		{"bad status", ProjectInput{Name: "p", StartDate: day(1, 1), EndDate: day(2, 1), Status: "paused"}, ErrValidation},
		{"unknown user", ProjectInput{Name: "p", StartDate: day(1, 1), EndDate: day(2, 1), UserIDs: []primitive.ObjectID{primitive.NewObjectID()}}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tt.in); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}

	all, _ := s.Projects().Find(ctx, models.ProjectFilter{})
	if len(all) != 0 {
		t.Errorf("rejected input must not persist, found %d projects", len(all))
	}
}

func TestUpdateStatusRejectsUnknownValue(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	p := mustProject(t, s)
	svc := NewProjectService(s)

	if _, err := svc.UpdateStatus(ctx, p.ID, "archived"); !errors.Is(err, ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
	if got := mustFindProject(t, s, p.ID).Status; got != models.ProjectNotStarted {
		t.Errorf("status changed to %q", got)
	}

	updated, err := svc.UpdateStatus(ctx, p.ID, models.ProjectCompleted)
	if err != nil || updated.Status != models.ProjectCompleted {
		t.Errorf("valid status: got %v, %v", updated, err)
	}
	if _, err := svc.UpdateStatus(ctx, primitive.NewObjectID(), models.ProjectCompleted); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing project: got %v, want ErrNotFound", err)
	}
}

func TestUpdateProjectSyncsUsersBothWays(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	u1 := mustRegister(t, s, "u1")
	u2 := mustRegister(t, s, "u2")
	u3 := mustRegister(t, s, "u3")
	p := mustProject(t, s, u1.ID, u2.ID)

	users := []primitive.ObjectID{u2.ID, u3.ID}
	desc := "new description"
	updated, err := NewProjectService(s).Update(ctx, p.ID, models.ProjectPatch{UserIDs: &users, Description: &desc})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != p.Name || updated.Description != desc {
		t.Errorf("partial update touched the wrong fields: %+v", updated)
	}

	if got := countID(mustUser(t, s, u1.ID).ProjectIDs, p.ID); got != 0 {
		t.Errorf("dropped user still holds project")
	}
	for _, u := range []*models.User{u2, u3} {
		if got := countID(mustUser(t, s, u.ID).ProjectIDs, p.ID); got != 1 {
			t.Errorf("user %s holds project %d times, want 1", u.Username, got)
		}
	}
}

func TestUpdateProjectDateOrder(t *testing.T) {
	s := store.NewMemoryStore()
	p := mustProject(t, s)
	end := day(1, 1).Add(-24 * time.Hour)

	_, err := NewProjectService(s).Update(context.Background(), p.ID, models.ProjectPatch{EndDate: &end})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("got %v, want ErrValidation", err)
	}
}

func TestDeleteProjectDetachesMembersAndCascades(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	member := mustRegister(t, s, "member")
	outsider := mustRegister(t, s, "outsider")
	other := mustProject(t, s, outsider.ID, member.ID)
	p := mustProject(t, s, member.ID)

	if _, err := NewTaskService(s).Create(ctx, TaskInput{Name: "t", ProjectID: p.ID}); err != nil {
		t.Fatal(err)
	}
	if _, err := NewIssueService(s).Create(ctx, p.ID, IssueInput{Title: "i"}); err != nil {
		t.Fatal(err)
	}

	if err := NewProjectService(s).Delete(ctx, p.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if got := mustUser(t, s, member.ID).ProjectIDs; countID(got, p.ID) != 0 || countID(got, other.ID) != 1 {
		t.Errorf("member projects: got %v", got)
	}
	if got := mustUser(t, s, outsider.ID).ProjectIDs; len(got) != 1 || got[0] != other.ID {
		t.Errorf("outsider projects changed: got %v", got)
	}
	tasks, _ := s.Tasks().Find(ctx, models.TaskFilter{ProjectID: &p.ID})
	issues, _ := s.Issues().Find(ctx, models.IssueFilter{ProjectID: &p.ID})
	if len(tasks) != 0 || len(issues) != 0 {
		t.Errorf("children survived: %d tasks, %d issues", len(tasks), len(issues))
	}

	if err := NewProjectService(s).Delete(ctx, p.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
}

func TestDeleteProjectPartialFailure(t *testing.T) {
	mem := store.NewMemoryStore()
	member := mustRegister(t, mem, "member")
	p := mustProject(t, mem, member.ID)

	fs := newFaultStore(mem, map[string]error{"Tasks.DeleteByProject": errInjected})
	err := NewProjectService(fs).Delete(context.Background(), p.ID)

	var pf *PartialFailureError
	if !errors.As(err, &pf) || !errors.Is(err, ErrPartialFailure) {
		t.Fatalf("got %v, want PartialFailureError", err)
	}
	if pf.ID != p.ID || pf.Entity != "project" {
		t.Errorf("partial failure details: %+v", pf)
	}
	if _, err := mem.Projects().FindByID(context.Background(), p.ID); !errors.Is(err, store.ErrNotFound) {
		t.Error("primary delete should stay committed")
	}
	if got := countID(mustUser(t, mem, member.ID).ProjectIDs, p.ID); got != 0 {
		t.Error("steps before the failure should stay committed")
	}
}

func TestCreateProjectUserSyncFailure(t *testing.T) {
	mem := store.NewMemoryStore()
	u := mustRegister(t, mem, "u")
	in := ProjectInput{Name: "p", StartDate: day(1, 1), EndDate: day(2, 1), UserIDs: []primitive.ObjectID{u.ID}}

	t.Run("best effort", func(t *testing.T) {
		fs := newFaultStore(mem, map[string]error{"Users.AddProject": errInjected})
		_, err := NewProjectService(fs).Create(context.Background(), in)
		if !errors.Is(err, ErrPartialFailure) || !errors.Is(err, errInjected) {
			t.Errorf("got %v, want partial failure wrapping the cause", err)
		}
	})

	t.Run("transactional", func(t *testing.T) {
		fs := newFaultStore(mem, map[string]error{"Users.AddProject": errInjected})
		fs.transactional = true
		_, err := NewProjectService(fs).Create(context.Background(), in)
		if err == nil || errors.Is(err, ErrPartialFailure) {
			t.Errorf("got %v, want a plain failure that aborts the transaction", err)
		}
		if !errors.Is(err, ErrInternal) {
			t.Errorf("got %v, want ErrInternal", err)
		}
	})
}

func TestListProjects(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	u1 := mustRegister(t, s, "u1")
	u2 := mustRegister(t, s, "u2")
	svc := NewProjectService(s)

	early, _ := svc.Create(ctx, ProjectInput{Name: "early", StartDate: day(1, 1), EndDate: day(2, 1), UserIDs: []primitive.ObjectID{u1.ID}})
	late, _ := svc.Create(ctx, ProjectInput{Name: "late", StartDate: day(6, 1), EndDate: day(8, 1), UserIDs: []primitive.ObjectID{u1.ID, u2.ID}})

	from := day(3, 1)
	by := day(3, 1)
	tests := []struct {
		name   string
		filter models.ProjectFilter
		want   []primitive.ObjectID
	}{
		{"all", models.ProjectFilter{}, []primitive.ObjectID{early.ID, late.ID}},
		{"by member", models.ProjectFilter{UserID: &u2.ID}, []primitive.ObjectID{late.ID}},
		{"by id", models.ProjectFilter{ID: &early.ID}, []primitive.ObjectID{early.ID}},
		{"start from", models.ProjectFilter{StartFrom: &from}, []primitive.ObjectID{late.ID}},
		{"end by", models.ProjectFilter{EndBy: &by}, []primitive.ObjectID{early.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			views, err := svc.List(ctx, tt.filter)
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			if len(views) != len(tt.want) {
				t.Fatalf("got %d projects, want %d", len(views), len(tt.want))
			}
			for i, v := range views {
				if v.ID != tt.want[i] {
					t.Errorf("project %d: got %v, want %v", i, v.ID, tt.want[i])
				}
				if len(v.Users) != len(v.UserIDs) {
					t.Errorf("project %s: %d users populated for %d ids", v.Name, len(v.Users), len(v.UserIDs))
				}
			}
		})
	}
}

func TestGetProjectPopulatesUsersWithoutPasswords(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	u1 := mustRegister(t, s, "u1")
	u2 := mustRegister(t, s, "u2")
	p := mustProject(t, s, u1.ID, u2.ID)

	view, err := NewProjectService(s).Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(view.Users) != 2 || view.Users[0].ID != u1.ID || view.Users[1].ID != u2.ID {
		t.Fatalf("populated users: got %+v", view.Users)
	}

	data, err := json.Marshal(view)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "password") {
		t.Errorf("project JSON exposes password: %s", data)
	}
	if !strings.Contains(string(data), `"username":"u1"`) {
		t.Errorf("project JSON lacks populated users: %s", data)
	}

	if _, err := NewProjectService(s).Get(ctx, primitive.NewObjectID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing project: got %v, want ErrNotFound", err)
	}
}
