package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"task-manager/backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// runContract exercises the behaviour every Store implementation must share.
func runContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("user create assigns id and enforces uniqueness", func(t *testing.T) {
		s := newStore(t)
		u := &models.User{Username: "ana", Email: "ana@example.com", Password: "hash"}
		if err := s.Users().Create(ctx, u); err != nil {
			t.Fatalf("create: %v", err)
		}
		if u.ID.IsZero() {
			t.Fatal("expected id to be assigned")
		}
		if u.CreatedAt.IsZero() {
			t.Error("expected createdAt to be set")
		}

		sameEmail := &models.User{Username: "other", Email: "ana@example.com", Password: "hash"}
		if err := s.Users().Create(ctx, sameEmail); !errors.Is(err, ErrDuplicate) {
			t.Errorf("duplicate email: got %v, want ErrDuplicate", err)
		}
		sameName := &models.User{Username: "ana", Email: "new@example.com", Password: "hash"}
		if err := s.Users().Create(ctx, sameName); !errors.Is(err, ErrDuplicate) {
			t.Errorf("duplicate username: got %v, want ErrDuplicate", err)
		}

		got, err := s.Users().FindByEmail(ctx, "ana@example.com")
		if err != nil {
			t.Fatalf("find by email: %v", err)
		}
		if got.ID != u.ID {
			t.Errorf("find by email: got id %v, want %v", got.ID, u.ID)
		}
		if _, err := s.Users().FindByEmail(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
			t.Errorf("missing email: got %v, want ErrNotFound", err)
		}
	})

	t.Run("user project set is idempotent", func(t *testing.T) {
		s := newStore(t)
		u1 := &models.User{Username: "u1", Email: "u1@example.com"}
		u2 := &models.User{Username: "u2", Email: "u2@example.com"}
		for _, u := range []*models.User{u1, u2} {
			if err := s.Users().Create(ctx, u); err != nil {
				t.Fatalf("create: %v", err)
			}
		}
		p := primitive.NewObjectID()

		for i := 0; i < 2; i++ {
			if err := s.Users().AddProject(ctx, p, []primitive.ObjectID{u1.ID}); err != nil {
				t.Fatalf("add project: %v", err)
			}
		}
		got, _ := s.Users().FindByID(ctx, u1.ID)
		if len(got.ProjectIDs) != 1 || got.ProjectIDs[0] != p {
			t.Errorf("project ids: got %v, want [%v]", got.ProjectIDs, p)
		}

		if err := s.Users().PullProject(ctx, p, []primitive.ObjectID{u1.ID, u2.ID}); err != nil {
			t.Fatalf("pull project: %v", err)
		}
		got, _ = s.Users().FindByID(ctx, u1.ID)
		if len(got.ProjectIDs) != 0 {
			t.Errorf("expected empty project ids, got %v", got.ProjectIDs)
		}

		if err := s.Users().AddProject(ctx, p, nil); err != nil {
			t.Errorf("add with no users: %v", err)
		}
	})

	t.Run("user filter by ids", func(t *testing.T) {
		s := newStore(t)
		u1 := &models.User{Username: "a", Email: "a@example.com"}
		u2 := &models.User{Username: "b", Email: "b@example.com"}
		_ = s.Users().Create(ctx, u1)
		_ = s.Users().Create(ctx, u2)

		all, err := s.Users().Find(ctx, models.UserFilter{})
		if err != nil || len(all) != 2 {
			t.Fatalf("find all: got %d users, err %v", len(all), err)
		}
		some, _ := s.Users().Find(ctx, models.UserFilter{IDs: []primitive.ObjectID{u2.ID}})
		if len(some) != 1 || some[0].ID != u2.ID {
			t.Errorf("find by ids: got %v", some)
		}
		none, _ := s.Users().Find(ctx, models.UserFilter{IDs: []primitive.ObjectID{}})
		if len(none) != 0 {
			t.Errorf("empty id filter should match nothing, got %d", len(none))
		}
	})

	t.Run("project lists and partial update", func(t *testing.T) {
		s := newStore(t)
		p := &models.Project{
			Name:      "alpha",
			StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			Status:    models.ProjectNotStarted,
		}
		if err := s.Projects().Create(ctx, p); err != nil {
			t.Fatalf("create: %v", err)
		}

		task := primitive.NewObjectID()
		other := primitive.NewObjectID()
		for _, id := range []primitive.ObjectID{task, task, other} {
			if err := s.Projects().AddTask(ctx, p.ID, id); err != nil {
				t.Fatalf("add task: %v", err)
			}
		}
		if err := s.Projects().PullTask(ctx, p.ID, task); err != nil {
			t.Fatalf("pull task: %v", err)
		}
		got, _ := s.Projects().FindByID(ctx, p.ID)
		if len(got.TaskIDs) != 1 || got.TaskIDs[0] != other {
			t.Errorf("task ids: got %v, want [%v]", got.TaskIDs, other)
		}

		if err := s.Projects().AddIssue(ctx, primitive.NewObjectID(), task); !errors.Is(err, ErrNotFound) {
			t.Errorf("add issue to missing project: got %v, want ErrNotFound", err)
		}

		status := models.ProjectInProgress
		updated, err := s.Projects().Update(ctx, p.ID, models.ProjectPatch{Status: &status})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated.Status != models.ProjectInProgress || updated.Name != "alpha" {
			t.Errorf("update: got %+v", updated)
		}
		if _, err := s.Projects().Update(ctx, primitive.NewObjectID(), models.ProjectPatch{Status: &status}); !errors.Is(err, ErrNotFound) {
			t.Errorf("update missing: got %v, want ErrNotFound", err)
		}

		deleted, err := s.Projects().Delete(ctx, p.ID)
		if err != nil || deleted.ID != p.ID {
			t.Fatalf("delete: got %v, %v", deleted, err)
		}
		if _, err := s.Projects().FindByID(ctx, p.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("find deleted: got %v, want ErrNotFound", err)
		}
	})

	t.Run("project date range filter", func(t *testing.T) {
		s := newStore(t)
		day := func(m, d int) time.Time { return time.Date(2024, time.Month(m), d, 0, 0, 0, 0, time.UTC) }
		early := &models.Project{Name: "early", StartDate: day(1, 1), EndDate: day(2, 1)}
		late := &models.Project{Name: "late", StartDate: day(5, 1), EndDate: day(9, 1)}
		_ = s.Projects().Create(ctx, early)
		_ = s.Projects().Create(ctx, late)

		from := day(3, 1)
		got, err := s.Projects().Find(ctx, models.ProjectFilter{StartFrom: &from})
		if err != nil || len(got) != 1 || got[0].ID != late.ID {
			t.Errorf("start filter: got %v, %v", got, err)
		}
		by := day(3, 1)
		got, _ = s.Projects().Find(ctx, models.ProjectFilter{EndBy: &by})
		if len(got) != 1 || got[0].ID != early.ID {
			t.Errorf("end filter: got %v", got)
		}
	})

	t.Run("tasks and issues by project", func(t *testing.T) {
		s := newStore(t)
		p1, p2 := primitive.NewObjectID(), primitive.NewObjectID()
		for _, pid := range []primitive.ObjectID{p1, p1, p2} {
			if err := s.Tasks().Create(ctx, &models.Task{Name: "t", Status: models.StatusPending, ProjectID: pid}); err != nil {
				t.Fatalf("create task: %v", err)
			}
			if err := s.Issues().Create(ctx, &models.Issue{Title: "i", Status: models.IssueOpen, Priority: models.PriorityLow, ProjectID: pid}); err != nil {
				t.Fatalf("create issue: %v", err)
			}
		}

		tasks, _ := s.Tasks().Find(ctx, models.TaskFilter{ProjectID: &p1})
		if len(tasks) != 2 {
			t.Errorf("tasks for p1: got %d, want 2", len(tasks))
		}
		n, err := s.Tasks().DeleteByProject(ctx, p1)
		if err != nil || n != 2 {
			t.Errorf("delete tasks by project: got %d, %v", n, err)
		}
		n, err = s.Issues().DeleteByProject(ctx, p2)
		if err != nil || n != 1 {
			t.Errorf("delete issues by project: got %d, %v", n, err)
		}
		remaining, _ := s.Issues().Find(ctx, models.IssueFilter{})
		if len(remaining) != 2 {
			t.Errorf("remaining issues: got %d, want 2", len(remaining))
		}
	})

	t.Run("task and issue partial update and delete", func(t *testing.T) {
		s := newStore(t)
		task := &models.Task{Name: "write", Description: "docs", Status: models.StatusPending, ProjectID: primitive.NewObjectID()}
		_ = s.Tasks().Create(ctx, task)

		done := models.StatusCompleted
		got, err := s.Tasks().Update(ctx, task.ID, models.TaskPatch{Status: &done})
		if err != nil {
			t.Fatalf("update task: %v", err)
		}
		if got.Status != done || got.Description != "docs" || got.ProjectID != task.ProjectID {
			t.Errorf("update task: got %+v", got)
		}
		if _, err := s.Tasks().Delete(ctx, task.ID); err != nil {
			t.Fatalf("delete task: %v", err)
		}
		if _, err := s.Tasks().Delete(ctx, task.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("second delete: got %v, want ErrNotFound", err)
		}

		issue := &models.Issue{Title: "bug", Status: models.IssueOpen, Priority: models.PriorityMedium, ProjectID: primitive.NewObjectID()}
		_ = s.Issues().Create(ctx, issue)
		high := models.PriorityHigh
		gotIssue, err := s.Issues().Update(ctx, issue.ID, models.IssuePatch{Priority: &high})
		if err != nil || gotIssue.Priority != high || gotIssue.Title != "bug" {
			t.Errorf("update issue: got %+v, %v", gotIssue, err)
		}
		if _, err := s.Issues().FindByID(ctx, primitive.NewObjectID()); !errors.Is(err, ErrNotFound) {
			t.Errorf("missing issue: got %v, want ErrNotFound", err)
		}
	})
}
