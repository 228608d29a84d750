package services

import (
	"context"
	"errors"
	"testing"

	"task-manager/backend/models"
	"task-manager/backend/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCreateTaskRequiresProject(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	_, err := NewTaskService(s).Create(ctx, TaskInput{Name: "orphan", ProjectID: primitive.NewObjectID()})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
	tasks, _ := s.Tasks().Find(ctx, models.TaskFilter{})
	if len(tasks) != 0 {
		t.Errorf("task was created for a missing project")
	}

	if _, err := NewTaskService(s).Create(ctx, TaskInput{Name: "no project"}); !errors.Is(err, ErrValidation) {
		t.Errorf("zero project id: got %v, want ErrValidation", err)
	}
}

func TestTaskLifecycleMaintainsProjectList(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	p := mustProject(t, s)
	svc := NewTaskService(s)

	keep, err := svc.Create(ctx, TaskInput{Name: "keep", ProjectID: p.ID})
	if err != nil {
		t.Fatalf("create keep: %v", err)
	}
	drop, err := svc.Create(ctx, TaskInput{Name: "drop", Status: models.StatusInProgress, ProjectID: p.ID})
	if err != nil {
		t.Fatalf("create drop: %v", err)
	}
	if keep.Status != models.StatusPending {
		t.Errorf("default status: got %q", keep.Status)
	}

	ids := mustFindProject(t, s, p.ID).TaskIDs
	if countID(ids, keep.ID) != 1 || countID(ids, drop.ID) != 1 {
		t.Fatalf("task ids after create: %v", ids)
	}

	warning, err := svc.Delete(ctx, drop.ID)
	if err != nil || warning != "" {
		t.Fatalf("delete: warning=%q err=%v", warning, err)
	}
	ids = mustFindProject(t, s, p.ID).TaskIDs
	if len(ids) != 1 || ids[0] != keep.ID {
		t.Errorf("task ids after delete: got %v, want [%v]", ids, keep.ID)
	}

	listed, _ := svc.ListByProject(ctx, p.ID)
	if len(listed) != 1 || listed[0].ID != keep.ID {
		t.Errorf("list by project: got %v", listed)
	}
}

func TestUpdateTask(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	p := mustProject(t, s)
	svc := NewTaskService(s)
	task, _ := svc.Create(ctx, TaskInput{Name: "t", Description: "keep me", ProjectID: p.ID})

	done := models.StatusCompleted
	got, err := svc.Update(ctx, task.ID, models.TaskPatch{Status: &done})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Status != done || got.Description != "keep me" || got.ProjectID != p.ID {
		t.Errorf("update: got %+v", got)
	}

	bad := models.TaskStatus("blocked")
	if _, err := svc.Update(ctx, task.ID, models.TaskPatch{Status: &bad}); !errors.Is(err, ErrValidation) {
		t.Errorf("bad status: got %v", err)
	}
	if _, err := svc.Update(ctx, primitive.NewObjectID(), models.TaskPatch{Status: &done}); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing task: got %v", err)
	}
}

func TestDeleteTaskWithMissingProjectWarns(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	p := mustProject(t, s)
	task, _ := NewTaskService(s).Create(ctx, TaskInput{Name: "t", ProjectID: p.ID})
	if _, err := s.Projects().Delete(ctx, p.ID); err != nil {
		t.Fatal(err)
	}

	warning, err := NewTaskService(s).Delete(ctx, task.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if warning == "" {
		t.Error("expected a warning for the missing project")
	}
	if _, err := NewTaskService(s).Get(ctx, task.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("task should be gone, got %v", err)
	}
}

func TestCreateTaskPartialFailure(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	p := mustProject(t, mem)
	fs := newFaultStore(mem, map[string]error{"Projects.AddTask": errInjected})

	_, err := NewTaskService(fs).Create(ctx, TaskInput{Name: "t", ProjectID: p.ID})
	var pf *PartialFailureError
	if !errors.As(err, &pf) {
		t.Fatalf("got %v, want PartialFailureError", err)
	}
	if pf.Entity != "task" || !errors.Is(pf, errInjected) {
		t.Errorf("partial failure details: %+v", pf)
	}

	tasks, _ := mem.Tasks().Find(ctx, models.TaskFilter{ProjectID: &p.ID})
	if len(tasks) != 1 || tasks[0].ID != pf.ID {
		t.Errorf("the task should remain after a partial failure, got %v", tasks)
	}
	if ids := mustFindProject(t, mem, p.ID).TaskIDs; len(ids) != 0 {
		t.Errorf("project should not list the task, got %v", ids)
	}
}
