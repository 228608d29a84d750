package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in-progress"
	StatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type Task struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Status      TaskStatus         `bson:"status" json:"status"`
	ProjectID   primitive.ObjectID `bson:"projectId" json:"projectId"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// TaskPatch has no ProjectID: the owning project is fixed at creation.
type TaskPatch struct {
	Name        *string
	Description *string
	Status      *TaskStatus
}

func (tp TaskPatch) Apply(t Task) Task {
	if tp.Name != nil {
		t.Name = *tp.Name
	}
	if tp.Description != nil {
		t.Description = *tp.Description
	}
	if tp.Status != nil {
		t.Status = *tp.Status
	}
	return t
}

type TaskFilter struct {
	ProjectID *primitive.ObjectID
}
