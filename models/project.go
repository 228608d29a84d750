package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ProjectStatus string

const (
	ProjectNotStarted ProjectStatus = "not-started"
	ProjectInProgress ProjectStatus = "in-progress"
	ProjectCompleted  ProjectStatus = "completed"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectNotStarted, ProjectInProgress, ProjectCompleted:
		return true
	}
	return false
}

type Project struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name        string               `bson:"name" json:"name"`
	Description string               `bson:"description" json:"description"`
	StartDate   time.Time            `bson:"startDate" json:"startDate"`
	EndDate     time.Time            `bson:"endDate" json:"endDate"`
	Status      ProjectStatus        `bson:"status" json:"status"`
	UserIDs     []primitive.ObjectID `bson:"userIds" json:"userIds"`
	TaskIDs     []primitive.ObjectID `bson:"tasks" json:"tasks"`
	IssueIDs    []primitive.ObjectID `bson:"issues" json:"issues"`
	CreatedAt   time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// ProjectPatch lists the fields of a partial update. Nil fields are left
// untouched; a non-nil UserIDs replaces the whole member list.
type ProjectPatch struct {
	Name        *string
	Description *string
	StartDate   *time.Time
	EndDate     *time.Time
	Status      *ProjectStatus
	UserIDs     *[]primitive.ObjectID
}

// Apply returns a copy of p with the patch applied.
func (pp ProjectPatch) Apply(p Project) Project {
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Description != nil {
		p.Description = *pp.Description
	}
	if pp.StartDate != nil {
		p.StartDate = *pp.StartDate
	}
	if pp.EndDate != nil {
		p.EndDate = *pp.EndDate
	}
	if pp.Status != nil {
		p.Status = *pp.Status
	}
	if pp.UserIDs != nil {
		p.UserIDs = append([]primitive.ObjectID(nil), (*pp.UserIDs)...)
	}
	return p
}

// ProjectFilter selects projects. Zero-valued fields do not constrain the
// query. StartFrom keeps projects starting on or after it, EndBy keeps
// projects ending on or before it.
type ProjectFilter struct {
	ID        *primitive.ObjectID
	UserID    *primitive.ObjectID
	StartFrom *time.Time
	EndBy     *time.Time
}

// Matches reports whether p satisfies the filter.
func (f ProjectFilter) Matches(p Project) bool {
	if f.ID != nil && p.ID != *f.ID {
		return false
	}
	if f.UserID != nil && !ContainsID(p.UserIDs, *f.UserID) {
		return false
	}
	if f.StartFrom != nil && p.StartDate.Before(*f.StartFrom) {
		return false
	}
	if f.EndBy != nil && p.EndDate.After(*f.EndBy) {
		return false
	}
	return true
}
