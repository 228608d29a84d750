package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type IssueStatus string

const (
	IssueOpen       IssueStatus = "open"
	IssueInProgress IssueStatus = "in-progress"
	IssueClosed     IssueStatus = "closed"
)

func (s IssueStatus) Valid() bool {
	switch s {
	case IssueOpen, IssueInProgress, IssueClosed:
		return true
	}
	return false
}

type IssuePriority string

const (
	PriorityLow    IssuePriority = "low"
	PriorityMedium IssuePriority = "medium"
	PriorityHigh   IssuePriority = "high"
)

func (p IssuePriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Issue struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Status      IssueStatus        `bson:"status" json:"status"`
	Priority    IssuePriority      `bson:"priority" json:"priority"`
	ProjectID   primitive.ObjectID `bson:"projectId" json:"projectId"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

type IssuePatch struct {
	Title       *string
	Description *string
	Status      *IssueStatus
	Priority    *IssuePriority
}

func (ip IssuePatch) Apply(i Issue) Issue {
	if ip.Title != nil {
		i.Title = *ip.Title
	}
	if ip.Description != nil {
		i.Description = *ip.Description
	}
	if ip.Status != nil {
		i.Status = *ip.Status
	}
	if ip.Priority != nil {
		i.Priority = *ip.Priority
	}
	return i
}

type IssueFilter struct {
	ProjectID *primitive.ObjectID
}
