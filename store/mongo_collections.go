package store

import (
	"context"
	"fmt"
	"time"

	"task-manager/backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// --- users ---

type mongoUsers struct {
	s    *MongoStore
	coll *mongo.Collection
}

func (r *mongoUsers) Create(ctx context.Context, u *models.User) error {
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	now := r.s.now()
	u.CreatedAt, u.UpdatedAt = now, now
	u.ProjectIDs = emptyIfNil(u.ProjectIDs)

	return r.s.do(func() error {
		_, err := r.coll.InsertOne(ctx, u)
		return err
	})
}

func (r *mongoUsers) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *mongoUsers) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	err := r.s.do(func() error {
		return r.coll.FindOne(ctx, filter).Decode(&user)
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *mongoUsers) Find(ctx context.Context, f models.UserFilter) ([]models.User, error) {
	users := []models.User{}
	err := r.s.do(func() error {
		cursor, err := r.coll.Find(ctx, userFilterDoc(f), sortByID)
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)
		return cursor.All(ctx, &users)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch users: %w", err)
	}
	return users, nil
}

func (r *mongoUsers) AddProject(ctx context.Context, projectID primitive.ObjectID, userIDs []primitive.ObjectID) error {
	return r.updateMany(ctx, userIDs, bson.M{
		"$addToSet": bson.M{"projectIds": projectID},
		"$set":      bson.M{"updatedAt": r.s.now()},
	})
}

func (r *mongoUsers) PullProject(ctx context.Context, projectID primitive.ObjectID, userIDs []primitive.ObjectID) error {
	return r.updateMany(ctx, userIDs, bson.M{
		"$pull": bson.M{"projectIds": projectID},
		"$set":  bson.M{"updatedAt": r.s.now()},
	})
}

func (r *mongoUsers) updateMany(ctx context.Context, userIDs []primitive.ObjectID, update bson.M) error {
	if len(userIDs) == 0 {
		return nil
	}
	return r.s.do(func() error {
		_, err := r.coll.UpdateMany(ctx, bson.M{"_id": bson.M{"$in": userIDs}}, update)
		return err
	})
}

func userFilterDoc(f models.UserFilter) bson.M {
	if f.IDs == nil {
		return bson.M{}
	}
	return bson.M{"_id": bson.M{"$in": emptyIfNil(f.IDs)}}
}

// --- projects ---

type mongoProjects struct {
	s    *MongoStore
	coll *mongo.Collection
}

func (r *mongoProjects) Create(ctx context.Context, p *models.Project) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	now := r.s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	p.UserIDs = emptyIfNil(p.UserIDs)
	p.TaskIDs = emptyIfNil(p.TaskIDs)
	p.IssueIDs = emptyIfNil(p.IssueIDs)

	return r.s.do(func() error {
		_, err := r.coll.InsertOne(ctx, p)
		return err
	})
}

func (r *mongoProjects) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var project models.Project
	err := r.s.do(func() error {
		return r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&project)
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *mongoProjects) Find(ctx context.Context, f models.ProjectFilter) ([]models.Project, error) {
	projects := []models.Project{}
	err := r.s.do(func() error {
		cursor, err := r.coll.Find(ctx, projectFilterDoc(f), sortByID)
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)
		return cursor.All(ctx, &projects)
	})
	if err != nil {
		return nil, fmt.Errorf("unsuccessful procurement of projects: %w", err)
	}
	return projects, nil
}

func (r *mongoProjects) Update(ctx context.Context, id primitive.ObjectID, patch models.ProjectPatch) (*models.Project, error) {
	return r.findAndUpdate(ctx, id, projectPatchDoc(patch, r.s.now()))
}

func (r *mongoProjects) Delete(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	var project models.Project
	err := r.s.do(func() error {
		return r.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&project)
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *mongoProjects) AddTask(ctx context.Context, projectID, taskID primitive.ObjectID) error {
	return r.updateList(ctx, projectID, "$addToSet", "tasks", taskID)
}

func (r *mongoProjects) PullTask(ctx context.Context, projectID, taskID primitive.ObjectID) error {
	return r.updateList(ctx, projectID, "$pull", "tasks", taskID)
}

func (r *mongoProjects) AddIssue(ctx context.Context, projectID, issueID primitive.ObjectID) error {
	return r.updateList(ctx, projectID, "$addToSet", "issues", issueID)
}

func (r *mongoProjects) PullIssue(ctx context.Context, projectID, issueID primitive.ObjectID) error {
	return r.updateList(ctx, projectID, "$pull", "issues", issueID)
}

func (r *mongoProjects) updateList(ctx context.Context, projectID primitive.ObjectID, op, field string, id primitive.ObjectID) error {
	update := bson.M{
		op:     bson.M{field: id},
		"$set": bson.M{"updatedAt": r.s.now()},
	}
	return r.s.do(func() error {
		result, err := r.coll.UpdateOne(ctx, bson.M{"_id": projectID}, update)
		if err != nil {
			return err
		}
		if result.MatchedCount == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *mongoProjects) findAndUpdate(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.Project, error) {
	var project models.Project
	err := r.s.do(func() error {
		return r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, returnAfter).Decode(&project)
	})
	if err != nil {
		return nil, err
	}
	return &project, nil
}

func projectFilterDoc(f models.ProjectFilter) bson.M {
	query := bson.M{}
	if f.ID != nil {
		query["_id"] = *f.ID
	}
	if f.UserID != nil {
		query["userIds"] = *f.UserID
	}
	if f.StartFrom != nil {
		query["startDate"] = bson.M{"$gte": *f.StartFrom}
	}
	if f.EndBy != nil {
		query["endDate"] = bson.M{"$lte": *f.EndBy}
	}
	return query
}

func projectPatchDoc(p models.ProjectPatch, now time.Time) bson.M {
	set := bson.M{"updatedAt": now}
	if p.Name != nil {
		set["name"] = *p.Name
	}
	if p.Description != nil {
		set["description"] = *p.Description
	}
	if p.StartDate != nil {
		set["startDate"] = *p.StartDate
	}
	if p.EndDate != nil {
		set["endDate"] = *p.EndDate
	}
	if p.Status != nil {
		set["status"] = *p.Status
	}
	if p.UserIDs != nil {
		set["userIds"] = emptyIfNil(*p.UserIDs)
	}
	return bson.M{"$set": set}
}

// --- tasks ---

type mongoTasks struct {
	s    *MongoStore
	coll *mongo.Collection
}

func (r *mongoTasks) Create(ctx context.Context, t *models.Task) error {
	if t.ID.IsZero() {
		t.ID = primitive.NewObjectID()
	}
	now := r.s.now()
	t.CreatedAt, t.UpdatedAt = now, now

	return r.s.do(func() error {
		_, err := r.coll.InsertOne(ctx, t)
		return err
	})
}

func (r *mongoTasks) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var task models.Task
	err := r.s.do(func() error {
		return r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&task)
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *mongoTasks) Find(ctx context.Context, f models.TaskFilter) ([]models.Task, error) {
	tasks := []models.Task{}
	err := r.s.do(func() error {
		cursor, err := r.coll.Find(ctx, byProject(f.ProjectID), sortByID)
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)
		return cursor.All(ctx, &tasks)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %w", err)
	}
	return tasks, nil
}

func (r *mongoTasks) Update(ctx context.Context, id primitive.ObjectID, patch models.TaskPatch) (*models.Task, error) {
	set := bson.M{"updatedAt": r.s.now()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}

	var task models.Task
	err := r.s.do(func() error {
		return r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, returnAfter).Decode(&task)
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *mongoTasks) Delete(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var task models.Task
	err := r.s.do(func() error {
		return r.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&task)
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *mongoTasks) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	return deleteByProject(ctx, r.s, r.coll, projectID)
}

// --- issues ---

type mongoIssues struct {
	s    *MongoStore
	coll *mongo.Collection
}

func (r *mongoIssues) Create(ctx context.Context, i *models.Issue) error {
	if i.ID.IsZero() {
		i.ID = primitive.NewObjectID()
	}
	now := r.s.now()
	i.CreatedAt, i.UpdatedAt = now, now

	return r.s.do(func() error {
		_, err := r.coll.InsertOne(ctx, i)
		return err
	})
}

func (r *mongoIssues) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	var issue models.Issue
	err := r.s.do(func() error {
		return r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&issue)
	})
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

func (r *mongoIssues) Find(ctx context.Context, f models.IssueFilter) ([]models.Issue, error) {
	issues := []models.Issue{}
	err := r.s.do(func() error {
		cursor, err := r.coll.Find(ctx, byProject(f.ProjectID), sortByID)
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)
		return cursor.All(ctx, &issues)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve issues: %w", err)
	}
	return issues, nil
}

func (r *mongoIssues) Update(ctx context.Context, id primitive.ObjectID, patch models.IssuePatch) (*models.Issue, error) {
	set := bson.M{"updatedAt": r.s.now()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	if patch.Priority != nil {
		set["priority"] = *patch.Priority
	}

	var issue models.Issue
	err := r.s.do(func() error {
		return r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, returnAfter).Decode(&issue)
	})
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

func (r *mongoIssues) Delete(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	var issue models.Issue
	err := r.s.do(func() error {
		return r.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&issue)
	})
	if err != nil {
		return nil, err
	}
	return &issue, nil
}

func (r *mongoIssues) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	return deleteByProject(ctx, r.s, r.coll, projectID)
}

func byProject(projectID *primitive.ObjectID) bson.M {
	if projectID == nil {
		return bson.M{}
	}
	return bson.M{"projectId": *projectID}
}

func deleteByProject(ctx context.Context, s *MongoStore, coll *mongo.Collection, projectID primitive.ObjectID) (int64, error) {
	var deleted int64
	err := s.do(func() error {
		result, err := coll.DeleteMany(ctx, bson.M{"projectId": projectID})
		if err != nil {
			return err
		}
		deleted = result.DeletedCount
		return nil
	})
	return deleted, err
}
