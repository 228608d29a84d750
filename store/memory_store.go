package store

import (
	"context"
	"sync"
	"time"

	"task-manager/backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// table keeps documents in insertion order, like a collection scanned by _id.
type table[T any] struct {
	rows  map[primitive.ObjectID]T
	order []primitive.ObjectID
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[primitive.ObjectID]T)}
}

func (t *table[T]) get(id primitive.ObjectID) (T, bool) {
	v, ok := t.rows[id]
	return v, ok
}

func (t *table[T]) put(id primitive.ObjectID, v T) {
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = v
}

func (t *table[T]) remove(id primitive.ObjectID) (T, bool) {
	v, ok := t.rows[id]
	if !ok {
		return v, false
	}
	delete(t.rows, id)
	for i, o := range t.order {
		if o == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return v, true
}

func (t *table[T]) each(fn func(T)) {
	for _, id := range t.order {
		fn(t.rows[id])
	}
}

// MemoryStore is a process-local Store. Every call takes a single lock, so
// individual operations are atomic but WithTransaction is not.
type MemoryStore struct {
	mu       sync.RWMutex
	users    *table[models.User]
	projects *table[models.Project]
	tasks    *table[models.Task]
	issues   *table[models.Issue]
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    newTable[models.User](),
		projects: newTable[models.Project](),
		tasks:    newTable[models.Task](),
		issues:   newTable[models.Issue](),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Users() Users       { return memUsers{s} }
func (s *MemoryStore) Projects() Projects { return memProjects{s} }
func (s *MemoryStore) Tasks() Tasks       { return memTasks{s} }
func (s *MemoryStore) Issues() Issues     { return memIssues{s} }

func (s *MemoryStore) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *MemoryStore) Transactional() bool                     { return false }
func (s *MemoryStore) EnsureIndexes(ctx context.Context) error { return nil }
func (s *MemoryStore) Ping(ctx context.Context) error          { return nil }
func (s *MemoryStore) Close(ctx context.Context) error         { return nil }

func cloneIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	return append([]primitive.ObjectID{}, ids...)
}

func removeID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := ids[:0:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func addID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	if models.ContainsID(ids, id) {
		return ids
	}
	return append(cloneIDs(ids), id)
}

func (s *MemoryStore) stamp(id *primitive.ObjectID, created, updated *time.Time) {
	if id.IsZero() {
		*id = primitive.NewObjectID()
	}
	now := s.now()
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

// --- users ---

type memUsers struct{ s *MemoryStore }

func copyUser(u models.User) *models.User {
	u.ProjectIDs = cloneIDs(u.ProjectIDs)
	return &u
}

func (r memUsers) Create(ctx context.Context, u *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	dup := false
	r.s.users.each(func(existing models.User) {
		if existing.Email == u.Email || existing.Username == u.Username {
			dup = true
		}
	})
	if dup {
		return ErrDuplicate
	}

	r.s.stamp(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	u.ProjectIDs = emptyIfNil(u.ProjectIDs)
	r.s.users.put(u.ID, *copyUser(*u))
	return nil
}

func (r memUsers) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return copyUser(u), nil
}

func (r memUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var found *models.User
	r.s.users.each(func(u models.User) {
		if found == nil && u.Email == email {
			found = copyUser(u)
		}
	})
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (r memUsers) Find(ctx context.Context, f models.UserFilter) ([]models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.User{}
	r.s.users.each(func(u models.User) {
		if f.IDs == nil || models.ContainsID(f.IDs, u.ID) {
			out = append(out, *copyUser(u))
		}
	})
	return out, nil
}

func (r memUsers) AddProject(ctx context.Context, projectID primitive.ObjectID, userIDs []primitive.ObjectID) error {
	return r.update(userIDs, func(u *models.User) { u.ProjectIDs = addID(u.ProjectIDs, projectID) })
}

func (r memUsers) PullProject(ctx context.Context, projectID primitive.ObjectID, userIDs []primitive.ObjectID) error {
	return r.update(userIDs, func(u *models.User) { u.ProjectIDs = removeID(u.ProjectIDs, projectID) })
}

// update applies fn to each listed user that exists, like an updateMany.
func (r memUsers) update(userIDs []primitive.ObjectID, fn func(*models.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, id := range userIDs {
		u, ok := r.s.users.get(id)
		if !ok {
			continue
		}
		fn(&u)
		u.UpdatedAt = r.s.now()
		r.s.users.put(id, u)
	}
	return nil
}

// --- projects ---

type memProjects struct{ s *MemoryStore }

func copyProject(p models.Project) *models.Project {
	p.UserIDs = cloneIDs(p.UserIDs)
	p.TaskIDs = cloneIDs(p.TaskIDs)
	p.IssueIDs = cloneIDs(p.IssueIDs)
	return &p
}

func (r memProjects) Create(ctx context.Context, p *models.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.stamp(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	p.UserIDs = emptyIfNil(p.UserIDs)
	p.TaskIDs = emptyIfNil(p.TaskIDs)
	p.IssueIDs = emptyIfNil(p.IssueIDs)
	r.s.projects.put(p.ID, *copyProject(*p))
	return nil
}

func (r memProjects) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.projects.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return copyProject(p), nil
}

func (r memProjects) Find(ctx context.Context, f models.ProjectFilter) ([]models.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.Project{}
	r.s.projects.each(func(p models.Project) {
		if f.Matches(p) {
			out = append(out, *copyProject(p))
		}
	})
	return out, nil
}

func (r memProjects) Update(ctx context.Context, id primitive.ObjectID, patch models.ProjectPatch) (*models.Project, error) {
	return r.mutate(id, func(p *models.Project) { *p = patch.Apply(*p) })
}

func (r memProjects) Delete(ctx context.Context, id primitive.ObjectID) (*models.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.projects.remove(id)
	if !ok {
		return nil, ErrNotFound
	}
	return copyProject(p), nil
}

func (r memProjects) AddTask(ctx context.Context, projectID, taskID primitive.ObjectID) error {
	_, err := r.mutate(projectID, func(p *models.Project) { p.TaskIDs = addID(p.TaskIDs, taskID) })
	return err
}

func (r memProjects) PullTask(ctx context.Context, projectID, taskID primitive.ObjectID) error {
	_, err := r.mutate(projectID, func(p *models.Project) { p.TaskIDs = removeID(p.TaskIDs, taskID) })
	return err
}

func (r memProjects) AddIssue(ctx context.Context, projectID, issueID primitive.ObjectID) error {
	_, err := r.mutate(projectID, func(p *models.Project) { p.IssueIDs = addID(p.IssueIDs, issueID) })
	return err
}

func (r memProjects) PullIssue(ctx context.Context, projectID, issueID primitive.ObjectID) error {
	_, err := r.mutate(projectID, func(p *models.Project) { p.IssueIDs = removeID(p.IssueIDs, issueID) })
	return err
}

func (r memProjects) mutate(id primitive.ObjectID, fn func(*models.Project)) (*models.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.projects.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	p = *copyProject(p)
	fn(&p)
	p.UpdatedAt = r.s.now()
	r.s.projects.put(id, p)
	return copyProject(p), nil
}

// --- tasks ---

type memTasks struct{ s *MemoryStore }

func (r memTasks) Create(ctx context.Context, t *models.Task) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.stamp(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	r.s.tasks.put(t.ID, *t)
	return nil
}

func (r memTasks) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	t, ok := r.s.tasks.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (r memTasks) Find(ctx context.Context, f models.TaskFilter) ([]models.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.Task{}
	r.s.tasks.each(func(t models.Task) {
		if f.ProjectID == nil || t.ProjectID == *f.ProjectID {
			out = append(out, t)
		}
	})
	return out, nil
}

func (r memTasks) Update(ctx context.Context, id primitive.ObjectID, patch models.TaskPatch) (*models.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tasks.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	t = patch.Apply(t)
	t.UpdatedAt = r.s.now()
	r.s.tasks.put(id, t)
	return &t, nil
}

func (r memTasks) Delete(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tasks.remove(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (r memTasks) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var doomed []primitive.ObjectID
	r.s.tasks.each(func(t models.Task) {
		if t.ProjectID == projectID {
			doomed = append(doomed, t.ID)
		}
	})
	for _, id := range doomed {
		r.s.tasks.remove(id)
	}
	return int64(len(doomed)), nil
}

// --- issues ---

type memIssues struct{ s *MemoryStore }

func (r memIssues) Create(ctx context.Context, i *models.Issue) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.stamp(&i.ID, &i.CreatedAt, &i.UpdatedAt)
	r.s.issues.put(i.ID, *i)
	return nil
}

func (r memIssues) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	i, ok := r.s.issues.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &i, nil
}

func (r memIssues) Find(ctx context.Context, f models.IssueFilter) ([]models.Issue, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []models.Issue{}
	r.s.issues.each(func(i models.Issue) {
		if f.ProjectID == nil || i.ProjectID == *f.ProjectID {
			out = append(out, i)
		}
	})
	return out, nil
}

func (r memIssues) Update(ctx context.Context, id primitive.ObjectID, patch models.IssuePatch) (*models.Issue, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	i, ok := r.s.issues.get(id)
	if !ok {
		return nil, ErrNotFound
	}
	i = patch.Apply(i)
	i.UpdatedAt = r.s.now()
	r.s.issues.put(id, i)
	return &i, nil
}

func (r memIssues) Delete(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	i, ok := r.s.issues.remove(id)
	if !ok {
		return nil, ErrNotFound
	}
	return &i, nil
}

func (r memIssues) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var doomed []primitive.ObjectID
	r.s.issues.each(func(i models.Issue) {
		if i.ProjectID == projectID {
			doomed = append(doomed, i.ID)
		}
	})
	for _, id := range doomed {
		r.s.issues.remove(id)
	}
	return int64(len(doomed)), nil
}
