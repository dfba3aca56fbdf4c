package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/models"
)

type memoryTask struct {
	task       models.Task
	creatorID  string
	assignees  []string
	completers []string
}

// MemoryRepository - хранилище в памяти для локального запуска и тестов
type MemoryRepository struct {
	mu    sync.Mutex
	users []*models.User
	tasks map[string]*memoryTask
	seq   []string // порядок создания задач
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		tasks: make(map[string]*memoryTask),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryRepository) Ping(ctx context.Context) error { return nil }

func (r *MemoryRepository) Close() error { return nil }

func (r *MemoryRepository) CreateUser(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.addUser(user)
	return nil
}

func (r *MemoryRepository) addUser(user *models.User) {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = r.now()
	}
	u := *user
	r.users = append(r.users, &u)
}

func (r *MemoryRepository) UpdateUser(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u := r.userByID(user.ID)
	if u == nil {
		return fmt.Errorf("user %s: %w", user.ID, models.ErrNotFound)
	}
	u.Name = user.Name
	u.PhoneNumber = user.PhoneNumber
	return nil
}

func (r *MemoryRepository) GetUserByPhone(ctx context.Context, phone string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyUser(r.userByPhone(phone)), nil
}

func (r *MemoryRepository) FindOrCreateUser(ctx context.Context, phone, name string) (*models.User, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u := r.userByPhone(phone); u != nil {
		return copyUser(u), false, nil
	}
	user := &models.User{Name: name, PhoneNumber: phone}
	r.addUser(user)
	return user, true, nil
}

func (r *MemoryRepository) ListUsers(ctx context.Context) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, copyUser(u))
	}
	return out, nil
}

func (r *MemoryRepository) FindUsersByNames(ctx context.Context, names []string) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var out []*models.User
	for _, u := range r.users {
		if wanted[u.Name] {
			out = append(out, copyUser(u))
		}
	}
	return out, nil
}

func (r *MemoryRepository) CreateTask(ctx context.Context, task *models.Task) error {
	if task.Creator == nil {
		return fmt.Errorf("task creator is required: %w", models.ErrValidation)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = r.now()
	}
	if task.Status == "" {
		task.Status = models.StatusInProgress
	}
	if r.userByID(task.Creator.ID) == nil {
		return fmt.Errorf("creator %s: %w", task.Creator.ID, models.ErrNotFound)
	}

	mt := &memoryTask{task: *task, creatorID: task.Creator.ID}
	seen := make(map[string]bool)
	for _, u := range task.Assignees {
		if r.userByID(u.ID) == nil {
			return fmt.Errorf("assignee %s: %w", u.ID, models.ErrNotFound)
		}
		if !seen[u.ID] {
			seen[u.ID] = true
			mt.assignees = append(mt.assignees, u.ID)
		}
	}
	for _, u := range task.Completers {
		mt.completers = append(mt.completers, u.ID)
	}
	r.tasks[task.ID] = mt
	r.seq = append(r.seq, task.ID)
	return nil
}

func (r *MemoryRepository) GetTask(ctx context.Context, id string) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	mt, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	return r.materialize(mt), nil
}

func (r *MemoryRepository) ListTasks(ctx context.Context) ([]*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter(func(*memoryTask) bool { return true }), nil
}

func (r *MemoryRepository) ListTasksByAssignee(ctx context.Context, userIDs ...string) ([]*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter(func(mt *memoryTask) bool {
		for _, id := range userIDs {
			if contains(mt.assignees, id) {
				return true
			}
		}
		return false
	}), nil
}

func (r *MemoryRepository) ListOpenTasksDueBetween(ctx context.Context, from, to string) ([]*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tasks := r.filter(func(mt *memoryTask) bool {
		d := mt.task.Deadline
		if mt.task.Status != models.StatusInProgress || d == nil {
			return false
		}
		date := d.Date()
		return date >= from && date <= to
	})
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Deadline.String() < tasks[j].Deadline.String()
	})
	return tasks, nil
}

func (r *MemoryRepository) RecordCompletion(ctx context.Context, taskID, userID string) (*CompletionResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	mt, ok := r.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", taskID, models.ErrNotFound)
	}
	if !contains(mt.assignees, userID) {
		return nil, fmt.Errorf("user %s is not assigned to task %s: %w", userID, taskID, models.ErrForbidden)
	}

	result := &CompletionResult{}
	if !contains(mt.completers, userID) {
		mt.completers = append(mt.completers, userID)
		result.Added = true
	}
	result.Task = r.materialize(mt)

	if result.Task.IsCompletedByAll() {
		delete(r.tasks, taskID)
		for i, id := range r.seq {
			if id == taskID {
				r.seq = append(r.seq[:i], r.seq[i+1:]...)
				break
			}
		}
		result.Deleted = true
	}
	return result, nil
}

// filter возвращает задачи от новых к старым, как SQL-хранилище
func (r *MemoryRepository) filter(keep func(*memoryTask) bool) []*models.Task {
	var out []*models.Task
	for i := len(r.seq) - 1; i >= 0; i-- {
		mt := r.tasks[r.seq[i]]
		if keep(mt) {
			out = append(out, r.materialize(mt))
		}
	}
	return out
}

func (r *MemoryRepository) materialize(mt *memoryTask) *models.Task {
	t := mt.task
	t.Creator = copyUser(r.userByID(mt.creatorID))
	t.Assignees = nil
	for _, id := range mt.assignees {
		t.Assignees = append(t.Assignees, copyUser(r.userByID(id)))
	}
	t.Completers = nil
	for _, id := range mt.completers {
		t.Completers = append(t.Completers, copyUser(r.userByID(id)))
	}
	if mt.task.Deadline != nil {
		d := *mt.task.Deadline
		t.Deadline = &d
	}
	return &t
}

func (r *MemoryRepository) userByID(id string) *models.User {
	for _, u := range r.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (r *MemoryRepository) userByPhone(phone string) *models.User {
	for _, u := range r.users {
		if u.PhoneNumber == phone {
			return u
		}
	}
	return nil
}

func copyUser(u *models.User) *models.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
