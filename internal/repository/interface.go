package repository

import (
	"context"

	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/models"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	UpdateUser(ctx context.Context, user *models.User) error
	// GetUserByPhone возвращает nil, nil если пользователя нет
	GetUserByPhone(ctx context.Context, phone string) (*models.User, error)
	FindOrCreateUser(ctx context.Context, phone, name string) (*models.User, bool, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
	FindUsersByNames(ctx context.Context, names []string) ([]*models.User, error)
}

type TaskRepository interface {
	CreateTask(ctx context.Context, task *models.Task) error
	// GetTask возвращает nil, nil если задачи нет
	GetTask(ctx context.Context, id string) (*models.Task, error)
	ListTasks(ctx context.Context) ([]*models.Task, error)
	ListTasksByAssignee(ctx context.Context, userIDs ...string) ([]*models.Task, error)
	// ListOpenTasksDueBetween - задачи in_progress с датой срока в [from, to]
	ListOpenTasksDueBetween(ctx context.Context, from, to string) ([]*models.Task, error)
	// RecordCompletion атомарно отмечает выполнение и удаляет задачу,
	// если её завершили все назначенные
	RecordCompletion(ctx context.Context, taskID, userID string) (*CompletionResult, error)
}

type Repository interface {
	UserRepository
	TaskRepository
	Ping(ctx context.Context) error
	Close() error
}

// CompletionResult - снимок задачи после отметки (до удаления)
type CompletionResult struct {
	Task    *models.Task
	Added   bool
	Deleted bool
}

var (
	_ Repository = (*SQLRepository)(nil)
	_ Repository = (*MemoryRepository)(nil)
)
