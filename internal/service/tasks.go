package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/models"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/repository"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/shared/middleware"
)

// UserProvisioner находит пользователя по номеру или создаёт его
type UserProvisioner interface {
	FindOrCreate(ctx context.Context, phone, name string) (*models.User, error)
}

type CreateTaskInput struct {
	Description    string
	CreatorPhone   string
	AssigneePhones []string
	Deadline       *models.Deadline
}

type CompletionStatus string

const (
	CompletionDeleted    CompletionStatus = "deleted"
	CompletionInProgress CompletionStatus = "in_progress"
)

// CompletionOutcome - результат отметки о выполнении
type CompletionOutcome struct {
	Status            CompletionStatus
	Task              *models.Task
	NotificationsSent int
	CompletedCount    int
	TotalAssigned     int
	Remaining         []*models.User
}

type TaskService struct {
	repo   repository.Repository
	users  UserProvisioner
	sender Sender
	logger *logrus.Logger
}

func NewTaskService(repo repository.Repository, users UserProvisioner, sender Sender, logger *logrus.Logger) *TaskService {
	return &TaskService{
		repo:   repo,
		users:  users,
		sender: sender,
		logger: logger,
	}
}

func (s *TaskService) log(ctx context.Context, op string) *logrus.Entry {
	return s.logger.WithFields(logrus.Fields{
		"component":  "task_service",
		"op":         op,
		"request_id": middleware.GetRequestID(ctx),
	})
}

// CreateTask создаёт задачу со статусом in_progress. Автор и назначенные
// подставляются через UserProvisioner; повторы номеров схлопываются.
func (s *TaskService) CreateTask(ctx context.Context, in CreateTaskInput) (*models.Task, error) {
	if models.NormalizePhone(in.CreatorPhone) == "" {
		return nil, fmt.Errorf("creator phone number is required: %w", models.ErrValidation)
	}
	creator, err := s.users.FindOrCreate(ctx, in.CreatorPhone, "")
	if err != nil {
		return nil, fmt.Errorf("creator: %w", err)
	}

	var assignees []*models.User
	seen := make(map[string]bool)
	for _, phone := range in.AssigneePhones {
		phone = models.NormalizePhone(phone)
		if phone == "" || seen[phone] {
			continue
		}
		seen[phone] = true
		u, err := s.users.FindOrCreate(ctx, phone, "")
		if err != nil {
			return nil, fmt.Errorf("assignee %s: %w", phone, err)
		}
		assignees = append(assignees, u)
	}

	task := &models.Task{
		Description: strings.TrimSpace(in.Description),
		Creator:     creator,
		Assignees:   assignees,
		Status:      models.StatusInProgress,
		Deadline:    in.Deadline,
	}
	if err := s.repo.CreateTask(ctx, task); err != nil {
		return nil, err
	}
	tasksCreated.Inc()

	s.log(ctx, "create_task").WithFields(logrus.Fields{
		"task_id":   task.ID,
		"assignees": len(assignees),
	}).Info("task created")
	return task, nil
}

func (s *TaskService) ListTasks(ctx context.Context) ([]*models.Task, error) {
	return s.repo.ListTasks(ctx)
}

func (s *TaskService) GetTask(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, fmt.Errorf("task %s: %w", id, models.ErrNotFound)
	}
	return task, nil
}

// TasksForPhone - задачи, назначенные пользователю с этим номером
func (s *TaskService) TasksForPhone(ctx context.Context, phone string) ([]*models.Task, error) {
	user, err := s.repo.GetUserByPhone(ctx, models.NormalizePhone(phone))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", phone, models.ErrNotFound)
	}
	return s.repo.ListTasksByAssignee(ctx, user.ID)
}

// TasksForName - задачи всех пользователей с точно таким именем
func (s *TaskService) TasksForName(ctx context.Context, name string) ([]*models.Task, error) {
	users, err := s.repo.FindUsersByNames(ctx, []string{strings.TrimSpace(name)})
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return s.repo.ListTasksByAssignee(ctx, ids...)
}

// RecordCompletion отмечает выполнение задачи пользователем. Когда задачу
// завершили все назначенные, хранилище удаляет её в той же транзакции,
// а участники получают уведомление ровно один раз.
func (s *TaskService) RecordCompletion(ctx context.Context, taskID, phone string) (*CompletionOutcome, error) {
	logEntry := s.log(ctx, "record_completion").WithField("task_id", taskID)

	phone = models.NormalizePhone(phone)
	if taskID == "" || phone == "" {
		return nil, fmt.Errorf("task id and phone number are required: %w", models.ErrValidation)
	}

	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task == nil {
		return nil, ErrTaskNotFound
	}
	user, err := s.repo.GetUserByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !task.IsAssignee(user.ID) {
		logEntry.WithField("phone", phone).Warn("user is not assigned to this task")
		return nil, ErrNotAssignee
	}

	res, err := s.repo.RecordCompletion(ctx, taskID, user.ID)
	switch {
	case errors.Is(err, models.ErrNotFound):
		// задачу удалило параллельное завершение
		return nil, ErrTaskNotFound
	case errors.Is(err, models.ErrForbidden):
		return nil, ErrNotAssignee
	case err != nil:
		return nil, err
	}
	task = res.Task

	if !res.Deleted {
		completionsRecorded.WithLabelValues(string(CompletionInProgress)).Inc()
		logEntry.WithFields(logrus.Fields{
			"added":     res.Added,
			"completed": len(task.Completers),
			"total":     len(task.Assignees),
		}).Info("task completion recorded")
		return &CompletionOutcome{
			Status:         CompletionInProgress,
			Task:           task,
			CompletedCount: len(task.Completers),
			TotalAssigned:  len(task.Assignees),
			Remaining:      task.Remaining(),
		}, nil
	}

	completionsRecorded.WithLabelValues(string(CompletionDeleted)).Inc()
	msg := CompletionMessage(task)
	sent := broadcast(ctx, s.sender, logEntry, "completion", task.Participants(), func(*models.User) string { return msg })
	logEntry.WithField("notifications_sent", sent).Info("task completed by all users and deleted")

	return &CompletionOutcome{
		Status:            CompletionDeleted,
		Task:              task,
		NotificationsSent: sent,
		CompletedCount:    len(task.Completers),
		TotalAssigned:     len(task.Assignees),
	}, nil
}
