package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/models"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/repository"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/shared/middleware"
)

// Окна до этого размера сверяют и время срока, если оно задано
const shortWindowHours = 2

type SweepResult struct {
	MessagesSent   int `json:"reminder_count"`
	TasksProcessed int `json:"task_count"`
}

type ReminderService struct {
	repo   repository.TaskRepository
	sender Sender
	logger *logrus.Logger
	now    func() time.Time
}

func NewReminderService(repo repository.TaskRepository, sender Sender, logger *logrus.Logger) *ReminderService {
	return &ReminderService{
		repo:   repo,
		sender: sender,
		logger: logger,
		now:    time.Now,
	}
}

// Sweep рассылает напоминания по задачам in_progress со сроком в ближайшие
// hours часов: автору - кто ещё не закончил, каждому незакончившему - напоминание.
func (s *ReminderService) Sweep(ctx context.Context, hours int) (*SweepResult, error) {
	if hours < 0 {
		return nil, fmt.Errorf("hours must be a non-negative integer: %w", models.ErrValidation)
	}
	logEntry := s.logger.WithFields(logrus.Fields{
		"component":  "reminder_service",
		"request_id": middleware.GetRequestID(ctx),
		"hours":      hours,
	})

	now := s.now().UTC()
	until := now.Add(time.Duration(hours) * time.Hour)
	candidates, err := s.repo.ListOpenTasksDueBetween(ctx, now.Format(models.DateLayout), until.Format(models.DateLayout))
	if err != nil {
		return nil, err
	}

	var due []*models.Task
	for _, task := range candidates {
		if isDue(task.Deadline, now, until, hours) {
			due = append(due, task)
		}
	}
	logEntry.WithField("tasks", len(due)).Info("checking tasks due soon")

	result := &SweepResult{TasksProcessed: len(due)}
	for _, task := range due {
		taskLog := logEntry.WithField("task_id", task.ID)
		remaining := task.Remaining()

		if task.Creator != nil {
			result.MessagesSent += broadcast(ctx, s.sender, taskLog, "reminder", []*models.User{task.Creator},
				func(*models.User) string { return CreatorReminder(task, remaining) })
		}
		result.MessagesSent += broadcast(ctx, s.sender, taskLog, "reminder", remaining,
			func(*models.User) string { return AssigneeReminder(task) })
	}

	logEntry.WithFields(logrus.Fields{
		"reminder_count": result.MessagesSent,
		"task_count":     result.TasksProcessed,
	}).Info("reminder sweep finished")
	return result, nil
}

// isDue: длинные окна сравнивают только даты; короткие сравнивают время,
// а сроки без времени считаются подходящими, если приходятся на сегодня
func isDue(d *models.Deadline, now, until time.Time, hours int) bool {
	if d == nil {
		return false
	}
	if hours > shortWindowHours {
		date := d.Date()
		return date >= now.Format(models.DateLayout) && date <= until.Format(models.DateLayout)
	}
	if d.HasTime {
		return !d.At.Before(now) && !d.At.After(until)
	}
	return d.Date() == now.Format(models.DateLayout)
}
