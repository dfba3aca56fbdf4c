package service

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/models"
)

var (
	ErrTaskNotFound = fmt.Errorf("task not found: %w", models.ErrNotFound)
	ErrUserNotFound = fmt.Errorf("user not found: %w", models.ErrNotFound)
	ErrNotAssignee  = fmt.Errorf("user is not assigned to this task: %w", models.ErrForbidden)
)

// Sender доставляет текстовое сообщение на номер телефона
type Sender interface {
	Send(ctx context.Context, to, body string) error
}

var (
	tasksCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tasks_created_total",
		Help: "Total number of created tasks",
	})
	completionsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "task_completions_total",
		Help: "Recorded task completions by outcome",
	}, []string{"outcome"})
	notificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "task_notifications_total",
		Help: "Task notifications by kind and result",
	}, []string{"kind", "result"})
)

// broadcast отправляет body каждому получателю. Ошибка доставки одному
// получателю логируется и не мешает остальным. Возвращает число доставленных.
func broadcast(ctx context.Context, sender Sender, logEntry *logrus.Entry, kind string, recipients []*models.User, body func(*models.User) string) int {
	sent := 0
	for _, u := range recipients {
		if u == nil || u.PhoneNumber == "" {
			continue
		}
		if err := sender.Send(ctx, u.PhoneNumber, body(u)); err != nil {
			notificationsTotal.WithLabelValues(kind, "failed").Inc()
			logEntry.WithError(err).WithFields(logrus.Fields{
				"recipient": u.PhoneNumber,
				"name":      u.Name,
			}).Warn("failed to send notification")
			continue
		}
		notificationsTotal.WithLabelValues(kind, "sent").Inc()
		sent++
	}
	return sent
}
