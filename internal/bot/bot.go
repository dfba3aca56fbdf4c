// Package bot выполняет команды чата и отвечает отправителю через Sender.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/command"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/models"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/service"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/shared/middleware"
)

const ApologyMessage = "Sorry, there was an error processing your request."

// Статусы, которые вебхук возвращает провайдеру
const (
	StatusSuccess          = "success"
	StatusNotCommand       = "Message received (not a command)"
	StatusFormatError      = "Command format error"
	StatusPeopleError      = "People input error"
	StatusCompletion       = "Task completion processed"
	StatusCompletionFailed = "Task completion error"
)

type Bot struct {
	tasks    *service.TaskService
	contacts *service.ContactResolver
	sender   service.Sender
	logger   *logrus.Logger
}

func New(tasks *service.TaskService, contacts *service.ContactResolver, sender service.Sender, logger *logrus.Logger) *Bot {
	return &Bot{
		tasks:    tasks,
		contacts: contacts,
		sender:   sender,
		logger:   logger,
	}
}

// Handle разбирает сообщение от from и выполняет команду. Ошибка возвращается
// только для внутренних сбоев; ошибки пользователя уходят ему ответом.
func (b *Bot) Handle(ctx context.Context, from, text string) (string, error) {
	from = models.NormalizePhone(from)
	logEntry := b.logger.WithFields(logrus.Fields{
		"component":  "chat_bot",
		"request_id": middleware.GetRequestID(ctx),
		"from":       from,
	})

	cmd, err := command.Parse(text)
	var fe *command.FormatError
	if errors.As(err, &fe) {
		logEntry.WithField("command", fe.Kind.String()).Info("malformed command")
		b.reply(ctx, logEntry, from, fe.Reply)
		if fe.Kind == command.KindTask {
			return StatusPeopleError, nil
		}
		if fe.Kind == command.KindDone {
			return StatusCompletionFailed, nil
		}
		return StatusFormatError, nil
	}
	if err != nil {
		return "", err
	}

	logEntry = logEntry.WithField("command", cmd.Kind.String())
	switch cmd.Kind {
	case command.KindTask:
		return b.handleTask(ctx, logEntry, from, cmd)
	case command.KindList:
		return b.handleList(ctx, logEntry, from)
	case command.KindTasksFor:
		return b.handleTasksFor(ctx, logEntry, from, cmd.Person)
	case command.KindDone:
		return b.handleDone(ctx, logEntry, from, cmd.TaskID)
	default:
		preview := text
		if len(preview) > 50 {
			preview = preview[:50]
		}
		logEntry.WithField("text", preview).Debug("received unrecognized message")
		return StatusNotCommand, nil
	}
}

// Apologize сообщает отправителю о внутренней ошибке
func (b *Bot) Apologize(ctx context.Context, from string) {
	from = models.NormalizePhone(from)
	if from == "" {
		return
	}
	b.reply(ctx, b.logger.WithField("component", "chat_bot"), from, ApologyMessage)
}

func (b *Bot) handleTask(ctx context.Context, logEntry *logrus.Entry, from string, cmd command.Command) (string, error) {
	res, err := b.contacts.Resolve(ctx, cmd.People)
	if err != nil {
		return "", err
	}
	if len(res.Contacts) == 0 {
		b.reply(ctx, logEntry, from, fmt.Sprintf(
			"None of these people are registered: %s. Ask them to register first.", strings.Join(res.Missing, ", ")))
		return StatusPeopleError, nil
	}

	deadline, err := models.ParseDeadline(cmd.Deadline)
	if err != nil {
		b.reply(ctx, logEntry, from, fmt.Sprintf("Invalid deadline %s. Use YYYY-MM-DD.", cmd.Deadline))
		return StatusFormatError, nil
	}

	task, err := b.tasks.CreateTask(ctx, service.CreateTaskInput{
		Description:    cmd.Notes,
		CreatorPhone:   from,
		AssigneePhones: res.Phones(),
		Deadline:       deadline,
	})
	if err != nil {
		return "", err
	}

	msg := TaskCreatedMessage(task, res)
	b.reply(ctx, logEntry, from, msg)
	for _, c := range res.Contacts {
		if c.Phone != from {
			b.reply(ctx, logEntry, c.Phone, msg)
		}
	}
	logEntry.WithFields(logrus.Fields{
		"task_id": task.ID,
		"missing": res.Missing,
	}).Info("task created from chat")
	return StatusSuccess, nil
}

func (b *Bot) handleList(ctx context.Context, logEntry *logrus.Entry, from string) (string, error) {
	tasks, err := b.tasks.ListTasks(ctx)
	if err != nil {
		return "", err
	}
	body := FormatTaskList(tasks)
	if body == "" {
		body = "No tasks found."
	}
	b.reply(ctx, logEntry, from, "Tasks:\n\n"+body)
	return StatusSuccess, nil
}

func (b *Bot) handleTasksFor(ctx context.Context, logEntry *logrus.Entry, from, person string) (string, error) {
	tasks, err := b.tasks.TasksForName(ctx, person)
	if err != nil {
		return "", err
	}
	body := FormatTaskList(tasks)
	if body == "" {
		body = fmt.Sprintf("No tasks found for %s.", person)
	}
	b.reply(ctx, logEntry, from, fmt.Sprintf("Tasks for %s:\n\n%s", person, body))
	return StatusSuccess, nil
}

func (b *Bot) handleDone(ctx context.Context, logEntry *logrus.Entry, from, taskID string) (string, error) {
	out, err := b.tasks.RecordCompletion(ctx, taskID, from)
	if err != nil {
		reason, ok := completionFailure(err)
		if !ok {
			return "", err
		}
		logEntry.WithError(err).WithField("task_id", taskID).Info("task completion rejected")
		b.reply(ctx, logEntry, from, "Could not complete task: "+reason)
		return StatusCompletionFailed, nil
	}
	b.reply(ctx, logEntry, from, CompletionReply(out))
	return StatusCompletion, nil
}

func completionFailure(err error) (string, bool) {
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		return "Task not found", true
	case errors.Is(err, service.ErrUserNotFound):
		return "User not found", true
	case errors.Is(err, service.ErrNotAssignee):
		return "User is not assigned to this task", true
	case errors.Is(err, models.ErrValidation):
		return "Invalid request", true
	default:
		return "", false
	}
}

// reply отправляет сообщение; сбой доставки только логируется
func (b *Bot) reply(ctx context.Context, logEntry *logrus.Entry, to, body string) {
	if err := b.sender.Send(ctx, to, body); err != nil {
		logEntry.WithError(err).WithField("to", to).Warn("failed to send reply")
	}
}
