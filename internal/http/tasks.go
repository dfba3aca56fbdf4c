package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/models"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/service"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/shared/middleware"
)

const defaultReminderHours = 24

type TaskHandler struct {
	taskService     *service.TaskService
	reminderService *service.ReminderService
	logger          *logrus.Logger
}

func NewTaskHandler(ts *service.TaskService, rs *service.ReminderService, logger *logrus.Logger) *TaskHandler {
	return &TaskHandler{
		taskService:     ts,
		reminderService: rs,
		logger:          logger,
	}
}

type createTaskRequest struct {
	Description      string   `json:"description"`
	CreatedByPhone   string   `json:"created_by_phone"`
	AssignedToPhones []string `json:"assigned_to_phones"`
	Deadline         string   `json:"deadline"`
}

type completeTaskRequest struct {
	PhoneNumber string `json:"phone_number"`
}

type completionResponse struct {
	Message           string         `json:"message"`
	Status            string         `json:"status"`
	NotificationsSent *int           `json:"notifications_sent,omitempty"`
	CompletedCount    int            `json:"completed_count"`
	TotalAssigned     int            `json:"total_assigned"`
	RemainingUsers    []userResponse `json:"remaining_users,omitempty"`
}

type remindersRequest struct {
	Hours json.RawMessage `json:"hours"`
}

type remindersResponse struct {
	Message       string `json:"message"`
	ReminderCount int    `json:"reminder_count"`
	TaskCount     int    `json:"task_count"`
}

func (h *TaskHandler) entry(r *http.Request, handler string) *logrus.Entry {
	return h.logger.WithFields(logrus.Fields{
		"component":  "http_handler",
		"handler":    handler,
		"request_id": middleware.GetRequestID(r.Context()),
	})
}

// ListTasks обрабатывает GET /api/tasks
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	logEntry := h.entry(r, "ListTasks")

	tasks, err := h.taskService.ListTasks(r.Context())
	if err != nil {
		writeServiceError(w, logEntry, err, "failed to list tasks")
		return
	}

	logEntry.WithField("count", len(tasks)).Debug("tasks listed")
	writeJSON(w, http.StatusOK, toTaskResponses(tasks))
}

// CreateTask обрабатывает POST /api/tasks
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	logEntry := h.entry(r, "CreateTask")

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logEntry.WithError(err).Warn("invalid request body")
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		logEntry.Warn("description is required")
		writeError(w, http.StatusBadRequest, "description is required")
		return
	}

	deadline, err := models.ParseDeadline(req.Deadline)
	if err != nil {
		writeServiceError(w, logEntry, err, "invalid deadline")
		return
	}

	task, err := h.taskService.CreateTask(r.Context(), service.CreateTaskInput{
		Description:    req.Description,
		CreatorPhone:   req.CreatedByPhone,
		AssigneePhones: req.AssignedToPhones,
		Deadline:       deadline,
	})
	if err != nil {
		writeServiceError(w, logEntry, err, "failed to create task")
		return
	}

	logEntry.WithField("task_id", task.ID).Info("task created successfully")
	writeJSON(w, http.StatusCreated, toTaskResponse(task))
}

// UserTasks обрабатывает GET /api/user-tasks/{phone}
func (h *TaskHandler) UserTasks(w http.ResponseWriter, r *http.Request) {
	logEntry := h.entry(r, "UserTasks")

	phone := r.PathValue("phone")
	tasks, err := h.taskService.TasksForPhone(r.Context(), phone)
	if err != nil {
		writeServiceError(w, logEntry, err, "failed to list user tasks")
		return
	}

	logEntry.WithFields(logrus.Fields{
		"phone": phone,
		"count": len(tasks),
	}).Debug("user tasks listed")
	writeJSON(w, http.StatusOK, toTaskResponses(tasks))
}

// CompleteTask обрабатывает POST /api/tasks/{id}/complete
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	logEntry := h.entry(r, "CompleteTask")

	id := r.PathValue("id")
	var req completeTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logEntry.WithError(err).Warn("invalid request body")
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if models.NormalizePhone(req.PhoneNumber) == "" {
		writeError(w, http.StatusBadRequest, "Phone number is required")
		return
	}

	out, err := h.taskService.RecordCompletion(r.Context(), id, req.PhoneNumber)
	if err != nil {
		writeServiceError(w, logEntry.WithField("task_id", id), err, "failed to complete task")
		return
	}

	resp := completionResponse{
		Status:         string(out.Status),
		CompletedCount: out.CompletedCount,
		TotalAssigned:  out.TotalAssigned,
	}
	if out.Status == service.CompletionDeleted {
		sent := out.NotificationsSent
		resp.Message = "Task completed by all users and deleted"
		resp.NotificationsSent = &sent
	} else {
		resp.Message = "Task completion recorded"
		resp.RemainingUsers = toUserResponses(out.Remaining)
	}

	logEntry.WithFields(logrus.Fields{
		"task_id": id,
		"status":  resp.Status,
	}).Info("task completion processed")
	writeJSON(w, http.StatusOK, resp)
}

// SendReminders обрабатывает POST /api/tasks/send-reminders
func (h *TaskHandler) SendReminders(w http.ResponseWriter, r *http.Request) {
	logEntry := h.entry(r, "SendReminders")

	var req remindersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		logEntry.WithError(err).Warn("invalid request body")
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	hours, err := parseHours(req.Hours)
	if err != nil {
		logEntry.WithError(err).Warn("invalid hours")
		writeError(w, http.StatusBadRequest, "Hours must be a valid integer")
		return
	}

	res, err := h.reminderService.Sweep(r.Context(), hours)
	if err != nil {
		writeServiceError(w, logEntry, err, "failed to send reminders")
		return
	}

	logEntry.WithFields(logrus.Fields{
		"hours":     hours,
		"reminders": res.MessagesSent,
		"tasks":     res.TasksProcessed,
	}).Info("reminders sent")
	writeJSON(w, http.StatusOK, remindersResponse{
		Message:       fmt.Sprintf("Successfully sent %d reminders for %d tasks", res.MessagesSent, res.TasksProcessed),
		ReminderCount: res.MessagesSent,
		TaskCount:     res.TasksProcessed,
	})
}

// parseHours принимает целое число или строку с целым числом;
// отсутствующее значение даёт 24
func parseHours(raw json.RawMessage) (int, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return defaultReminderHours, nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0, err
		}
		s = strings.TrimSpace(str)
	}
	return strconv.Atoi(s)
}
