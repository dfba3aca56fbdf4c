package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/models"
)

type errorResponse struct {
	Error string `json:"error"`
}

type userResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	PhoneNumber string    `json:"phone_number"`
	CreatedAt   time.Time `json:"created_at"`
}

type taskResponse struct {
	ID          string         `json:"id"`
	Description string         `json:"description"`
	CreatedBy   *userResponse  `json:"created_by"`
	AssignedTo  []userResponse `json:"assigned_to"`
	CompletedBy []userResponse `json:"completed_by"`
	Status      string         `json:"status"`
	Deadline    *string        `json:"deadline"`
	CreatedAt   time.Time      `json:"created_at"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Name:        u.Name,
		PhoneNumber: u.PhoneNumber,
		CreatedAt:   u.CreatedAt,
	}
}

func toUserResponses(users []*models.User) []userResponse {
	result := make([]userResponse, len(users))
	for i, u := range users {
		result[i] = toUserResponse(u)
	}
	return result
}

func toTaskResponse(t *models.Task) taskResponse {
	resp := taskResponse{
		ID:          t.ID,
		Description: t.Description,
		AssignedTo:  toUserResponses(t.Assignees),
		CompletedBy: toUserResponses(t.Completers),
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt,
	}
	if t.Creator != nil {
		creator := toUserResponse(t.Creator)
		resp.CreatedBy = &creator
	}
	if t.Deadline != nil {
		d := t.Deadline.String()
		resp.Deadline = &d
	}
	return resp
}

func toTaskResponses(tasks []*models.Task) []taskResponse {
	result := make([]taskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = toTaskResponse(t)
	}
	return result
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor сопоставляет доменную ошибку с HTTP-кодом
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError пишет ответ по ошибке сервиса; внутренние ошибки
// наружу не раскрываются
func writeServiceError(w http.ResponseWriter, logEntry *logrus.Entry, err error, msg string) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logEntry.WithError(err).Error(msg)
		writeError(w, status, "internal server error")
		return
	}
	logEntry.WithError(err).Warn(msg)
	writeError(w, status, publicMessage(err))
}

// publicMessage убирает из текста ошибки хвост с общей ошибкой-категорией
func publicMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{models.ErrValidation, models.ErrNotFound, models.ErrForbidden, models.ErrConflict} {
		msg = strings.TrimSuffix(msg, ": "+sentinel.Error())
	}
	return msg
}
