package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/models"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/service"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/shared/middleware"
)

type UserHandler struct {
	userService *service.UserService
	logger      *logrus.Logger
}

func NewUserHandler(us *service.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{
		userService: us,
		logger:      logger,
	}
}

type credentialsRequest struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
}

type userEnvelope struct {
	Message string       `json:"message"`
	User    userResponse `json:"user"`
}

func (h *UserHandler) entry(r *http.Request, handler string) *logrus.Entry {
	return h.logger.WithFields(logrus.Fields{
		"component":  "http_handler",
		"handler":    handler,
		"request_id": middleware.GetRequestID(r.Context()),
	})
}

// Register обрабатывает POST /api/register
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	logEntry := h.entry(r, "Register")

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logEntry.WithError(err).Warn("invalid request body")
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, created, err := h.userService.Register(r.Context(), req.Name, req.PhoneNumber)
	if err != nil {
		writeServiceError(w, logEntry, err, "failed to register user")
		return
	}

	if !created {
		logEntry.WithField("user_id", user.ID).Debug("user already exists")
		writeJSON(w, http.StatusOK, userEnvelope{Message: "User already exists", User: toUserResponse(user)})
		return
	}
	logEntry.WithField("user_id", user.ID).Info("user registered successfully")
	writeJSON(w, http.StatusCreated, userEnvelope{Message: "User registered successfully", User: toUserResponse(user)})
}

// Login обрабатывает POST /api/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	logEntry := h.entry(r, "Login")

	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logEntry.WithError(err).Warn("invalid request body")
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.userService.Login(r.Context(), req.Name, req.PhoneNumber)
	if errors.Is(err, models.ErrNotFound) {
		logEntry.Warn("invalid login credentials")
		writeError(w, http.StatusUnauthorized, "Invalid login credentials")
		return
	}
	if err != nil {
		writeServiceError(w, logEntry, err, "failed to login")
		return
	}

	logEntry.WithField("user_id", user.ID).Info("login successful")
	writeJSON(w, http.StatusOK, userEnvelope{Message: "Login successful", User: toUserResponse(user)})
}

// ListUsers обрабатывает GET /api/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	logEntry := h.entry(r, "ListUsers")

	users, err := h.userService.List(r.Context())
	if err != nil {
		writeServiceError(w, logEntry, err, "failed to list users")
		return
	}

	logEntry.WithField("count", len(users)).Debug("users listed")
	writeJSON(w, http.StatusOK, toUserResponses(users))
}
