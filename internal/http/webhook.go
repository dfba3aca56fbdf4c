package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/shared/middleware"
)

// ChatBot выполняет команду из входящего сообщения
type ChatBot interface {
	Handle(ctx context.Context, from, text string) (string, error)
	Apologize(ctx context.Context, from string)
}

type WebhookHandler struct {
	bot    ChatBot
	logger *logrus.Logger
}

func NewWebhookHandler(bot ChatBot, logger *logrus.Logger) *WebhookHandler {
	return &WebhookHandler{
		bot:    bot,
		logger: logger,
	}
}

type webhookPayload struct {
	Messages []struct {
		From string `json:"from"`
		Text struct {
			Body string `json:"body"`
		} `json:"text"`
	} `json:"messages"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// Handle обрабатывает POST /webhook. Провайдер повторяет доставку при
// не-200 ответе, поэтому любой исход отвечает 200.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	logEntry := h.logger.WithFields(logrus.Fields{
		"component":  "http_handler",
		"handler":    "Webhook",
		"request_id": middleware.GetRequestID(r.Context()),
	})

	var from string
	defer func() {
		if rec := recover(); rec != nil {
			logEntry.WithField("panic", rec).Error("webhook handler panicked")
			h.bot.Apologize(r.Context(), from)
			writeJSON(w, http.StatusOK, statusResponse{Status: "Internal error occurred"})
		}
	}()

	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		logEntry.WithError(err).Warn("invalid webhook payload")
		writeJSON(w, http.StatusOK, statusResponse{Status: "Invalid JSON"})
		return
	}
	if len(payload.Messages) == 0 {
		writeJSON(w, http.StatusOK, statusResponse{Status: "No messages"})
		return
	}

	msg := payload.Messages[0]
	from = msg.From
	if from == "" || msg.Text.Body == "" {
		logEntry.Debug("message without sender or text")
		writeJSON(w, http.StatusOK, statusResponse{Status: "Missing sender or message text"})
		return
	}

	status, err := h.bot.Handle(r.Context(), from, msg.Text.Body)
	if err != nil {
		logEntry.WithError(err).WithField("from", from).Error("failed to process chat command")
		h.bot.Apologize(r.Context(), from)
		writeJSON(w, http.StatusOK, statusResponse{Status: "Internal error occurred"})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: status})
}
