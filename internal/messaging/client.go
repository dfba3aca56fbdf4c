package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sirupsen/logrus"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/shared/middleware"
)

var messagesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "outbound_messages_total",
		Help: "Total number of outbound chat messages by result",
	},
	[]string{"result"},
)

// UpstreamDeliveryError - шлюз не принял сообщение
type UpstreamDeliveryError struct {
	Recipient  string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamDeliveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("deliver message to %s: %v", e.Recipient, e.Err)
	}
	return fmt.Sprintf("deliver message to %s: gateway returned %d: %s", e.Recipient, e.StatusCode, e.Body)
}

func (e *UpstreamDeliveryError) Unwrap() error { return e.Err }

type sendRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// Client отправляет текстовые сообщения через Whapi-совместимый API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewClient(baseURL, token string, timeout time.Duration, logger *logrus.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Send отправляет одно сообщение; повторов нет
func (c *Client) Send(ctx context.Context, to, body string) error {
	requestID := middleware.GetRequestID(ctx)
	logEntry := c.logger.WithFields(logrus.Fields{
		"component":  "messaging_client",
		"request_id": requestID,
		"to":         to,
	})

	payload, err := json.Marshal(sendRequest{To: to, Body: body})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages/text", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	if requestID != "" {
		req.Header.Set(middleware.RequestIDHeader, requestID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		messagesTotal.WithLabelValues("error").Inc()
		logEntry.WithError(err).Warn("messaging gateway unavailable")
		return &UpstreamDeliveryError{Recipient: to, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		messagesTotal.WithLabelValues("rejected").Inc()
		logEntry.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"body":   string(respBody),
		}).Warn("messaging gateway rejected message")
		return &UpstreamDeliveryError{Recipient: to, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	messagesTotal.WithLabelValues("sent").Inc()
	logEntry.Debug("message sent")
	return nil
}
