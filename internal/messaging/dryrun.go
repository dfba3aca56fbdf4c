package messaging

import (
	"context"

	"github.com/sirupsen/logrus"
)

// DryRunSender только пишет сообщения в лог; используется без WHAPI_TOKEN
type DryRunSender struct {
	Logger *logrus.Logger
}

func (s DryRunSender) Send(ctx context.Context, to, body string) error {
	messagesTotal.WithLabelValues("dry_run").Inc()
	s.Logger.WithFields(logrus.Fields{
		"component": "messaging_dry_run",
		"to":        to,
		"body":      body,
	}).Info("message not sent: dry run")
	return nil
}
