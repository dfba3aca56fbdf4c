package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	handlers "github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/http"
	customMiddleware "github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/middleware"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/shared/middleware"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the chat webhook",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}
}

func runServe(ctx context.Context) error {
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	mux := handlers.NewRouter(handlers.Handlers{
		Users:   handlers.NewUserHandler(a.users, a.logger),
		Tasks:   handlers.NewTaskHandler(a.tasks, a.reminders, a.logger),
		Webhook: handlers.NewWebhookHandler(a.bot, a.logger),
		Health:  handlers.NewHealthHandler(a.repo, a.logger),
		Metrics: customMiddleware.MetricsHandler(),
	})

	// Цепочка middleware (порядок важен!)
	handler := middleware.RequestIDMiddleware(mux)                     // 1. request-id
	handler = customMiddleware.SecurityHeadersMiddleware(handler)      // 2. заголовки безопасности
	handler = customMiddleware.APIKeyMiddleware(a.cfg.APIKey)(handler) // 3. API-ключ
	handler = customMiddleware.MetricsMiddleware(handler)              // 4. метрики
	handler = middleware.LoggingMiddleware(handler)                    // 5. логирование

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", a.cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.WithFields(logrus.Fields{
			"port":      a.cfg.Port,
			"db_driver": a.cfg.DB.Driver,
		}).Info("tasktracker service starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			a.logger.WithError(err).Error("server failed")
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
