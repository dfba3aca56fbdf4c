package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/bot"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/config"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/messaging"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/repository"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/internal/service"
	"github.com/sun1tar/MIREA-TIP-Practice-22/tasktracker/shared/logger"
)

const serviceName = "tasktracker"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           serviceName,
		Short:         "Task tracker with a REST API and a WhatsApp chat webhook",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd())
	root.AddCommand(newRemindCmd())
	root.AddCommand(newMigrateCmd())
	return root
}

// app - собранные зависимости процесса
type app struct {
	cfg       *config.Config
	logger    *logrus.Logger
	repo      repository.Repository
	users     *service.UserService
	tasks     *service.TaskService
	reminders *service.ReminderService
	bot       *bot.Bot
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.Init(serviceName, cfg.LogLevel)

	repo, err := openRepository(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}

	var sender service.Sender
	if cfg.Messaging.Token == "" {
		log.Warn("WHAPI_TOKEN is not set, outbound messages will only be logged")
		sender = messaging.DryRunSender{Logger: log}
	} else {
		sender = messaging.NewClient(cfg.Messaging.URL, cfg.Messaging.Token, cfg.Messaging.Timeout, log)
	}

	users := service.NewUserService(repo)
	tasks := service.NewTaskService(repo, users, sender, log)
	return &app{
		cfg:       cfg,
		logger:    log,
		repo:      repo,
		users:     users,
		tasks:     tasks,
		reminders: service.NewReminderService(repo, sender, log),
		bot:       bot.New(tasks, service.NewContactResolver(repo), sender, log),
	}, nil
}

func (a *app) Close() error {
	return a.repo.Close()
}

// openRepository открывает хранилище по драйверу и создаёт схему
func openRepository(ctx context.Context, db config.DatabaseConfig) (repository.Repository, error) {
	var (
		repo *repository.SQLRepository
		err  error
	)
	switch db.Driver {
	case config.DriverMemory:
		return repository.NewMemoryRepository(), nil
	case config.DriverPostgres:
		repo, err = repository.NewPostgresRepository(db.DSN())
	case config.DriverSQLite:
		repo, err = repository.NewSQLiteRepository(db.DSN())
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", db.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := repo.Migrate(ctx); err != nil {
		repo.Close()
		return nil, err
	}
	return repo, nil
}
