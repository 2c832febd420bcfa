package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"userflow-backend/internal/config"
	"userflow-backend/internal/store"
	"userflow-backend/internal/workflow"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	var userStore store.Store
	switch cfg.StoreBackend {
	case config.BackendMongo:
		db, err := store.Connect(ctx, cfg.MongoURI, cfg.DBName)
		if err != nil {
			logger.Error("connect database", slog.Any("error", err))
			os.Exit(1)
		}
		userStore = store.NewMongoStore(db)
	case config.BackendCrudCrud:
		userStore = store.NewCrudCrudStore(cfg.CrudCrudBaseURL, cfg.CrudCrudAPIKey)
	}

	// The secondary forward only applies when the primary store is the
	// document database and a hosted-store key is configured.
	var forwarder store.Forwarder
	if cfg.StoreBackend == config.BackendMongo && cfg.CrudCrudAPIKey != "" {
		forwarder = store.NewCrudCrudForwarder(cfg.CrudCrudBaseURL, cfg.CrudCrudAPIKey)
	}

	activity := workflow.NewProfileUpdateActivity(userStore, forwarder, logger)

	worker, err := workflow.NewWorker(workflow.WorkerConfig{
		RedisOpts:   asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Queue:       cfg.TaskQueue,
		Concurrency: cfg.WorkerConcurrency,
		Logger:      logger,
		Activity:    activity,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started", slog.String("queue", cfg.TaskQueue))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
