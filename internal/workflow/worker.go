package workflow

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Worker pulls scheduled activity tasks from the named queue and runs them.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	logger *slog.Logger
}

// WorkerConfig collects dependencies required to bootstrap the worker.
type WorkerConfig struct {
	RedisOpts   asynq.RedisClientOpt
	Queue       string
	Concurrency int
	Logger      *slog.Logger
	Activity    *ProfileUpdateActivity
}

// NewWorker constructs a Worker bound to the configured queue.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if cfg.Activity == nil {
		return nil, errors.New("worker: profile update activity is required")
	}
	if cfg.Queue == "" {
		cfg.Queue = DefaultQueue
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 5
	}

	srv := asynq.NewServer(cfg.RedisOpts, asynq.Config{
		Concurrency: cfg.Concurrency,
		Queues: map[string]int{
			cfg.Queue: 1,
		},
	})
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypeProfileUpdate, cfg.Activity.Handle)

	return &Worker{server: srv, mux: mux, logger: cfg.Logger}, nil
}

// Run starts processing tasks until context cancellation.
func (w *Worker) Run(ctx context.Context) error {
	if w == nil {
		return errors.New("worker: not configured")
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.server.Run(w.mux)
	}()
	select {
	case <-ctx.Done():
		w.server.Shutdown()
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}
