package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"userflow-backend/internal/shared"
)

// RunHandle identifies a started workflow run on its task queue.
type RunHandle struct {
	ID    string `json:"run_id"`
	Queue string `json:"queue"`
}

// enqueuer and runInspector are the slices of the asynq client/inspector the
// orchestrator needs; tests substitute stubs.
type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type runInspector interface {
	GetTaskInfo(queue, id string) (*asynq.TaskInfo, error)
}

// Options tune how runs are submitted.
type Options struct {
	// Queue is the named task queue runs are submitted to.
	Queue string
	// ActivityTimeout is the start-to-close timeout for the activity. On
	// timeout the engine surfaces a failure to the run; this code applies no
	// recovery of its own.
	ActivityTimeout time.Duration
	// UpdateDelay is the durable pre-activity delay: the engine holds the
	// run for this long before scheduling the activity. It is the engine's
	// timer, never a blocking sleep in this process.
	UpdateDelay time.Duration
	// Retention keeps terminal runs readable so AwaitResult can observe the
	// result after completion.
	Retention time.Duration
	// PollInterval bounds how often AwaitResult re-checks run state.
	PollInterval time.Duration
}

func (o *Options) fillDefaults() {
	if o.Queue == "" {
		o.Queue = DefaultQueue
	}
	if o.ActivityTimeout <= 0 {
		o.ActivityTimeout = 30 * time.Second
	}
	if o.Retention <= 0 {
		o.Retention = 24 * time.Hour
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 250 * time.Millisecond
	}
}

// Orchestrator starts uniquely-identified runs and awaits their terminal
// results. It holds the long-lived engine connections; both are safe for
// concurrent use, so one Orchestrator serves all requests.
type Orchestrator struct {
	client    enqueuer
	inspector runInspector
	closer    func() error
	opts      Options
}

// NewOrchestrator connects to the task engine.
func NewOrchestrator(redisOpts asynq.RedisClientOpt, opts Options) *Orchestrator {
	opts.fillDefaults()
	client := asynq.NewClient(redisOpts)
	return &Orchestrator{
		client:    client,
		inspector: asynq.NewInspector(redisOpts),
		closer:    client.Close,
		opts:      opts,
	}
}

// NewRunID builds a collision-free run ID from a caller-chosen prefix and a
// random suffix.
func NewRunID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// StartProfileUpdate submits a profile-update run under the given run ID.
// The engine enforces at-most-one-active-run-per-ID: a second start with the
// same ID while the first is non-terminal fails with shared.ErrConflict.
// No retry policy is set here; the engine default governs redelivery.
func (o *Orchestrator) StartProfileUpdate(ctx context.Context, runID string, payload ProfileUpdatePayload) (RunHandle, error) {
	task, err := NewProfileUpdateTask(payload)
	if err != nil {
		return RunHandle{}, err
	}

	taskOpts := []asynq.Option{
		asynq.Queue(o.opts.Queue),
		asynq.TaskID(runID),
		asynq.Timeout(o.opts.ActivityTimeout),
		asynq.Retention(o.opts.Retention),
	}
	if o.opts.UpdateDelay > 0 {
		taskOpts = append(taskOpts, asynq.ProcessIn(o.opts.UpdateDelay))
	}

	info, err := o.client.EnqueueContext(ctx, task, taskOpts...)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return RunHandle{}, fmt.Errorf("%w: run %q already active", shared.ErrConflict, runID)
		}
		return RunHandle{}, fmt.Errorf("%w: start run: %v", shared.ErrUpstream, err)
	}
	return RunHandle{ID: info.ID, Queue: info.Queue}, nil
}

// AwaitResult blocks the calling goroutine until the run reaches a terminal
// state and returns its result bytes, or the run's terminal error. The wait
// is a poll loop bounded by ctx, so concurrent awaiters never affect each
// other's progress.
func (o *Orchestrator) AwaitResult(ctx context.Context, handle RunHandle) ([]byte, error) {
	ticker := time.NewTicker(o.opts.PollInterval)
	defer ticker.Stop()

	for {
		info, err := o.inspector.GetTaskInfo(handle.Queue, handle.ID)
		if err != nil {
			if errors.Is(err, asynq.ErrTaskNotFound) {
				return nil, fmt.Errorf("%w: run %q", shared.ErrNotFound, handle.ID)
			}
			return nil, fmt.Errorf("%w: inspect run: %v", shared.ErrUpstream, err)
		}

		switch info.State {
		case asynq.TaskStateCompleted:
			return info.Result, nil
		case asynq.TaskStateArchived:
			return nil, fmt.Errorf("run %q failed: %s", handle.ID, info.LastErr)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close releases the engine client connection.
func (o *Orchestrator) Close() error {
	if o.closer != nil {
		return o.closer()
	}
	return nil
}
