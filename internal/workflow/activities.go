package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"userflow-backend/internal/shared"
	"userflow-backend/internal/store"
)

// ProfileUpdateActivity is the single unit of work behind a profile-update
// run: merge the supplied fields into the primary store, then push the merged
// record to the secondary store. The merge is idempotent, so the engine may
// redeliver on ambiguous failures without corrupting the record. The
// secondary push is best-effort: failure is logged, not retried, and never
// rolls back the primary update.
type ProfileUpdateActivity struct {
	store     store.Store
	forwarder store.Forwarder
	logger    *slog.Logger
}

// NewProfileUpdateActivity wires the activity. forwarder may be nil when no
// secondary store is configured.
func NewProfileUpdateActivity(s store.Store, forwarder store.Forwarder, logger *slog.Logger) *ProfileUpdateActivity {
	if logger == nil {
		logger = slog.Default()
	}
	return &ProfileUpdateActivity{store: s, forwarder: forwarder, logger: logger}
}

// Handle processes TaskTypeProfileUpdate tasks. Malformed payloads and
// missing users skip retry: redelivery cannot fix either.
func (a *ProfileUpdateActivity) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ProfileUpdatePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.UserID == "" {
		return fmt.Errorf("%v: missing user id: %w", shared.ErrValidation, asynq.SkipRetry)
	}

	updated, err := a.store.Update(ctx, payload.UserID, payload.Patch)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("user %s not found: %w", payload.UserID, asynq.SkipRetry)
		}
		return err
	}

	if a.forwarder != nil {
		if err := a.forwarder.Forward(ctx, *updated); err != nil {
			a.logger.Warn("secondary store forward failed",
				slog.String("user_id", payload.UserID),
				slog.Any("error", err))
		}
	}

	result, err := json.Marshal(updated.Sanitized())
	if err != nil {
		return fmt.Errorf("encode result: %v: %w", err, asynq.SkipRetry)
	}
	if w := t.ResultWriter(); w != nil {
		if _, err := w.Write(result); err != nil {
			a.logger.Warn("write run result", slog.Any("error", err))
		}
	}
	return nil
}
