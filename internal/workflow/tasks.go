// Package workflow drives the durable-execution boundary: it submits
// uniquely-identified runs to a named task queue, executes the profile-update
// activity on a worker with a start-to-close timeout, and lets callers await
// the terminal result. Run state is owned and persisted by the task engine
// (asynq on Redis), not by this code.
package workflow

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"userflow-backend/internal/models"
)

// TaskTypeProfileUpdate identifies the profile-update activity on the queue.
const TaskTypeProfileUpdate = "user:profile-update"

// DefaultQueue is the task queue runs are submitted to unless configured
// otherwise.
const DefaultQueue = "user-profile"

// ProfileUpdatePayload is the activity input: the canonical user ID plus a
// merge-by-presence field set.
type ProfileUpdatePayload struct {
	UserID string           `json:"user_id"`
	Patch  models.UserPatch `json:"patch"`
}

// NewProfileUpdateTask constructs the asynq task for a profile update.
func NewProfileUpdateTask(payload ProfileUpdatePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeProfileUpdate, data), nil
}
