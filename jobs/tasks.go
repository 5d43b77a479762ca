package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLookupWarmup refreshes the cached dropdown options.
	TaskLookupWarmup = "lookup:warmup"
	// TaskIdempotencyCleanup removes expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// LookupWarmupPayload names the entities to refresh. Empty means all.
type LookupWarmupPayload struct {
	Entities []string `json:"entities,omitempty"`
}

// NewLookupWarmupTask constructs a warmup task.
func NewLookupWarmupTask(entities ...string) (*asynq.Task, error) {
	data, err := json.Marshal(LookupWarmupPayload{Entities: entities})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLookupWarmup, data), nil
}

// IdempotencyCleanupPayload sets how old a key must be to be removed. Zero
// uses the job's configured retention.
type IdempotencyCleanupPayload struct {
	OlderThan time.Duration `json:"older_than,omitempty"`
}

// NewIdempotencyCleanupTask constructs a cleanup task.
func NewIdempotencyCleanupTask(olderThan time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(IdempotencyCleanupPayload{OlderThan: olderThan})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}
