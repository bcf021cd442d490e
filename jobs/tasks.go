package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for maintenance jobs.
	QueueDefault = "default"
	// TaskOverdueSweep flags sent invoices and bills past their due date.
	TaskOverdueSweep = "documents:sweep_overdue"
	// TaskIdempotencyCleanup purges expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"

	defaultIdempotencyRetention = 72 * time.Hour
)

// OverdueSweepPayload carries an optional reference time, mostly for replays.
type OverdueSweepPayload struct {
	AsOf time.Time `json:"as_of,omitempty"`
}

// IdempotencyCleanupPayload controls how long keys are retained.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

func (p IdempotencyCleanupPayload) retention() time.Duration {
	if p.RetentionHours <= 0 {
		return defaultIdempotencyRetention
	}
	return time.Duration(p.RetentionHours) * time.Hour
}

// NewOverdueSweepTask builds the overdue sweep task.
func NewOverdueSweepTask() (*asynq.Task, error) {
	body, err := json.Marshal(OverdueSweepPayload{})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOverdueSweep, body, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

// NewIdempotencyCleanupTask builds the cleanup task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	body, err := json.Marshal(IdempotencyCleanupPayload{RetentionHours: int(retention / time.Hour)})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, body, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}
