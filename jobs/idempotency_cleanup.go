package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/ShivaKumarChakali/lezit-transports-sub001/internal/jobs"
)

// KeyCleaner is implemented by shared.IdempotencyStore.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) (int64, error)
}

// IdempotencyCleanupJob deletes idempotency keys past their retention.
type IdempotencyCleanupJob struct {
	Keys    KeyCleaner
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewIdempotencyCleanupJob initialises the handler.
func NewIdempotencyCleanupJob(keys KeyCleaner, logger *slog.Logger, metrics *jobmetrics.Metrics) *IdempotencyCleanupJob {
	return &IdempotencyCleanupJob{Keys: keys, Logger: logger, Metrics: metrics}
}

// Handle processes TaskIdempotencyCleanup.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Keys == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	var payload IdempotencyCleanupPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("idempotency cleanup: decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	tracker := j.Metrics.Track(TaskIdempotencyCleanup)
	defer func() {
		err = tracker.End(err)
	}()

	n, err := j.Keys.Cleanup(ctx, payload.retention())
	if err != nil {
		return err
	}
	j.Metrics.AddSwept("idempotency_keys", n)
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("idempotency keys purged", slog.String("job", TaskIdempotencyCleanup), slog.Int64("deleted", n), slog.Duration("retention", payload.retention()))
	return nil
}
