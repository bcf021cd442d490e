package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/ShivaKumarChakali/lezit-transports-sub001/internal/jobs"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/notify"
)

// NotificationJob delivers messages queued by notify.QueueNotifier.
type NotificationJob struct {
	Sender  notify.Sender
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewNotificationJob initialises the handler.
func NewNotificationJob(sender notify.Sender, logger *slog.Logger, metrics *jobmetrics.Metrics) *NotificationJob {
	return &NotificationJob{Sender: sender, Logger: logger, Metrics: metrics}
}

// Handle processes notify.TaskType. Undecodable payloads are not retried.
func (j *NotificationJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Sender == nil {
		return errors.New("notification: handler not configured")
	}
	msg, err := notify.ParseTask(t)
	if err != nil {
		if j.Logger != nil {
			j.Logger.Warn("dropping malformed notification", slog.Any("error", err))
		}
		return fmt.Errorf("notification: %v: %w", err, asynq.SkipRetry)
	}
	tracker := j.Metrics.Track(notify.TaskType)
	defer func() {
		err = tracker.End(err)
	}()
	return j.Sender.Deliver(ctx, msg)
}
