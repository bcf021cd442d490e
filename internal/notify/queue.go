package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// Queue is the asynq queue notifications are enqueued on.
	Queue = "notifications"
	// TaskType is the asynq task type for notifications.
	TaskType = "notify:send"
)

// Enqueuer is satisfied by *asynq.Client.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueNotifier hands notifications to the background worker.
type QueueNotifier struct {
	enqueuer Enqueuer
	logger   *slog.Logger
	now      func() time.Time
}

// NewQueueNotifier constructs a QueueNotifier.
func NewQueueNotifier(enqueuer Enqueuer, logger *slog.Logger) *QueueNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueueNotifier{enqueuer: enqueuer, logger: logger, now: time.Now}
}

func (n *QueueNotifier) SendBookingConfirmation(ctx context.Context, p Payload, to Recipient) error {
	return n.enqueue(ctx, KindBookingConfirmation, p, to)
}

func (n *QueueNotifier) SendBookingCancellation(ctx context.Context, p Payload, to Recipient) error {
	return n.enqueue(ctx, KindBookingCancellation, p, to)
}

func (n *QueueNotifier) SendQuotation(ctx context.Context, p Payload, to Recipient) error {
	return n.enqueue(ctx, KindQuotation, p, to)
}

func (n *QueueNotifier) SendInvoice(ctx context.Context, p Payload, to Recipient) error {
	return n.enqueue(ctx, KindInvoice, p, to)
}

func (n *QueueNotifier) SendBill(ctx context.Context, p Payload, to Recipient) error {
	return n.enqueue(ctx, KindBill, p, to)
}

func (n *QueueNotifier) enqueue(ctx context.Context, kind Kind, p Payload, to Recipient) error {
	if n == nil || n.enqueuer == nil {
		return errors.New("notify: queue not configured")
	}
	task, err := NewTask(Message{Kind: kind, Payload: p, To: to, CreatedAt: n.now().UTC()})
	if err != nil {
		return err
	}
	info, err := n.enqueuer.EnqueueContext(ctx, task, asynq.Queue(Queue), asynq.MaxRetry(5), asynq.Timeout(30*time.Second))
	if err != nil {
		return fmt.Errorf("notify: enqueue %s: %w", kind, err)
	}
	if info != nil {
		n.logger.Debug("notification enqueued", slog.String("kind", string(kind)), slog.String("order_id", p.OrderID), slog.String("task_id", info.ID))
	}
	return nil
}

// NewTask encodes msg as an asynq task.
func NewTask(msg Message) (*asynq.Task, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskType, data), nil
}

// ParseTask decodes a task built by NewTask.
func ParseTask(t *asynq.Task) (Message, error) {
	var msg Message
	if err := json.Unmarshal(t.Payload(), &msg); err != nil {
		return Message{}, err
	}
	if msg.Kind == "" {
		return Message{}, errors.New("notify: message kind missing")
	}
	return msg, nil
}
