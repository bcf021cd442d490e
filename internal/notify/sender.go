package notify

import (
	"context"
	"log/slog"
)

// Sender delivers a message over a concrete channel.
type Sender interface {
	Deliver(ctx context.Context, msg Message) error
}

// LogSender writes messages to the log. Real email/SMS delivery plugs in
// behind Sender.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender constructs a LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

// Deliver logs msg.
func (s *LogSender) Deliver(_ context.Context, msg Message) error {
	s.logger.Info("notification delivered",
		slog.String("kind", string(msg.Kind)),
		slog.String("order_id", msg.Payload.OrderID),
		slog.String("document", msg.Payload.DocumentNumber),
		slog.String("recipient", msg.To.ID),
	)
	return nil
}
