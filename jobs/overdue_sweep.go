package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/documents"
	jobmetrics "github.com/ShivaKumarChakali/lezit-transports-sub001/internal/jobs"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/shared"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/timeline"
)

// OverdueMarker is implemented by documents.Store.
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, now time.Time) ([]documents.OverdueDocument, error)
}

// TimelineAppender receives one entry per order touched by a sweep.
type TimelineAppender interface {
	Append(ctx context.Context, entry timeline.Entry)
}

// OverdueSweepJob moves sent invoices and bills to overdue once due_at passes.
type OverdueSweepJob struct {
	Store    OverdueMarker
	Timeline TimelineAppender
	Logger   *slog.Logger
	Metrics  *jobmetrics.Metrics
	clock    func() time.Time
}

// NewOverdueSweepJob initialises the handler. recorder may be nil.
func NewOverdueSweepJob(store OverdueMarker, recorder TimelineAppender, logger *slog.Logger, metrics *jobmetrics.Metrics) *OverdueSweepJob {
	return &OverdueSweepJob{
		Store:    store,
		Timeline: recorder,
		Logger:   logger,
		Metrics:  metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes TaskOverdueSweep.
func (j *OverdueSweepJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Store == nil {
		return errors.New("overdue sweep: handler not configured")
	}
	var payload OverdueSweepPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("overdue sweep: decode payload: %v: %w", err, asynq.SkipRetry)
		}
	}
	tracker := j.Metrics.Track(TaskOverdueSweep)
	defer func() {
		err = tracker.End(err)
	}()

	asOf := payload.AsOf
	if asOf.IsZero() {
		asOf = j.clock()
	}
	n, err := j.Run(ctx, asOf)
	if err != nil {
		j.logger().Error("overdue sweep failed", slog.Any("error", err))
		return err
	}
	j.logger().Info("overdue sweep completed", slog.Int64("documents", n), slog.Time("as_of", asOf))
	return nil
}

// Run flags overdue documents as of now and records the change on each
// affected order's timeline.
func (j *OverdueSweepJob) Run(ctx context.Context, now time.Time) (int64, error) {
	flagged, err := j.Store.MarkOverdue(ctx, now.UTC())
	if err != nil {
		return 0, err
	}
	n := int64(len(flagged))
	j.Metrics.AddSwept("documents", n)
	j.record(ctx, flagged)
	return n, nil
}

func (j *OverdueSweepJob) record(ctx context.Context, flagged []documents.OverdueDocument) {
	if j.Timeline == nil {
		return
	}
	var orderIDs []string
	byOrder := map[string][]documents.OverdueDocument{}
	for _, doc := range flagged {
		if _, seen := byOrder[doc.OrderID]; !seen {
			orderIDs = append(orderIDs, doc.OrderID)
		}
		byOrder[doc.OrderID] = append(byOrder[doc.OrderID], doc)
	}
	for _, orderID := range orderIDs {
		docs := byOrder[orderID]
		names := make([]string, 0, len(docs))
		numbers := make([]string, 0, len(docs))
		for _, doc := range docs {
			names = append(names, doc.Kind+" "+doc.Number)
			numbers = append(numbers, doc.Number)
		}
		j.Timeline.Append(ctx, timeline.Entry{
			OrderID:     orderID,
			Action:      timeline.ActionDocumentOverdue,
			Description: "Overdue: " + strings.Join(names, ", "),
			ActorID:     shared.SystemActor.ID,
			ActorRole:   string(shared.SystemActor.Role),
			Previous:    timeline.Snapshot("status", documents.InvoiceSent),
			Next:        timeline.Snapshot("status", documents.InvoiceOverdue),
			Metadata:    timeline.Snapshot("documents", numbers),
		})
	}
}

func (j *OverdueSweepJob) logger() *slog.Logger {
	if j.Logger == nil {
		return slog.Default()
	}
	return j.Logger.With(slog.String("job", TaskOverdueSweep))
}

var _ OverdueMarker = (documents.Store)(nil)
