package timeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/shared"
)

const replayChunk = 500

// Repository persists timeline entries.
type Repository interface {
	Insert(ctx context.Context, entry Entry) error
	ListByOrder(ctx context.Context, orderID string, offset, limit int, ascending bool) ([]Entry, error)
}

// Result is one page of an order timeline.
type Result struct {
	Entries []Entry           `json:"entries"`
	Paging  shared.Pagination `json:"paging"`
}

// Recorder appends to and reads the audit trail.
type Recorder struct {
	repo    Repository
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewRecorder builds a Recorder. Appends are bounded by timeout.
func NewRecorder(repo Repository, logger *slog.Logger, timeout time.Duration) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Recorder{repo: repo, logger: logger, timeout: timeout, now: time.Now}
}

// Append stores entry. It never fails the caller: errors are logged.
func (r *Recorder) Append(ctx context.Context, entry Entry) {
	if r == nil || r.repo == nil {
		return
	}
	if entry.OrderID == "" || entry.Action == "" {
		r.logger.Warn("timeline entry dropped", slog.String("order_id", entry.OrderID), slog.String("action", entry.Action))
		return
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now().UTC()
	}
	if entry.ID == "" {
		entry.ID = ulid.MustNew(ulid.Timestamp(entry.CreatedAt), ulid.DefaultEntropy()).String()
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
	defer cancel()
	if err := r.repo.Insert(ctx, entry); err != nil {
		r.logger.Error("timeline append failed",
			slog.String("order_id", entry.OrderID),
			slog.String("action", entry.Action),
			slog.Any("error", err))
	}
}

// Query returns an order's entries newest first.
func (r *Recorder) Query(ctx context.Context, orderID string, page shared.Page) (Result, error) {
	if r == nil || r.repo == nil {
		return Result{}, errors.New("timeline: repository not configured")
	}
	if orderID == "" {
		return Result{}, fmt.Errorf("%w: order id required", shared.ErrValidation)
	}
	page = page.Normalize()
	rows, err := r.repo.ListByOrder(ctx, orderID, page.Offset(), page.PageSize+1, false)
	if err != nil {
		return Result{}, err
	}
	hasNext := len(rows) > page.PageSize
	if hasNext {
		rows = rows[:page.PageSize]
	}
	return Result{
		Entries: rows,
		Paging:  shared.Pagination{Page: page.Page, PerPage: page.PageSize, HasNext: hasNext},
	}, nil
}

// Replay returns the full history oldest first.
func (r *Recorder) Replay(ctx context.Context, orderID string) ([]Entry, error) {
	if r == nil || r.repo == nil {
		return nil, errors.New("timeline: repository not configured")
	}
	var all []Entry
	for offset := 0; ; offset += replayChunk {
		rows, err := r.repo.ListByOrder(ctx, orderID, offset, replayChunk, true)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
		if len(rows) < replayChunk {
			return all, nil
		}
	}
}
