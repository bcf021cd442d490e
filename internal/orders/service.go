package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/documents"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/ledger"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/notify"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/platform/cache"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/shared"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/timeline"
)

// OrderNumbers allocates order identifiers.
type OrderNumbers interface {
	NextOrderID(ctx context.Context, exists func(context.Context, string) (bool, error)) (string, error)
}

// Locker guards a per-order critical section across processes.
type Locker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

// TimelinePort records and reads the audit trail.
type TimelinePort interface {
	Append(ctx context.Context, entry timeline.Entry)
	Query(ctx context.Context, orderID string, page shared.Page) (timeline.Result, error)
}

// IdempotencyPort deduplicates client retries of payment posts.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key, module string) error
}

// MetricsPort counts lifecycle operations by outcome.
type MetricsPort interface {
	ObserveTransition(operation, outcome string)
}

// Deps collects Service collaborators. Locker, Idempotency and Metrics are
// optional.
type Deps struct {
	Repo              RepositoryPort
	Numbers           OrderNumbers
	Factory           *documents.Factory
	Ledger            *ledger.Service
	Timeline          TimelinePort
	Notifier          notify.Notifier
	Locker            Locker
	Idempotency       IdempotencyPort
	Metrics           MetricsPort
	Money             timeline.MoneyFormatter
	Logger            *slog.Logger
	SideEffectTimeout time.Duration
	Clock             func() time.Time
}

// Service is the order state machine.
type Service struct {
	repo              RepositoryPort
	numbers           OrderNumbers
	factory           *documents.Factory
	ledger            *ledger.Service
	timeline          TimelinePort
	notifier          notify.Notifier
	locker            Locker
	idempotency       IdempotencyPort
	metrics           MetricsPort
	money             timeline.MoneyFormatter
	logger            *slog.Logger
	sideEffectTimeout time.Duration
	now               func() time.Time
}

// NewService constructs the order service.
func NewService(d Deps) *Service {
	s := &Service{
		repo:              d.Repo,
		numbers:           d.Numbers,
		factory:           d.Factory,
		ledger:            d.Ledger,
		timeline:          d.Timeline,
		notifier:          d.Notifier,
		locker:            d.Locker,
		idempotency:       d.Idempotency,
		metrics:           d.Metrics,
		money:             d.Money,
		logger:            d.Logger,
		sideEffectTimeout: d.SideEffectTimeout,
		now:               d.Clock,
	}
	if s.notifier == nil {
		s.notifier = notify.NopNotifier{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.sideEffectTimeout <= 0 {
		s.sideEffectTimeout = 3 * time.Second
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

const idempotencyModule = "orders.transaction"

type mutation func(ctx context.Context, tx TxRepository, order *Order) (timeline.Entry, error)

// mutate runs fn against the locked order row and persists the order when
// fn succeeds. The returned entry is appended to the timeline after commit.
func (s *Service) mutate(ctx context.Context, actor shared.Actor, op, orderID, class string, fn mutation) (order Order, err error) {
	defer func() { s.observe(op, err) }()
	if err = actor.Validate(); err != nil {
		return Order{}, err
	}
	if s.locker != nil {
		release, lockErr := s.locker.Acquire(ctx, shared.OrderLockKey(orderID, class))
		if lockErr != nil {
			if errors.Is(lockErr, cache.ErrLockHeld) {
				return Order{}, fmt.Errorf("%w: order %s is busy", shared.ErrInvalidTransition, orderID)
			}
			return Order{}, lockErr
		}
		defer release()
	}
	var entry timeline.Entry
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.LockOrder(ctx, orderID)
		if err != nil {
			return err
		}
		entry, err = fn(ctx, tx, &current)
		if err != nil {
			return err
		}
		current.UpdatedAt = s.now().UTC()
		if err := tx.UpdateOrder(ctx, current); err != nil {
			return err
		}
		order = current
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	s.record(ctx, actor, order.ID, entry)
	return order, nil
}

func (s *Service) record(ctx context.Context, actor shared.Actor, orderID string, entry timeline.Entry) {
	if s.timeline == nil || entry.Action == "" {
		return
	}
	entry.OrderID = orderID
	entry.ActorID = actor.ID
	entry.ActorRole = string(actor.Role)
	s.timeline.Append(ctx, entry)
}

func (s *Service) dispatch(ctx context.Context, kind notify.Kind, orderID string, send func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.sideEffectTimeout)
	defer cancel()
	if err := send(ctx); err != nil {
		s.logger.Warn("notification dispatch failed",
			slog.String("kind", string(kind)),
			slog.String("order_id", orderID),
			slog.Any("error", err))
	}
}

func (s *Service) observe(op string, err error) {
	if s.metrics == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = strings.ToLower(shared.CodeOf(err))
	}
	s.metrics.ObserveTransition(op, outcome)
}

func (s *Service) amount(d decimal.Decimal) string {
	return s.money.Format(d)
}

func (in CreateInput) validate() error {
	if strings.TrimSpace(in.CustomerID) == "" {
		return fmt.Errorf("%w: customer id required", shared.ErrValidation)
	}
	if strings.TrimSpace(in.Pickup) == "" || strings.TrimSpace(in.Dropoff) == "" {
		return fmt.Errorf("%w: pickup and dropoff required", shared.ErrValidation)
	}
	return nil
}

// CreateOrder books a new order in status primary.
func (s *Service) CreateOrder(ctx context.Context, actor shared.Actor, in CreateInput) (order Order, err error) {
	defer func() { s.observe("create_order", err) }()
	if err = actor.Validate(); err != nil {
		return Order{}, err
	}
	if in.CustomerID == "" && actor.Role == shared.RoleUser {
		in.CustomerID = actor.ID
	}
	if err = in.validate(); err != nil {
		return Order{}, err
	}
	id, err := s.numbers.NextOrderID(ctx, s.repo.OrderExists)
	if err != nil {
		return Order{}, err
	}
	now := s.now().UTC()
	order = Order{
		ID:            id,
		PaymentStatus: PaymentPending,
		CustomerID:    strings.TrimSpace(in.CustomerID),
		Contact:       in.Contact,
		Pickup:        strings.TrimSpace(in.Pickup),
		Dropoff:       strings.TrimSpace(in.Dropoff),
		ScheduledAt:   in.ScheduledAt,
		Notes:         in.Notes,
		TotalAmount:   decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	order.setStatus(StatusPrimary)
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		return tx.InsertOrder(ctx, order)
	})
	if err != nil {
		return Order{}, err
	}
	s.record(ctx, actor, order.ID, timeline.Entry{
		Action:      timeline.ActionOrderCreated,
		Description: fmt.Sprintf("Order %s booked from %s to %s", order.ID, order.Pickup, order.Dropoff),
		Next:        timeline.Snapshot("status", order.Status, "legacy_status", order.LegacyStatus),
	})
	s.dispatch(ctx, notify.KindBookingConfirmation, order.ID, func(ctx context.Context) error {
		return s.notifier.SendBookingConfirmation(ctx, notify.Payload{OrderID: order.ID}, order.recipient())
	})
	return order, nil
}

// UpdateOrder edits booking details while the order is still being quoted.
func (s *Service) UpdateOrder(ctx context.Context, actor shared.Actor, orderID string, in UpdateInput) (Order, error) {
	if in.empty() {
		return Order{}, fmt.Errorf("%w: nothing to update", shared.ErrValidation)
	}
	return s.mutate(ctx, actor, "update_order", orderID, "order", func(ctx context.Context, tx TxRepository, order *Order) (timeline.Entry, error) {
		switch order.Status {
		case StatusPrimary, StatusUpdated, StatusPendingFeedback:
		default:
			return timeline.Entry{}, fmt.Errorf("%w: order %s cannot be edited in status %s", shared.ErrInvalidTransition, order.ID, order.Status)
		}
		changed := map[string]any{}
		if in.Contact != nil {
			order.Contact = *in.Contact
			changed["contact"] = *in.Contact
		}
		if in.Pickup != nil {
			if strings.TrimSpace(*in.Pickup) == "" {
				return timeline.Entry{}, fmt.Errorf("%w: pickup required", shared.ErrValidation)
			}
			order.Pickup = strings.TrimSpace(*in.Pickup)
			changed["pickup"] = order.Pickup
		}
		if in.Dropoff != nil {
			if strings.TrimSpace(*in.Dropoff) == "" {
				return timeline.Entry{}, fmt.Errorf("%w: dropoff required", shared.ErrValidation)
			}
			order.Dropoff = strings.TrimSpace(*in.Dropoff)
			changed["dropoff"] = order.Dropoff
		}
		if in.ScheduledAt != nil {
			at := in.ScheduledAt.UTC()
			order.ScheduledAt = &at
			changed["scheduled_at"] = at
		}
		if in.Notes != nil {
			order.Notes = *in.Notes
			changed["notes"] = order.Notes
		}
		previous := order.Status
		if order.Status == StatusPrimary {
			order.setStatus(StatusUpdated)
		}
		order.UpdateCount++
		return timeline.Entry{
			Action:      timeline.ActionOrderUpdated,
			Description: fmt.Sprintf("Order details updated (update #%d)", order.UpdateCount),
			Previous:    timeline.Snapshot("status", previous),
			Next:        timeline.Snapshot("status", order.Status),
			Metadata:    map[string]any{"update_number": order.UpdateCount, "changes": changed},
		}, nil
	})
}

// CancelOrder cancels an open order and every open document hanging off it.
func (s *Service) CancelOrder(ctx context.Context, actor shared.Actor, orderID, reason string) (Order, error) {
	order, err := s.mutate(ctx, actor, "cancel_order", orderID, "order", func(ctx context.Context, tx TxRepository, order *Order) (timeline.Entry, error) {
		if err := order.requireActive(); err != nil {
			return timeline.Entry{}, err
		}
		cancelled, err := s.cancelDocuments(ctx, tx.Documents(), *order)
		if err != nil {
			return timeline.Entry{}, err
		}
		previous, previousLegacy := order.Status, order.LegacyStatus
		order.setStatus(StatusCancelled)
		description := fmt.Sprintf("Order %s cancelled", order.ID)
		if reason = strings.TrimSpace(reason); reason != "" {
			description += ": " + reason
		}
		return timeline.Entry{
			Action:      timeline.ActionOrderCancelled,
			Description: description,
			Previous:    timeline.Snapshot("status", previous, "legacy_status", previousLegacy),
			Next:        timeline.Snapshot("status", order.Status, "legacy_status", order.LegacyStatus),
			Metadata:    map[string]any{"reason": reason, "cancelled_documents": cancelled},
		}, nil
	})
	if err != nil {
		return Order{}, err
	}
	s.dispatch(ctx, notify.KindBookingCancellation, order.ID, func(ctx context.Context) error {
		return s.notifier.SendBookingCancellation(ctx, notify.Payload{OrderID: order.ID, Reason: reason}, order.recipient())
	})
	return order, nil
}

func (s *Service) cancelDocuments(ctx context.Context, docs documents.Store, order Order) ([]string, error) {
	now := s.now().UTC()
	var cancelled []string
	if order.SalesOrderID.Valid {
		so, err := docs.GetSalesOrder(ctx, order.SalesOrderID.UUID)
		if err != nil {
			return nil, err
		}
		if so.Status != documents.SalesOrderCompleted && so.Status != documents.SalesOrderCancelled {
			so.Status, so.UpdatedAt = documents.SalesOrderCancelled, now
			if err := docs.UpdateSalesOrder(ctx, so); err != nil {
				return nil, err
			}
			cancelled = append(cancelled, so.Number)
		}
	}
	if order.PurchaseOrderID.Valid {
		po, err := docs.GetPurchaseOrder(ctx, order.PurchaseOrderID.UUID)
		if err != nil {
			return nil, err
		}
		if po.Status != documents.PurchaseOrderCompleted && po.Status != documents.PurchaseOrderCancelled {
			po.Status, po.UpdatedAt = documents.PurchaseOrderCancelled, now
			if err := docs.UpdatePurchaseOrder(ctx, po); err != nil {
				return nil, err
			}
			cancelled = append(cancelled, po.Number)
		}
	}
	if order.InvoiceID.Valid {
		inv, err := docs.GetInvoice(ctx, order.InvoiceID.UUID)
		if err != nil {
			return nil, err
		}
		if inv.Status.Open() {
			inv.Status, inv.UpdatedAt = documents.InvoiceCancelled, now
			if err := docs.UpdateInvoice(ctx, inv); err != nil {
				return nil, err
			}
			cancelled = append(cancelled, inv.Number)
		}
	}
	if order.BillID.Valid {
		bill, err := docs.GetBill(ctx, order.BillID.UUID)
		if err != nil {
			return nil, err
		}
		if bill.Status.Open() {
			bill.Status, bill.UpdatedAt = documents.InvoiceCancelled, now
			if err := docs.UpdateBill(ctx, bill); err != nil {
				return nil, err
			}
			cancelled = append(cancelled, bill.Number)
		}
	}
	return cancelled, nil
}

// GetOrder loads an order.
func (s *Service) GetOrder(ctx context.Context, id string) (Order, error) {
	return s.repo.GetOrder(ctx, id)
}

// ListOrders pages through orders, newest first.
func (s *Service) ListOrders(ctx context.Context, filter ListFilter) ([]Order, shared.Pagination, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, shared.Pagination{}, fmt.Errorf("%w: unknown status %q", shared.ErrValidation, filter.Status)
	}
	filter.Page = filter.Page.Normalize()
	items, total, err := s.repo.ListOrders(ctx, filter)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(filter.Page.Page, filter.Page.PageSize, total), nil
}

// Timeline returns a page of the order's audit trail, newest first.
func (s *Service) Timeline(ctx context.Context, orderID string, page shared.Page) (timeline.Result, error) {
	if _, err := s.repo.GetOrder(ctx, orderID); err != nil {
		return timeline.Result{}, err
	}
	if s.timeline == nil {
		return timeline.Result{}, errors.New("orders: timeline not configured")
	}
	return s.timeline.Query(ctx, orderID, page)
}

// TransactionsFor lists an order's transactions with completed-only totals.
func (s *Service) TransactionsFor(ctx context.Context, orderID string) ([]ledger.Transaction, ledger.Totals, error) {
	if _, err := s.repo.GetOrder(ctx, orderID); err != nil {
		return nil, ledger.Totals{}, err
	}
	return s.ledger.TransactionsFor(ctx, s.repo.Ledger(), orderID)
}
