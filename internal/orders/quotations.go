package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/documents"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/notify"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/shared"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/timeline"
)

// QuotationRequest prices an order.
type QuotationRequest struct {
	Lines      []documents.LineInput
	Tax        decimal.Decimal
	Discount   decimal.Decimal
	ValidUntil time.Time
}

func liveQuotation(ctx context.Context, docs documents.Store, order Order) (documents.Quotation, error) {
	if !order.QuotationID.Valid {
		return documents.Quotation{}, fmt.Errorf("%w: order %s has no quotation", shared.ErrInvalidTransition, order.ID)
	}
	return docs.GetQuotation(ctx, order.QuotationID.UUID)
}

// CreateQuotation creates the order's quotation in draft. When a live
// quotation already exists it is returned with shared.ErrAlreadyExists.
func (s *Service) CreateQuotation(ctx context.Context, actor shared.Actor, orderID string, req QuotationRequest) (documents.Quotation, error) {
	var q documents.Quotation
	_, err := s.mutate(ctx, actor, "create_quotation", orderID, "quotation", func(ctx context.Context, tx TxRepository, order *Order) (timeline.Entry, error) {
		if err := order.requireActive(); err != nil {
			return timeline.Entry{}, err
		}
		var err error
		q, err = s.factory.Quotation(ctx, tx.Documents(), documents.QuotationInput{
			OrderID:    order.ID,
			Lines:      req.Lines,
			Tax:        req.Tax,
			Discount:   req.Discount,
			ValidUntil: req.ValidUntil,
		})
		if err != nil {
			return timeline.Entry{}, err
		}
		order.QuotationID = validID(q.ID)
		order.TotalAmount = q.Total
		return timeline.Entry{
			Action:      timeline.ActionQuotationCreated,
			Description: fmt.Sprintf("Quotation %s created for %s", q.Number, s.amount(q.Total)),
			Next:        timeline.Snapshot("quotation_status", q.Status),
			Metadata:    timeline.Snapshot("quotation_id", q.ID.String(), "number", q.Number, "total", q.Total.StringFixed(2), "valid_until", q.ValidUntil),
		}, nil
	})
	return q, err
}

// ShareQuotation sends (or re-sends) the quotation to the customer.
func (s *Service) ShareQuotation(ctx context.Context, actor shared.Actor, orderID string) (documents.Quotation, error) {
	var q documents.Quotation
	order, err := s.mutate(ctx, actor, "share_quotation", orderID, "quotation", func(ctx context.Context, tx TxRepository, order *Order) (timeline.Entry, error) {
		if err := order.requireActive(); err != nil {
			return timeline.Entry{}, err
		}
		var err error
		if q, err = liveQuotation(ctx, tx.Documents(), *order); err != nil {
			return timeline.Entry{}, err
		}
		if q.Status != documents.QuotationDraft && q.Status != documents.QuotationSent {
			return timeline.Entry{}, fmt.Errorf("%w: quotation %s is %s", shared.ErrInvalidTransition, q.Number, q.Status)
		}
		now := s.now().UTC()
		if q.Expired(now) {
			return timeline.Entry{}, fmt.Errorf("%w: quotation %s validity ended %s", shared.ErrExpired, q.Number, q.ValidUntil.Format(time.RFC3339))
		}
		resend := q.Status == documents.QuotationSent
		q.Status, q.UpdatedAt = documents.QuotationSent, now
		if err := tx.Documents().UpdateQuotation(ctx, q); err != nil {
			return timeline.Entry{}, err
		}
		previous := order.Status
		if order.Status == StatusPrimary || order.Status == StatusUpdated {
			order.setStatus(StatusQuotationShared)
		}
		description := fmt.Sprintf("Quotation %s shared with customer", q.Number)
		if resend {
			description = fmt.Sprintf("Quotation %s re-sent to customer", q.Number)
		}
		return timeline.Entry{
			Action:      timeline.ActionQuotationShared,
			Description: description,
			Previous:    timeline.Snapshot("status", previous),
			Next:        timeline.Snapshot("status", order.Status, "quotation_status", q.Status),
			Metadata:    timeline.Snapshot("quotation_id", q.ID.String(), "resend", resend),
		}, nil
	})
	if err != nil {
		return documents.Quotation{}, err
	}
	s.dispatch(ctx, notify.KindQuotation, order.ID, func(ctx context.Context) error {
		return s.notifier.SendQuotation(ctx, notify.Payload{
			OrderID:        order.ID,
			DocumentNumber: q.Number,
			Amount:         s.amount(q.Total),
			DueAt:          &q.ValidUntil,
		}, order.recipient())
	})
	return q, nil
}

// ApproveQuotation accepts a sent quotation before it expires and confirms
// the order.
func (s *Service) ApproveQuotation(ctx context.Context, actor shared.Actor, orderID string) (documents.Quotation, error) {
	var q documents.Quotation
	_, err := s.mutate(ctx, actor, "approve_quotation", orderID, "quotation", func(ctx context.Context, tx TxRepository, order *Order) (timeline.Entry, error) {
		if err := order.requireCustomerDecision(actor); err != nil {
			return timeline.Entry{}, err
		}
		if err := order.requireActive(); err != nil {
			return timeline.Entry{}, err
		}
		var err error
		if q, err = liveQuotation(ctx, tx.Documents(), *order); err != nil {
			return timeline.Entry{}, err
		}
		if q.Status != documents.QuotationSent {
			return timeline.Entry{}, fmt.Errorf("%w: quotation %s is %s", shared.ErrInvalidTransition, q.Number, q.Status)
		}
		now := s.now().UTC()
		if q.Expired(now) {
			return timeline.Entry{}, fmt.Errorf("%w: quotation %s validity ended %s", shared.ErrExpired, q.Number, q.ValidUntil.Format(time.RFC3339))
		}
		q.Status, q.UpdatedAt = documents.QuotationApproved, now
		if err := tx.Documents().UpdateQuotation(ctx, q); err != nil {
			return timeline.Entry{}, err
		}
		previous, previousLegacy := order.Status, order.LegacyStatus
		order.setStatus(StatusConfirmed)
		return timeline.Entry{
			Action:      timeline.ActionQuotationApproved,
			Description: fmt.Sprintf("Quotation %s approved for %s", q.Number, s.amount(q.Total)),
			Previous:    timeline.Snapshot("status", previous, "legacy_status", previousLegacy),
			Next:        timeline.Snapshot("status", order.Status, "legacy_status", order.LegacyStatus, "quotation_status", q.Status),
			Metadata:    timeline.Snapshot("quotation_id", q.ID.String()),
		}, nil
	})
	if err != nil {
		return documents.Quotation{}, err
	}
	return q, nil
}

// RejectQuotation declines a draft or sent quotation. The order status is
// unchanged and a new quotation may be created.
func (s *Service) RejectQuotation(ctx context.Context, actor shared.Actor, orderID, reason string) (documents.Quotation, error) {
	var q documents.Quotation
	_, err := s.mutate(ctx, actor, "reject_quotation", orderID, "quotation", func(ctx context.Context, tx TxRepository, order *Order) (timeline.Entry, error) {
		if err := order.requireCustomerDecision(actor); err != nil {
			return timeline.Entry{}, err
		}
		if err := order.requireActive(); err != nil {
			return timeline.Entry{}, err
		}
		var err error
		if q, err = liveQuotation(ctx, tx.Documents(), *order); err != nil {
			return timeline.Entry{}, err
		}
		if q.Status != documents.QuotationDraft && q.Status != documents.QuotationSent {
			return timeline.Entry{}, fmt.Errorf("%w: quotation %s is %s", shared.ErrInvalidTransition, q.Number, q.Status)
		}
		previous := q.Status
		q.Status, q.UpdatedAt = documents.QuotationRejected, s.now().UTC()
		if err := tx.Documents().UpdateQuotation(ctx, q); err != nil {
			return timeline.Entry{}, err
		}
		return timeline.Entry{
			Action:      timeline.ActionQuotationRejected,
			Description: fmt.Sprintf("Quotation %s rejected", q.Number),
			Previous:    timeline.Snapshot("quotation_status", previous),
			Next:        timeline.Snapshot("quotation_status", q.Status),
			Metadata:    timeline.Snapshot("quotation_id", q.ID.String(), "reason", reason),
		}, nil
	})
	if err != nil {
		return documents.Quotation{}, err
	}
	return q, nil
}
