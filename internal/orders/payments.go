package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/documents"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/ledger"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/shared"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/timeline"
)

// PaymentInput describes a transaction against an order.
type PaymentInput struct {
	Type           ledger.TransactionType
	Amount         decimal.Decimal
	Method         string
	Reference      string
	Status         ledger.Status
	IdempotencyKey string
}

// PostTransaction records a payment or refund. A completed customer balance
// payment that clears the sales order completes the order.
func (s *Service) PostTransaction(ctx context.Context, actor shared.Actor, orderID string, in PaymentInput) (ledger.Posting, error) {
	if in.IdempotencyKey != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, orderID+":"+in.IdempotencyKey, idempotencyModule); err != nil {
			return ledger.Posting{}, err
		}
	}
	var posting ledger.Posting
	_, err := s.mutate(ctx, actor, "post_transaction", orderID, "transaction", func(ctx context.Context, tx TxRepository, order *Order) (timeline.Entry, error) {
		var guard error
		switch {
		case in.Type.Refund():
		case in.Type.Side() == ledger.SideProvider:
			guard = order.requireNotCancelled()
		default:
			guard = order.requireActive()
		}
		if guard != nil {
			return timeline.Entry{}, guard
		}
		var err error
		posting, err = s.ledger.Post(ctx, tx.Ledger(), tx.Documents(), order.refs(), actor, ledger.Input{
			OrderID:   order.ID,
			Type:      in.Type,
			Amount:    in.Amount,
			Method:    in.Method,
			Reference: in.Reference,
			Status:    in.Status,
		})
		if err != nil {
			return timeline.Entry{}, err
		}
		txn := posting.Transaction
		previous, previousPayment := order.Status, order.PaymentStatus
		if posting.CustomerSettled {
			if err := s.completeSalesOrder(ctx, tx.Documents(), posting.SalesOrder); err != nil {
				return timeline.Entry{}, err
			}
			order.setStatus(StatusCompleted)
			order.PaymentStatus = PaymentPaid
		}
		if txn.Status == ledger.StatusFailed && txn.Type.Side() == ledger.SideCustomer && order.PaymentStatus != PaymentPaid {
			order.PaymentStatus = PaymentFailed
		}
		description := fmt.Sprintf("%s of %s via %s recorded (%s, %s)", txn.Type, s.amount(txn.Amount), txn.Method, txn.Number, txn.Status)
		if posting.CustomerSettled {
			description += "; customer balance settled"
		}
		return timeline.Entry{
			Action:      timeline.ActionTransactionPosted,
			Description: description,
			Previous:    timeline.Snapshot("status", previous, "payment_status", previousPayment),
			Next:        timeline.Snapshot("status", order.Status, "payment_status", order.PaymentStatus),
			Metadata: timeline.Snapshot(
				"transaction_id", txn.ID.String(),
				"type", txn.Type,
				"amount", txn.Amount.StringFixed(2),
				"receipt_number", txn.ReceiptNumber,
			),
		}, nil
	})
	if err != nil {
		s.releaseKey(ctx, orderID, in.IdempotencyKey)
		return ledger.Posting{}, err
	}
	return posting, nil
}

func (s *Service) releaseKey(ctx context.Context, orderID, key string) {
	if key == "" || s.idempotency == nil {
		return
	}
	if err := s.idempotency.Delete(context.WithoutCancel(ctx), orderID+":"+key, idempotencyModule); err != nil {
		s.logger.Warn("idempotency key release failed", slog.String("order_id", orderID), slog.Any("error", err))
	}
}

func (s *Service) completeSalesOrder(ctx context.Context, docs documents.Store, so *documents.SalesOrder) error {
	if so == nil || so.Status == documents.SalesOrderCompleted {
		return nil
	}
	so.Status, so.UpdatedAt = documents.SalesOrderCompleted, s.now().UTC()
	return docs.UpdateSalesOrder(ctx, *so)
}

// MarkInvoicePaid closes a fully paid invoice and completes the order. The
// linked sales order must be settled too, since an invoice issued with
// override lines can total less than the sales order.
func (s *Service) MarkInvoicePaid(ctx context.Context, actor shared.Actor, orderID string) (documents.Invoice, error) {
	var inv documents.Invoice
	_, err := s.mutate(ctx, actor, "mark_invoice_paid", orderID, "invoice", func(ctx context.Context, tx TxRepository, order *Order) (timeline.Entry, error) {
		if err := order.requireCustomerDecision(actor); err != nil {
			return timeline.Entry{}, err
		}
		if err := order.requireActive(); err != nil {
			return timeline.Entry{}, err
		}
		if !order.InvoiceID.Valid {
			return timeline.Entry{}, fmt.Errorf("%w: order %s has no invoice", shared.ErrInvalidTransition, order.ID)
		}
		var err error
		if inv, err = tx.Documents().GetInvoice(ctx, order.InvoiceID.UUID); err != nil {
			return timeline.Entry{}, err
		}
		if !inv.BalanceDue.IsZero() {
			return timeline.Entry{}, fmt.Errorf("%w: invoice %s still has %s due", shared.ErrInvalidTransition, inv.Number, s.amount(inv.BalanceDue))
		}
		if inv.Status == documents.InvoiceCancelled {
			return timeline.Entry{}, fmt.Errorf("%w: invoice %s is cancelled", shared.ErrInvalidTransition, inv.Number)
		}
		var so *documents.SalesOrder
		if order.SalesOrderID.Valid {
			found, err := tx.Documents().GetSalesOrder(ctx, order.SalesOrderID.UUID)
			if err != nil && !errors.Is(err, shared.ErrNotFound) {
				return timeline.Entry{}, err
			}
			if err == nil {
				if !found.BalanceAmount.IsZero() {
					return timeline.Entry{}, fmt.Errorf("%w: sales order %s still has %s outstanding", shared.ErrInvalidTransition, found.Number, s.amount(found.BalanceAmount))
				}
				so = &found
			}
		}
		now := s.now().UTC()
		if inv.Status != documents.InvoicePaid {
			inv.Status, inv.UpdatedAt = documents.InvoicePaid, now
			if err := tx.Documents().UpdateInvoice(ctx, inv); err != nil {
				return timeline.Entry{}, err
			}
		}
		if err := s.completeSalesOrder(ctx, tx.Documents(), so); err != nil {
			return timeline.Entry{}, err
		}
		previous, previousLegacy := order.Status, order.LegacyStatus
		order.setStatus(StatusCompleted)
		order.PaymentStatus = PaymentPaid
		return timeline.Entry{
			Action:      timeline.ActionInvoicePaid,
			Description: fmt.Sprintf("Invoice %s marked paid; order completed", inv.Number),
			Previous:    timeline.Snapshot("status", previous, "legacy_status", previousLegacy),
			Next:        timeline.Snapshot("status", order.Status, "legacy_status", order.LegacyStatus, "payment_status", order.PaymentStatus),
			Metadata:    timeline.Snapshot("invoice_id", inv.ID.String()),
		}, nil
	})
	if err != nil {
		return documents.Invoice{}, err
	}
	return inv, nil
}
