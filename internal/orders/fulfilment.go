package orders

import (
	"context"
	"fmt"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/documents"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/notify"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/shared"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/timeline"
)

func salesOrderOf(ctx context.Context, docs documents.Store, order Order) (documents.SalesOrder, error) {
	if !order.SalesOrderID.Valid {
		return documents.SalesOrder{}, fmt.Errorf("%w: order %s has no sales order", shared.ErrInvalidTransition, order.ID)
	}
	return docs.GetSalesOrder(ctx, order.SalesOrderID.UUID)
}

func purchaseOrderOf(ctx context.Context, docs documents.Store, order Order) (documents.PurchaseOrder, error) {
	if !order.PurchaseOrderID.Valid {
		return documents.PurchaseOrder{}, fmt.Errorf("%w: order %s has no purchase order", shared.ErrInvalidTransition, order.ID)
	}
	return docs.GetPurchaseOrder(ctx, order.PurchaseOrderID.UUID)
}

// CreateSalesOrder converts the approved quotation and moves the order to
// in_progress.
func (s *Service) CreateSalesOrder(ctx context.Context, actor shared.Actor, orderID string, ov documents.Overrides) (documents.SalesOrder, error) {
	var so documents.SalesOrder
	_, err := s.mutate(ctx, actor, "create_sales_order", orderID, "sales_order", func(ctx context.Context, tx TxRepository, order *Order) (timeline.Entry, error) {
		if err := order.requireActive(); err != nil {
			return timeline.Entry{}, err
		}
		q, err := liveQuotation(ctx, tx.Documents(), *order)
		if err != nil {
			return timeline.Entry{}, err
		}
		if q.Status != documents.QuotationApproved {
			return timeline.Entry{}, fmt.Errorf("%w: quotation %s is %s, not approved", shared.ErrInvalidTransition, q.Number, q.Status)
		}
		if so, err = s.factory.SalesOrder(ctx, tx.Documents(), q, ov); err != nil {
			return timeline.Entry{}, err
		}
		previous := order.Status
		order.SalesOrderID = validID(so.ID)
		order.TotalAmount = so.Total
		order.setStatus(StatusInProgress)
		return timeline.Entry{
			Action: timeline.ActionSalesOrderCreated,
			Description: fmt.Sprintf("Sales order %s created for %s (advance %s, balance %s)",
				so.Number, s.amount(so.Total), s.amount(so.AdvanceAmount), s.amount(so.BalanceAmount)),
			Previous: timeline.Snapshot("status", previous),
			Next:     timeline.Snapshot("status", order.Status, "legacy_status", order.LegacyStatus),
			Metadata: timeline.Snapshot("sales_order_id", so.ID.String(), "quotation_id", q.ID.String()),
		}, nil
	})
	return so, err
}

// CreatePurchaseOrder sources the sales order to a provider.
func (s *Service) CreatePurchaseOrder(ctx context.Context, actor shared.Actor, orderID, providerID string, ov documents.Overrides) (documents.PurchaseOrder, error) {
	var po documents.PurchaseOrder
	_, err := s.mutate(ctx, actor, "create_purchase_order", orderID, "purchase_order", func(ctx context.Context, tx TxRepository, order *Order) (timeline.Entry, error) {
		if err := order.requireActive(); err != nil {
			return timeline.Entry{}, err
		}
		so, err := salesOrderOf(ctx, tx.Documents(), *order)
		if err != nil {
			return timeline.Entry{}, err
		}
		if po, err = s.factory.PurchaseOrder(ctx, tx.Documents(), so, providerID, ov); err != nil {
			return timeline.Entry{}, err
		}
		order.PurchaseOrderID = validID(po.ID)
		return timeline.Entry{
			Action:      timeline.ActionPurchaseOrderCreated,
			Description: fmt.Sprintf("Purchase order %s raised to provider %s for %s", po.Number, po.ProviderID, s.amount(po.Total)),
			Next:        timeline.Snapshot("purchase_order_status", po.Status),
			Metadata:    timeline.Snapshot("purchase_order_id", po.ID.String(), "provider_id", po.ProviderID),
		}, nil
	})
	return po, err
}

// SendPurchaseOrder issues a draft purchase order to its provider.
func (s *Service) SendPurchaseOrder(ctx context.Context, actor shared.Actor, orderID string) (documents.PurchaseOrder, error) {
	var po documents.PurchaseOrder
	_, err := s.mutate(ctx, actor, "send_purchase_order", orderID, "purchase_order", func(ctx context.Context, tx TxRepository, order *Order) (timeline.Entry, error) {
		if err := order.requireActive(); err != nil {
			return timeline.Entry{}, err
		}
		var err error
		if po, err = purchaseOrderOf(ctx, tx.Documents(), *order); err != nil {
			return timeline.Entry{}, err
		}
		if po.Status != documents.PurchaseOrderDraft {
			return timeline.Entry{}, fmt.Errorf("%w: purchase order %s is %s", shared.ErrInvalidTransition, po.Number, po.Status)
		}
		po.Status, po.UpdatedAt = documents.PurchaseOrderSent, s.now().UTC()
		if err := tx.Documents().UpdatePurchaseOrder(ctx, po); err != nil {
			return timeline.Entry{}, err
		}
		return timeline.Entry{
			Action:      timeline.ActionPurchaseOrderSent,
			Description: fmt.Sprintf("Purchase order %s sent to provider %s", po.Number, po.ProviderID),
			Previous:    timeline.Snapshot("purchase_order_status", documents.PurchaseOrderDraft),
			Next:        timeline.Snapshot("purchase_order_status", po.Status),
		}, nil
	})
	if err != nil {
		return documents.PurchaseOrder{}, err
	}
	return po, nil
}

// AcknowledgePurchaseOrder records the provider's acceptance. Only the
// provider named on the purchase order may acknowledge it.
func (s *Service) AcknowledgePurchaseOrder(ctx context.Context, actor shared.Actor, orderID string) (documents.PurchaseOrder, error) {
	var po documents.PurchaseOrder
	_, err := s.mutate(ctx, actor, "acknowledge_purchase_order", orderID, "purchase_order", func(ctx context.Context, tx TxRepository, order *Order) (timeline.Entry, error) {
		if err := order.requireActive(); err != nil {
			return timeline.Entry{}, err
		}
		var err error
		if po, err = purchaseOrderOf(ctx, tx.Documents(), *order); err != nil {
			return timeline.Entry{}, err
		}
		if actor.ID != po.ProviderID {
			return timeline.Entry{}, fmt.Errorf("%w: %s is not the provider on %s", shared.ErrUnauthorized, actor.ID, po.Number)
		}
		if po.Status != documents.PurchaseOrderDraft && po.Status != documents.PurchaseOrderSent {
			return timeline.Entry{}, fmt.Errorf("%w: purchase order %s is %s", shared.ErrInvalidTransition, po.Number, po.Status)
		}
		previous := po.Status
		po.Status, po.UpdatedAt = documents.PurchaseOrderAcknowledged, s.now().UTC()
		if err := tx.Documents().UpdatePurchaseOrder(ctx, po); err != nil {
			return timeline.Entry{}, err
		}
		return timeline.Entry{
			Action:      timeline.ActionPurchaseOrderAcked,
			Description: fmt.Sprintf("Purchase order %s acknowledged by provider", po.Number),
			Previous:    timeline.Snapshot("purchase_order_status", previous),
			Next:        timeline.Snapshot("purchase_order_status", po.Status),
		}, nil
	})
	if err != nil {
		return documents.PurchaseOrder{}, err
	}
	return po, nil
}

// GenerateInvoice bills the customer and moves the order to pending_payment.
func (s *Service) GenerateInvoice(ctx context.Context, actor shared.Actor, orderID string, ov documents.Overrides) (documents.Invoice, error) {
	var inv documents.Invoice
	order, err := s.mutate(ctx, actor, "generate_invoice", orderID, "invoice", func(ctx context.Context, tx TxRepository, order *Order) (timeline.Entry, error) {
		if err := order.requireActive(); err != nil {
			return timeline.Entry{}, err
		}
		so, err := salesOrderOf(ctx, tx.Documents(), *order)
		if err != nil {
			return timeline.Entry{}, err
		}
		if inv, err = s.factory.Invoice(ctx, tx.Documents(), so, ov); err != nil {
			return timeline.Entry{}, err
		}
		previous := order.Status
		order.InvoiceID = validID(inv.ID)
		order.setStatus(StatusPendingPayment)
		return timeline.Entry{
			Action:      timeline.ActionInvoiceGenerated,
			Description: fmt.Sprintf("Invoice %s issued for %s, balance due %s", inv.Number, s.amount(inv.Total), s.amount(inv.BalanceDue)),
			Previous:    timeline.Snapshot("status", previous),
			Next:        timeline.Snapshot("status", order.Status, "legacy_status", order.LegacyStatus),
			Metadata:    timeline.Snapshot("invoice_id", inv.ID.String(), "due_at", inv.DueAt),
		}, nil
	})
	if err != nil {
		return inv, err
	}
	s.dispatch(ctx, notify.KindInvoice, order.ID, func(ctx context.Context) error {
		return s.notifier.SendInvoice(ctx, notify.Payload{
			OrderID:        order.ID,
			DocumentNumber: inv.Number,
			Amount:         s.amount(inv.BalanceDue),
			DueAt:          &inv.DueAt,
		}, order.recipient())
	})
	return inv, nil
}

// GenerateBill records the provider payable for the purchase order. It is
// allowed on completed orders.
func (s *Service) GenerateBill(ctx context.Context, actor shared.Actor, orderID string, ov documents.Overrides) (documents.Bill, error) {
	var (
		bill       documents.Bill
		providerID string
	)
	order, err := s.mutate(ctx, actor, "generate_bill", orderID, "bill", func(ctx context.Context, tx TxRepository, order *Order) (timeline.Entry, error) {
		if err := order.requireNotCancelled(); err != nil {
			return timeline.Entry{}, err
		}
		po, err := purchaseOrderOf(ctx, tx.Documents(), *order)
		if err != nil {
			return timeline.Entry{}, err
		}
		if bill, err = s.factory.Bill(ctx, tx.Documents(), po, ov); err != nil {
			return timeline.Entry{}, err
		}
		order.BillID = validID(bill.ID)
		providerID = po.ProviderID
		return timeline.Entry{
			Action:      timeline.ActionBillGenerated,
			Description: fmt.Sprintf("Bill %s recorded for %s, balance due %s", bill.Number, s.amount(bill.Total), s.amount(bill.BalanceDue)),
			Next:        timeline.Snapshot("bill_status", bill.Status),
			Metadata:    timeline.Snapshot("bill_id", bill.ID.String(), "provider_id", po.ProviderID),
		}, nil
	})
	if err != nil {
		return bill, err
	}
	s.dispatch(ctx, notify.KindBill, order.ID, func(ctx context.Context) error {
		return s.notifier.SendBill(ctx, notify.Payload{
			OrderID:        order.ID,
			DocumentNumber: bill.Number,
			Amount:         s.amount(bill.BalanceDue),
			DueAt:          &bill.DueAt,
		}, notify.Recipient{ID: providerID})
	})
	return bill, nil
}
