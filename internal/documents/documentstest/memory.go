// Package documentstest provides an in-memory documents.Store for tests.
package documentstest

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/documents"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/shared"
)

// MemoryStore is an in-process documents.Store. It enforces the same
// one-successor-per-predecessor rules as the SQL schema.
type MemoryStore struct {
	mu             sync.Mutex
	quotations     map[uuid.UUID]documents.Quotation
	salesOrders    map[uuid.UUID]documents.SalesOrder
	purchaseOrders map[uuid.UUID]documents.PurchaseOrder
	invoices       map[uuid.UUID]documents.Invoice
	bills          map[uuid.UUID]documents.Bill
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		quotations:     map[uuid.UUID]documents.Quotation{},
		salesOrders:    map[uuid.UUID]documents.SalesOrder{},
		purchaseOrders: map[uuid.UUID]documents.PurchaseOrder{},
		invoices:       map[uuid.UUID]documents.Invoice{},
		bills:          map[uuid.UUID]documents.Bill{},
	}
}

func duplicate(what string) error {
	return fmt.Errorf("%w: %s", shared.ErrAlreadyExists, what)
}

func missing(what string) error {
	return fmt.Errorf("%w: %s", shared.ErrNotFound, what)
}

func (m *MemoryStore) InsertQuotation(_ context.Context, q documents.Quotation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.quotations {
		if existing.OrderID == q.OrderID && existing.Status != documents.QuotationRejected {
			return duplicate("live quotation for order " + q.OrderID)
		}
	}
	m.quotations[q.ID] = q
	return nil
}

func (m *MemoryStore) GetQuotation(_ context.Context, id uuid.UUID) (documents.Quotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quotations[id]
	if !ok {
		return documents.Quotation{}, missing("quotation " + id.String())
	}
	return q, nil
}

func (m *MemoryStore) LiveQuotationForOrder(_ context.Context, orderID string) (documents.Quotation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, q := range m.quotations {
		if q.OrderID == orderID && q.Status != documents.QuotationRejected {
			return q, nil
		}
	}
	return documents.Quotation{}, missing("quotation for order " + orderID)
}

func (m *MemoryStore) UpdateQuotation(_ context.Context, q documents.Quotation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.quotations[q.ID]
	if !ok {
		return missing("quotation " + q.ID.String())
	}
	existing.Status, existing.AdvanceAmount, existing.UpdatedAt = q.Status, q.AdvanceAmount, q.UpdatedAt
	m.quotations[q.ID] = existing
	return nil
}

func (m *MemoryStore) InsertSalesOrder(_ context.Context, so documents.SalesOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.salesOrders {
		if existing.QuotationID == so.QuotationID {
			return duplicate("sales order for quotation " + so.QuotationID.String())
		}
	}
	m.salesOrders[so.ID] = so
	return nil
}

func (m *MemoryStore) GetSalesOrder(_ context.Context, id uuid.UUID) (documents.SalesOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	so, ok := m.salesOrders[id]
	if !ok {
		return documents.SalesOrder{}, missing("sales order " + id.String())
	}
	return so, nil
}

func (m *MemoryStore) SalesOrderForQuotation(_ context.Context, quotationID uuid.UUID) (documents.SalesOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, so := range m.salesOrders {
		if so.QuotationID == quotationID {
			return so, nil
		}
	}
	return documents.SalesOrder{}, missing("sales order for quotation " + quotationID.String())
}

func (m *MemoryStore) UpdateSalesOrder(_ context.Context, so documents.SalesOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.salesOrders[so.ID]
	if !ok {
		return missing("sales order " + so.ID.String())
	}
	if so.BalanceAmount.IsNegative() {
		return fmt.Errorf("%w: negative balance", shared.ErrValidation)
	}
	existing.Status, existing.AdvanceAmount, existing.BalanceAmount, existing.UpdatedAt = so.Status, so.AdvanceAmount, so.BalanceAmount, so.UpdatedAt
	m.salesOrders[so.ID] = existing
	return nil
}

func (m *MemoryStore) InsertPurchaseOrder(_ context.Context, po documents.PurchaseOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.purchaseOrders {
		if existing.SalesOrderID == po.SalesOrderID {
			return duplicate("purchase order for sales order " + po.SalesOrderID.String())
		}
	}
	m.purchaseOrders[po.ID] = po
	return nil
}

func (m *MemoryStore) GetPurchaseOrder(_ context.Context, id uuid.UUID) (documents.PurchaseOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	po, ok := m.purchaseOrders[id]
	if !ok {
		return documents.PurchaseOrder{}, missing("purchase order " + id.String())
	}
	return po, nil
}

func (m *MemoryStore) PurchaseOrderForSalesOrder(_ context.Context, salesOrderID uuid.UUID) (documents.PurchaseOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, po := range m.purchaseOrders {
		if po.SalesOrderID == salesOrderID {
			return po, nil
		}
	}
	return documents.PurchaseOrder{}, missing("purchase order for sales order " + salesOrderID.String())
}

func (m *MemoryStore) UpdatePurchaseOrder(_ context.Context, po documents.PurchaseOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.purchaseOrders[po.ID]
	if !ok {
		return missing("purchase order " + po.ID.String())
	}
	if po.BalanceAmount.IsNegative() {
		return fmt.Errorf("%w: negative balance", shared.ErrValidation)
	}
	existing.Status, existing.AdvanceAmount, existing.BalanceAmount, existing.UpdatedAt = po.Status, po.AdvanceAmount, po.BalanceAmount, po.UpdatedAt
	m.purchaseOrders[po.ID] = existing
	return nil
}

func (m *MemoryStore) InsertInvoice(_ context.Context, inv documents.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.invoices {
		if existing.SalesOrderID == inv.SalesOrderID {
			return duplicate("invoice for sales order " + inv.SalesOrderID.String())
		}
	}
	m.invoices[inv.ID] = inv
	return nil
}

func (m *MemoryStore) GetInvoice(_ context.Context, id uuid.UUID) (documents.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invoices[id]
	if !ok {
		return documents.Invoice{}, missing("invoice " + id.String())
	}
	return inv, nil
}

func (m *MemoryStore) InvoiceForSalesOrder(_ context.Context, salesOrderID uuid.UUID) (documents.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invoices {
		if inv.SalesOrderID == salesOrderID {
			return inv, nil
		}
	}
	return documents.Invoice{}, missing("invoice for sales order " + salesOrderID.String())
}

func (m *MemoryStore) UpdateInvoice(_ context.Context, inv documents.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.invoices[inv.ID]
	if !ok {
		return missing("invoice " + inv.ID.String())
	}
	existing.Status, existing.AdvancePaid, existing.BalanceDue, existing.UpdatedAt = inv.Status, inv.AdvancePaid, inv.BalanceDue, inv.UpdatedAt
	m.invoices[inv.ID] = existing
	return nil
}

func (m *MemoryStore) InsertBill(_ context.Context, b documents.Bill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.bills {
		if existing.PurchaseOrderID == b.PurchaseOrderID {
			return duplicate("bill for purchase order " + b.PurchaseOrderID.String())
		}
	}
	m.bills[b.ID] = b
	return nil
}

func (m *MemoryStore) GetBill(_ context.Context, id uuid.UUID) (documents.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bills[id]
	if !ok {
		return documents.Bill{}, missing("bill " + id.String())
	}
	return b, nil
}

func (m *MemoryStore) BillForPurchaseOrder(_ context.Context, purchaseOrderID uuid.UUID) (documents.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bills {
		if b.PurchaseOrderID == purchaseOrderID {
			return b, nil
		}
	}
	return documents.Bill{}, missing("bill for purchase order " + purchaseOrderID.String())
}

func (m *MemoryStore) UpdateBill(_ context.Context, b documents.Bill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.bills[b.ID]
	if !ok {
		return missing("bill " + b.ID.String())
	}
	existing.Status, existing.AdvancePaid, existing.BalanceDue, existing.UpdatedAt = b.Status, b.AdvancePaid, b.BalanceDue, b.UpdatedAt
	m.bills[b.ID] = existing
	return nil
}

func (m *MemoryStore) MarkOverdue(_ context.Context, now time.Time) ([]documents.OverdueDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []documents.OverdueDocument
	for id, inv := range m.invoices {
		if inv.Status == documents.InvoiceSent && inv.DueAt.Before(now) {
			inv.Status, inv.UpdatedAt = documents.InvoiceOverdue, now
			m.invoices[id] = inv
			out = append(out, documents.OverdueDocument{Kind: documents.KindInvoice, ID: id, Number: inv.Number, OrderID: inv.OrderID})
		}
	}
	for id, b := range m.bills {
		if b.Status == documents.InvoiceSent && b.DueAt.Before(now) {
			b.Status, b.UpdatedAt = documents.InvoiceOverdue, now
			m.bills[id] = b
			out = append(out, documents.OverdueDocument{Kind: documents.KindBill, ID: id, Number: b.Number, OrderID: b.OrderID})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

var _ documents.Store = (*MemoryStore)(nil)
