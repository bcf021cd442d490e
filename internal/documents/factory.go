package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/platform/db"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/sequence"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/shared"
)

// NumberAllocator hands out document numbers.
type NumberAllocator interface {
	Next(ctx context.Context, class sequence.Class) (string, error)
}

// Factory builds each successor document exactly once per predecessor.
type Factory struct {
	numbers  NumberAllocator
	now      func() time.Time
	validity time.Duration
	dueDays  int
}

// Option configures a Factory.
type Option func(*Factory)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(f *Factory) { f.now = now }
}

// WithQuotationValidity sets the default quotation lifetime.
func WithQuotationValidity(d time.Duration) Option {
	return func(f *Factory) {
		if d > 0 {
			f.validity = d
		}
	}
}

// WithDueDays sets invoice and bill payment terms.
func WithDueDays(days int) Option {
	return func(f *Factory) {
		if days > 0 {
			f.dueDays = days
		}
	}
}

// NewFactory constructs a Factory.
func NewFactory(numbers NumberAllocator, opts ...Option) *Factory {
	f := &Factory{numbers: numbers, now: time.Now, validity: 7 * 24 * time.Hour, dueDays: 15}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Quotation creates the live quotation for an order. An existing non-rejected
// quotation is returned together with shared.ErrAlreadyExists.
func (f *Factory) Quotation(ctx context.Context, store Store, in QuotationInput) (Quotation, error) {
	if strings.TrimSpace(in.OrderID) == "" {
		return Quotation{}, fmt.Errorf("%w: order id required", shared.ErrValidation)
	}
	if existing, err := store.LiveQuotationForOrder(ctx, in.OrderID); err == nil {
		return existing, shared.ErrAlreadyExists
	} else if !errors.Is(err, shared.ErrNotFound) {
		return Quotation{}, err
	}
	lines, subtotal, err := BuildLines(in.Lines)
	if err != nil {
		return Quotation{}, err
	}
	tax, discount := Money(in.Tax), Money(in.Discount)
	total, err := Total(subtotal, tax, discount)
	if err != nil {
		return Quotation{}, err
	}
	now := f.now().UTC()
	validUntil := in.ValidUntil
	if validUntil.IsZero() {
		validUntil = now.Add(f.validity)
	}
	if !validUntil.After(now) {
		return Quotation{}, fmt.Errorf("%w: valid until must be in the future", shared.ErrValidation)
	}
	header, err := f.header(ctx, sequence.ClassQuotation, in.OrderID, now)
	if err != nil {
		return Quotation{}, err
	}
	header.Lines, header.Subtotal, header.Tax, header.Discount, header.Total = lines, subtotal, tax, discount, total
	q := Quotation{Header: header, Status: QuotationDraft, ValidUntil: validUntil.UTC(), AdvanceAmount: decimal.Zero}
	if err := store.InsertQuotation(ctx, q); err != nil {
		if db.IsUniqueViolation(err, "uq_quotations_live") {
			return Quotation{}, fmt.Errorf("%w: live quotation for order %s", shared.ErrAlreadyExists, in.OrderID)
		}
		return Quotation{}, err
	}
	return q, nil
}

// SalesOrder converts an approved quotation. Customer advances collected on
// the quotation carry over.
func (f *Factory) SalesOrder(ctx context.Context, store Store, q Quotation, ov Overrides) (SalesOrder, error) {
	if existing, err := store.SalesOrderForQuotation(ctx, q.ID); err == nil {
		return existing, shared.ErrAlreadyExists
	} else if !errors.Is(err, shared.ErrNotFound) {
		return SalesOrder{}, err
	}
	amounts, err := derive(q.Header, ov, true)
	if err != nil {
		return SalesOrder{}, err
	}
	advance := Money(q.AdvanceAmount)
	if advance.GreaterThan(amounts.Total) {
		return SalesOrder{}, fmt.Errorf("%w: advance %s exceeds total %s", shared.ErrValidation, advance.StringFixed(2), amounts.Total.StringFixed(2))
	}
	now := f.now().UTC()
	header, err := f.header(ctx, sequence.ClassSalesOrder, q.OrderID, now)
	if err != nil {
		return SalesOrder{}, err
	}
	so := SalesOrder{
		Header:        withAmounts(header, amounts),
		QuotationID:   q.ID,
		Status:        SalesOrderConfirmed,
		AdvanceAmount: advance,
		BalanceAmount: Outstanding(amounts.Total, advance),
	}
	if err := store.InsertSalesOrder(ctx, so); err != nil {
		if db.IsUniqueViolation(err, "uq_sales_orders_quotation") {
			return SalesOrder{}, conflict("sales order", q.ID)
		}
		return SalesOrder{}, err
	}
	return so, nil
}

// PurchaseOrder sources a sales order to a provider. Discounts do not apply.
func (f *Factory) PurchaseOrder(ctx context.Context, store Store, so SalesOrder, providerID string, ov Overrides) (PurchaseOrder, error) {
	if strings.TrimSpace(providerID) == "" {
		return PurchaseOrder{}, fmt.Errorf("%w: provider id required", shared.ErrValidation)
	}
	if existing, err := store.PurchaseOrderForSalesOrder(ctx, so.ID); err == nil {
		return existing, shared.ErrAlreadyExists
	} else if !errors.Is(err, shared.ErrNotFound) {
		return PurchaseOrder{}, err
	}
	amounts, err := derive(so.Header, ov, false)
	if err != nil {
		return PurchaseOrder{}, err
	}
	now := f.now().UTC()
	header, err := f.header(ctx, sequence.ClassPurchaseOrder, so.OrderID, now)
	if err != nil {
		return PurchaseOrder{}, err
	}
	po := PurchaseOrder{
		Header:        withAmounts(header, amounts),
		SalesOrderID:  so.ID,
		ProviderID:    strings.TrimSpace(providerID),
		Status:        PurchaseOrderDraft,
		AdvanceAmount: decimal.Zero,
		BalanceAmount: amounts.Total,
	}
	if err := store.InsertPurchaseOrder(ctx, po); err != nil {
		if db.IsUniqueViolation(err, "uq_purchase_orders_sales_order") {
			return PurchaseOrder{}, conflict("purchase order", so.ID)
		}
		return PurchaseOrder{}, err
	}
	return po, nil
}

// Invoice bills the customer for a sales order, net of advances already paid.
func (f *Factory) Invoice(ctx context.Context, store Store, so SalesOrder, ov Overrides) (Invoice, error) {
	if existing, err := store.InvoiceForSalesOrder(ctx, so.ID); err == nil {
		return existing, shared.ErrAlreadyExists
	} else if !errors.Is(err, shared.ErrNotFound) {
		return Invoice{}, err
	}
	amounts, err := derive(so.Header, ov, true)
	if err != nil {
		return Invoice{}, err
	}
	advance := Money(so.AdvanceAmount)
	if advance.GreaterThan(amounts.Total) {
		return Invoice{}, fmt.Errorf("%w: advance %s exceeds total %s", shared.ErrValidation, advance.StringFixed(2), amounts.Total.StringFixed(2))
	}
	now := f.now().UTC()
	header, err := f.header(ctx, sequence.ClassInvoice, so.OrderID, now)
	if err != nil {
		return Invoice{}, err
	}
	inv := Invoice{
		Header:       withAmounts(header, amounts),
		SalesOrderID: so.ID,
		Status:       InvoiceSent,
		AdvancePaid:  advance,
		BalanceDue:   Outstanding(amounts.Total, advance),
		DueAt:        f.dueAt(now),
	}
	if err := store.InsertInvoice(ctx, inv); err != nil {
		if db.IsUniqueViolation(err, "uq_invoices_sales_order") {
			return Invoice{}, conflict("invoice", so.ID)
		}
		return Invoice{}, err
	}
	return inv, nil
}

// Bill records the provider payable for a purchase order.
func (f *Factory) Bill(ctx context.Context, store Store, po PurchaseOrder, ov Overrides) (Bill, error) {
	if existing, err := store.BillForPurchaseOrder(ctx, po.ID); err == nil {
		return existing, shared.ErrAlreadyExists
	} else if !errors.Is(err, shared.ErrNotFound) {
		return Bill{}, err
	}
	amounts, err := derive(po.Header, ov, false)
	if err != nil {
		return Bill{}, err
	}
	advance := Money(po.AdvanceAmount)
	if advance.GreaterThan(amounts.Total) {
		return Bill{}, fmt.Errorf("%w: advance %s exceeds total %s", shared.ErrValidation, advance.StringFixed(2), amounts.Total.StringFixed(2))
	}
	now := f.now().UTC()
	header, err := f.header(ctx, sequence.ClassBill, po.OrderID, now)
	if err != nil {
		return Bill{}, err
	}
	bill := Bill{
		Header:          withAmounts(header, amounts),
		PurchaseOrderID: po.ID,
		Status:          InvoiceSent,
		AdvancePaid:     advance,
		BalanceDue:      Outstanding(amounts.Total, advance),
		DueAt:           f.dueAt(now),
	}
	if err := store.InsertBill(ctx, bill); err != nil {
		if db.IsUniqueViolation(err, "uq_bills_purchase_order") {
			return Bill{}, conflict("bill", po.ID)
		}
		return Bill{}, err
	}
	return bill, nil
}

func (f *Factory) header(ctx context.Context, class sequence.Class, orderID string, now time.Time) (Header, error) {
	number, err := f.numbers.Next(ctx, class)
	if err != nil {
		return Header{}, err
	}
	return Header{ID: uuid.New(), Number: number, OrderID: orderID, CreatedAt: now, UpdatedAt: now}, nil
}

func (f *Factory) dueAt(now time.Time) time.Time {
	return now.AddDate(0, 0, f.dueDays)
}

func withAmounts(h Header, amounts Header) Header {
	h.Lines = amounts.Lines
	h.Subtotal = amounts.Subtotal
	h.Tax = amounts.Tax
	h.Discount = amounts.Discount
	h.Total = amounts.Total
	return h
}

// conflict reports a concurrent insert caught by a unique index. The
// transaction is aborted at that point so the winner cannot be re-read.
func conflict(kind string, predecessor uuid.UUID) error {
	return fmt.Errorf("%w: %s for %s", shared.ErrAlreadyExists, kind, predecessor)
}
