package documents

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuotationStatus captures quotation lifecycle.
type QuotationStatus string

const (
	QuotationDraft    QuotationStatus = "draft"
	QuotationSent     QuotationStatus = "sent"
	QuotationApproved QuotationStatus = "approved"
	QuotationRejected QuotationStatus = "rejected"
)

// SalesOrderStatus captures sales order lifecycle.
type SalesOrderStatus string

const (
	SalesOrderDraft      SalesOrderStatus = "draft"
	SalesOrderConfirmed  SalesOrderStatus = "confirmed"
	SalesOrderInProgress SalesOrderStatus = "in_progress"
	SalesOrderCompleted  SalesOrderStatus = "completed"
	SalesOrderCancelled  SalesOrderStatus = "cancelled"
)

// PurchaseOrderStatus captures purchase order lifecycle.
type PurchaseOrderStatus string

const (
	PurchaseOrderDraft        PurchaseOrderStatus = "draft"
	PurchaseOrderSent         PurchaseOrderStatus = "sent"
	PurchaseOrderAcknowledged PurchaseOrderStatus = "acknowledged"
	PurchaseOrderInProgress   PurchaseOrderStatus = "in_progress"
	PurchaseOrderCompleted    PurchaseOrderStatus = "completed"
	PurchaseOrderCancelled    PurchaseOrderStatus = "cancelled"
)

// InvoiceStatus is shared by invoices and bills.
type InvoiceStatus string

const (
	InvoiceDraft     InvoiceStatus = "draft"
	InvoiceSent      InvoiceStatus = "sent"
	InvoicePaid      InvoiceStatus = "paid"
	InvoiceOverdue   InvoiceStatus = "overdue"
	InvoiceCancelled InvoiceStatus = "cancelled"
)

// Open reports whether the invoice or bill still expects payment.
func (s InvoiceStatus) Open() bool {
	return s == InvoiceDraft || s == InvoiceSent || s == InvoiceOverdue
}

// Line is a priced line item.
type Line struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// Header holds the fields every commercial document carries.
type Header struct {
	ID        uuid.UUID       `json:"id"`
	Number    string          `json:"number"`
	OrderID   string          `json:"order_id"`
	Lines     []Line          `json:"lines"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Discount  decimal.Decimal `json:"discount"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// OverdueDocument is an invoice or bill flagged by MarkOverdue.
type OverdueDocument struct {
	Kind    string    `json:"kind"`
	ID      uuid.UUID `json:"id"`
	Number  string    `json:"number"`
	OrderID string    `json:"order_id"`
}

// Kinds reported in OverdueDocument.
const (
	KindInvoice = "invoice"
	KindBill    = "bill"
)

// Quotation is the first priced offer for an order.
type Quotation struct {
	Header
	Status        QuotationStatus `json:"status"`
	ValidUntil    time.Time       `json:"valid_until"`
	AdvanceAmount decimal.Decimal `json:"advance_amount"`
}

// Expired reports whether the quotation can no longer be approved at now.
func (q Quotation) Expired(now time.Time) bool {
	return !now.Before(q.ValidUntil)
}

// SalesOrder is the confirmed customer commitment.
type SalesOrder struct {
	Header
	QuotationID   uuid.UUID        `json:"quotation_id"`
	Status        SalesOrderStatus `json:"status"`
	AdvanceAmount decimal.Decimal  `json:"advance_amount"`
	BalanceAmount decimal.Decimal  `json:"balance_amount"`
}

// PurchaseOrder sources the work to a provider.
type PurchaseOrder struct {
	Header
	SalesOrderID  uuid.UUID           `json:"sales_order_id"`
	ProviderID    string              `json:"provider_id"`
	Status        PurchaseOrderStatus `json:"status"`
	AdvanceAmount decimal.Decimal     `json:"advance_amount"`
	BalanceAmount decimal.Decimal     `json:"balance_amount"`
}

// Invoice bills the customer.
type Invoice struct {
	Header
	SalesOrderID uuid.UUID       `json:"sales_order_id"`
	Status       InvoiceStatus   `json:"status"`
	AdvancePaid  decimal.Decimal `json:"advance_paid"`
	BalanceDue   decimal.Decimal `json:"balance_due"`
	DueAt        time.Time       `json:"due_at"`
}

// Bill records what is owed to the provider.
type Bill struct {
	Header
	PurchaseOrderID uuid.UUID       `json:"purchase_order_id"`
	Status          InvoiceStatus   `json:"status"`
	AdvancePaid     decimal.Decimal `json:"advance_paid"`
	BalanceDue      decimal.Decimal `json:"balance_due"`
	DueAt           time.Time       `json:"due_at"`
}

// LineInput is a caller-supplied line before totals are computed.
type LineInput struct {
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// QuotationInput describes a new quotation.
type QuotationInput struct {
	OrderID    string
	Lines      []LineInput
	Tax        decimal.Decimal
	Discount   decimal.Decimal
	ValidUntil time.Time
}

// Overrides replaces values copied from the predecessor document.
type Overrides struct {
	Lines    []LineInput
	Tax      *decimal.Decimal
	Discount *decimal.Decimal
}
