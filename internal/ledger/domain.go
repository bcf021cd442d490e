package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Side is the counterparty a transaction settles with.
type Side string

const (
	SideCustomer Side = "customer"
	SideProvider Side = "provider"
)

// Leg classifies what a transaction pays for.
type Leg string

const (
	LegAdvance Leg = "advance"
	LegBalance Leg = "balance"
	LegRefund  Leg = "refund"
)

// TransactionType combines side and leg.
type TransactionType string

const (
	CustomerAdvance TransactionType = "customer_advance"
	CustomerBalance TransactionType = "customer_balance"
	CustomerRefund  TransactionType = "customer_refund"
	ProviderAdvance TransactionType = "provider_advance"
	ProviderBalance TransactionType = "provider_balance"
	ProviderRefund  TransactionType = "provider_refund"
)

var typeParts = map[TransactionType]struct {
	side Side
	leg  Leg
}{
	CustomerAdvance: {SideCustomer, LegAdvance},
	CustomerBalance: {SideCustomer, LegBalance},
	CustomerRefund:  {SideCustomer, LegRefund},
	ProviderAdvance: {SideProvider, LegAdvance},
	ProviderBalance: {SideProvider, LegBalance},
	ProviderRefund:  {SideProvider, LegRefund},
}

// Valid reports whether t is a known type.
func (t TransactionType) Valid() bool {
	_, ok := typeParts[t]
	return ok
}

// Side returns the counterparty side.
func (t TransactionType) Side() Side { return typeParts[t].side }

// Leg returns the payment leg.
func (t TransactionType) Leg() Leg { return typeParts[t].leg }

// Refund reports whether t is a refund type.
func (t TransactionType) Refund() bool { return t.Leg() == LegRefund }

// Status of a posted transaction.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

// Transaction is an immutable ledger entry.
type Transaction struct {
	ID            uuid.UUID       `json:"id"`
	Number        string          `json:"number"`
	OrderID       string          `json:"order_id"`
	Type          TransactionType `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method"`
	Reference     string          `json:"reference,omitempty"`
	ReceiptNumber string          `json:"receipt_number,omitempty"`
	Status        Status          `json:"status"`
	ActorID       string          `json:"actor_id"`
	ActorRole     string          `json:"actor_role"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Totals summarises the completed transactions of an order.
type Totals struct {
	Customer        decimal.Decimal `json:"customer"`
	Provider        decimal.Decimal `json:"provider"`
	CustomerRefunds decimal.Decimal `json:"customer_refunds"`
	ProviderRefunds decimal.Decimal `json:"provider_refunds"`
	Counted         int             `json:"counted"`
	Ignored         int             `json:"ignored"`
}

// Input describes a transaction to post.
type Input struct {
	OrderID   string
	Type      TransactionType
	Amount    decimal.Decimal
	Method    string
	Reference string
	Status    Status
}

// Refs points at the order's documents.
type Refs struct {
	QuotationID     uuid.NullUUID
	SalesOrderID    uuid.NullUUID
	PurchaseOrderID uuid.NullUUID
	InvoiceID       uuid.NullUUID
	BillID          uuid.NullUUID
}
