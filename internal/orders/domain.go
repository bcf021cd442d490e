package orders

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/ledger"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/notify"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/shared"
)

// Status is the canonical order status.
type Status string

const (
	StatusPrimary         Status = "primary"
	StatusUpdated         Status = "updated"
	StatusQuotationShared Status = "quotation_shared"
	StatusConfirmed       Status = "confirmed"
	StatusInProgress      Status = "in_progress"
	StatusPendingPayment  Status = "pending_payment"
	StatusPendingFeedback Status = "pending_feedback"
	StatusCompleted       Status = "completed"
	StatusCancelled       Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := legacyByStatus[s]
	return ok
}

// Terminal reports whether no further status change is allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// LegacyStatus is the coarse status older consumers read.
type LegacyStatus string

const (
	LegacyPending    LegacyStatus = "pending"
	LegacyConfirmed  LegacyStatus = "confirmed"
	LegacyInProgress LegacyStatus = "in-progress"
	LegacyCompleted  LegacyStatus = "completed"
	LegacyCancelled  LegacyStatus = "cancelled"
)

var legacyByStatus = map[Status]LegacyStatus{
	StatusPrimary:         LegacyPending,
	StatusUpdated:         LegacyPending,
	StatusQuotationShared: LegacyPending,
	StatusConfirmed:       LegacyConfirmed,
	StatusInProgress:      LegacyInProgress,
	StatusPendingPayment:  LegacyInProgress,
	StatusPendingFeedback: LegacyInProgress,
	StatusCompleted:       LegacyCompleted,
	StatusCancelled:       LegacyCancelled,
}

// LegacyStatusOf projects a status onto the coarse legacy scale.
func LegacyStatusOf(s Status) LegacyStatus {
	return legacyByStatus[s]
}

// PaymentStatus tracks the customer side of an order.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

// Contact holds booking contact details.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Order is the root aggregate of a transport booking.
type Order struct {
	ID              string          `json:"id"`
	Status          Status          `json:"status"`
	LegacyStatus    LegacyStatus    `json:"legacy_status"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	CustomerID      string          `json:"customer_id"`
	Contact         Contact         `json:"contact"`
	Pickup          string          `json:"pickup"`
	Dropoff         string          `json:"dropoff"`
	ScheduledAt     *time.Time      `json:"scheduled_at,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	QuotationID     uuid.NullUUID   `json:"quotation_id"`
	SalesOrderID    uuid.NullUUID   `json:"sales_order_id"`
	PurchaseOrderID uuid.NullUUID   `json:"purchase_order_id"`
	InvoiceID       uuid.NullUUID   `json:"invoice_id"`
	BillID          uuid.NullUUID   `json:"bill_id"`
	UpdateCount     int             `json:"update_count"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// setStatus is the only writer of Status and LegacyStatus.
func (o *Order) setStatus(s Status) {
	o.Status = s
	o.LegacyStatus = LegacyStatusOf(s)
}

func (o Order) requireActive() error {
	if o.Status.Terminal() {
		return fmt.Errorf("%w: order %s is %s", shared.ErrInvalidTransition, o.ID, o.Status)
	}
	return nil
}

// requireNotCancelled guards work that leaves the order status alone, such as
// the provider leg after the customer has settled.
func (o Order) requireNotCancelled() error {
	if o.Status == StatusCancelled {
		return fmt.Errorf("%w: order %s is %s", shared.ErrInvalidTransition, o.ID, o.Status)
	}
	return nil
}

// requireCustomerDecision admits admins and the system, or the order's own
// customer.
func (o Order) requireCustomerDecision(actor shared.Actor) error {
	switch actor.Role {
	case shared.RoleAdmin, shared.RoleSystem:
		return nil
	case shared.RoleUser:
		if actor.ID == o.CustomerID {
			return nil
		}
		return fmt.Errorf("%w: %s is not the customer of order %s", shared.ErrUnauthorized, actor.ID, o.ID)
	}
	return fmt.Errorf("%w: role %s cannot act for the customer", shared.ErrUnauthorized, actor.Role)
}

func (o Order) refs() ledger.Refs {
	return ledger.Refs{
		QuotationID:     o.QuotationID,
		SalesOrderID:    o.SalesOrderID,
		PurchaseOrderID: o.PurchaseOrderID,
		InvoiceID:       o.InvoiceID,
		BillID:          o.BillID,
	}
}

func (o Order) recipient() notify.Recipient {
	return notify.Recipient{ID: o.CustomerID, Name: o.Contact.Name, Email: o.Contact.Email, Phone: o.Contact.Phone}
}

func validID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: true}
}

// ListFilter narrows ListOrders.
type ListFilter struct {
	Status     Status
	CustomerID string
	Page       shared.Page
}

// CreateInput describes a new booking.
type CreateInput struct {
	CustomerID  string
	Contact     Contact
	Pickup      string
	Dropoff     string
	ScheduledAt *time.Time
	Notes       string
}

// UpdateInput carries optional booking changes.
type UpdateInput struct {
	Contact     *Contact
	Pickup      *string
	Dropoff     *string
	ScheduledAt *time.Time
	Notes       *string
}

func (in UpdateInput) empty() bool {
	return in.Contact == nil && in.Pickup == nil && in.Dropoff == nil && in.ScheduledAt == nil && in.Notes == nil
}
