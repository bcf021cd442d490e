package notify

import (
	"context"
	"time"
)

// Kind names a notification template.
type Kind string

const (
	KindBookingConfirmation Kind = "booking_confirmation"
	KindBookingCancellation Kind = "booking_cancellation"
	KindQuotation           Kind = "quotation"
	KindInvoice             Kind = "invoice"
	KindBill                Kind = "bill"
)

// Recipient identifies who receives a notification.
type Recipient struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Payload carries the values a template renders.
type Payload struct {
	OrderID        string     `json:"order_id"`
	DocumentNumber string     `json:"document_number,omitempty"`
	Amount         string     `json:"amount,omitempty"`
	Reason         string     `json:"reason,omitempty"`
	DueAt          *time.Time `json:"due_at,omitempty"`
}

// Message is a queued notification.
type Message struct {
	Kind      Kind      `json:"kind"`
	Payload   Payload   `json:"payload"`
	To        Recipient `json:"to"`
	CreatedAt time.Time `json:"created_at"`
}

// Notifier dispatches lifecycle notifications. Callers treat failures as
// non-fatal.
type Notifier interface {
	SendBookingConfirmation(ctx context.Context, payload Payload, to Recipient) error
	SendBookingCancellation(ctx context.Context, payload Payload, to Recipient) error
	SendQuotation(ctx context.Context, payload Payload, to Recipient) error
	SendInvoice(ctx context.Context, payload Payload, to Recipient) error
	SendBill(ctx context.Context, payload Payload, to Recipient) error
}

// NopNotifier drops every notification.
type NopNotifier struct{}

func (NopNotifier) SendBookingConfirmation(context.Context, Payload, Recipient) error { return nil }
func (NopNotifier) SendBookingCancellation(context.Context, Payload, Recipient) error { return nil }
func (NopNotifier) SendQuotation(context.Context, Payload, Recipient) error           { return nil }
func (NopNotifier) SendInvoice(context.Context, Payload, Recipient) error             { return nil }
func (NopNotifier) SendBill(context.Context, Payload, Recipient) error                { return nil }
