package orders

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/documents"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/ledger"
)

type contactRequest struct {
	Name  string `json:"name" validate:"max=120"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"omitempty,max=32"`
}

func (c contactRequest) contact() Contact {
	return Contact{Name: c.Name, Email: c.Email, Phone: c.Phone}
}

type createOrderRequest struct {
	CustomerID  string         `json:"customer_id"`
	Contact     contactRequest `json:"contact"`
	Pickup      string         `json:"pickup" validate:"required,max=255"`
	Dropoff     string         `json:"dropoff" validate:"required,max=255"`
	ScheduledAt *time.Time     `json:"scheduled_at"`
	Notes       string         `json:"notes" validate:"max=2000"`
}

func (r createOrderRequest) input() CreateInput {
	return CreateInput{
		CustomerID:  r.CustomerID,
		Contact:     r.Contact.contact(),
		Pickup:      r.Pickup,
		Dropoff:     r.Dropoff,
		ScheduledAt: r.ScheduledAt,
		Notes:       r.Notes,
	}
}

type updateOrderRequest struct {
	Contact     *contactRequest `json:"contact"`
	Pickup      *string         `json:"pickup" validate:"omitempty,max=255"`
	Dropoff     *string         `json:"dropoff" validate:"omitempty,max=255"`
	ScheduledAt *time.Time      `json:"scheduled_at"`
	Notes       *string         `json:"notes" validate:"omitempty,max=2000"`
}

func (r updateOrderRequest) input() UpdateInput {
	in := UpdateInput{Pickup: r.Pickup, Dropoff: r.Dropoff, ScheduledAt: r.ScheduledAt, Notes: r.Notes}
	if r.Contact != nil {
		c := r.Contact.contact()
		in.Contact = &c
	}
	return in
}

type reasonRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type lineRequest struct {
	Description string          `json:"description" validate:"required,max=255"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

func linesInput(lines []lineRequest) []documents.LineInput {
	if lines == nil {
		return nil
	}
	out := make([]documents.LineInput, 0, len(lines))
	for _, l := range lines {
		out = append(out, documents.LineInput{Description: l.Description, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	return out
}

type quotationRequest struct {
	Lines      []lineRequest   `json:"lines" validate:"required,min=1,dive"`
	Tax        decimal.Decimal `json:"tax"`
	Discount   decimal.Decimal `json:"discount"`
	ValidUntil *time.Time      `json:"valid_until"`
}

func (r quotationRequest) input() QuotationRequest {
	req := QuotationRequest{Lines: linesInput(r.Lines), Tax: r.Tax, Discount: r.Discount}
	if r.ValidUntil != nil {
		req.ValidUntil = *r.ValidUntil
	}
	return req
}

type overridesRequest struct {
	Lines    []lineRequest    `json:"lines" validate:"omitempty,dive"`
	Tax      *decimal.Decimal `json:"tax"`
	Discount *decimal.Decimal `json:"discount"`
}

func (r overridesRequest) overrides() documents.Overrides {
	return documents.Overrides{Lines: linesInput(r.Lines), Tax: r.Tax, Discount: r.Discount}
}

type purchaseOrderRequest struct {
	overridesRequest
	ProviderID string `json:"provider_id" validate:"required,max=64"`
}

type transactionRequest struct {
	Type           ledger.TransactionType `json:"type" validate:"required"`
	Amount         decimal.Decimal        `json:"amount"`
	Method         string                 `json:"method" validate:"required,max=32"`
	Reference      string                 `json:"reference" validate:"max=128"`
	Status         ledger.Status          `json:"status"`
	IdempotencyKey string                 `json:"idempotency_key" validate:"max=128"`
}

func (r transactionRequest) input() PaymentInput {
	return PaymentInput{
		Type:           r.Type,
		Amount:         r.Amount,
		Method:         r.Method,
		Reference:      r.Reference,
		Status:         r.Status,
		IdempotencyKey: r.IdempotencyKey,
	}
}

type feedbackRequest struct {
	Side       ledger.Side    `json:"side" validate:"required,oneof=customer provider"`
	Rating     int            `json:"rating" validate:"required,min=1,max=5"`
	Comment    string         `json:"comment" validate:"max=2000"`
	Categories map[string]int `json:"categories" validate:"omitempty,dive,keys,required,endkeys,min=1,max=5"`
}

func (r feedbackRequest) input() FeedbackInput {
	return FeedbackInput{Side: r.Side, Rating: r.Rating, Comment: r.Comment, Categories: r.Categories}
}

type transactionsResponse struct {
	Transactions []ledger.Transaction `json:"transactions"`
	Totals       ledger.Totals        `json:"totals"`
}
