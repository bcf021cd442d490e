package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/documents"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/sequence"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/shared"
)

// Store persists transactions. There is no update path.
type Store interface {
	InsertTransaction(ctx context.Context, txn Transaction) error
	ListTransactions(ctx context.Context, orderID string) ([]Transaction, error)
}

// Posting is the outcome of Post, including any documents it moved.
type Posting struct {
	Transaction     Transaction
	Quotation       *documents.Quotation
	SalesOrder      *documents.SalesOrder
	PurchaseOrder   *documents.PurchaseOrder
	Invoice         *documents.Invoice
	Bill            *documents.Bill
	CustomerSettled bool
}

// Service records transactions and keeps running advance/balance amounts.
type Service struct {
	numbers documents.NumberAllocator
	now     func() time.Time
}

// NewService constructs a ledger Service.
func NewService(numbers documents.NumberAllocator) *Service {
	return &Service{numbers: numbers, now: time.Now}
}

// WithClock overrides the time source and returns s.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Post validates and records a transaction. Completed advance and balance
// payments move the running amounts on the sales or purchase order and the
// mirrored invoice or bill. Refunds, pending and failed transactions are
// stored but leave running amounts untouched.
func (s *Service) Post(ctx context.Context, store Store, docs documents.Store, refs Refs, actor shared.Actor, in Input) (Posting, error) {
	if err := validate(&in); err != nil {
		return Posting{}, err
	}
	moves := in.Status == StatusCompleted && !in.Type.Refund()

	var posting Posting
	switch {
	case in.Type.Refund():
	case in.Type.Side() == SideCustomer:
		if err := s.loadCustomer(ctx, docs, refs, in, &posting); err != nil {
			return Posting{}, err
		}
	default:
		if err := s.loadProvider(ctx, docs, refs, &posting); err != nil {
			return Posting{}, err
		}
	}
	if moves {
		if err := checkOutstanding(posting, in); err != nil {
			return Posting{}, err
		}
	}

	now := s.now().UTC()
	number, err := s.numbers.Next(ctx, sequence.ClassTransaction)
	if err != nil {
		return Posting{}, err
	}
	txn := Transaction{
		ID:        uuid.New(),
		Number:    number,
		OrderID:   in.OrderID,
		Type:      in.Type,
		Amount:    in.Amount,
		Method:    in.Method,
		Reference: in.Reference,
		Status:    in.Status,
		ActorID:   actor.ID,
		ActorRole: string(actor.Role),
		CreatedAt: now,
	}
	if in.Status == StatusCompleted {
		receipt, err := s.numbers.Next(ctx, sequence.ClassReceipt)
		if err != nil {
			return Posting{}, err
		}
		txn.ReceiptNumber = receipt
	}
	if err := store.InsertTransaction(ctx, txn); err != nil {
		return Posting{}, err
	}
	posting.Transaction = txn
	if !moves {
		posting.Quotation, posting.SalesOrder, posting.PurchaseOrder, posting.Invoice, posting.Bill = nil, nil, nil, nil, nil
		return posting, nil
	}
	if err := apply(ctx, docs, &posting, in, now); err != nil {
		return Posting{}, err
	}
	return posting, nil
}

// TransactionsFor lists an order's transactions oldest first. Totals count
// completed transactions only.
func (s *Service) TransactionsFor(ctx context.Context, store Store, orderID string) ([]Transaction, Totals, error) {
	txns, err := store.ListTransactions(ctx, orderID)
	if err != nil {
		return nil, Totals{}, err
	}
	return txns, Summarize(txns), nil
}

// Summarize computes Totals over txns.
func Summarize(txns []Transaction) Totals {
	totals := Totals{
		Customer:        decimal.Zero,
		Provider:        decimal.Zero,
		CustomerRefunds: decimal.Zero,
		ProviderRefunds: decimal.Zero,
	}
	for _, txn := range txns {
		if txn.Status != StatusCompleted {
			totals.Ignored++
			continue
		}
		totals.Counted++
		switch txn.Type {
		case CustomerAdvance, CustomerBalance:
			totals.Customer = totals.Customer.Add(txn.Amount)
		case ProviderAdvance, ProviderBalance:
			totals.Provider = totals.Provider.Add(txn.Amount)
		case CustomerRefund:
			totals.CustomerRefunds = totals.CustomerRefunds.Add(txn.Amount)
		case ProviderRefund:
			totals.ProviderRefunds = totals.ProviderRefunds.Add(txn.Amount)
		}
	}
	return totals
}

func validate(in *Input) error {
	if strings.TrimSpace(in.OrderID) == "" {
		return fmt.Errorf("%w: order id required", shared.ErrValidation)
	}
	if !in.Type.Valid() {
		return fmt.Errorf("%w: unknown transaction type %q", shared.ErrValidation, in.Type)
	}
	in.Amount = documents.Money(in.Amount)
	if !in.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", shared.ErrValidation)
	}
	in.Method = strings.TrimSpace(in.Method)
	if in.Method == "" {
		return fmt.Errorf("%w: payment method required", shared.ErrValidation)
	}
	switch in.Status {
	case "":
		in.Status = StatusCompleted
	case StatusPending, StatusCompleted, StatusFailed:
	default:
		return fmt.Errorf("%w: transaction status %q cannot be posted", shared.ErrValidation, in.Status)
	}
	return nil
}

func (s *Service) loadCustomer(ctx context.Context, docs documents.Store, refs Refs, in Input, p *Posting) error {
	if refs.SalesOrderID.Valid {
		so, err := docs.GetSalesOrder(ctx, refs.SalesOrderID.UUID)
		if err != nil {
			return err
		}
		p.SalesOrder = &so
		if refs.InvoiceID.Valid {
			inv, err := docs.GetInvoice(ctx, refs.InvoiceID.UUID)
			if err != nil {
				return err
			}
			p.Invoice = &inv
		}
		return nil
	}
	if in.Type == CustomerBalance {
		return fmt.Errorf("%w: customer balance requires a sales order", shared.ErrInvalidTransition)
	}
	if !refs.QuotationID.Valid {
		return fmt.Errorf("%w: customer advance requires a quotation or sales order", shared.ErrInvalidTransition)
	}
	q, err := docs.GetQuotation(ctx, refs.QuotationID.UUID)
	if err != nil {
		return err
	}
	if q.Status == documents.QuotationRejected {
		return fmt.Errorf("%w: quotation %s is rejected", shared.ErrInvalidTransition, q.Number)
	}
	p.Quotation = &q
	return nil
}

func (s *Service) loadProvider(ctx context.Context, docs documents.Store, refs Refs, p *Posting) error {
	if !refs.PurchaseOrderID.Valid {
		return fmt.Errorf("%w: provider payment requires a purchase order", shared.ErrInvalidTransition)
	}
	po, err := docs.GetPurchaseOrder(ctx, refs.PurchaseOrderID.UUID)
	if err != nil {
		return err
	}
	if po.Status == documents.PurchaseOrderCancelled {
		return fmt.Errorf("%w: purchase order %s is cancelled", shared.ErrInvalidTransition, po.Number)
	}
	p.PurchaseOrder = &po
	if refs.BillID.Valid {
		bill, err := docs.GetBill(ctx, refs.BillID.UUID)
		if err != nil {
			return err
		}
		p.Bill = &bill
	}
	return nil
}

func checkOutstanding(p Posting, in Input) error {
	var outstanding decimal.Decimal
	switch {
	case p.SalesOrder != nil:
		outstanding = p.SalesOrder.BalanceAmount
	case p.PurchaseOrder != nil:
		outstanding = p.PurchaseOrder.BalanceAmount
	case p.Quotation != nil:
		outstanding = documents.Outstanding(p.Quotation.Total, p.Quotation.AdvanceAmount)
	default:
		return errors.New("ledger: no document to post against")
	}
	if in.Amount.GreaterThan(outstanding) {
		return fmt.Errorf("%w: amount %s exceeds outstanding %s", shared.ErrValidation, in.Amount.StringFixed(2), outstanding.StringFixed(2))
	}
	return nil
}

func apply(ctx context.Context, docs documents.Store, p *Posting, in Input, now time.Time) error {
	amount := in.Amount
	switch {
	case p.SalesOrder != nil:
		so := p.SalesOrder
		so.AdvanceAmount = documents.Money(so.AdvanceAmount.Add(amount))
		so.BalanceAmount = documents.Outstanding(so.Total, so.AdvanceAmount)
		so.UpdatedAt = now
		if err := docs.UpdateSalesOrder(ctx, *so); err != nil {
			return err
		}
		p.CustomerSettled = in.Type == CustomerBalance && so.BalanceAmount.IsZero()
		if p.Invoice != nil {
			mirrorInvoice(p.Invoice, amount, now)
			if err := docs.UpdateInvoice(ctx, *p.Invoice); err != nil {
				return err
			}
		}
	case p.PurchaseOrder != nil:
		po := p.PurchaseOrder
		po.AdvanceAmount = documents.Money(po.AdvanceAmount.Add(amount))
		po.BalanceAmount = documents.Outstanding(po.Total, po.AdvanceAmount)
		po.UpdatedAt = now
		if err := docs.UpdatePurchaseOrder(ctx, *po); err != nil {
			return err
		}
		if p.Bill != nil {
			b := p.Bill
			b.AdvancePaid = documents.Money(b.AdvancePaid.Add(amount))
			b.BalanceDue = documents.Outstanding(b.Total, b.AdvancePaid)
			b.UpdatedAt = now
			if b.BalanceDue.IsZero() && b.Status.Open() {
				b.Status = documents.InvoicePaid
			}
			if err := docs.UpdateBill(ctx, *b); err != nil {
				return err
			}
		}
	case p.Quotation != nil:
		q := p.Quotation
		q.AdvanceAmount = documents.Money(q.AdvanceAmount.Add(amount))
		q.UpdatedAt = now
		if err := docs.UpdateQuotation(ctx, *q); err != nil {
			return err
		}
	}
	return nil
}

func mirrorInvoice(inv *documents.Invoice, amount decimal.Decimal, now time.Time) {
	inv.AdvancePaid = documents.Money(inv.AdvancePaid.Add(amount))
	inv.BalanceDue = documents.Outstanding(inv.Total, inv.AdvancePaid)
	inv.UpdatedAt = now
	if inv.BalanceDue.IsZero() && inv.Status.Open() {
		inv.Status = documents.InvoicePaid
	}
}
