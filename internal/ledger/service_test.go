package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/documents"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/documents/documentstest"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/ledger"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/ledger/ledgertest"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/sequence"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/shared"
)

var (
	fixedNow = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	cashier  = shared.Actor{ID: "admin-1", Role: shared.RoleAdmin}
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	ctx     context.Context
	factory *documents.Factory
	docs    *documentstest.MemoryStore
	store   *ledgertest.MemoryStore
	svc     *ledger.Service
	refs    ledger.Refs
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := func() time.Time { return fixedNow }
	alloc := sequence.NewAllocator(sequence.NewMemoryCounter(), sequence.WithClock(clock))
	return &fixture{
		ctx:     context.Background(),
		factory: documents.NewFactory(alloc, documents.WithClock(clock)),
		docs:    documentstest.NewMemoryStore(),
		store:   ledgertest.NewMemoryStore(),
		svc:     ledger.NewService(alloc).WithClock(clock),
	}
}

func (f *fixture) quotation(t *testing.T, total string) documents.Quotation {
	t.Helper()
	q, err := f.factory.Quotation(f.ctx, f.docs, documents.QuotationInput{
		OrderID: "ORD-20261015-0001",
		Lines:   []documents.LineInput{{Description: "Transport", Quantity: dec("1"), UnitPrice: dec(total)}},
	})
	require.NoError(t, err)
	f.refs.QuotationID = uuid.NullUUID{UUID: q.ID, Valid: true}
	return q
}

func (f *fixture) salesOrder(t *testing.T, q documents.Quotation) documents.SalesOrder {
	t.Helper()
	q.Status = documents.QuotationApproved
	require.NoError(t, f.docs.UpdateQuotation(f.ctx, q))
	q, err := f.docs.GetQuotation(f.ctx, q.ID)
	require.NoError(t, err)
	so, err := f.factory.SalesOrder(f.ctx, f.docs, q, documents.Overrides{})
	require.NoError(t, err)
	f.refs.SalesOrderID = uuid.NullUUID{UUID: so.ID, Valid: true}
	return so
}

func (f *fixture) post(typ ledger.TransactionType, amount string) (ledger.Posting, error) {
	return f.svc.Post(f.ctx, f.store, f.docs, f.refs, cashier, ledger.Input{
		OrderID: "ORD-20261015-0001",
		Type:    typ,
		Amount:  dec(amount),
		Method:  "upi",
	})
}

func TestAdvanceThenBalanceSettlesCustomer(t *testing.T) {
	f := newFixture(t)
	q := f.quotation(t, "1000")

	advance, err := f.post(ledger.CustomerAdvance, "300")
	require.NoError(t, err)
	require.NotNil(t, advance.Quotation)
	require.True(t, advance.Quotation.AdvanceAmount.Equal(dec("300")))
	require.Equal(t, "TXN-20261015-00001", advance.Transaction.Number)
	require.Equal(t, "RCPT-20261015-00001", advance.Transaction.ReceiptNumber)
	require.False(t, advance.CustomerSettled)

	q, err = f.docs.GetQuotation(f.ctx, q.ID)
	require.NoError(t, err)
	so := f.salesOrder(t, q)
	require.True(t, so.AdvanceAmount.Equal(dec("300")))
	require.True(t, so.BalanceAmount.Equal(dec("700")))

	balance, err := f.post(ledger.CustomerBalance, "700")
	require.NoError(t, err)
	require.True(t, balance.CustomerSettled)
	require.True(t, balance.SalesOrder.BalanceAmount.IsZero())
	require.True(t, balance.SalesOrder.AdvanceAmount.Equal(dec("1000")))

	stored, err := f.docs.GetSalesOrder(f.ctx, so.ID)
	require.NoError(t, err)
	require.True(t, stored.AdvanceAmount.Add(stored.BalanceAmount).Equal(stored.Total))
}

func TestPartialBalanceDoesNotSettle(t *testing.T) {
	f := newFixture(t)
	f.salesOrder(t, f.quotation(t, "1000"))

	posting, err := f.post(ledger.CustomerBalance, "400")
	require.NoError(t, err)
	require.False(t, posting.CustomerSettled)
	require.True(t, posting.SalesOrder.BalanceAmount.Equal(dec("600")))

	posting, err = f.post(ledger.CustomerAdvance, "600")
	require.NoError(t, err)
	require.True(t, posting.SalesOrder.BalanceAmount.IsZero())
	require.False(t, posting.CustomerSettled, "only a balance payment settles")
}

func TestInvariantHoldsAcrossPostings(t *testing.T) {
	f := newFixture(t)
	f.salesOrder(t, f.quotation(t, "999.99"))
	for _, amount := range []string{"100", "0.01", "250.55", "649.43"} {
		posting, err := f.post(ledger.CustomerAdvance, amount)
		require.NoError(t, err)
		so := posting.SalesOrder
		require.False(t, so.BalanceAmount.IsNegative())
		require.True(t, so.AdvanceAmount.Add(so.BalanceAmount).Equal(so.Total), "after %s", amount)
	}
}

func TestOverpaymentRejected(t *testing.T) {
	f := newFixture(t)
	so := f.salesOrder(t, f.quotation(t, "1000"))

	_, err := f.post(ledger.CustomerBalance, "1000.01")
	require.ErrorIs(t, err, shared.ErrValidation)

	txns, totals, err := f.svc.TransactionsFor(f.ctx, f.store, "ORD-20261015-0001")
	require.NoError(t, err)
	require.Empty(t, txns)
	require.True(t, totals.Customer.IsZero())

	stored, err := f.docs.GetSalesOrder(f.ctx, so.ID)
	require.NoError(t, err)
	require.True(t, stored.BalanceAmount.Equal(dec("1000")))
}

func TestRefundLeavesRunningTotalsUnchanged(t *testing.T) {
	f := newFixture(t)
	so := f.salesOrder(t, f.quotation(t, "1000"))
	_, err := f.post(ledger.CustomerAdvance, "300")
	require.NoError(t, err)

	refund, err := f.post(ledger.CustomerRefund, "100")
	require.NoError(t, err)
	require.Nil(t, refund.SalesOrder)
	require.Equal(t, ledger.CustomerRefund, refund.Transaction.Type)

	stored, err := f.docs.GetSalesOrder(f.ctx, so.ID)
	require.NoError(t, err)
	require.True(t, stored.AdvanceAmount.Equal(dec("300")))
	require.True(t, stored.BalanceAmount.Equal(dec("700")))

	_, totals, err := f.svc.TransactionsFor(f.ctx, f.store, "ORD-20261015-0001")
	require.NoError(t, err)
	require.True(t, totals.Customer.Equal(dec("300")))
	require.True(t, totals.CustomerRefunds.Equal(dec("100")))
}

func TestNonCompletedTransactionsAreInert(t *testing.T) {
	f := newFixture(t)
	so := f.salesOrder(t, f.quotation(t, "1000"))

	for _, status := range []ledger.Status{ledger.StatusPending, ledger.StatusFailed} {
		posting, err := f.svc.Post(f.ctx, f.store, f.docs, f.refs, cashier, ledger.Input{
			OrderID: "ORD-20261015-0001", Type: ledger.CustomerAdvance, Amount: dec("5000"), Method: "card", Status: status,
		})
		require.NoError(t, err, "inert transactions skip the outstanding check")
		require.Empty(t, posting.Transaction.ReceiptNumber)
	}
	_, err := f.post(ledger.CustomerAdvance, "200")
	require.NoError(t, err)

	stored, err := f.docs.GetSalesOrder(f.ctx, so.ID)
	require.NoError(t, err)
	require.True(t, stored.AdvanceAmount.Equal(dec("200")))

	txns, totals, err := f.svc.TransactionsFor(f.ctx, f.store, "ORD-20261015-0001")
	require.NoError(t, err)
	require.Len(t, txns, 3)
	require.True(t, totals.Customer.Equal(dec("200")))
	require.Equal(t, 1, totals.Counted)
	require.Equal(t, 2, totals.Ignored)
}

func TestInvoiceMirrorsSalesOrder(t *testing.T) {
	f := newFixture(t)
	so := f.salesOrder(t, f.quotation(t, "1000"))
	inv, err := f.factory.Invoice(f.ctx, f.docs, so, documents.Overrides{})
	require.NoError(t, err)
	f.refs.InvoiceID = uuid.NullUUID{UUID: inv.ID, Valid: true}

	posting, err := f.post(ledger.CustomerAdvance, "400")
	require.NoError(t, err)
	require.True(t, posting.Invoice.BalanceDue.Equal(dec("600")))
	require.Equal(t, documents.InvoiceSent, posting.Invoice.Status)

	posting, err = f.post(ledger.CustomerBalance, "600")
	require.NoError(t, err)
	require.True(t, posting.CustomerSettled)
	stored, err := f.docs.GetInvoice(f.ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, documents.InvoicePaid, stored.Status)
	require.True(t, stored.BalanceDue.IsZero())
}

func TestProviderPostingsMovePurchaseOrderAndBill(t *testing.T) {
	f := newFixture(t)
	so := f.salesOrder(t, f.quotation(t, "1000"))

	_, err := f.post(ledger.ProviderAdvance, "100")
	require.ErrorIs(t, err, shared.ErrInvalidTransition)

	po, err := f.factory.PurchaseOrder(f.ctx, f.docs, so, "vendor-1", documents.Overrides{
		Lines: []documents.LineInput{{Description: "Carrier", Quantity: dec("1"), UnitPrice: dec("500")}},
	})
	require.NoError(t, err)
	f.refs.PurchaseOrderID = uuid.NullUUID{UUID: po.ID, Valid: true}

	posting, err := f.post(ledger.ProviderAdvance, "200")
	require.NoError(t, err)
	require.True(t, posting.PurchaseOrder.AdvanceAmount.Equal(dec("200")))
	require.True(t, posting.PurchaseOrder.BalanceAmount.Equal(dec("300")))
	require.False(t, posting.CustomerSettled)

	po, err = f.docs.GetPurchaseOrder(f.ctx, po.ID)
	require.NoError(t, err)
	bill, err := f.factory.Bill(f.ctx, f.docs, po, documents.Overrides{})
	require.NoError(t, err)
	require.True(t, bill.BalanceDue.Equal(dec("300")))
	f.refs.BillID = uuid.NullUUID{UUID: bill.ID, Valid: true}

	_, err = f.post(ledger.ProviderBalance, "300")
	require.NoError(t, err)
	storedBill, err := f.docs.GetBill(f.ctx, bill.ID)
	require.NoError(t, err)
	require.Equal(t, documents.InvoicePaid, storedBill.Status)

	storedSO, err := f.docs.GetSalesOrder(f.ctx, so.ID)
	require.NoError(t, err)
	require.True(t, storedSO.BalanceAmount.Equal(dec("1000")), "provider payments never touch the sales order")
}

func TestPostValidation(t *testing.T) {
	f := newFixture(t)
	f.salesOrder(t, f.quotation(t, "1000"))

	cases := []ledger.Input{
		{OrderID: "ORD-1", Type: "bonus", Amount: dec("1"), Method: "cash"},
		{OrderID: "ORD-1", Type: ledger.CustomerAdvance, Amount: dec("0"), Method: "cash"},
		{OrderID: "ORD-1", Type: ledger.CustomerAdvance, Amount: dec("-5"), Method: "cash"},
		{OrderID: "ORD-1", Type: ledger.CustomerAdvance, Amount: dec("0.001"), Method: "cash"},
		{OrderID: "ORD-1", Type: ledger.CustomerAdvance, Amount: dec("10"), Method: " "},
		{OrderID: "ORD-1", Type: ledger.CustomerAdvance, Amount: dec("10"), Method: "cash", Status: ledger.StatusRefunded},
		{Type: ledger.CustomerAdvance, Amount: dec("10"), Method: "cash"},
	}
	for _, in := range cases {
		_, err := f.svc.Post(f.ctx, f.store, f.docs, f.refs, cashier, in)
		assert.ErrorIs(t, err, shared.ErrValidation, "%+v", in)
	}
}

func TestCustomerBalanceNeedsSalesOrder(t *testing.T) {
	f := newFixture(t)
	_, err := f.post(ledger.CustomerAdvance, "10")
	require.ErrorIs(t, err, shared.ErrInvalidTransition)

	f.quotation(t, "1000")
	_, err = f.post(ledger.CustomerBalance, "10")
	require.ErrorIs(t, err, shared.ErrInvalidTransition)

	_, err = f.post(ledger.CustomerAdvance, "1000")
	require.NoError(t, err)
	_, err = f.post(ledger.CustomerAdvance, "1")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestTypeClassification(t *testing.T) {
	require.Equal(t, ledger.SideCustomer, ledger.CustomerRefund.Side())
	require.Equal(t, ledger.LegRefund, ledger.CustomerRefund.Leg())
	require.Equal(t, ledger.SideProvider, ledger.ProviderBalance.Side())
	require.Equal(t, ledger.LegAdvance, ledger.ProviderAdvance.Leg())
	require.True(t, ledger.ProviderRefund.Refund())
	require.False(t, ledger.TransactionType("x").Valid())
}
