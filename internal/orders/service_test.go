package orders

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/documents"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/ledger"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/notify"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/platform/cache"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/shared"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/timeline"
)

func TestLegacyStatusMapping(t *testing.T) {
	cases := map[Status]LegacyStatus{
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
	for status, legacy := range cases {
		assert.Equal(t, legacy, LegacyStatusOf(status), string(status))
		var o Order
		o.setStatus(status)
		assert.Equal(t, legacy, o.LegacyStatus)
	}
	assert.False(t, Status("archived").Valid())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusPendingPayment.Terminal())
}

func TestCreateOrder(t *testing.T) {
	f := newFixture(t)
	order := f.order(t)

	require.Equal(t, "ORD-20261015-0001", order.ID)
	require.Equal(t, StatusPrimary, order.Status)
	require.Equal(t, LegacyPending, order.LegacyStatus)
	require.Equal(t, PaymentPending, order.PaymentStatus)
	require.Equal(t, []string{timeline.ActionOrderCreated}, f.timeline.actions(order.ID))
	require.Equal(t, []notify.Kind{notify.KindBookingConfirmation}, f.notifier.kinds())
	require.Equal(t, "asha@example.com", f.notifier.to[0].Email)
	require.Equal(t, []string{"ok"}, f.metrics.of("create_order"))

	second := f.order(t)
	require.Equal(t, "ORD-20261015-0002", second.ID)
}

func TestCreateOrderDefaultsCustomerToUser(t *testing.T) {
	f := newFixture(t)
	order, err := f.svc.CreateOrder(f.ctx, customer, CreateInput{Pickup: "Thane", Dropoff: "Nashik"})
	require.NoError(t, err)
	require.Equal(t, customer.ID, order.CustomerID)
}

func TestCreateOrderValidation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateOrder(f.ctx, admin, CreateInput{CustomerID: "c", Pickup: "Thane"})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = f.svc.CreateOrder(f.ctx, shared.Actor{ID: "x", Role: "guest"}, CreateInput{CustomerID: "c", Pickup: "a", Dropoff: "b"})
	require.ErrorIs(t, err, shared.ErrUnauthorized)
	require.Equal(t, []string{"validation_failed", "unauthorized"}, f.metrics.of("create_order"))
}

func TestNotificationFailureDoesNotFailOperation(t *testing.T) {
	f := newFixture(t)
	f.notifier.fail = errors.New("smtp down")
	order := f.order(t)
	require.Equal(t, StatusPrimary, order.Status)
}

func TestUpdateOrderCountsUpdates(t *testing.T) {
	f := newFixture(t)
	order := f.order(t)
	pickup, notes := "Bandra West, Mumbai", "Fragile"

	updated, err := f.svc.UpdateOrder(f.ctx, customer, order.ID, UpdateInput{Pickup: &pickup})
	require.NoError(t, err)
	require.Equal(t, StatusUpdated, updated.Status)
	require.Equal(t, 1, updated.UpdateCount)

	updated, err = f.svc.UpdateOrder(f.ctx, customer, order.ID, UpdateInput{Notes: &notes})
	require.NoError(t, err)
	require.Equal(t, 2, updated.UpdateCount)
	require.Equal(t, pickup, updated.Pickup)
	require.Equal(t, "Order details updated (update #2)", f.timeline.last().Description)

	_, err = f.svc.UpdateOrder(f.ctx, customer, order.ID, UpdateInput{})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = f.svc.CreateQuotation(f.ctx, admin, order.ID, quotationFor("1000"))
	require.NoError(t, err)
	_, err = f.svc.ShareQuotation(f.ctx, admin, order.ID)
	require.NoError(t, err)
	_, err = f.svc.UpdateOrder(f.ctx, customer, order.ID, UpdateInput{Notes: &notes})
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
	require.Equal(t, 2, f.reload(t, order.ID).UpdateCount)
}

func TestCreateQuotationIsIdempotentPerOrder(t *testing.T) {
	f := newFixture(t)
	order, q := f.quoted(t, "1000")
	require.Equal(t, "QUO-202610-00001", q.Number)
	require.Equal(t, q.ID, f.reload(t, order.ID).QuotationID.UUID)

	again, err := f.svc.CreateQuotation(f.ctx, admin, order.ID, quotationFor("900"))
	require.ErrorIs(t, err, shared.ErrAlreadyExists)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
	require.Equal(t, q.ID, again.ID)
	require.True(t, f.reload(t, order.ID).TotalAmount.Equal(dec("1000")))
}

func TestRejectedQuotationCanBeReplaced(t *testing.T) {
	f := newFixture(t)
	order, q := f.quoted(t, "1000")

	rejected, err := f.svc.RejectQuotation(f.ctx, customer, order.ID, "too expensive")
	require.NoError(t, err)
	require.Equal(t, documents.QuotationRejected, rejected.Status)
	require.Equal(t, StatusPrimary, f.reload(t, order.ID).Status)

	_, err = f.svc.ApproveQuotation(f.ctx, customer, order.ID)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)

	replacement, err := f.svc.CreateQuotation(f.ctx, admin, order.ID, quotationFor("850"))
	require.NoError(t, err)
	require.NotEqual(t, q.ID, replacement.ID)
	require.Equal(t, "QUO-202610-00002", replacement.Number)
}

func TestShareQuotationMovesOrderAndNotifies(t *testing.T) {
	f := newFixture(t)
	order, _ := f.quoted(t, "1000")

	q, err := f.svc.ShareQuotation(f.ctx, admin, order.ID)
	require.NoError(t, err)
	require.Equal(t, documents.QuotationSent, q.Status)
	require.Equal(t, StatusQuotationShared, f.reload(t, order.ID).Status)

	_, err = f.svc.ShareQuotation(f.ctx, admin, order.ID)
	require.NoError(t, err)
	require.Contains(t, f.timeline.last().Description, "re-sent")
	require.Equal(t, []notify.Kind{notify.KindBookingConfirmation, notify.KindQuotation, notify.KindQuotation}, f.notifier.kinds())
}

func TestApproveExpiredQuotationFails(t *testing.T) {
	f := newFixture(t)
	order := f.order(t)
	req := quotationFor("1000")
	req.ValidUntil = fixedNow.Add(time.Hour)
	q, err := f.svc.CreateQuotation(f.ctx, admin, order.ID, req)
	require.NoError(t, err)
	_, err = f.svc.ShareQuotation(f.ctx, admin, order.ID)
	require.NoError(t, err)

	f.now = fixedNow.Add(2 * time.Hour)
	_, err = f.svc.ApproveQuotation(f.ctx, customer, order.ID)
	require.ErrorIs(t, err, shared.ErrExpired)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)

	stored, err := f.repo.docs.GetQuotation(f.ctx, q.ID)
	require.NoError(t, err)
	require.Equal(t, documents.QuotationSent, stored.Status)
	require.Equal(t, StatusQuotationShared, f.reload(t, order.ID).Status)
	require.Equal(t, []string{"invalid_transition"}, f.metrics.of("approve_quotation"))

	_, err = f.svc.ShareQuotation(f.ctx, admin, order.ID)
	require.ErrorIs(t, err, shared.ErrExpired)
}

func TestApproveConfirmsOrder(t *testing.T) {
	f := newFixture(t)
	order, q := f.confirmed(t, "1000")
	require.Equal(t, documents.QuotationApproved, q.Status)
	reloaded := f.reload(t, order.ID)
	require.Equal(t, StatusConfirmed, reloaded.Status)
	require.Equal(t, LegacyConfirmed, reloaded.LegacyStatus)
}

func TestSalesOrderCreatedOncePerQuotation(t *testing.T) {
	f := newFixture(t)
	order, so := f.inProgress(t, "1000")
	require.Equal(t, "SO-202610-00001", so.Number)
	require.Equal(t, documents.SalesOrderConfirmed, so.Status)
	reloaded := f.reload(t, order.ID)
	require.Equal(t, StatusInProgress, reloaded.Status)
	require.Equal(t, LegacyInProgress, reloaded.LegacyStatus)

	again, err := f.svc.CreateSalesOrder(f.ctx, admin, order.ID, documents.Overrides{})
	require.ErrorIs(t, err, shared.ErrAlreadyExists)
	require.Equal(t, so.ID, again.ID)
}

func TestSalesOrderNeedsApprovedQuotation(t *testing.T) {
	f := newFixture(t)
	order, _ := f.quoted(t, "1000")
	_, err := f.svc.CreateSalesOrder(f.ctx, admin, order.ID, documents.Overrides{})
	require.ErrorIs(t, err, shared.ErrInvalidTransition)

	bare := f.order(t)
	_, err = f.svc.CreateSalesOrder(f.ctx, admin, bare.ID, documents.Overrides{})
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestAdvanceAndBalanceCompleteOrder(t *testing.T) {
	f := newFixture(t)
	order, _ := f.confirmed(t, "1000")

	advance := f.pay(t, order.ID, ledger.CustomerAdvance, "300")
	require.Equal(t, "TXN-20261015-00001", advance.Transaction.Number)
	require.Equal(t, "RCPT-20261015-00001", advance.Transaction.ReceiptNumber)
	require.NotNil(t, advance.Quotation)
	require.True(t, advance.Quotation.AdvanceAmount.Equal(dec("300")))

	so, err := f.svc.CreateSalesOrder(f.ctx, admin, order.ID, documents.Overrides{})
	require.NoError(t, err)
	require.True(t, so.AdvanceAmount.Equal(dec("300")))
	require.True(t, so.BalanceAmount.Equal(dec("700")))

	balance := f.pay(t, order.ID, ledger.CustomerBalance, "700")
	require.True(t, balance.CustomerSettled)
	require.True(t, balance.SalesOrder.BalanceAmount.IsZero())
	require.True(t, balance.SalesOrder.AdvanceAmount.Equal(dec("1000")))

	done := f.reload(t, order.ID)
	require.Equal(t, StatusCompleted, done.Status)
	require.Equal(t, LegacyCompleted, done.LegacyStatus)
	require.Equal(t, PaymentPaid, done.PaymentStatus)

	stored, err := f.repo.docs.GetSalesOrder(f.ctx, so.ID)
	require.NoError(t, err)
	require.Equal(t, documents.SalesOrderCompleted, stored.Status)

	txns, totals, err := f.svc.TransactionsFor(f.ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, txns, 2)
	require.True(t, totals.Customer.Equal(dec("1000")))
	require.Equal(t, 2, totals.Counted)
}

func TestRunningAmountsStayConsistent(t *testing.T) {
	f := newFixture(t)
	order, so := f.inProgress(t, "1000")
	for _, amount := range []string{"100", "250.50", "49.50"} {
		posting := f.pay(t, order.ID, ledger.CustomerAdvance, amount)
		current := posting.SalesOrder
		require.True(t, current.AdvanceAmount.Add(current.BalanceAmount).Equal(so.Total))
		require.False(t, current.BalanceAmount.IsNegative())
	}
	_, err := f.svc.PostTransaction(f.ctx, admin, order.ID, PaymentInput{Type: ledger.CustomerBalance, Amount: dec("600.01"), Method: "upi"})
	require.ErrorIs(t, err, shared.ErrValidation)

	stored, err := f.repo.docs.GetSalesOrder(f.ctx, so.ID)
	require.NoError(t, err)
	require.True(t, stored.BalanceAmount.Equal(dec("600")))
	require.Equal(t, StatusInProgress, f.reload(t, order.ID).Status)
}

func TestRefundsAreAllowedOnCompletedOrders(t *testing.T) {
	f := newFixture(t)
	order, _ := f.inProgress(t, "1000")
	f.pay(t, order.ID, ledger.CustomerBalance, "1000")
	require.Equal(t, StatusCompleted, f.reload(t, order.ID).Status)

	refund := f.pay(t, order.ID, ledger.CustomerRefund, "100")
	require.Nil(t, refund.SalesOrder)

	_, err := f.svc.PostTransaction(f.ctx, admin, order.ID, PaymentInput{Type: ledger.CustomerAdvance, Amount: dec("1"), Method: "upi"})
	require.ErrorIs(t, err, shared.ErrInvalidTransition)

	_, totals, err := f.svc.TransactionsFor(f.ctx, order.ID)
	require.NoError(t, err)
	require.True(t, totals.Customer.Equal(dec("1000")))
	require.True(t, totals.CustomerRefunds.Equal(dec("100")))
}

func TestFailedCustomerPaymentMarksPaymentFailed(t *testing.T) {
	f := newFixture(t)
	order, q := f.confirmed(t, "1000")

	posting, err := f.svc.PostTransaction(f.ctx, admin, order.ID, PaymentInput{
		Type: ledger.CustomerAdvance, Amount: dec("300"), Method: "card", Status: ledger.StatusFailed,
	})
	require.NoError(t, err)
	require.Empty(t, posting.Transaction.ReceiptNumber)

	reloaded := f.reload(t, order.ID)
	require.Equal(t, PaymentFailed, reloaded.PaymentStatus)
	require.Equal(t, StatusConfirmed, reloaded.Status)

	stored, err := f.repo.docs.GetQuotation(f.ctx, q.ID)
	require.NoError(t, err)
	require.True(t, stored.AdvanceAmount.IsZero())

	_, totals, err := f.svc.TransactionsFor(f.ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, 0, totals.Counted)
	require.Equal(t, 1, totals.Ignored)
}

func TestIdempotencyKeyDeduplicatesPosts(t *testing.T) {
	keys := &memoryIdempotency{}
	f := newFixture(t, func(d *Deps) { d.Idempotency = keys })
	order, _ := f.inProgress(t, "1000")

	in := PaymentInput{Type: ledger.CustomerAdvance, Amount: dec("2000"), Method: "upi", IdempotencyKey: "pay-1"}
	_, err := f.svc.PostTransaction(f.ctx, admin, order.ID, in)
	require.ErrorIs(t, err, shared.ErrValidation)

	in.Amount = dec("200")
	_, err = f.svc.PostTransaction(f.ctx, admin, order.ID, in)
	require.NoError(t, err, "a failed post releases its key")

	_, err = f.svc.PostTransaction(f.ctx, admin, order.ID, in)
	require.ErrorIs(t, err, shared.ErrAlreadyExists)

	txns, _, err := f.svc.TransactionsFor(f.ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, txns, 1)
}

func TestBusyLockIsInvalidTransition(t *testing.T) {
	locker := &lockerStub{err: cache.ErrLockHeld}
	f := newFixture(t, func(d *Deps) { d.Locker = locker })
	order, err := f.svc.CreateOrder(f.ctx, admin, CreateInput{CustomerID: "c", Pickup: "a", Dropoff: "b"})
	require.NoError(t, err)

	_, err = f.svc.CreateQuotation(f.ctx, admin, order.ID, quotationFor("1000"))
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
	require.Equal(t, []string{shared.OrderLockKey(order.ID, "quotation")}, locker.keys)
}

func TestPurchaseOrderAcknowledgement(t *testing.T) {
	f := newFixture(t)
	order, _ := f.inProgress(t, "500")

	po, err := f.svc.CreatePurchaseOrder(f.ctx, admin, order.ID, provider.ID, documents.Overrides{})
	require.NoError(t, err)
	require.Equal(t, "PO-202610-00001", po.Number)
	require.True(t, po.Total.Equal(dec("500")))
	require.True(t, po.AdvanceAmount.IsZero())
	require.Equal(t, documents.PurchaseOrderDraft, po.Status)

	_, err = f.svc.AcknowledgePurchaseOrder(f.ctx, customer, order.ID)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
	_, err = f.svc.AcknowledgePurchaseOrder(f.ctx, shared.Actor{ID: "vendor-9", Role: shared.RoleVendor}, order.ID)
	require.ErrorIs(t, err, shared.ErrUnauthorized)

	sent, err := f.svc.SendPurchaseOrder(f.ctx, admin, order.ID)
	require.NoError(t, err)
	require.Equal(t, documents.PurchaseOrderSent, sent.Status)

	acked, err := f.svc.AcknowledgePurchaseOrder(f.ctx, provider, order.ID)
	require.NoError(t, err)
	require.Equal(t, documents.PurchaseOrderAcknowledged, acked.Status)
	require.Equal(t, []string{"unauthorized", "unauthorized", "ok"}, f.metrics.of("acknowledge_purchase_order"))

	_, err = f.svc.SendPurchaseOrder(f.ctx, admin, order.ID)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestBillAndProviderPayments(t *testing.T) {
	f := newFixture(t)
	order, _ := f.inProgress(t, "500")
	_, err := f.svc.CreatePurchaseOrder(f.ctx, admin, order.ID, provider.ID, documents.Overrides{})
	require.NoError(t, err)

	bill, err := f.svc.GenerateBill(f.ctx, admin, order.ID, documents.Overrides{})
	require.NoError(t, err)
	require.Equal(t, "BILL-202610-00001", bill.Number)
	require.Equal(t, documents.InvoiceSent, bill.Status)
	require.Equal(t, provider.ID, f.notifier.to[len(f.notifier.to)-1].ID)

	posting := f.pay(t, order.ID, ledger.ProviderBalance, "500")
	require.True(t, posting.PurchaseOrder.BalanceAmount.IsZero())
	require.Equal(t, documents.InvoicePaid, posting.Bill.Status)
	require.False(t, posting.CustomerSettled)
	require.Equal(t, StatusInProgress, f.reload(t, order.ID).Status)
}

func TestInvoiceAndMarkPaid(t *testing.T) {
	f := newFixture(t)
	order, so := f.inProgress(t, "1000")

	inv, err := f.svc.GenerateInvoice(f.ctx, admin, order.ID, documents.Overrides{})
	require.NoError(t, err)
	require.Equal(t, "INV-202610-00001", inv.Number)
	require.True(t, inv.BalanceDue.Equal(dec("1000")))
	require.Equal(t, StatusPendingPayment, f.reload(t, order.ID).Status)
	require.Contains(t, f.notifier.kinds(), notify.KindInvoice)

	_, err = f.svc.MarkInvoicePaid(f.ctx, admin, order.ID)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)

	posting := f.pay(t, order.ID, ledger.CustomerAdvance, "1000")
	require.Equal(t, documents.InvoicePaid, posting.Invoice.Status)
	require.False(t, posting.CustomerSettled)
	require.Equal(t, StatusPendingPayment, f.reload(t, order.ID).Status)

	paid, err := f.svc.MarkInvoicePaid(f.ctx, admin, order.ID)
	require.NoError(t, err)
	require.Equal(t, documents.InvoicePaid, paid.Status)
	done := f.reload(t, order.ID)
	require.Equal(t, StatusCompleted, done.Status)
	require.Equal(t, PaymentPaid, done.PaymentStatus)

	stored, err := f.repo.docs.GetSalesOrder(f.ctx, so.ID)
	require.NoError(t, err)
	require.Equal(t, documents.SalesOrderCompleted, stored.Status)
}

func TestCancelOrder(t *testing.T) {
	f := newFixture(t)
	order := f.order(t)

	cancelled, err := f.svc.CancelOrder(f.ctx, customer, order.ID, "plans changed")
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, cancelled.Status)
	require.Equal(t, LegacyCancelled, cancelled.LegacyStatus)
	require.Equal(t, notify.KindBookingCancellation, f.notifier.kinds()[len(f.notifier.kinds())-1])

	_, err = f.svc.CancelOrder(f.ctx, customer, order.ID, "")
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
	_, err = f.svc.CreateQuotation(f.ctx, admin, order.ID, quotationFor("1000"))
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestCancelCompletedOrderFails(t *testing.T) {
	f := newFixture(t)
	order, _ := f.inProgress(t, "1000")
	f.pay(t, order.ID, ledger.CustomerBalance, "1000")

	_, err := f.svc.CancelOrder(f.ctx, admin, order.ID, "")
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
	require.Equal(t, StatusCompleted, f.reload(t, order.ID).Status)
}

func TestCancelCascadesToOpenDocuments(t *testing.T) {
	f := newFixture(t)
	order, so := f.inProgress(t, "1000")
	po, err := f.svc.CreatePurchaseOrder(f.ctx, admin, order.ID, provider.ID, documents.Overrides{})
	require.NoError(t, err)
	inv, err := f.svc.GenerateInvoice(f.ctx, admin, order.ID, documents.Overrides{})
	require.NoError(t, err)

	_, err = f.svc.CancelOrder(f.ctx, admin, order.ID, "vehicle unavailable")
	require.NoError(t, err)

	storedSO, err := f.repo.docs.GetSalesOrder(f.ctx, so.ID)
	require.NoError(t, err)
	require.Equal(t, documents.SalesOrderCancelled, storedSO.Status)
	storedPO, err := f.repo.docs.GetPurchaseOrder(f.ctx, po.ID)
	require.NoError(t, err)
	require.Equal(t, documents.PurchaseOrderCancelled, storedPO.Status)
	storedInv, err := f.repo.docs.GetInvoice(f.ctx, inv.ID)
	require.NoError(t, err)
	require.Equal(t, documents.InvoiceCancelled, storedInv.Status)

	meta := f.timeline.last().Metadata
	require.ElementsMatch(t, []string{so.Number, po.Number, inv.Number}, meta["cancelled_documents"])
}

func TestFeedbackCompletesOrderWhenBothSidesRate(t *testing.T) {
	f := newFixture(t)
	order, _ := f.inProgress(t, "1000")

	fb, err := f.svc.SubmitFeedback(f.ctx, customer, order.ID, FeedbackInput{Side: ledger.SideCustomer, Rating: 5, Comment: "On time"})
	require.NoError(t, err)
	require.Equal(t, FeedbackSubmitted, fb.Status)
	require.Equal(t, StatusPendingFeedback, f.reload(t, order.ID).Status)
	require.Equal(t, "Customer feedback submitted with rating 5", f.timeline.last().Description)

	_, err = f.svc.SubmitFeedback(f.ctx, customer, order.ID, FeedbackInput{Side: ledger.SideCustomer, Rating: 3})
	require.ErrorIs(t, err, shared.ErrAlreadyExists)
	items, err := f.svc.Feedback(f.ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)

	_, err = f.svc.SubmitFeedback(f.ctx, provider, order.ID, FeedbackInput{Side: ledger.SideProvider, Rating: 4})
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, f.reload(t, order.ID).Status)
}

func TestFeedbackGuards(t *testing.T) {
	f := newFixture(t)
	order := f.order(t)

	_, err := f.svc.SubmitFeedback(f.ctx, customer, order.ID, FeedbackInput{Side: ledger.SideProvider, Rating: 4})
	require.ErrorIs(t, err, shared.ErrUnauthorized)
	_, err = f.svc.SubmitFeedback(f.ctx, customer, order.ID, FeedbackInput{Side: ledger.SideCustomer, Rating: 6})
	require.ErrorIs(t, err, shared.ErrValidation)
	_, err = f.svc.SubmitFeedback(f.ctx, customer, order.ID, FeedbackInput{Side: ledger.SideCustomer, Rating: 4, Categories: map[string]int{"punctuality": 0}})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = f.svc.CancelOrder(f.ctx, admin, order.ID, "")
	require.NoError(t, err)
	_, err = f.svc.SubmitFeedback(f.ctx, customer, order.ID, FeedbackInput{Side: ledger.SideCustomer, Rating: 4})
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestFeedbackOnCompletedOrderKeepsStatus(t *testing.T) {
	f := newFixture(t)
	order, _ := f.inProgress(t, "1000")
	f.pay(t, order.ID, ledger.CustomerBalance, "1000")

	_, err := f.svc.SubmitFeedback(f.ctx, customer, order.ID, FeedbackInput{Side: ledger.SideCustomer, Rating: 5})
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, f.reload(t, order.ID).Status)
}

func TestReviewFeedback(t *testing.T) {
	f := newFixture(t)
	order := f.order(t)
	fb, err := f.svc.SubmitFeedback(f.ctx, customer, order.ID, FeedbackInput{Side: ledger.SideCustomer, Rating: 2})
	require.NoError(t, err)

	_, err = f.svc.ReviewFeedback(f.ctx, customer, order.ID, fb.ID)
	require.ErrorIs(t, err, shared.ErrUnauthorized)

	reviewed, err := f.svc.ReviewFeedback(f.ctx, admin, order.ID, fb.ID)
	require.NoError(t, err)
	require.Equal(t, FeedbackReviewed, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	require.Equal(t, admin.ID, *reviewed.ReviewedBy)

	_, err = f.svc.ReviewFeedback(f.ctx, admin, order.ID, fb.ID)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestListOrders(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		f.order(t)
	}
	_, err := f.svc.CancelOrder(f.ctx, admin, "ORD-20261015-0002", "")
	require.NoError(t, err)

	items, meta, err := f.svc.ListOrders(f.ctx, ListFilter{Page: shared.Page{PageSize: 2}})
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, 3, meta.Total)
	require.True(t, meta.HasNext)

	items, _, err = f.svc.ListOrders(f.ctx, ListFilter{Status: StatusCancelled})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "ORD-20261015-0002", items[0].ID)

	_, _, err = f.svc.ListOrders(f.ctx, ListFilter{Status: "archived"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestTimelineAndView(t *testing.T) {
	f := newFixture(t)
	order, _ := f.confirmed(t, "1000")
	f.pay(t, order.ID, ledger.CustomerAdvance, "300")
	_, err := f.svc.CreateSalesOrder(f.ctx, admin, order.ID, documents.Overrides{})
	require.NoError(t, err)

	res, err := f.svc.Timeline(f.ctx, order.ID, shared.Page{})
	require.NoError(t, err)
	require.Equal(t, timeline.ActionSalesOrderCreated, res.Entries[0].Action)
	require.Equal(t, admin.ID, res.Entries[0].ActorID)
	require.Equal(t, []string{
		timeline.ActionOrderCreated,
		timeline.ActionQuotationCreated,
		timeline.ActionQuotationShared,
		timeline.ActionQuotationApproved,
		timeline.ActionTransactionPosted,
		timeline.ActionSalesOrderCreated,
	}, f.timeline.actions(order.ID))

	view, err := f.svc.View(f.ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Quotation)
	require.NotNil(t, view.SalesOrder)
	require.Nil(t, view.Invoice)
	require.Len(t, view.Transactions, 1)
	require.True(t, view.Totals.Customer.Equal(dec("300")))
	require.Len(t, view.RecentTimeline, 6)

	_, err = f.svc.Timeline(f.ctx, "ORD-20261015-9999", shared.Page{})
	require.ErrorIs(t, err, shared.ErrNotFound)
	_, err = f.svc.View(f.ctx, "ORD-20261015-9999")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestProviderLegContinuesAfterCustomerSettles(t *testing.T) {
	f := newFixture(t)
	order, _ := f.inProgress(t, "1000")
	po, err := f.svc.CreatePurchaseOrder(f.ctx, admin, order.ID, provider.ID, documents.Overrides{})
	require.NoError(t, err)

	settled := f.pay(t, order.ID, ledger.CustomerBalance, "1000")
	require.True(t, settled.CustomerSettled)
	require.Equal(t, StatusCompleted, f.reload(t, order.ID).Status)

	bill, err := f.svc.GenerateBill(f.ctx, admin, order.ID, documents.Overrides{})
	require.NoError(t, err)
	require.True(t, bill.BalanceDue.Equal(po.Total))

	posting := f.pay(t, order.ID, ledger.ProviderBalance, po.Total.String())
	require.True(t, posting.PurchaseOrder.BalanceAmount.IsZero())
	require.Equal(t, documents.InvoicePaid, posting.Bill.Status)

	done := f.reload(t, order.ID)
	require.Equal(t, StatusCompleted, done.Status)
	require.Equal(t, PaymentPaid, done.PaymentStatus)

	_, err = f.svc.PostTransaction(f.ctx, admin, order.ID, PaymentInput{Type: ledger.CustomerBalance, Amount: dec("1"), Method: "upi"})
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestProviderLegRejectedOnCancelledOrder(t *testing.T) {
	f := newFixture(t)
	order, _ := f.inProgress(t, "1000")
	_, err := f.svc.CreatePurchaseOrder(f.ctx, admin, order.ID, provider.ID, documents.Overrides{})
	require.NoError(t, err)
	_, err = f.svc.CancelOrder(f.ctx, admin, order.ID, "customer called off")
	require.NoError(t, err)

	_, err = f.svc.PostTransaction(f.ctx, admin, order.ID, PaymentInput{Type: ledger.ProviderAdvance, Amount: dec("100"), Method: "neft"})
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
	_, err = f.svc.GenerateBill(f.ctx, admin, order.ID, documents.Overrides{})
	require.ErrorIs(t, err, shared.ErrInvalidTransition)
}

func TestMarkInvoicePaidNeedsSettledSalesOrder(t *testing.T) {
	f := newFixture(t)
	order, so := f.inProgress(t, "1000")

	inv, err := f.svc.GenerateInvoice(f.ctx, admin, order.ID, documents.Overrides{
		Lines: []documents.LineInput{{Description: "Waived", Quantity: dec("1"), UnitPrice: dec("0")}},
	})
	require.NoError(t, err)
	require.True(t, inv.BalanceDue.IsZero())

	_, err = f.svc.MarkInvoicePaid(f.ctx, admin, order.ID)
	require.ErrorIs(t, err, shared.ErrInvalidTransition)

	current := f.reload(t, order.ID)
	require.NotEqual(t, StatusCompleted, current.Status)
	require.NotEqual(t, PaymentPaid, current.PaymentStatus)
	stored, err := f.repo.docs.GetSalesOrder(f.ctx, so.ID)
	require.NoError(t, err)
	require.True(t, stored.BalanceAmount.Equal(dec("1000")))
	require.NotEqual(t, documents.SalesOrderCompleted, stored.Status)
}

func TestCustomerDecisionsNeedTheCustomer(t *testing.T) {
	f := newFixture(t)
	order, _ := f.quoted(t, "1000")
	_, err := f.svc.ShareQuotation(f.ctx, admin, order.ID)
	require.NoError(t, err)

	stranger := shared.Actor{ID: "cust-2", Role: shared.RoleUser}
	for _, actor := range []shared.Actor{provider, {ID: "driver-3", Role: shared.RoleDriver}, stranger} {
		_, err = f.svc.ApproveQuotation(f.ctx, actor, order.ID)
		require.ErrorIs(t, err, shared.ErrUnauthorized, actor.ID)
		_, err = f.svc.RejectQuotation(f.ctx, actor, order.ID, "no")
		require.ErrorIs(t, err, shared.ErrUnauthorized, actor.ID)
	}
	_, err = f.svc.ApproveQuotation(f.ctx, customer, order.ID)
	require.NoError(t, err)

	paid, _ := f.inProgress(t, "500")
	_, err = f.svc.GenerateInvoice(f.ctx, admin, paid.ID, documents.Overrides{})
	require.NoError(t, err)
	f.pay(t, paid.ID, ledger.CustomerAdvance, "500")
	_, err = f.svc.MarkInvoicePaid(f.ctx, provider, paid.ID)
	require.ErrorIs(t, err, shared.ErrUnauthorized)
	_, err = f.svc.MarkInvoicePaid(f.ctx, customer, paid.ID)
	require.NoError(t, err)
}
