package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/documents"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/ledger"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/notify"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/sequence"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/shared"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/timeline"
)

var (
	fixedNow = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)
	admin    = shared.Actor{ID: "admin-1", Role: shared.RoleAdmin}
	customer = shared.Actor{ID: "cust-1", Role: shared.RoleUser}
	provider = shared.Actor{ID: "vendor-7", Role: shared.RoleVendor}
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type timelineSpy struct {
	mu      sync.Mutex
	entries []timeline.Entry
}

func (s *timelineSpy) Append(_ context.Context, e timeline.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
}

func (s *timelineSpy) Query(_ context.Context, orderID string, page shared.Page) (timeline.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []timeline.Entry
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].OrderID == orderID {
			matched = append(matched, s.entries[i])
		}
	}
	page = page.Normalize()
	start := page.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + page.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return timeline.Result{Entries: matched[start:end], Paging: shared.NewPagination(page.Page, page.PageSize, len(matched))}, nil
}

func (s *timelineSpy) actions(orderID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, e := range s.entries {
		if e.OrderID == orderID {
			out = append(out, e.Action)
		}
	}
	return out
}

func (s *timelineSpy) last() timeline.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[len(s.entries)-1]
}

type notifierSpy struct {
	mu   sync.Mutex
	sent []notify.Kind
	to   []notify.Recipient
	fail error
}

func (n *notifierSpy) record(kind notify.Kind, to notify.Recipient) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, kind)
	n.to = append(n.to, to)
	return n.fail
}

func (n *notifierSpy) SendBookingConfirmation(_ context.Context, _ notify.Payload, to notify.Recipient) error {
	return n.record(notify.KindBookingConfirmation, to)
}

func (n *notifierSpy) SendBookingCancellation(_ context.Context, _ notify.Payload, to notify.Recipient) error {
	return n.record(notify.KindBookingCancellation, to)
}

func (n *notifierSpy) SendQuotation(_ context.Context, _ notify.Payload, to notify.Recipient) error {
	return n.record(notify.KindQuotation, to)
}

func (n *notifierSpy) SendInvoice(_ context.Context, _ notify.Payload, to notify.Recipient) error {
	return n.record(notify.KindInvoice, to)
}

func (n *notifierSpy) SendBill(_ context.Context, _ notify.Payload, to notify.Recipient) error {
	return n.record(notify.KindBill, to)
}

func (n *notifierSpy) kinds() []notify.Kind {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notify.Kind(nil), n.sent...)
}

type metricsSpy struct {
	mu       sync.Mutex
	outcomes map[string][]string
}

func (m *metricsSpy) ObserveTransition(operation, outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.outcomes == nil {
		m.outcomes = map[string][]string{}
	}
	m.outcomes[operation] = append(m.outcomes[operation], outcome)
}

func (m *metricsSpy) of(operation string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.outcomes[operation]
}

type memoryIdempotency struct {
	mu   sync.Mutex
	keys map[string]bool
}

func (m *memoryIdempotency) CheckAndInsert(_ context.Context, key, module string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys == nil {
		m.keys = map[string]bool{}
	}
	if m.keys[module+"/"+key] {
		return shared.ErrIdempotencyConflict
	}
	m.keys[module+"/"+key] = true
	return nil
}

func (m *memoryIdempotency) Delete(_ context.Context, key, module string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, module+"/"+key)
	return nil
}

type lockerStub struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (l *lockerStub) Acquire(_ context.Context, key string) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.keys = append(l.keys, key)
	if l.err != nil {
		return nil, l.err
	}
	return func() {}, nil
}

type fixture struct {
	ctx      context.Context
	now      time.Time
	repo     *memoryRepo
	timeline *timelineSpy
	notifier *notifierSpy
	metrics  *metricsSpy
	svc      *Service
}

func newFixture(t *testing.T, opts ...func(*Deps)) *fixture {
	t.Helper()
	f := &fixture{
		ctx:      context.Background(),
		now:      fixedNow,
		repo:     newMemoryRepo(),
		timeline: &timelineSpy{},
		notifier: &notifierSpy{},
		metrics:  &metricsSpy{},
	}
	clock := func() time.Time { return f.now }
	alloc := sequence.NewAllocator(sequence.NewMemoryCounter(), sequence.WithClock(clock))
	money, err := timeline.NewMoneyFormatter("INR")
	require.NoError(t, err)
	deps := Deps{
		Repo:     f.repo,
		Numbers:  alloc,
		Factory:  documents.NewFactory(alloc, documents.WithClock(clock)),
		Ledger:   ledger.NewService(alloc).WithClock(clock),
		Timeline: f.timeline,
		Notifier: f.notifier,
		Metrics:  f.metrics,
		Money:    money,
		Clock:    clock,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	f.svc = NewService(deps)
	return f
}

func (f *fixture) order(t *testing.T) Order {
	t.Helper()
	order, err := f.svc.CreateOrder(f.ctx, admin, CreateInput{
		CustomerID: customer.ID,
		Contact:    Contact{Name: "Asha Rao", Email: "asha@example.com"},
		Pickup:     "Andheri East, Mumbai",
		Dropoff:    "Hinjewadi, Pune",
	})
	require.NoError(t, err)
	return order
}

func quotationFor(total string) QuotationRequest {
	return QuotationRequest{Lines: []documents.LineInput{{Description: "Tempo, Mumbai to Pune", Quantity: dec("1"), UnitPrice: dec(total)}}}
}

func (f *fixture) quoted(t *testing.T, total string) (Order, documents.Quotation) {
	t.Helper()
	order := f.order(t)
	q, err := f.svc.CreateQuotation(f.ctx, admin, order.ID, quotationFor(total))
	require.NoError(t, err)
	return order, q
}

func (f *fixture) confirmed(t *testing.T, total string) (Order, documents.Quotation) {
	t.Helper()
	order, _ := f.quoted(t, total)
	_, err := f.svc.ShareQuotation(f.ctx, admin, order.ID)
	require.NoError(t, err)
	q, err := f.svc.ApproveQuotation(f.ctx, customer, order.ID)
	require.NoError(t, err)
	return order, q
}

func (f *fixture) inProgress(t *testing.T, total string) (Order, documents.SalesOrder) {
	t.Helper()
	order, _ := f.confirmed(t, total)
	so, err := f.svc.CreateSalesOrder(f.ctx, admin, order.ID, documents.Overrides{})
	require.NoError(t, err)
	return order, so
}

func (f *fixture) pay(t *testing.T, orderID string, typ ledger.TransactionType, amount string) ledger.Posting {
	t.Helper()
	posting, err := f.svc.PostTransaction(f.ctx, admin, orderID, PaymentInput{Type: typ, Amount: dec(amount), Method: "upi"})
	require.NoError(t, err)
	return posting
}

func (f *fixture) reload(t *testing.T, id string) Order {
	t.Helper()
	order, err := f.svc.GetOrder(f.ctx, id)
	require.NoError(t, err)
	return order
}
