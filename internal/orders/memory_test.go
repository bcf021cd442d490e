package orders

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/documents"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/documents/documentstest"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/ledger"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/ledger/ledgertest"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/shared"
)

// memoryRepo keeps orders and feedback in maps. WithTx works on copies and
// swaps them in on success, so a failed mutation leaves no trace.
type memoryRepo struct {
	txMu     sync.Mutex
	mu       sync.Mutex
	orders   map[string]Order
	feedback map[uuid.UUID]Feedback
	docs     *documentstest.MemoryStore
	ldgr     *ledgertest.MemoryStore
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		orders:   map[string]Order{},
		feedback: map[uuid.UUID]Feedback{},
		docs:     documentstest.NewMemoryStore(),
		ldgr:     ledgertest.NewMemoryStore(),
	}
}

type memoryTx struct {
	repo     *memoryRepo
	orders   map[string]Order
	feedback map[uuid.UUID]Feedback
}

func (m *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	tx := &memoryTx{repo: m, orders: make(map[string]Order, len(m.orders)), feedback: make(map[uuid.UUID]Feedback, len(m.feedback))}
	for k, v := range m.orders {
		tx.orders[k] = v
	}
	for k, v := range m.feedback {
		tx.feedback[k] = v
	}
	m.mu.Unlock()

	if err := fn(ctx, tx); err != nil {
		return err
	}
	m.mu.Lock()
	m.orders, m.feedback = tx.orders, tx.feedback
	m.mu.Unlock()
	return nil
}

func (m *memoryRepo) GetOrder(_ context.Context, id string) (Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return Order{}, fmt.Errorf("%w: order %s", shared.ErrNotFound, id)
	}
	return o, nil
}

func (m *memoryRepo) OrderExists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.orders[id]
	return ok, nil
}

func (m *memoryRepo) ListOrders(_ context.Context, filter ListFilter) ([]Order, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []Order
	for _, o := range m.orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.CustomerID != "" && o.CustomerID != filter.CustomerID {
			continue
		}
		matched = append(matched, o)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	page := filter.Page.Normalize()
	start := page.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + page.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], len(matched), nil
}

func (m *memoryRepo) ListFeedback(_ context.Context, orderID string) ([]Feedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Feedback
	for _, fb := range m.feedback {
		if fb.OrderID == orderID {
			out = append(out, fb)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Side < out[j].Side })
	return out, nil
}

func (m *memoryRepo) Documents() documents.Store { return m.docs }
func (m *memoryRepo) Ledger() ledger.Store       { return m.ldgr }

func (t *memoryTx) InsertOrder(_ context.Context, o Order) error {
	if _, ok := t.orders[o.ID]; ok {
		return fmt.Errorf("%w: order %s", shared.ErrAlreadyExists, o.ID)
	}
	t.orders[o.ID] = o
	return nil
}

func (t *memoryTx) LockOrder(_ context.Context, id string) (Order, error) {
	o, ok := t.orders[id]
	if !ok {
		return Order{}, fmt.Errorf("%w: order %s", shared.ErrNotFound, id)
	}
	return o, nil
}

func (t *memoryTx) UpdateOrder(_ context.Context, o Order) error {
	if _, ok := t.orders[o.ID]; !ok {
		return fmt.Errorf("%w: order %s", shared.ErrNotFound, o.ID)
	}
	t.orders[o.ID] = o
	return nil
}

func (t *memoryTx) InsertFeedback(_ context.Context, fb Feedback) error {
	for _, existing := range t.feedback {
		if existing.OrderID == fb.OrderID && existing.Side == fb.Side && existing.ActorID == fb.ActorID {
			return fmt.Errorf("%w: feedback", shared.ErrAlreadyExists)
		}
	}
	t.feedback[fb.ID] = fb
	return nil
}

func (t *memoryTx) GetFeedback(_ context.Context, id uuid.UUID) (Feedback, error) {
	fb, ok := t.feedback[id]
	if !ok {
		return Feedback{}, fmt.Errorf("%w: feedback %s", shared.ErrNotFound, id)
	}
	return fb, nil
}

func (t *memoryTx) UpdateFeedback(_ context.Context, fb Feedback) error {
	if _, ok := t.feedback[fb.ID]; !ok {
		return fmt.Errorf("%w: feedback %s", shared.ErrNotFound, fb.ID)
	}
	t.feedback[fb.ID] = fb
	return nil
}

func (t *memoryTx) FeedbackExists(_ context.Context, orderID string, side ledger.Side, actorID string) (bool, error) {
	for _, fb := range t.feedback {
		if fb.OrderID == orderID && fb.Side == side && fb.ActorID == actorID {
			return true, nil
		}
	}
	return false, nil
}

func (t *memoryTx) FeedbackSides(_ context.Context, orderID string) (map[ledger.Side]bool, error) {
	sides := map[ledger.Side]bool{}
	for _, fb := range t.feedback {
		if fb.OrderID == orderID {
			sides[fb.Side] = true
		}
	}
	return sides, nil
}

func (t *memoryTx) Documents() documents.Store { return t.repo.docs }
func (t *memoryTx) Ledger() ledger.Store       { return t.repo.ldgr }
