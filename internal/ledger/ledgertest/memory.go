// Package ledgertest provides an in-memory ledger.Store for tests.
package ledgertest

import (
	"context"
	"fmt"
	"sync"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/ledger"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/shared"
)

// MemoryStore keeps transactions in process.
type MemoryStore struct {
	mu   sync.Mutex
	txns []ledger.Transaction
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) InsertTransaction(_ context.Context, t ledger.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.txns {
		if existing.Number == t.Number {
			return fmt.Errorf("%w: transaction %s", shared.ErrAlreadyExists, t.Number)
		}
	}
	m.txns = append(m.txns, t)
	return nil
}

func (m *MemoryStore) ListTransactions(_ context.Context, orderID string) ([]ledger.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ledger.Transaction
	for _, t := range m.txns {
		if t.OrderID == orderID {
			out = append(out, t)
		}
	}
	return out, nil
}

var _ ledger.Store = (*MemoryStore)(nil)
