package ledger

import (
	"context"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/platform/db"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/shared"
)

// PGStore implements Store on financial_transactions.
type PGStore struct {
	db db.DBTX
}

// NewStore constructs a PGStore.
func NewStore(conn db.DBTX) *PGStore {
	return &PGStore{db: conn}
}

// InsertTransaction appends a transaction.
func (s *PGStore) InsertTransaction(ctx context.Context, t Transaction) error {
	_, err := s.db.Exec(ctx, `INSERT INTO financial_transactions (id, number, order_id, type, amount, method, reference, receipt_number, status, actor_id, actor_role, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		t.ID, t.Number, t.OrderID, t.Type, t.Amount, t.Method, t.Reference, t.ReceiptNumber, t.Status, t.ActorID, t.ActorRole, t.CreatedAt)
	if db.IsUniqueViolation(err, "") {
		return shared.ErrAlreadyExists
	}
	return err
}

// ListTransactions returns an order's transactions oldest first.
func (s *PGStore) ListTransactions(ctx context.Context, orderID string) ([]Transaction, error) {
	rows, err := s.db.Query(ctx, `SELECT id, number, order_id, type, amount, method, reference, receipt_number, status, actor_id, actor_role, created_at
FROM financial_transactions WHERE order_id=$1 ORDER BY created_at, number`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Transaction
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.Number, &t.OrderID, &t.Type, &t.Amount, &t.Method, &t.Reference, &t.ReceiptNumber, &t.Status, &t.ActorID, &t.ActorRole, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
