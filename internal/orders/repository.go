package orders

import (
	"context"

	"github.com/google/uuid"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/documents"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/ledger"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetOrder(ctx context.Context, id string) (Order, error)
	OrderExists(ctx context.Context, id string) (bool, error)
	ListOrders(ctx context.Context, filter ListFilter) ([]Order, int, error)
	ListFeedback(ctx context.Context, orderID string) ([]Feedback, error)
	Documents() documents.Store
	Ledger() ledger.Store
}

// TxRepository exposes transactional operations. LockOrder holds the order
// row until the transaction ends.
type TxRepository interface {
	InsertOrder(ctx context.Context, order Order) error
	LockOrder(ctx context.Context, id string) (Order, error)
	UpdateOrder(ctx context.Context, order Order) error
	InsertFeedback(ctx context.Context, fb Feedback) error
	GetFeedback(ctx context.Context, id uuid.UUID) (Feedback, error)
	UpdateFeedback(ctx context.Context, fb Feedback) error
	FeedbackExists(ctx context.Context, orderID string, side ledger.Side, actorID string) (bool, error)
	FeedbackSides(ctx context.Context, orderID string) (map[ledger.Side]bool, error)
	Documents() documents.Store
	Ledger() ledger.Store
}

