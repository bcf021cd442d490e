package timeline

import (
	"context"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/platform/db"
)

// PGRepository stores entries in timeline_entries.
type PGRepository struct {
	db db.DBTX
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(conn db.DBTX) *PGRepository {
	return &PGRepository{db: conn}
}

// Insert appends one entry. There is no update or delete path.
func (r *PGRepository) Insert(ctx context.Context, e Entry) error {
	_, err := r.db.Exec(ctx, `INSERT INTO timeline_entries (id, order_id, action, description, actor_id, actor_role, previous, next, metadata, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		e.ID, e.OrderID, e.Action, e.Description, e.ActorID, e.ActorRole, e.Previous, e.Next, e.Metadata, e.CreatedAt)
	return err
}

// ListByOrder pages through an order's entries.
func (r *PGRepository) ListByOrder(ctx context.Context, orderID string, offset, limit int, ascending bool) ([]Entry, error) {
	query := `SELECT id, order_id, action, description, actor_id, actor_role, previous, next, metadata, created_at
FROM timeline_entries WHERE order_id=$1 ORDER BY created_at DESC, id DESC OFFSET $2 LIMIT $3`
	if ascending {
		query = `SELECT id, order_id, action, description, actor_id, actor_role, previous, next, metadata, created_at
FROM timeline_entries WHERE order_id=$1 ORDER BY created_at ASC, id ASC OFFSET $2 LIMIT $3`
	}
	rows, err := r.db.Query(ctx, query, orderID, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.OrderID, &e.Action, &e.Description, &e.ActorID, &e.ActorRole, &e.Previous, &e.Next, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
