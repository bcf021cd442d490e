package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/documents"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/ledger"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/platform/db"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/shared"
)

// Repository provides PostgreSQL backed persistence for orders.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx   pgx.Tx
	docs *documents.PGStore
	ldgr *ledger.PGStore
}

// WithTx wraps callback in a repeatable-read transaction, retrying
// serialization failures.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx, docs: documents.NewStore(tx), ldgr: ledger.NewStore(tx)})
	})
}

// Documents returns a store outside any transaction.
func (r *Repository) Documents() documents.Store { return documents.NewStore(r.pool) }

// Ledger returns a store outside any transaction.
func (r *Repository) Ledger() ledger.Store { return ledger.NewStore(r.pool) }

func (t *txRepo) Documents() documents.Store { return t.docs }
func (t *txRepo) Ledger() ledger.Store       { return t.ldgr }

const orderColumns = `id, status, legacy_status, payment_status, customer_id, contact_name, contact_email, contact_phone,
pickup, dropoff, scheduled_at, notes, total_amount, quotation_id, sales_order_id, purchase_order_id, invoice_id, bill_id,
update_count, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.Status, &o.LegacyStatus, &o.PaymentStatus, &o.CustomerID,
		&o.Contact.Name, &o.Contact.Email, &o.Contact.Phone,
		&o.Pickup, &o.Dropoff, &o.ScheduledAt, &o.Notes, &o.TotalAmount,
		&o.QuotationID, &o.SalesOrderID, &o.PurchaseOrderID, &o.InvoiceID, &o.BillID,
		&o.UpdateCount, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, shared.ErrNotFound
		}
		return Order{}, err
	}
	return o, nil
}

// GetOrder loads an order by id.
func (r *Repository) GetOrder(ctx context.Context, id string) (Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if errors.Is(err, shared.ErrNotFound) {
		return Order{}, fmt.Errorf("%w: order %s", shared.ErrNotFound, id)
	}
	return o, err
}

// OrderExists reports whether an order id is taken.
func (r *Repository) OrderExists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id=$1)`, id).Scan(&exists)
	return exists, err
}

// ListOrders returns a page of orders, newest first, with the total count.
func (r *Repository) ListOrders(ctx context.Context, filter ListFilter) ([]Order, int, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		where = append(where, fmt.Sprintf("status=$%d", len(args)))
	}
	if filter.CustomerID != "" {
		args = append(args, filter.CustomerID)
		where = append(where, fmt.Sprintf("customer_id=$%d", len(args)))
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+clause, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	page := filter.Page.Normalize()
	args = append(args, page.PageSize, page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM orders%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		orderColumns, clause, len(args)-1, len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

const feedbackColumns = `id, order_id, side, actor_id, rating, comment, categories, status, reviewed_by, reviewed_at, created_at`

func scanFeedback(row pgx.Row) (Feedback, error) {
	var fb Feedback
	err := row.Scan(&fb.ID, &fb.OrderID, &fb.Side, &fb.ActorID, &fb.Rating, &fb.Comment, &fb.Categories,
		&fb.Status, &fb.ReviewedBy, &fb.ReviewedAt, &fb.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Feedback{}, shared.ErrNotFound
		}
		return Feedback{}, err
	}
	return fb, nil
}

// ListFeedback lists an order's feedback oldest first.
func (r *Repository) ListFeedback(ctx context.Context, orderID string) ([]Feedback, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+feedbackColumns+` FROM feedback WHERE order_id=$1 ORDER BY created_at, id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Feedback
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, fb)
	}
	return out, rows.Err()
}

func (t *txRepo) InsertOrder(ctx context.Context, o Order) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO orders (`+orderColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21)`,
		o.ID, o.Status, o.LegacyStatus, o.PaymentStatus, o.CustomerID,
		o.Contact.Name, o.Contact.Email, o.Contact.Phone,
		o.Pickup, o.Dropoff, o.ScheduledAt, o.Notes, o.TotalAmount,
		o.QuotationID, o.SalesOrderID, o.PurchaseOrderID, o.InvoiceID, o.BillID,
		o.UpdateCount, o.CreatedAt, o.UpdatedAt)
	if db.IsUniqueViolation(err, "orders_pkey") {
		return fmt.Errorf("%w: order %s", shared.ErrAlreadyExists, o.ID)
	}
	return err
}

func (t *txRepo) LockOrder(ctx context.Context, id string) (Order, error) {
	o, err := scanOrder(t.tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, shared.ErrNotFound) {
		return Order{}, fmt.Errorf("%w: order %s", shared.ErrNotFound, id)
	}
	return o, err
}

func (t *txRepo) UpdateOrder(ctx context.Context, o Order) error {
	tag, err := t.tx.Exec(ctx, `UPDATE orders SET status=$2, legacy_status=$3, payment_status=$4,
contact_name=$5, contact_email=$6, contact_phone=$7, pickup=$8, dropoff=$9, scheduled_at=$10, notes=$11,
total_amount=$12, quotation_id=$13, sales_order_id=$14, purchase_order_id=$15, invoice_id=$16, bill_id=$17,
update_count=$18, updated_at=$19 WHERE id=$1`,
		o.ID, o.Status, o.LegacyStatus, o.PaymentStatus,
		o.Contact.Name, o.Contact.Email, o.Contact.Phone, o.Pickup, o.Dropoff, o.ScheduledAt, o.Notes,
		o.TotalAmount, o.QuotationID, o.SalesOrderID, o.PurchaseOrderID, o.InvoiceID, o.BillID,
		o.UpdateCount, o.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: order %s", shared.ErrNotFound, o.ID)
	}
	return nil
}

func (t *txRepo) InsertFeedback(ctx context.Context, fb Feedback) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO feedback (`+feedbackColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		fb.ID, fb.OrderID, fb.Side, fb.ActorID, fb.Rating, fb.Comment, fb.Categories,
		fb.Status, fb.ReviewedBy, fb.ReviewedAt, fb.CreatedAt)
	if db.IsUniqueViolation(err, "uq_feedback_order_side_actor") {
		return fmt.Errorf("%w: %s feedback from %s", shared.ErrAlreadyExists, fb.Side, fb.ActorID)
	}
	return err
}

func (t *txRepo) GetFeedback(ctx context.Context, id uuid.UUID) (Feedback, error) {
	fb, err := scanFeedback(t.tx.QueryRow(ctx, `SELECT `+feedbackColumns+` FROM feedback WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, shared.ErrNotFound) {
		return Feedback{}, fmt.Errorf("%w: feedback %s", shared.ErrNotFound, id)
	}
	return fb, err
}

func (t *txRepo) UpdateFeedback(ctx context.Context, fb Feedback) error {
	tag, err := t.tx.Exec(ctx, `UPDATE feedback SET status=$2, reviewed_by=$3, reviewed_at=$4 WHERE id=$1`,
		fb.ID, fb.Status, fb.ReviewedBy, fb.ReviewedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: feedback %s", shared.ErrNotFound, fb.ID)
	}
	return nil
}

func (t *txRepo) FeedbackExists(ctx context.Context, orderID string, side ledger.Side, actorID string) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM feedback WHERE order_id=$1 AND side=$2 AND actor_id=$3)`,
		orderID, side, actorID).Scan(&exists)
	return exists, err
}

func (t *txRepo) FeedbackSides(ctx context.Context, orderID string) (map[ledger.Side]bool, error) {
	rows, err := t.tx.Query(ctx, `SELECT DISTINCT side FROM feedback WHERE order_id=$1`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	sides := map[ledger.Side]bool{}
	for rows.Next() {
		var side ledger.Side
		if err := rows.Scan(&side); err != nil {
			return nil, err
		}
		sides[side] = true
	}
	return sides, rows.Err()
}
