package documents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/platform/db"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/shared"
)

// PGStore implements Store on PostgreSQL. Pass a pgx.Tx to take part in a
// caller's transaction.
type PGStore struct {
	db db.DBTX
}

// NewStore constructs a PGStore.
func NewStore(conn db.DBTX) *PGStore {
	return &PGStore{db: conn}
}

const (
	quotationColumns     = `id, number, order_id, lines, subtotal, tax, discount, total, created_at, updated_at, status, valid_until, advance_amount`
	salesOrderColumns    = `id, number, order_id, lines, subtotal, tax, discount, total, created_at, updated_at, quotation_id, status, advance_amount, balance_amount`
	purchaseOrderColumns = `id, number, order_id, lines, subtotal, tax, discount, total, created_at, updated_at, sales_order_id, provider_id, status, advance_amount, balance_amount`
	invoiceColumns       = `id, number, order_id, lines, subtotal, tax, discount, total, created_at, updated_at, sales_order_id, status, advance_paid, balance_due, due_at`
	billColumns          = `id, number, order_id, lines, subtotal, tax, discount, total, created_at, updated_at, purchase_order_id, status, advance_paid, balance_due, due_at`
)

func headerDest(h *Header) []any {
	return []any{&h.ID, &h.Number, &h.OrderID, &h.Lines, &h.Subtotal, &h.Tax, &h.Discount, &h.Total, &h.CreatedAt, &h.UpdatedAt}
}

func headerArgs(h Header) []any {
	return []any{h.ID, h.Number, h.OrderID, h.Lines, h.Subtotal, h.Tax, h.Discount, h.Total, h.CreatedAt, h.UpdatedAt}
}

func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s", shared.ErrNotFound, what)
	}
	return err
}

func expectOne(tagRows int64, what string) error {
	if tagRows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrNotFound, what)
	}
	return nil
}

// InsertQuotation stores a new quotation.
func (s *PGStore) InsertQuotation(ctx context.Context, q Quotation) error {
	args := append(headerArgs(q.Header), q.Status, q.ValidUntil, q.AdvanceAmount)
	_, err := s.db.Exec(ctx, `INSERT INTO quotations (`+quotationColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`, args...)
	return err
}

func (s *PGStore) scanQuotation(row pgx.Row, what string) (Quotation, error) {
	var q Quotation
	dest := append(headerDest(&q.Header), &q.Status, &q.ValidUntil, &q.AdvanceAmount)
	if err := row.Scan(dest...); err != nil {
		return Quotation{}, notFound(err, what)
	}
	return q, nil
}

// GetQuotation loads a quotation by id.
func (s *PGStore) GetQuotation(ctx context.Context, id uuid.UUID) (Quotation, error) {
	row := s.db.QueryRow(ctx, `SELECT `+quotationColumns+` FROM quotations WHERE id=$1`, id)
	return s.scanQuotation(row, "quotation "+id.String())
}

// LiveQuotationForOrder returns the order's non-rejected quotation.
func (s *PGStore) LiveQuotationForOrder(ctx context.Context, orderID string) (Quotation, error) {
	row := s.db.QueryRow(ctx, `SELECT `+quotationColumns+` FROM quotations WHERE order_id=$1 AND status <> 'rejected'`, orderID)
	return s.scanQuotation(row, "quotation for order "+orderID)
}

// UpdateQuotation persists status and advance.
func (s *PGStore) UpdateQuotation(ctx context.Context, q Quotation) error {
	tag, err := s.db.Exec(ctx, `UPDATE quotations SET status=$2, advance_amount=$3, updated_at=$4 WHERE id=$1`,
		q.ID, q.Status, q.AdvanceAmount, q.UpdatedAt)
	if err != nil {
		return err
	}
	return expectOne(tag.RowsAffected(), "quotation "+q.ID.String())
}

// InsertSalesOrder stores a new sales order.
func (s *PGStore) InsertSalesOrder(ctx context.Context, so SalesOrder) error {
	args := append(headerArgs(so.Header), so.QuotationID, so.Status, so.AdvanceAmount, so.BalanceAmount)
	_, err := s.db.Exec(ctx, `INSERT INTO sales_orders (`+salesOrderColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`, args...)
	return err
}

func (s *PGStore) scanSalesOrder(row pgx.Row, what string) (SalesOrder, error) {
	var so SalesOrder
	dest := append(headerDest(&so.Header), &so.QuotationID, &so.Status, &so.AdvanceAmount, &so.BalanceAmount)
	if err := row.Scan(dest...); err != nil {
		return SalesOrder{}, notFound(err, what)
	}
	return so, nil
}

// GetSalesOrder loads a sales order by id.
func (s *PGStore) GetSalesOrder(ctx context.Context, id uuid.UUID) (SalesOrder, error) {
	row := s.db.QueryRow(ctx, `SELECT `+salesOrderColumns+` FROM sales_orders WHERE id=$1`, id)
	return s.scanSalesOrder(row, "sales order "+id.String())
}

// SalesOrderForQuotation finds the sales order created from a quotation.
func (s *PGStore) SalesOrderForQuotation(ctx context.Context, quotationID uuid.UUID) (SalesOrder, error) {
	row := s.db.QueryRow(ctx, `SELECT `+salesOrderColumns+` FROM sales_orders WHERE quotation_id=$1`, quotationID)
	return s.scanSalesOrder(row, "sales order for quotation "+quotationID.String())
}

// UpdateSalesOrder persists status and running amounts.
func (s *PGStore) UpdateSalesOrder(ctx context.Context, so SalesOrder) error {
	tag, err := s.db.Exec(ctx, `UPDATE sales_orders SET status=$2, advance_amount=$3, balance_amount=$4, updated_at=$5 WHERE id=$1`,
		so.ID, so.Status, so.AdvanceAmount, so.BalanceAmount, so.UpdatedAt)
	if err != nil {
		return err
	}
	return expectOne(tag.RowsAffected(), "sales order "+so.ID.String())
}

// InsertPurchaseOrder stores a new purchase order.
func (s *PGStore) InsertPurchaseOrder(ctx context.Context, po PurchaseOrder) error {
	args := append(headerArgs(po.Header), po.SalesOrderID, po.ProviderID, po.Status, po.AdvanceAmount, po.BalanceAmount)
	_, err := s.db.Exec(ctx, `INSERT INTO purchase_orders (`+purchaseOrderColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`, args...)
	return err
}

func (s *PGStore) scanPurchaseOrder(row pgx.Row, what string) (PurchaseOrder, error) {
	var po PurchaseOrder
	dest := append(headerDest(&po.Header), &po.SalesOrderID, &po.ProviderID, &po.Status, &po.AdvanceAmount, &po.BalanceAmount)
	if err := row.Scan(dest...); err != nil {
		return PurchaseOrder{}, notFound(err, what)
	}
	return po, nil
}

// GetPurchaseOrder loads a purchase order by id.
func (s *PGStore) GetPurchaseOrder(ctx context.Context, id uuid.UUID) (PurchaseOrder, error) {
	row := s.db.QueryRow(ctx, `SELECT `+purchaseOrderColumns+` FROM purchase_orders WHERE id=$1`, id)
	return s.scanPurchaseOrder(row, "purchase order "+id.String())
}

// PurchaseOrderForSalesOrder finds the purchase order sourced from a sales order.
func (s *PGStore) PurchaseOrderForSalesOrder(ctx context.Context, salesOrderID uuid.UUID) (PurchaseOrder, error) {
	row := s.db.QueryRow(ctx, `SELECT `+purchaseOrderColumns+` FROM purchase_orders WHERE sales_order_id=$1`, salesOrderID)
	return s.scanPurchaseOrder(row, "purchase order for sales order "+salesOrderID.String())
}

// UpdatePurchaseOrder persists status and running amounts.
func (s *PGStore) UpdatePurchaseOrder(ctx context.Context, po PurchaseOrder) error {
	tag, err := s.db.Exec(ctx, `UPDATE purchase_orders SET status=$2, advance_amount=$3, balance_amount=$4, updated_at=$5 WHERE id=$1`,
		po.ID, po.Status, po.AdvanceAmount, po.BalanceAmount, po.UpdatedAt)
	if err != nil {
		return err
	}
	return expectOne(tag.RowsAffected(), "purchase order "+po.ID.String())
}

// InsertInvoice stores a new invoice.
func (s *PGStore) InsertInvoice(ctx context.Context, inv Invoice) error {
	args := append(headerArgs(inv.Header), inv.SalesOrderID, inv.Status, inv.AdvancePaid, inv.BalanceDue, inv.DueAt)
	_, err := s.db.Exec(ctx, `INSERT INTO invoices (`+invoiceColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`, args...)
	return err
}

func (s *PGStore) scanInvoice(row pgx.Row, what string) (Invoice, error) {
	var inv Invoice
	dest := append(headerDest(&inv.Header), &inv.SalesOrderID, &inv.Status, &inv.AdvancePaid, &inv.BalanceDue, &inv.DueAt)
	if err := row.Scan(dest...); err != nil {
		return Invoice{}, notFound(err, what)
	}
	return inv, nil
}

// GetInvoice loads an invoice by id.
func (s *PGStore) GetInvoice(ctx context.Context, id uuid.UUID) (Invoice, error) {
	row := s.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id=$1`, id)
	return s.scanInvoice(row, "invoice "+id.String())
}

// InvoiceForSalesOrder finds the invoice issued for a sales order.
func (s *PGStore) InvoiceForSalesOrder(ctx context.Context, salesOrderID uuid.UUID) (Invoice, error) {
	row := s.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE sales_order_id=$1`, salesOrderID)
	return s.scanInvoice(row, "invoice for sales order "+salesOrderID.String())
}

// UpdateInvoice persists status and payment tracking.
func (s *PGStore) UpdateInvoice(ctx context.Context, inv Invoice) error {
	tag, err := s.db.Exec(ctx, `UPDATE invoices SET status=$2, advance_paid=$3, balance_due=$4, updated_at=$5 WHERE id=$1`,
		inv.ID, inv.Status, inv.AdvancePaid, inv.BalanceDue, inv.UpdatedAt)
	if err != nil {
		return err
	}
	return expectOne(tag.RowsAffected(), "invoice "+inv.ID.String())
}

// InsertBill stores a new bill.
func (s *PGStore) InsertBill(ctx context.Context, b Bill) error {
	args := append(headerArgs(b.Header), b.PurchaseOrderID, b.Status, b.AdvancePaid, b.BalanceDue, b.DueAt)
	_, err := s.db.Exec(ctx, `INSERT INTO bills (`+billColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)`, args...)
	return err
}

func (s *PGStore) scanBill(row pgx.Row, what string) (Bill, error) {
	var b Bill
	dest := append(headerDest(&b.Header), &b.PurchaseOrderID, &b.Status, &b.AdvancePaid, &b.BalanceDue, &b.DueAt)
	if err := row.Scan(dest...); err != nil {
		return Bill{}, notFound(err, what)
	}
	return b, nil
}

// GetBill loads a bill by id.
func (s *PGStore) GetBill(ctx context.Context, id uuid.UUID) (Bill, error) {
	row := s.db.QueryRow(ctx, `SELECT `+billColumns+` FROM bills WHERE id=$1`, id)
	return s.scanBill(row, "bill "+id.String())
}

// BillForPurchaseOrder finds the bill issued for a purchase order.
func (s *PGStore) BillForPurchaseOrder(ctx context.Context, purchaseOrderID uuid.UUID) (Bill, error) {
	row := s.db.QueryRow(ctx, `SELECT `+billColumns+` FROM bills WHERE purchase_order_id=$1`, purchaseOrderID)
	return s.scanBill(row, "bill for purchase order "+purchaseOrderID.String())
}

// UpdateBill persists status and payment tracking.
func (s *PGStore) UpdateBill(ctx context.Context, b Bill) error {
	tag, err := s.db.Exec(ctx, `UPDATE bills SET status=$2, advance_paid=$3, balance_due=$4, updated_at=$5 WHERE id=$1`,
		b.ID, b.Status, b.AdvancePaid, b.BalanceDue, b.UpdatedAt)
	if err != nil {
		return err
	}
	return expectOne(tag.RowsAffected(), "bill "+b.ID.String())
}

// MarkOverdue flags sent invoices and bills whose due date has passed.
func (s *PGStore) MarkOverdue(ctx context.Context, now time.Time) ([]OverdueDocument, error) {
	var out []OverdueDocument
	for _, target := range []struct{ table, kind string }{{"invoices", KindInvoice}, {"bills", KindBill}} {
		rows, err := s.db.Query(ctx, `UPDATE `+target.table+` SET status='overdue', updated_at=$1
			WHERE status='sent' AND due_at < $1
			RETURNING id, number, order_id`, now)
		if err != nil {
			return out, fmt.Errorf("mark overdue %s: %w", target.table, err)
		}
		for rows.Next() {
			doc := OverdueDocument{Kind: target.kind}
			if err := rows.Scan(&doc.ID, &doc.Number, &doc.OrderID); err != nil {
				rows.Close()
				return out, err
			}
			out = append(out, doc)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return out, fmt.Errorf("mark overdue %s: %w", target.table, err)
		}
	}
	return out, nil
}
