package documents

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store persists documents. Lookups return shared.ErrNotFound when nothing
// matches. Update methods only touch status and payment-tracking fields.
type Store interface {
	InsertQuotation(ctx context.Context, q Quotation) error
	GetQuotation(ctx context.Context, id uuid.UUID) (Quotation, error)
	LiveQuotationForOrder(ctx context.Context, orderID string) (Quotation, error)
	UpdateQuotation(ctx context.Context, q Quotation) error

	InsertSalesOrder(ctx context.Context, so SalesOrder) error
	GetSalesOrder(ctx context.Context, id uuid.UUID) (SalesOrder, error)
	SalesOrderForQuotation(ctx context.Context, quotationID uuid.UUID) (SalesOrder, error)
	UpdateSalesOrder(ctx context.Context, so SalesOrder) error

	InsertPurchaseOrder(ctx context.Context, po PurchaseOrder) error
	GetPurchaseOrder(ctx context.Context, id uuid.UUID) (PurchaseOrder, error)
	PurchaseOrderForSalesOrder(ctx context.Context, salesOrderID uuid.UUID) (PurchaseOrder, error)
	UpdatePurchaseOrder(ctx context.Context, po PurchaseOrder) error

	InsertInvoice(ctx context.Context, inv Invoice) error
	GetInvoice(ctx context.Context, id uuid.UUID) (Invoice, error)
	InvoiceForSalesOrder(ctx context.Context, salesOrderID uuid.UUID) (Invoice, error)
	UpdateInvoice(ctx context.Context, inv Invoice) error

	InsertBill(ctx context.Context, b Bill) error
	GetBill(ctx context.Context, id uuid.UUID) (Bill, error)
	BillForPurchaseOrder(ctx context.Context, purchaseOrderID uuid.UUID) (Bill, error)
	UpdateBill(ctx context.Context, b Bill) error

	// MarkOverdue moves sent invoices and bills past due_at to overdue and
	// reports what it moved.
	MarkOverdue(ctx context.Context, now time.Time) ([]OverdueDocument, error)
}
