package timeline

import "time"

// Actions recorded against an order.
const (
	ActionOrderCreated         = "order_created"
	ActionOrderUpdated         = "order_updated"
	ActionOrderCancelled       = "order_cancelled"
	ActionQuotationCreated     = "quotation_created"
	ActionQuotationShared      = "quotation_shared"
	ActionQuotationApproved    = "quotation_approved"
	ActionQuotationRejected    = "quotation_rejected"
	ActionSalesOrderCreated    = "sales_order_created"
	ActionPurchaseOrderCreated = "purchase_order_created"
	ActionPurchaseOrderSent    = "purchase_order_sent"
	ActionPurchaseOrderAcked   = "purchase_order_acknowledged"
	ActionInvoiceGenerated     = "invoice_generated"
	ActionInvoicePaid          = "invoice_paid"
	ActionDocumentOverdue      = "document_overdue"
	ActionBillGenerated        = "bill_generated"
	ActionTransactionPosted    = "transaction_posted"
	ActionFeedbackSubmitted    = "feedback_submitted"
	ActionFeedbackReviewed     = "feedback_reviewed"
)

// Entry is one immutable line of an order's audit trail.
type Entry struct {
	ID          string         `json:"id"`
	OrderID     string         `json:"order_id"`
	Action      string         `json:"action"`
	Description string         `json:"description"`
	ActorID     string         `json:"actor_id"`
	ActorRole   string         `json:"actor_role"`
	Previous    map[string]any `json:"previous,omitempty"`
	Next        map[string]any `json:"next,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Snapshot is a small helper for Previous/Next values.
func Snapshot(kv ...any) map[string]any {
	out := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		out[key] = kv[i+1]
	}
	return out
}
