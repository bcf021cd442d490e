package orders

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/documents"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/ledger"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/shared"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/timeline"
)

const (
	viewTimeout        = 2 * time.Second
	viewRecentTimeline = 10
)

// View is the aggregated read model of one order.
type View struct {
	Order          Order                    `json:"order"`
	Quotation      *documents.Quotation     `json:"quotation,omitempty"`
	SalesOrder     *documents.SalesOrder    `json:"sales_order,omitempty"`
	PurchaseOrder  *documents.PurchaseOrder `json:"purchase_order,omitempty"`
	Invoice        *documents.Invoice       `json:"invoice,omitempty"`
	Bill           *documents.Bill          `json:"bill,omitempty"`
	Transactions   []ledger.Transaction     `json:"transactions"`
	Totals         ledger.Totals            `json:"totals"`
	Feedback       []Feedback               `json:"feedback"`
	RecentTimeline []timeline.Entry         `json:"recent_timeline"`
}

func load[T any](dst **T, fn func() (T, error)) func() error {
	return func() error {
		v, err := fn()
		if err != nil {
			return err
		}
		*dst = &v
		return nil
	}
}

// View loads the order together with its documents, transactions, feedback
// and latest timeline entries.
func (s *Service) View(ctx context.Context, orderID string) (View, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return View{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, viewTimeout)
	defer cancel()

	view := View{Order: order}
	docs := s.repo.Documents()
	g, ctx := errgroup.WithContext(ctx)
	if order.QuotationID.Valid {
		g.Go(load(&view.Quotation, func() (documents.Quotation, error) { return docs.GetQuotation(ctx, order.QuotationID.UUID) }))
	}
	if order.SalesOrderID.Valid {
		g.Go(load(&view.SalesOrder, func() (documents.SalesOrder, error) { return docs.GetSalesOrder(ctx, order.SalesOrderID.UUID) }))
	}
	if order.PurchaseOrderID.Valid {
		g.Go(load(&view.PurchaseOrder, func() (documents.PurchaseOrder, error) {
			return docs.GetPurchaseOrder(ctx, order.PurchaseOrderID.UUID)
		}))
	}
	if order.InvoiceID.Valid {
		g.Go(load(&view.Invoice, func() (documents.Invoice, error) { return docs.GetInvoice(ctx, order.InvoiceID.UUID) }))
	}
	if order.BillID.Valid {
		g.Go(load(&view.Bill, func() (documents.Bill, error) { return docs.GetBill(ctx, order.BillID.UUID) }))
	}
	g.Go(func() error {
		txns, totals, err := s.ledger.TransactionsFor(ctx, s.repo.Ledger(), order.ID)
		if err != nil {
			return err
		}
		view.Transactions, view.Totals = txns, totals
		return nil
	})
	g.Go(func() error {
		items, err := s.repo.ListFeedback(ctx, order.ID)
		if err != nil {
			return err
		}
		view.Feedback = items
		return nil
	})
	if s.timeline != nil {
		g.Go(func() error {
			res, err := s.timeline.Query(ctx, order.ID, shared.Page{Page: 1, PageSize: viewRecentTimeline})
			if err != nil {
				return err
			}
			view.RecentTimeline = res.Entries
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return View{}, err
	}
	return view, nil
}
