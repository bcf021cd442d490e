package orders

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/platform/httpx"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/shared"
)

// MountRoutes registers order endpoints under the caller's prefix.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.createOrder)
		r.Get("/", h.listOrders)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.showOrder)
			r.Patch("/", h.updateOrder)
			r.Post("/cancel", h.cancelOrder)

			r.Post("/quotation", h.createQuotation)
			r.Post("/quotation/share", h.shareQuotation)
			r.Post("/quotation/approve", h.approveQuotation)
			r.Post("/quotation/reject", h.rejectQuotation)

			r.Post("/sales-order", h.createSalesOrder)
			r.Post("/purchase-order", h.createPurchaseOrder)
			r.Post("/purchase-order/send", h.sendPurchaseOrder)
			r.Post("/purchase-order/acknowledge", h.acknowledgePurchaseOrder)

			r.Post("/invoice", h.generateInvoice)
			r.Post("/invoice/paid", h.markInvoicePaid)
			r.Post("/bill", h.generateBill)

			r.Get("/transactions", h.listTransactions)
			r.Group(func(gr chi.Router) {
				if h.rateLimit > 0 {
					gr.Use(h.transactionLimiter())
				}
				gr.Post("/transactions", h.postTransaction)
			})

			r.Get("/feedback", h.listFeedback)
			r.Post("/feedback", h.submitFeedback)
			r.Post("/feedback/{feedbackID}/review", h.reviewFeedback)

			r.Get("/timeline", h.showTimeline)
		})
	})
}

func (h *Handler) transactionLimiter() func(http.Handler) http.Handler {
	return httprate.Limit(h.rateLimit, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			httpx.Fail(w, http.StatusTooManyRequests, "RATE_LIMITED", http.StatusText(http.StatusTooManyRequests))
		}),
	)
}

func rateLimitKey(r *http.Request) (string, error) {
	if actor, ok := shared.ActorFromContext(r.Context()); ok && actor.ID != "" {
		return "actor:" + actor.ID, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
