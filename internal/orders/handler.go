package orders

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/ledger"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/platform/httpx"
	"github.com/ShivaKumarChakali/lezit-transports-sub001/internal/shared"
)

// Handler serves the order API.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	rateLimit int
}

// NewHandler builds a Handler. rateLimit caps transaction posts per actor
// per minute; zero disables the limit.
func NewHandler(logger *slog.Logger, service *Service, rateLimit int) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, validator: validator.New(), rateLimit: rateLimit}
}

func actorOf(r *http.Request) (shared.Actor, error) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		return shared.Actor{}, fmt.Errorf("%w: missing actor", shared.ErrUnauthorized)
	}
	return actor, nil
}

func (h *Handler) decode(r *http.Request, target any) error {
	if err := httpx.DecodeJSON(r, target); err != nil {
		return fmt.Errorf("%w: malformed body: %v", shared.ErrValidation, err)
	}
	if err := h.validator.Struct(target); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			fields := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				fields = append(fields, fmt.Sprintf("%s failed %s", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", shared.ErrValidation, strings.Join(fields, "; "))
		}
		return fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	return nil
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if shared.CodeOf(err) == shared.CodeInternal {
		h.logger.Error("order request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req createOrderRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	order, err := h.service.CreateOrder(r.Context(), actor, req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, http.StatusCreated, "order created", order)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ListFilter{Status: Status(q.Get("status")), CustomerID: q.Get("customer_id")}
	filter.Page.Page, _ = strconv.Atoi(q.Get("page"))
	filter.Page.PageSize, _ = strconv.Atoi(q.Get("per_page"))
	items, meta, err := h.service.ListOrders(r.Context(), filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if items == nil {
		items = []Order{}
	}
	httpx.OK(w, http.StatusOK, "orders", map[string]any{"items": items, "pagination": meta})
}

func (h *Handler) showOrder(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.View(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "order", view)
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req updateOrderRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	order, err := h.service.UpdateOrder(r.Context(), actor, chi.URLParam(r, "id"), req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "order updated", order)
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req reasonRequest
	if r.ContentLength != 0 {
		if err := h.decode(r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	order, err := h.service.CancelOrder(r.Context(), actor, chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "order cancelled", order)
}

func (h *Handler) createQuotation(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req quotationRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	q, err := h.service.CreateQuotation(r.Context(), actor, chi.URLParam(r, "id"), req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, http.StatusCreated, "quotation created", q)
}

func (h *Handler) shareQuotation(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q, err := h.service.ShareQuotation(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "quotation shared", q)
}

func (h *Handler) approveQuotation(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	q, err := h.service.ApproveQuotation(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "quotation approved", q)
}

func (h *Handler) rejectQuotation(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req reasonRequest
	if r.ContentLength != 0 {
		if err := h.decode(r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	q, err := h.service.RejectQuotation(r.Context(), actor, chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "quotation rejected", q)
}

func (h *Handler) decodeOverrides(r *http.Request) (overridesRequest, error) {
	var req overridesRequest
	if r.ContentLength == 0 {
		return req, nil
	}
	return req, h.decode(r, &req)
}

func (h *Handler) createSalesOrder(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	req, err := h.decodeOverrides(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	so, err := h.service.CreateSalesOrder(r.Context(), actor, chi.URLParam(r, "id"), req.overrides())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, http.StatusCreated, "sales order created", so)
}

func (h *Handler) createPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req purchaseOrderRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	po, err := h.service.CreatePurchaseOrder(r.Context(), actor, chi.URLParam(r, "id"), req.ProviderID, req.overrides())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, http.StatusCreated, "purchase order created", po)
}

func (h *Handler) sendPurchaseOrder(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	po, err := h.service.SendPurchaseOrder(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "purchase order sent", po)
}

func (h *Handler) acknowledgePurchaseOrder(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	po, err := h.service.AcknowledgePurchaseOrder(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "purchase order acknowledged", po)
}

func (h *Handler) generateInvoice(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	req, err := h.decodeOverrides(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	inv, err := h.service.GenerateInvoice(r.Context(), actor, chi.URLParam(r, "id"), req.overrides())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, http.StatusCreated, "invoice generated", inv)
}

func (h *Handler) markInvoicePaid(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	inv, err := h.service.MarkInvoicePaid(r.Context(), actor, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "invoice paid", inv)
}

func (h *Handler) generateBill(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	req, err := h.decodeOverrides(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	bill, err := h.service.GenerateBill(r.Context(), actor, chi.URLParam(r, "id"), req.overrides())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, http.StatusCreated, "bill generated", bill)
}

func (h *Handler) postTransaction(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req transactionRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	in := req.input()
	if key := r.Header.Get("Idempotency-Key"); key != "" && in.IdempotencyKey == "" {
		in.IdempotencyKey = key
	}
	posting, err := h.service.PostTransaction(r.Context(), actor, chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, http.StatusCreated, "transaction recorded", posting.Transaction)
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	txns, totals, err := h.service.TransactionsFor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if txns == nil {
		txns = []ledger.Transaction{}
	}
	httpx.OK(w, http.StatusOK, "transactions", transactionsResponse{Transactions: txns, Totals: totals})
}

func (h *Handler) submitFeedback(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req feedbackRequest
	if err := h.decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	fb, err := h.service.SubmitFeedback(r.Context(), actor, chi.URLParam(r, "id"), req.input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, http.StatusCreated, "feedback submitted", fb)
}

func (h *Handler) listFeedback(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.Feedback(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if items == nil {
		items = []Feedback{}
	}
	httpx.OK(w, http.StatusOK, "feedback", items)
}

func (h *Handler) reviewFeedback(w http.ResponseWriter, r *http.Request) {
	actor, err := actorOf(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "feedbackID"))
	if err != nil {
		h.fail(w, r, fmt.Errorf("%w: feedback id", shared.ErrValidation))
		return
	}
	fb, err := h.service.ReviewFeedback(r.Context(), actor, chi.URLParam(r, "id"), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "feedback reviewed", fb)
}

func (h *Handler) showTimeline(w http.ResponseWriter, r *http.Request) {
	var page shared.Page
	page.Page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	page.PageSize, _ = strconv.Atoi(r.URL.Query().Get("per_page"))
	res, err := h.service.Timeline(r.Context(), chi.URLParam(r, "id"), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.OK(w, http.StatusOK, "timeline", res)
}
