package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/tablepos/internal/cart"
	"github.com/kiwari-pos/tablepos/internal/checkout"
	mw "github.com/kiwari-pos/tablepos/internal/middleware"
	"go.uber.org/zap"
)

// Checkouter submits a table's cart as a transaction.
// Satisfied by *checkout.Service.
type Checkouter interface {
	Submit(ctx context.Context, store *cart.Store, req checkout.Request) (*checkout.Result, error)
	State(key cart.Key) string
}

// CheckoutHandler handles transaction submission for a table.
type CheckoutHandler struct {
	carts    CartProvider
	checkout Checkouter
	logger   *zap.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(carts CartProvider, checkout Checkouter, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{carts: carts, checkout: checkout, logger: logger}
}

// RegisterRoutes registers checkout endpoints on the given Chi router.
// Expected to be mounted inside a table-scoped subrouter: /restaurants/{rid}/tables/{tid}
func (h *CheckoutHandler) RegisterRoutes(r chi.Router) {
	r.Post("/checkout", h.Submit)
	r.Get("/checkout", h.Status)
}

type splitResponse struct {
	Type    string `json:"type"`
	Percent string `json:"percent"`
	Amount  string `json:"amount"`
}

type checkoutResponse struct {
	TransactionID string          `json:"transaction_id"`
	Number        string          `json:"number"`
	PaymentType   string          `json:"payment_type"`
	Total         string          `json:"total"`
	Splits        []splitResponse `json:"splits,omitempty"`
	CartCleared   bool            `json:"cart_cleared"`
	State         string          `json:"state"`
}

// Submit sends the cart to the transaction collaborator. The cart is only
// cleared when the collaborator accepts.
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	store, ok := tableStore(w, r, h.carts, h.logger)
	if !ok {
		return
	}

	var req checkout.Request
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.checkout.Submit(r.Context(), store, req)
	if err != nil {
		h.submitError(w, err)
		return
	}
	mw.TransactionsTotal.WithLabelValues("accepted").Inc()

	tx := result.Transaction
	resp := checkoutResponse{
		TransactionID: result.Ack.TransactionID,
		Number:        result.Ack.Number,
		PaymentType:   tx.PaymentType,
		Total:         tx.Total.StringFixed(2),
		CartCleared:   result.CartCleared,
		State:         h.checkout.State(store.Key()),
	}
	if resp.TransactionID == "" {
		resp.TransactionID = tx.ID.String()
	}
	for _, sp := range tx.Splits {
		resp.Splits = append(resp.Splits, splitResponse{
			Type:    sp.Type,
			Percent: sp.Percent.String(),
			Amount:  sp.Amount.StringFixed(2),
		})
	}
	writeJSON(w, http.StatusCreated, resp)
}

// Status returns the submission state of the table.
func (h *CheckoutHandler) Status(w http.ResponseWriter, r *http.Request) {
	store, ok := tableStore(w, r, h.carts, h.logger)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": h.checkout.State(store.Key())})
}

func (h *CheckoutHandler) submitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, checkout.ErrInvalidPaymentType),
		errors.Is(err, checkout.ErrSplitsRequired),
		errors.Is(err, checkout.ErrUnexpectedSplits),
		errors.Is(err, checkout.ErrInvalidSplitType),
		errors.Is(err, checkout.ErrDuplicateSplitType),
		errors.Is(err, checkout.ErrInvalidSplitPct),
		errors.Is(err, checkout.ErrSplitSum),
		errors.Is(err, checkout.ErrEmptyCart):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, checkout.ErrSubmissionInFlight):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, checkout.ErrRejected):
		mw.TransactionsTotal.WithLabelValues("rejected").Inc()
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": checkout.UserMessage(err)})
	default:
		h.logger.Error("submit transaction", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": checkout.FallbackMessage})
	}
}
