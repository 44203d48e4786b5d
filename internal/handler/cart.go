package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/tablepos/internal/billing"
	"github.com/kiwari-pos/tablepos/internal/cart"
	"github.com/kiwari-pos/tablepos/internal/catalog"
	"github.com/kiwari-pos/tablepos/internal/events"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartHandler serves the cart of one table.
type CartHandler struct {
	carts   CartProvider
	catalog CatalogLookup
	states  SubmissionStates
	logger  *zap.Logger
}

// NewCartHandler creates a new CartHandler. states may be nil.
func NewCartHandler(carts CartProvider, catalog CatalogLookup, states SubmissionStates, logger *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, catalog: catalog, states: states, logger: logger}
}

// RegisterRoutes registers cart endpoints on the given Chi router.
// Expected to be mounted inside a table-scoped subrouter: /restaurants/{rid}/tables/{tid}
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Delete("/", h.Cancel)
		r.Post("/items", h.AddItem)
		r.Patch("/items/{itemID}", h.SetQuantity)
		r.Delete("/items/{itemID}", h.RemoveItem)
		r.Put("/tax", h.SetTax)
		r.Put("/discount", h.SetDiscount)
		r.Put("/round-off", h.SetRoundOff)
		r.Put("/customer", h.SetCustomer)
		r.Delete("/customer", h.ClearCustomer)
	})
}

// --- Request types ---

type addItemRequest struct {
	ItemID string `json:"item_id"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

type percentRequest struct {
	Percent string `json:"percent"`
}

type roundOffRequest struct {
	Amount string `json:"amount"`
}

type customerRequest struct {
	CustomerID string `json:"customer_id"`
}

// --- Handlers ---

// Get returns the cart with its totals and elapsed session time.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	store, ok := tableStore(w, r, h.carts, h.logger)
	if !ok {
		return
	}
	h.writeCart(w, http.StatusOK, store.Snapshot())
}

// Cancel empties the cart and stops the session timer.
func (h *CartHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	store, ok := tableStore(w, r, h.carts, h.logger)
	if !ok {
		return
	}
	snap, err := store.Clear(r.Context())
	h.respond(w, store, snap, err)
}

// AddItem adds one unit of a menu item.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	store, ok := tableStore(w, r, h.carts, h.logger)
	if !ok {
		return
	}

	var req addItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ItemID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "item_id is required"})
		return
	}

	item, err := h.catalog.FindMenuItem(r.Context(), store.Key().RestaurantID, req.ItemID)
	if err != nil {
		h.catalogError(w, err)
		return
	}

	snap, err := store.AddItem(r.Context(), cart.Item{ID: item.ID, Name: item.Name, Price: item.Price})
	h.respond(w, store, snap, err)
}

// SetQuantity sets the quantity of a row. Values below 1 become 1.
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	store, ok := tableStore(w, r, h.carts, h.logger)
	if !ok {
		return
	}

	var req quantityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	snap, err := store.SetQuantity(r.Context(), chi.URLParam(r, "itemID"), req.Quantity)
	h.respond(w, store, snap, err)
}

// RemoveItem deletes a row.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	store, ok := tableStore(w, r, h.carts, h.logger)
	if !ok {
		return
	}
	snap, err := store.RemoveItem(r.Context(), chi.URLParam(r, "itemID"))
	h.respond(w, store, snap, err)
}

// SetTax sets the tax percentage.
func (h *CartHandler) SetTax(w http.ResponseWriter, r *http.Request) {
	store, ok := tableStore(w, r, h.carts, h.logger)
	if !ok {
		return
	}

	var req percentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	pct, err := decimal.NewFromString(req.Percent)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid percent"})
		return
	}

	snap, err := store.SetTaxPercent(r.Context(), pct)
	h.respond(w, store, snap, err)
}

// SetDiscount sets the discount percentage.
func (h *CartHandler) SetDiscount(w http.ResponseWriter, r *http.Request) {
	store, ok := tableStore(w, r, h.carts, h.logger)
	if !ok {
		return
	}

	var req percentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	pct, err := decimal.NewFromString(req.Percent)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid percent"})
		return
	}

	snap, err := store.SetDiscountPercent(r.Context(), pct)
	h.respond(w, store, snap, err)
}

// SetRoundOff sets the signed round-off amount.
func (h *CartHandler) SetRoundOff(w http.ResponseWriter, r *http.Request) {
	store, ok := tableStore(w, r, h.carts, h.logger)
	if !ok {
		return
	}

	var req roundOffRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid amount"})
		return
	}

	snap, err := store.SetRoundOff(r.Context(), amount)
	h.respond(w, store, snap, err)
}

// SetCustomer attaches a known customer to the cart.
func (h *CartHandler) SetCustomer(w http.ResponseWriter, r *http.Request) {
	store, ok := tableStore(w, r, h.carts, h.logger)
	if !ok {
		return
	}

	var req customerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.CustomerID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "customer_id is required"})
		return
	}

	customer, err := h.catalog.FindCustomer(r.Context(), store.Key().RestaurantID, req.CustomerID)
	if err != nil {
		h.catalogError(w, err)
		return
	}

	snap, err := store.SetCustomer(r.Context(), cart.CustomerRef{ID: customer.ID, Name: customer.Name})
	h.respond(w, store, snap, err)
}

// ClearCustomer detaches the customer.
func (h *CartHandler) ClearCustomer(w http.ResponseWriter, r *http.Request) {
	store, ok := tableStore(w, r, h.carts, h.logger)
	if !ok {
		return
	}
	snap, err := store.ClearCustomer(r.Context())
	h.respond(w, store, snap, err)
}

// --- Helpers ---

func (h *CartHandler) respond(w http.ResponseWriter, store *cart.Store, snap cart.Snapshot, err error) {
	if err == nil {
		h.writeCart(w, http.StatusOK, snap)
		return
	}

	switch {
	case errors.Is(err, cart.ErrItemNotInCart):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, cart.ErrCartHeld):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, cart.ErrInvalidItem),
		errors.Is(err, cart.ErrNegativePrice),
		errors.Is(err, cart.ErrInvalidCustomer),
		errors.Is(err, billing.ErrNegativeTax),
		errors.Is(err, billing.ErrDiscountRange):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		h.logger.Error("update cart", zap.String("table", store.Key().String()), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save cart"})
	}
}

func (h *CartHandler) catalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrMenuItemNotFound), errors.Is(err, catalog.ErrCustomerNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		h.logger.Error("catalog lookup", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "catalog unavailable"})
	}
}

func (h *CartHandler) writeCart(w http.ResponseWriter, status int, snap cart.Snapshot) {
	view := events.NewCartView(snap)
	if h.states != nil {
		view.SubmissionState = h.states.State(snap.Key)
	}
	writeJSON(w, status, view)
}
