package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiwari-pos/tablepos/internal/cart"
	"github.com/kiwari-pos/tablepos/internal/catalog"
	"go.uber.org/zap"
)

// CartProvider hands out the cart of one table.
// Satisfied by *cart.Registry.
type CartProvider interface {
	Get(ctx context.Context, key cart.Key) (*cart.Store, error)
}

// CatalogLookup is the read side of the menu and customer list.
// Satisfied by *catalog.Cached.
type CatalogLookup interface {
	ListMenuItems(ctx context.Context, restaurantID uuid.UUID) ([]catalog.MenuItem, error)
	ListCustomers(ctx context.Context, restaurantID uuid.UUID) ([]catalog.Customer, error)
	FindMenuItem(ctx context.Context, restaurantID uuid.UUID, id string) (catalog.MenuItem, error)
	FindCustomer(ctx context.Context, restaurantID uuid.UUID, id string) (catalog.Customer, error)
	Invalidate(ctx context.Context, restaurantID uuid.UUID) error
}

// SubmissionStates reports the checkout state of a table.
// Satisfied by *checkout.Service.
type SubmissionStates interface {
	State(key cart.Key) string
}

// tableStore resolves {rid}/{tid} to the table's cart. It writes the error
// response and returns false on failure.
func tableStore(w http.ResponseWriter, r *http.Request, carts CartProvider, logger *zap.Logger) (*cart.Store, bool) {
	restaurantID, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return nil, false
	}
	key, err := cart.NewKey(restaurantID, chi.URLParam(r, "tid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid table ID"})
		return nil, false
	}
	store, err := carts.Get(r.Context(), key)
	if err != nil {
		logger.Error("open cart", zap.String("table", key.String()), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load cart"})
		return nil, false
	}
	return store, true
}

func restaurantID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "rid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid restaurant ID"})
		return uuid.Nil, false
	}
	return id, true
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("failed to encode JSON response", zap.Error(err))
	}
}
