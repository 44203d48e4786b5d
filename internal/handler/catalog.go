package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kiwari-pos/tablepos/internal/catalog"
	"go.uber.org/zap"
)

// CatalogHandler exposes the menu and customers of a restaurant.
type CatalogHandler struct {
	catalog CatalogLookup
	logger  *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalog CatalogLookup, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, logger: logger}
}

// RegisterRoutes registers read-only catalog endpoints.
// Expected to be mounted inside a restaurant-scoped subrouter: /restaurants/{rid}
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/menu-items", h.ListMenuItems)
	r.Get("/customers", h.ListCustomers)
}

// RegisterAdminRoutes registers cache maintenance endpoints.
func (h *CatalogHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/catalog/refresh", h.Refresh)
}

type menuItemResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
}

// ListMenuItems returns the menu.
func (h *CatalogHandler) ListMenuItems(w http.ResponseWriter, r *http.Request) {
	rid, ok := restaurantID(w, r)
	if !ok {
		return
	}

	items, err := h.catalog.ListMenuItems(r.Context(), rid)
	if err != nil {
		h.logger.Error("list menu items", zap.String("restaurant_id", rid.String()), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "catalog unavailable"})
		return
	}

	resp := make([]menuItemResponse, len(items))
	for i, it := range items {
		resp[i] = menuItemResponse{ID: it.ID, Name: it.Name, Price: it.Price.StringFixed(2)}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListCustomers returns the known customers.
func (h *CatalogHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	rid, ok := restaurantID(w, r)
	if !ok {
		return
	}

	customers, err := h.catalog.ListCustomers(r.Context(), rid)
	if err != nil {
		h.logger.Error("list customers", zap.String("restaurant_id", rid.String()), zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "catalog unavailable"})
		return
	}
	if customers == nil {
		customers = []catalog.Customer{}
	}
	writeJSON(w, http.StatusOK, customers)
}

// Refresh drops the cached catalog so the next read hits the source.
func (h *CatalogHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	rid, ok := restaurantID(w, r)
	if !ok {
		return
	}

	if err := h.catalog.Invalidate(r.Context(), rid); err != nil {
		h.logger.Error("invalidate catalog", zap.String("restaurant_id", rid.String()), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to refresh catalog"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}
