package handler_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kiwari-pos/tablepos/internal/handler"
	"go.uber.org/zap"
)

func newCatalogRouter(cat *mockCatalog) *chi.Mux {
	h := handler.NewCatalogHandler(cat, zap.NewNop())
	r := chi.NewRouter()
	r.Route("/restaurants/{rid}", func(r chi.Router) {
		h.RegisterRoutes(r)
		h.RegisterAdminRoutes(r)
	})
	return r
}

func TestCatalogHandler_ListMenuItems(t *testing.T) {
	r := newCatalogRouter(newMockCatalog())

	rr := doRequest(t, r, "GET", "/restaurants/"+uuid.NewString()+"/menu-items", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	var items []map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items: got %d, want 2", len(items))
	}
	if items[1]["price"] != "70.50" {
		t.Errorf("price: got %q, want 70.50", items[1]["price"])
	}
}

func TestCatalogHandler_ListCustomersEmpty(t *testing.T) {
	cat := newMockCatalog()
	cat.customers = nil
	r := newCatalogRouter(cat)

	rr := doRequest(t, r, "GET", "/restaurants/"+uuid.NewString()+"/customers", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if body := rr.Body.String(); body != "[]\n" {
		t.Errorf("body: got %q, want empty array", body)
	}
}

func TestCatalogHandler_Unavailable(t *testing.T) {
	r := newCatalogRouter(&mockCatalog{err: errors.New("breaker open")})

	for _, path := range []string{"/menu-items", "/customers"} {
		rr := doRequest(t, r, "GET", "/restaurants/"+uuid.NewString()+path, nil)
		if rr.Code != http.StatusBadGateway {
			t.Errorf("GET %s: got %d, want 502", path, rr.Code)
		}
	}
}

func TestCatalogHandler_Refresh(t *testing.T) {
	cat := newMockCatalog()
	r := newCatalogRouter(cat)
	rid := uuid.New()

	rr := doRequest(t, r, "POST", "/restaurants/"+rid.String()+"/catalog/refresh", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if len(cat.invalidated) != 1 || cat.invalidated[0] != rid {
		t.Errorf("invalidated: got %v", cat.invalidated)
	}

	rr = doRequest(t, r, "POST", "/restaurants/nope/catalog/refresh", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad id: got %d, want 400", rr.Code)
	}
}
