package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/kiwari-pos/tablepos/internal/auth"
	"github.com/kiwari-pos/tablepos/internal/cart"
	"github.com/kiwari-pos/tablepos/internal/catalog"
	"github.com/kiwari-pos/tablepos/internal/checkout"
	"github.com/kiwari-pos/tablepos/internal/config"
	"github.com/kiwari-pos/tablepos/internal/enum"
	"github.com/kiwari-pos/tablepos/internal/receipt"
	"github.com/kiwari-pos/tablepos/internal/router"
	"github.com/kiwari-pos/tablepos/internal/tablestate"
	"github.com/kiwari-pos/tablepos/internal/ws"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const secret = "router-test-secret"

type staticSource struct{}

func (staticSource) ListMenuItems(context.Context, uuid.UUID) ([]catalog.MenuItem, error) {
	return []catalog.MenuItem{{ID: "m1", Name: "Chai", Price: decimal.RequireFromString("20")}}, nil
}

func (staticSource) ListCustomers(context.Context, uuid.UUID) ([]catalog.Customer, error) {
	return nil, nil
}

type okRecorder struct{}

func (okRecorder) SubmitTransaction(_ context.Context, tx checkout.Transaction) (checkout.Ack, error) {
	return checkout.Ack{TransactionID: tx.ID.String(), Number: "TX-1"}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	cfg := &config.Config{JWTSecret: secret, RestaurantName: "Chai Point", CORSOrigins: []string{"http://localhost:5173"}}
	return router.New(cfg, router.Deps{
		Carts:    cart.NewRegistry(tablestate.NewMemoryAdapter(logger)),
		Catalog:  catalog.NewCached(staticSource{}, nil, logger),
		Checkout: checkout.NewService(okRecorder{}, logger, nil),
		Renderer: receipt.NewBitmapRenderer(receipt.DefaultColumns, logger),
		Hub:      ws.NewHub(logger),
		Logger:   logger,
	})
}

func token(t *testing.T, restaurantID uuid.UUID, role string) string {
	t.Helper()
	tok, err := auth.GenerateToken(secret, uuid.New(), restaurantID, role)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return tok
}

func do(h http.Handler, method, path, tok string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_Health(t *testing.T) {
	rr := do(newTestRouter(t), "GET", "/health", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
}

func TestRouter_Metrics(t *testing.T) {
	r := newTestRouter(t)
	do(r, "GET", "/health", "", nil)

	rr := do(r, "GET", "/metrics", "", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "go_goroutines") {
		t.Error("expected default collectors in /metrics output")
	}
}

func TestRouter_RequiresAuth(t *testing.T) {
	rid := uuid.New()
	rr := do(newTestRouter(t), "GET", "/restaurants/"+rid.String()+"/tables/T1/cart", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
}

func TestRouter_RestaurantScope(t *testing.T) {
	r := newTestRouter(t)
	rid := uuid.New()
	path := "/restaurants/" + rid.String() + "/tables/T1/cart"

	tests := []struct {
		name       string
		tok        string
		wantStatus int
	}{
		{"own restaurant", token(t, rid, enum.UserRoleCashier), http.StatusOK},
		{"other restaurant", token(t, uuid.New(), enum.UserRoleCashier), http.StatusForbidden},
		{"owner anywhere", token(t, uuid.New(), enum.UserRoleOwner), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(r, "GET", path, tt.tok, nil)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status: got %d, want %d", rr.Code, tt.wantStatus)
			}
		})
	}
}

func TestRouter_CatalogRefreshNeedsManager(t *testing.T) {
	r := newTestRouter(t)
	rid := uuid.New()
	path := "/restaurants/" + rid.String() + "/catalog/refresh"

	if rr := do(r, "POST", path, token(t, rid, enum.UserRoleCashier), nil); rr.Code != http.StatusForbidden {
		t.Errorf("cashier: got %d, want 403", rr.Code)
	}
	if rr := do(r, "POST", path, token(t, rid, enum.UserRoleManager), nil); rr.Code != http.StatusOK {
		t.Errorf("manager: got %d, want 200", rr.Code)
	}
}

func TestRouter_TableFlow(t *testing.T) {
	r := newTestRouter(t)
	rid := uuid.New()
	tok := token(t, rid, enum.UserRoleCashier)
	table := "/restaurants/" + rid.String() + "/tables/T3"

	if rr := do(r, "POST", table+"/cart/items", tok, map[string]string{"item_id": "m1"}); rr.Code != http.StatusOK {
		t.Fatalf("add item: got %d (%s)", rr.Code, rr.Body.String())
	}
	if rr := do(r, "GET", table+"/documents/kot", tok, nil); rr.Code != http.StatusOK {
		t.Fatalf("kot: got %d", rr.Code)
	}
	rr := do(r, "POST", table+"/checkout", tok, map[string]string{"payment_type": "CASH"})
	if rr.Code != http.StatusCreated {
		t.Fatalf("checkout: got %d (%s)", rr.Code, rr.Body.String())
	}
}

func TestRouter_WebSocketRejectsMissingToken(t *testing.T) {
	rr := do(newTestRouter(t), "GET", "/ws/restaurants/"+uuid.NewString()+"/tables", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
}
