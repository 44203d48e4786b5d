package backoffice_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiwari-pos/tablepos/internal/auth"
	"github.com/kiwari-pos/tablepos/internal/backoffice"
	"github.com/kiwari-pos/tablepos/internal/checkout"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const secret = "backoffice-secret"

func newServer(t *testing.T, h http.HandlerFunc) (*backoffice.Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return backoffice.New(srv.URL+"/", secret, 2*time.Second, zap.NewNop()), srv
}

func requireServiceToken(t *testing.T, r *http.Request) {
	t.Helper()
	header := r.Header.Get("Authorization")
	assert.True(t, strings.HasPrefix(header, "Bearer "), "missing bearer token")
	_, err := auth.ValidateServiceToken(secret, strings.TrimPrefix(header, "Bearer "))
	assert.NoError(t, err)
}

func sampleTx() checkout.Transaction {
	return checkout.Transaction{
		ID:           uuid.New(),
		RestaurantID: uuid.New(),
		TableID:      "T2",
		Items: []checkout.TransactionItem{
			{ItemID: "m1", Name: "Vada", UnitPrice: decimal.RequireFromString("30"), Quantity: 3},
		},
		TaxPercent:      decimal.RequireFromString("5"),
		DiscountPercent: decimal.Zero,
		RoundOff:        decimal.RequireFromString("0.5"),
		Subtotal:        decimal.RequireFromString("90"),
		TaxAmount:       decimal.RequireFromString("4.5"),
		DiscountAmount:  decimal.Zero,
		Total:           decimal.RequireFromString("94"),
		PaymentType:     "CASH",
		CreatedAt:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestListMenuItems(t *testing.T) {
	rid := uuid.New()
	client, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		requireServiceToken(t, r)
		assert.Equal(t, "/restaurants/"+rid.String()+"/menu-items", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"m1","name":"Vada","price":"30.00"},{"id":"m2","name":"Chai","price":"15.5"}]`))
	})

	items, err := client.ListMenuItems(context.Background(), rid)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Chai", items[1].Name)
	assert.Equal(t, "15.50", items[1].Price.StringFixed(2))
}

func TestListMenuItems_BadPrice(t *testing.T) {
	client, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"m1","name":"Vada","price":"-3"}]`))
	})

	_, err := client.ListMenuItems(context.Background(), uuid.New())
	assert.Error(t, err)
}

func TestListCustomers(t *testing.T) {
	client, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		requireServiceToken(t, r)
		w.Write([]byte(`[{"id":"c1","name":"Asha","email":"asha@example.com"}]`))
	})

	customers, err := client.ListCustomers(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, "asha@example.com", customers[0].Email)
}

func TestSubmitTransaction_Accepted(t *testing.T) {
	tx := sampleTx()
	var got map[string]any
	client, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		requireServiceToken(t, r)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/restaurants/"+tx.RestaurantID.String()+"/transactions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"transaction_id":"` + tx.ID.String() + `","number":"BO-991"}`))
	})

	ack, err := client.SubmitTransaction(context.Background(), tx)
	require.NoError(t, err)
	assert.Equal(t, "BO-991", ack.Number)

	assert.Equal(t, tx.ID.String(), got["id"])
	assert.Equal(t, "94.00", got["total"])
	assert.Equal(t, "0.50", got["round_off"])
	assert.Nil(t, got["customer_id"])
	items := got["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "90.00", items[0].(map[string]any)["line_total"])
	assert.NotContains(t, got, "splits")
}

func TestSubmitTransaction_RejectedWithMessage(t *testing.T) {
	client, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"error":"table T2 is closed"}`))
	})

	_, err := client.SubmitTransaction(context.Background(), sampleTx())
	var re *checkout.RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, http.StatusUnprocessableEntity, re.StatusCode)
	assert.Equal(t, "table T2 is closed", checkout.UserMessage(err))
}

func TestSubmitTransaction_RejectedWithoutBody(t *testing.T) {
	client, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := client.SubmitTransaction(context.Background(), sampleTx())
	require.Error(t, err)
	assert.Equal(t, checkout.FallbackMessage, checkout.UserMessage(err))
}

func TestSubmitTransaction_NoRetry(t *testing.T) {
	var calls atomic.Int32
	client, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.SubmitTransaction(context.Background(), sampleTx())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCircuitBreakerOpens(t *testing.T) {
	var calls atomic.Int32
	client, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 5; i++ {
		_, err := client.ListCustomers(context.Background(), uuid.New())
		require.Error(t, err)
	}

	_, err := client.ListCustomers(context.Background(), uuid.New())
	assert.ErrorIs(t, err, backoffice.ErrUnavailable)
	assert.Equal(t, int32(5), calls.Load(), "open breaker must fail fast")
}

func TestCircuitBreakerIgnoresRejections(t *testing.T) {
	client, _ := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"duplicate"}`))
	})

	for i := 0; i < 8; i++ {
		_, err := client.SubmitTransaction(context.Background(), sampleTx())
		var re *checkout.RemoteError
		require.ErrorAs(t, err, &re, "attempt %d", i)
	}
}
