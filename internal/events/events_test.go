package events_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiwari-pos/tablepos/internal/cart"
	"github.com/kiwari-pos/tablepos/internal/checkout"
	"github.com/kiwari-pos/tablepos/internal/enum"
	"github.com/kiwari-pos/tablepos/internal/events"
	"github.com/kiwari-pos/tablepos/internal/tablestate"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type published struct {
	restaurantID uuid.UUID
	eventType    string
	payload      map[string]any
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []published
}

func (f *fakeBroadcaster) Publish(restaurantID uuid.UUID, eventType string, payload any) {
	raw, _ := json.Marshal(payload)
	var m map[string]any
	_ = json.Unmarshal(raw, &m)
	f.mu.Lock()
	f.events = append(f.events, published{restaurantID, eventType, m})
	f.mu.Unlock()
}

func (f *fakeBroadcaster) all() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.events...)
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestCartObserver(t *testing.T) {
	b := &fakeBroadcaster{}
	rid := uuid.New()
	key, err := cart.NewKey(rid, "T4")
	require.NoError(t, err)

	start := time.Date(2026, 5, 1, 19, 0, 0, 0, time.UTC)
	store, err := cart.Open(context.Background(), key, tablestate.NewMemoryAdapter(zap.NewNop()),
		cart.WithObserver(events.CartObserver(b)),
		cart.WithClock(fixedClock(start)))
	require.NoError(t, err)

	_, err = store.AddItem(context.Background(), cart.Item{ID: "m1", Name: "Dosa", Price: decimal.RequireFromString("60")})
	require.NoError(t, err)
	_, err = store.Clear(context.Background())
	require.NoError(t, err)

	got := b.all()
	require.Len(t, got, 2)

	assert.Equal(t, rid, got[0].restaurantID)
	assert.Equal(t, enum.EventCartUpdated, got[0].eventType)
	assert.Equal(t, "60.00", got[0].payload["total"])
	assert.Equal(t, "T4", got[0].payload["table_id"])

	assert.Equal(t, enum.EventCartCleared, got[1].eventType)
	assert.Equal(t, map[string]any{"table_id": "T4"}, got[1].payload)
}

func TestTransactionAccepted(t *testing.T) {
	b := &fakeBroadcaster{}
	tx := checkout.Transaction{
		ID:           uuid.New(),
		RestaurantID: uuid.New(),
		TableID:      "T9",
		Total:        decimal.RequireFromString("945"),
		PaymentType:  enum.PaymentTypeCash,
	}

	events.TransactionAccepted(b)(tx, checkout.Ack{Number: "TX-00001"})

	got := b.all()
	require.Len(t, got, 1)
	assert.Equal(t, enum.EventTransactionAccepted, got[0].eventType)
	assert.Equal(t, tx.ID.String(), got[0].payload["transaction_id"])
	assert.Equal(t, "945.00", got[0].payload["total"])
	assert.Equal(t, "TX-00001", got[0].payload["number"])
}

func TestTickTimers_OnlyActiveTables(t *testing.T) {
	b := &fakeBroadcaster{}
	start := time.Date(2026, 5, 1, 19, 0, 0, 0, time.UTC)
	now := start
	clock := func() time.Time { return now }

	reg := cart.NewRegistry(tablestate.NewMemoryAdapter(zap.NewNop()), cart.WithClock(clock))
	rid := uuid.New()

	busy, _ := cart.NewKey(rid, "T1")
	idle, _ := cart.NewKey(rid, "T2")
	store, err := reg.Get(context.Background(), busy)
	require.NoError(t, err)
	_, err = reg.Get(context.Background(), idle)
	require.NoError(t, err)

	_, err = store.AddItem(context.Background(), cart.Item{ID: "m1", Name: "Tea", Price: decimal.RequireFromString("10")})
	require.NoError(t, err)

	now = start.Add(time.Hour + 2*time.Minute + 3*time.Second)
	events.TickTimers(reg, b)

	got := b.all()
	require.Len(t, got, 1)
	assert.Equal(t, enum.EventTimerTick, got[0].eventType)
	assert.Equal(t, "T1", got[0].payload["table_id"])
	assert.Equal(t, "01:02:03", got[0].payload["elapsed"])
}

func TestStartTicker(t *testing.T) {
	b := &fakeBroadcaster{}
	reg := cart.NewRegistry(tablestate.NewMemoryAdapter(zap.NewNop()))
	key, _ := cart.NewKey(uuid.New(), "T1")
	store, err := reg.Get(context.Background(), key)
	require.NoError(t, err)
	_, err = store.AddItem(context.Background(), cart.Item{ID: "m1", Name: "Tea", Price: decimal.RequireFromString("10")})
	require.NoError(t, err)

	s, err := events.StartTicker(time.UTC, reg, b)
	require.NoError(t, err)
	defer s.Stop()

	assert.Eventually(t, func() bool { return len(b.all()) > 0 }, 3*time.Second, 50*time.Millisecond)
}
