package catalog

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockSource struct {
	menuCalls     atomic.Int32
	customerCalls atomic.Int32
	menu          []MenuItem
	customers     []Customer
	err           error
}

func (m *mockSource) ListMenuItems(ctx context.Context, restaurantID uuid.UUID) ([]MenuItem, error) {
	m.menuCalls.Add(1)
	return m.menu, m.err
}

func (m *mockSource) ListCustomers(ctx context.Context, restaurantID uuid.UUID) ([]Customer, error) {
	m.customerCalls.Add(1)
	return m.customers, m.err
}

func setupCached(t *testing.T, src Source) (*Cached, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCached(src, client, zap.NewNop()), mr
}

func sampleSource() *mockSource {
	return &mockSource{
		menu: []MenuItem{
			{ID: "paneer-tikka", Name: "Paneer Tikka", Price: decimal.RequireFromString("240")},
			{ID: "lassi", Name: "Sweet Lassi", Price: decimal.RequireFromString("80.50")},
		},
		customers: []Customer{{ID: "c1", Name: "Asha", Phone: "9800000001"}},
	}
}

func TestCached_ReadThrough(t *testing.T) {
	src := sampleSource()
	cached, mr := setupCached(t, src)
	ctx := context.Background()
	rid := uuid.New()

	first, err := cached.ListMenuItems(ctx, rid)
	require.NoError(t, err)
	second, err := cached.ListMenuItems(ctx, rid)
	require.NoError(t, err)

	assert.Equal(t, int32(1), src.menuCalls.Load(), "second read should hit the cache")
	require.Len(t, second, 2)
	assert.Equal(t, first[1].Name, second[1].Name)
	assert.True(t, second[1].Price.Equal(decimal.RequireFromString("80.50")))
	assert.True(t, mr.Exists(cacheKey("menu", rid)))
	assert.Greater(t, mr.TTL(cacheKey("menu", rid)), defaultTTL-1)
}

func TestCached_FindMenuItem(t *testing.T) {
	cached, _ := setupCached(t, sampleSource())
	ctx := context.Background()
	rid := uuid.New()

	it, err := cached.FindMenuItem(ctx, rid, "lassi")
	require.NoError(t, err)
	assert.Equal(t, "Sweet Lassi", it.Name)

	_, err = cached.FindMenuItem(ctx, rid, "biryani")
	assert.ErrorIs(t, err, ErrMenuItemNotFound)
}

func TestCached_FindCustomer(t *testing.T) {
	cached, _ := setupCached(t, sampleSource())
	ctx := context.Background()
	rid := uuid.New()

	c, err := cached.FindCustomer(ctx, rid, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", c.Name)

	_, err = cached.FindCustomer(ctx, rid, "c2")
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}

func TestCached_MalformedEntryRefetches(t *testing.T) {
	src := sampleSource()
	cached, mr := setupCached(t, src)
	rid := uuid.New()
	require.NoError(t, mr.Set(cacheKey("customers", rid), "{broken"))

	customers, err := cached.ListCustomers(context.Background(), rid)
	require.NoError(t, err)
	assert.Len(t, customers, 1)
	assert.Equal(t, int32(1), src.customerCalls.Load())
}

func TestCached_SourceError(t *testing.T) {
	src := &mockSource{err: errors.New("backoffice unavailable")}
	cached, mr := setupCached(t, src)
	rid := uuid.New()

	_, err := cached.ListMenuItems(context.Background(), rid)
	assert.ErrorContains(t, err, "backoffice unavailable")
	assert.False(t, mr.Exists(cacheKey("menu", rid)), "errors must not be cached")
}

func TestCached_Invalidate(t *testing.T) {
	src := sampleSource()
	cached, _ := setupCached(t, src)
	ctx := context.Background()
	rid := uuid.New()

	_, err := cached.ListMenuItems(ctx, rid)
	require.NoError(t, err)
	require.NoError(t, cached.Invalidate(ctx, rid))
	_, err = cached.ListMenuItems(ctx, rid)
	require.NoError(t, err)

	assert.Equal(t, int32(2), src.menuCalls.Load())
}

func TestCached_WithoutRedis(t *testing.T) {
	src := sampleSource()
	cached := NewCached(src, nil, zap.NewNop())
	ctx := context.Background()
	rid := uuid.New()

	_, err := cached.ListMenuItems(ctx, rid)
	require.NoError(t, err)
	_, err = cached.ListMenuItems(ctx, rid)
	require.NoError(t, err)

	assert.Equal(t, int32(2), src.menuCalls.Load())
	assert.NoError(t, cached.Invalidate(ctx, rid))
}
