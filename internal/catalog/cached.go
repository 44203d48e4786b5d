package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const defaultTTL = 5 * time.Minute

// Cached wraps a Source with a Redis read-through cache. Concurrent misses
// for the same key share one upstream call.
type Cached struct {
	source Source
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
	sfg    singleflight.Group
}

// NewCached creates a Cached source. A nil client disables caching.
func NewCached(source Source, client *redis.Client, logger *zap.Logger) *Cached {
	return &Cached{source: source, client: client, logger: logger, ttl: defaultTTL}
}

// ListMenuItems returns the menu, from cache when possible.
func (c *Cached) ListMenuItems(ctx context.Context, restaurantID uuid.UUID) ([]MenuItem, error) {
	var items []MenuItem
	err := c.load(ctx, cacheKey("menu", restaurantID), &items, func() (any, error) {
		return c.source.ListMenuItems(ctx, restaurantID)
	})
	return items, err
}

// ListCustomers returns the customer list, from cache when possible.
func (c *Cached) ListCustomers(ctx context.Context, restaurantID uuid.UUID) ([]Customer, error) {
	var customers []Customer
	err := c.load(ctx, cacheKey("customers", restaurantID), &customers, func() (any, error) {
		return c.source.ListCustomers(ctx, restaurantID)
	})
	return customers, err
}

// FindMenuItem looks up one menu item by id.
func (c *Cached) FindMenuItem(ctx context.Context, restaurantID uuid.UUID, id string) (MenuItem, error) {
	items, err := c.ListMenuItems(ctx, restaurantID)
	if err != nil {
		return MenuItem{}, err
	}
	for _, it := range items {
		if it.ID == id {
			return it, nil
		}
	}
	return MenuItem{}, ErrMenuItemNotFound
}

// FindCustomer looks up one customer by id.
func (c *Cached) FindCustomer(ctx context.Context, restaurantID uuid.UUID, id string) (Customer, error) {
	customers, err := c.ListCustomers(ctx, restaurantID)
	if err != nil {
		return Customer{}, err
	}
	for _, cu := range customers {
		if cu.ID == id {
			return cu, nil
		}
	}
	return Customer{}, ErrCustomerNotFound
}

// Invalidate drops the cached menu and customers of a restaurant.
func (c *Cached) Invalidate(ctx context.Context, restaurantID uuid.UUID) error {
	if c.client == nil {
		return nil
	}
	err := c.client.Del(ctx, cacheKey("menu", restaurantID), cacheKey("customers", restaurantID)).Err()
	if err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (c *Cached) load(ctx context.Context, key string, dst any, fetch func() (any, error)) error {
	if c.client != nil {
		data, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			if err := json.Unmarshal(data, dst); err == nil {
				return nil
			}
			c.logger.Warn("discarding malformed catalog cache entry", zap.String("key", key))
		} else if !errors.Is(err, redis.Nil) {
			// log cache error but continue to the source
			c.logger.Warn("catalog cache get", zap.String("key", key), zap.Error(err))
		}
	}

	v, err, _ := c.sfg.Do(key, func() (any, error) {
		val, err := fetch()
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(val)
		if err != nil {
			return nil, fmt.Errorf("marshal catalog: %w", err)
		}
		if c.client != nil {
			jitter := time.Duration(rand.Intn(60)) * time.Second
			if err := c.client.Set(ctx, key, data, c.ttl+jitter).Err(); err != nil {
				c.logger.Warn("catalog cache set", zap.String("key", key), zap.Error(err))
			}
		}
		return data, nil
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(v.([]byte), dst); err != nil {
		return fmt.Errorf("unmarshal catalog: %w", err)
	}
	return nil
}

func cacheKey(kind string, restaurantID uuid.UUID) string {
	return fmt.Sprintf("catalog:%s:%s", kind, restaurantID)
}
