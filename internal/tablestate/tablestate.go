// Package tablestate mirrors per-table cart state into a durable key-value
// store so that a restart or reload sees the last completed mutation.
package tablestate

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// Adapter is the durable key-value mirror.
type Adapter interface {
	// Save serializes value and writes it under key.
	Save(ctx context.Context, key string, value any) error
	// Load decodes the value under key into dst. It reports found=false when
	// the key is absent or its contents are malformed; malformed data is
	// never an error. dst is unspecified when found is false.
	Load(ctx context.Context, key string, dst any) (found bool, err error)
	// Erase removes key. Erasing an absent key is not an error.
	Erase(ctx context.Context, key string) error
	// Apply writes every Set and Erase of b together or none of them.
	Apply(ctx context.Context, b Batch) error
}

// Batch groups writes that must land together.
type Batch struct {
	Set   map[string]any
	Erase []string
}

// encode marshals every value of b up front so a bad value fails the
// batch before anything is written.
func (b Batch) encode() (map[string][]byte, error) {
	out := make(map[string][]byte, len(b.Set))
	for key, value := range b.Set {
		data, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("marshal %s: %w", key, err)
		}
		out[key] = data
	}
	return out, nil
}

const namespace = "pos"

// CartKey is where the serialized line items of a table live.
func CartKey(restaurantID, tableID string) string {
	return fmt.Sprintf("%s:%s:table:%s:cart", namespace, restaurantID, tableID)
}

// TimerKey is where the session timer origin of a table lives.
func TimerKey(restaurantID, tableID string) string {
	return fmt.Sprintf("%s:%s:table:%s:timer", namespace, restaurantID, tableID)
}

// decode unmarshals raw into dst, treating malformed data as absent.
func decode(logger *zap.Logger, key string, raw []byte, dst any) bool {
	if err := json.Unmarshal(raw, dst); err != nil {
		logger.Warn("discarding malformed table state",
			zap.String("key", key),
			zap.Error(err))
		return false
	}
	return true
}
