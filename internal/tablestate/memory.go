package tablestate

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// MemoryAdapter keeps serialized values in process memory. It goes through
// the same JSON encoding as RedisAdapter so behavior matches.
type MemoryAdapter struct {
	mu     sync.RWMutex
	data   map[string][]byte
	logger *zap.Logger
}

// NewMemoryAdapter creates an empty MemoryAdapter.
func NewMemoryAdapter(logger *zap.Logger) *MemoryAdapter {
	return &MemoryAdapter{data: make(map[string][]byte), logger: logger}
}

func (a *MemoryAdapter) Save(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	a.mu.Lock()
	a.data[key] = data
	a.mu.Unlock()
	return nil
}

func (a *MemoryAdapter) Load(ctx context.Context, key string, dst any) (bool, error) {
	a.mu.RLock()
	data, ok := a.data[key]
	a.mu.RUnlock()
	if !ok {
		return false, nil
	}
	return decode(a.logger, key, data, dst), nil
}

func (a *MemoryAdapter) Erase(ctx context.Context, key string) error {
	a.mu.Lock()
	delete(a.data, key)
	a.mu.Unlock()
	return nil
}

func (a *MemoryAdapter) Apply(ctx context.Context, b Batch) error {
	values, err := b.encode()
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for key, data := range values {
		a.data[key] = data
	}
	for _, key := range b.Erase {
		delete(a.data, key)
	}
	return nil
}

// Has reports whether key is present.
func (a *MemoryAdapter) Has(key string) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.data[key]
	return ok
}

// Put stores raw bytes under key, bypassing encoding.
func (a *MemoryAdapter) Put(key string, raw []byte) {
	a.mu.Lock()
	a.data[key] = raw
	a.mu.Unlock()
}
