package cart

import (
	"context"
	"sort"
	"sync"

	"github.com/kiwari-pos/tablepos/internal/tablestate"
	"golang.org/x/sync/singleflight"
)

// Registry hands out one Store per table, opening (and rehydrating) it on
// first use. Stores are never shared across tables.
type Registry struct {
	persist tablestate.Adapter
	opts    []Option

	mu     sync.Mutex
	stores map[Key]*Store
	opens  singleflight.Group
}

// NewRegistry creates a Registry whose stores mirror into persist.
func NewRegistry(persist tablestate.Adapter, opts ...Option) *Registry {
	return &Registry{
		persist: persist,
		opts:    opts,
		stores:  make(map[Key]*Store),
	}
}

// Get returns the store for key, opening it if needed. Loading happens
// outside the registry lock and concurrent first calls for the same table
// share one load.
func (r *Registry) Get(ctx context.Context, key Key) (*Store, error) {
	if s, ok := r.lookup(key); ok {
		return s, nil
	}
	v, err, _ := r.opens.Do(key.String(), func() (any, error) {
		if s, ok := r.lookup(key); ok {
			return s, nil
		}
		s, err := Open(ctx, key, r.persist, r.opts...)
		if err != nil {
			return nil, err
		}
		r.mu.Lock()
		r.stores[key] = s
		r.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Store), nil
}

func (r *Registry) lookup(key Key) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.stores[key]
	return s, ok
}

// Active returns snapshots of every open cart with a running timer,
// ordered by restaurant then table.
func (r *Registry) Active() []Snapshot {
	r.mu.Lock()
	stores := make([]*Store, 0, len(r.stores))
	for _, s := range r.stores {
		stores = append(stores, s)
	}
	r.mu.Unlock()

	var out []Snapshot
	for _, s := range stores {
		snap := s.Snapshot()
		if snap.StartedAt != nil {
			out = append(out, snap)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Key, out[j].Key
		if a.RestaurantID != b.RestaurantID {
			return a.RestaurantID.String() < b.RestaurantID.String()
		}
		return a.TableID < b.TableID
	})
	return out
}
