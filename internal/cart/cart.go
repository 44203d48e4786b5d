// Package cart holds the in-progress order of one restaurant table.
//
// A Store is scoped to a single Key and owns the line items, the billing
// inputs, the selected customer and the session timer. Every mutation is
// written through the tablestate.Adapter before it becomes visible, so a
// reload always observes the last completed mutation.
package cart

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiwari-pos/tablepos/internal/billing"
	"github.com/kiwari-pos/tablepos/internal/session"
	"github.com/kiwari-pos/tablepos/internal/tablestate"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Errors returned by the cart store.
var (
	ErrItemNotInCart   = errors.New("item not in cart")
	ErrInvalidItem     = errors.New("item id is required")
	ErrNegativePrice   = errors.New("item price must be >= 0")
	ErrInvalidTable    = errors.New("invalid table id")
	ErrInvalidCustomer = errors.New("customer id is required")
	ErrCartHeld        = errors.New("cart is being checked out")
)

var tableIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,32}$`)

// Key scopes a cart to one table of one restaurant.
type Key struct {
	RestaurantID uuid.UUID
	TableID      string
}

// NewKey validates the table id and builds a Key.
func NewKey(restaurantID uuid.UUID, tableID string) (Key, error) {
	if !tableIDPattern.MatchString(tableID) {
		return Key{}, ErrInvalidTable
	}
	return Key{RestaurantID: restaurantID, TableID: tableID}, nil
}

func (k Key) String() string {
	return k.RestaurantID.String() + "/" + k.TableID
}

func (k Key) cartKey() string {
	return tablestate.CartKey(k.RestaurantID.String(), k.TableID)
}

func (k Key) timerKey() string {
	return tablestate.TimerKey(k.RestaurantID.String(), k.TableID)
}

// Item is a purchasable catalog entry.
type Item struct {
	ID    string
	Name  string
	Price decimal.Decimal
}

// LineItem is one catalog item plus the quantity selected. Quantity is
// always >= 1 while the row is in a cart.
type LineItem struct {
	ItemID    string          `json:"item_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// LineTotal is unit price times quantity.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// CustomerRef is the optional customer attached to a cart.
type CustomerRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Snapshot is an immutable copy of a cart plus its derived totals.
type Snapshot struct {
	Key       Key
	Items     []LineItem
	Params    billing.Params
	Customer  *CustomerRef
	StartedAt *time.Time
	Elapsed   time.Duration
	Totals    billing.Totals
}

// IsEmpty reports whether the snapshot has no line items.
func (s Snapshot) IsEmpty() bool {
	return len(s.Items) == 0
}

// Observer is notified after every committed mutation.
type Observer func(Snapshot)

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used by the session timer.
func WithClock(now session.Clock) Option {
	return func(s *Store) { s.now = now }
}

// WithObserver registers a callback for committed mutations.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

type state struct {
	items    []LineItem
	params   billing.Params
	customer *CustomerRef
	origin   *time.Time
}

func (st state) clone() state {
	next := state{params: st.params}
	if st.items != nil {
		next.items = make([]LineItem, len(st.items))
		copy(next.items, st.items)
	}
	if st.customer != nil {
		c := *st.customer
		next.customer = &c
	}
	if st.origin != nil {
		o := *st.origin
		next.origin = &o
	}
	return next
}

func (st state) indexOf(itemID string) int {
	for i, li := range st.items {
		if li.ItemID == itemID {
			return i
		}
	}
	return -1
}

// Store is the cart of a single table.
type Store struct {
	key      Key
	persist  tablestate.Adapter
	timer    *session.Timer
	now      session.Clock
	observer Observer
	logger   *zap.Logger

	mu   sync.Mutex
	st   state
	held bool
}

// Open creates the Store for key and rehydrates it from the adapter.
// Malformed persisted state is treated as absent.
func Open(ctx context.Context, key Key, persist tablestate.Adapter, opts ...Option) (*Store, error) {
	s := &Store{
		key:     key,
		persist: persist,
		now:     time.Now,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.timer = session.NewTimer(s.now)

	var rows []LineItem
	found, err := persist.Load(ctx, key.cartKey(), &rows)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if !found {
		rows = nil
	}
	rows = normalize(rows)

	var origin time.Time
	timerFound, err := persist.Load(ctx, key.timerKey(), &origin)
	if err != nil {
		return nil, fmt.Errorf("load timer: %w", err)
	}

	switch {
	case len(rows) == 0 && timerFound:
		// Timer outlived its cart.
		if err := persist.Erase(ctx, key.timerKey()); err != nil {
			return nil, fmt.Errorf("erase stale timer: %w", err)
		}
	case len(rows) > 0 && !timerFound:
		origin = s.timer.Start()
		if err := persist.Save(ctx, key.timerKey(), origin); err != nil {
			return nil, fmt.Errorf("save timer: %w", err)
		}
		timerFound = true
	}

	s.st.items = rows
	if len(rows) > 0 && timerFound {
		s.st.origin = &origin
		s.timer.Restore(origin)
	}
	return s, nil
}

// normalize drops rows that could not exist in a live cart and merges
// duplicate identities, keeping first-seen order.
func normalize(rows []LineItem) []LineItem {
	var out []LineItem
	seen := make(map[string]int)
	for _, r := range rows {
		if r.ItemID == "" || r.Quantity < 1 {
			continue
		}
		if i, ok := seen[r.ItemID]; ok {
			out[i].Quantity += r.Quantity
			continue
		}
		seen[r.ItemID] = len(out)
		out = append(out, r)
	}
	return out
}

// Key returns the table scope of the store.
func (s *Store) Key() Key {
	return s.key
}

// AddItem increments the quantity of an existing row or appends a new row
// with quantity 1. Adding to an empty cart starts the session timer.
func (s *Store) AddItem(ctx context.Context, item Item) (Snapshot, error) {
	if item.ID == "" {
		return Snapshot{}, ErrInvalidItem
	}
	if item.Price.IsNegative() {
		return Snapshot{}, ErrNegativePrice
	}
	return s.update(ctx, true, func(st *state) error {
		if i := st.indexOf(item.ID); i >= 0 {
			st.items[i].Quantity++
			return nil
		}
		st.items = append(st.items, LineItem{
			ItemID:    item.ID,
			Name:      item.Name,
			UnitPrice: item.Price,
			Quantity:  1,
		})
		return nil
	})
}

// SetQuantity sets the quantity of a row, clamped to a minimum of 1.
// It never removes a row.
func (s *Store) SetQuantity(ctx context.Context, itemID string, quantity int) (Snapshot, error) {
	if quantity < 1 {
		quantity = 1
	}
	return s.update(ctx, true, func(st *state) error {
		i := st.indexOf(itemID)
		if i < 0 {
			return ErrItemNotInCart
		}
		st.items[i].Quantity = quantity
		return nil
	})
}

// RemoveItem deletes a row regardless of its quantity. Removing the last
// row ends the session: the timer stops and billing inputs and customer
// are reset.
func (s *Store) RemoveItem(ctx context.Context, itemID string) (Snapshot, error) {
	return s.update(ctx, true, func(st *state) error {
		i := st.indexOf(itemID)
		if i < 0 {
			return ErrItemNotInCart
		}
		st.items = append(st.items[:i], st.items[i+1:]...)
		return nil
	})
}

// Clear empties the cart, resets billing inputs and customer, stops the
// timer and erases the persisted mirror.
func (s *Store) Clear(ctx context.Context) (Snapshot, error) {
	return s.update(ctx, true, func(st *state) error {
		*st = state{}
		return nil
	})
}

// SetTaxPercent sets the tax percentage for the current session.
func (s *Store) SetTaxPercent(ctx context.Context, percent decimal.Decimal) (Snapshot, error) {
	return s.update(ctx, false, func(st *state) error {
		st.params.TaxPercent = percent
		return st.params.Validate()
	})
}

// SetDiscountPercent sets the discount percentage for the current session.
func (s *Store) SetDiscountPercent(ctx context.Context, percent decimal.Decimal) (Snapshot, error) {
	return s.update(ctx, false, func(st *state) error {
		st.params.DiscountPercent = percent
		return st.params.Validate()
	})
}

// SetRoundOff sets the signed round-off amount for the current session.
func (s *Store) SetRoundOff(ctx context.Context, amount decimal.Decimal) (Snapshot, error) {
	return s.update(ctx, false, func(st *state) error {
		st.params.RoundOff = amount
		return nil
	})
}

// SetCustomer attaches a customer to the cart.
func (s *Store) SetCustomer(ctx context.Context, ref CustomerRef) (Snapshot, error) {
	if ref.ID == "" {
		return Snapshot{}, ErrInvalidCustomer
	}
	return s.update(ctx, false, func(st *state) error {
		st.customer = &ref
		return nil
	})
}

// ClearCustomer detaches the customer.
func (s *Store) ClearCustomer(ctx context.Context) (Snapshot, error) {
	return s.update(ctx, false, func(st *state) error {
		st.customer = nil
		return nil
	})
}

// Snapshot returns the current cart with totals computed on demand.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	st := s.st.clone()
	lines := make([]billing.Line, len(st.items))
	for i, li := range st.items {
		lines[i] = billing.Line{UnitPrice: li.UnitPrice, Quantity: li.Quantity}
	}
	return Snapshot{
		Key:       s.key,
		Items:     st.items,
		Params:    st.params,
		Customer:  st.customer,
		StartedAt: st.origin,
		Elapsed:   s.timer.Elapsed(),
		Totals:    billing.Compute(lines, st.params),
	}
}

// Hold freezes the cart for checkout and returns the snapshot being billed.
// Until Release every mutation fails with ErrCartHeld.
func (s *Store) Hold() (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.held {
		return Snapshot{}, ErrCartHeld
	}
	s.held = true
	return s.snapshotLocked(), nil
}

// Release ends a hold. With clear set the cart is emptied as by Clear; the
// hold is lifted even when that write fails.
func (s *Store) Release(ctx context.Context, clear bool) (Snapshot, error) {
	s.mu.Lock()
	s.held = false
	if !clear {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap, nil
	}
	return s.applyLocked(ctx, true, func(st *state) error {
		*st = state{}
		return nil
	})
}

// update applies fn unless a checkout holds the cart.
func (s *Store) update(ctx context.Context, persistItems bool, fn func(*state) error) (Snapshot, error) {
	s.mu.Lock()
	if s.held {
		s.mu.Unlock()
		return Snapshot{}, ErrCartHeld
	}
	return s.applyLocked(ctx, persistItems, fn)
}

// applyLocked applies fn to a copy of the state, mirrors the result when
// persistItems is set, and commits only if the mirror succeeded. It must be
// called with s.mu held and releases it.
func (s *Store) applyLocked(ctx context.Context, persistItems bool, fn func(*state) error) (Snapshot, error) {
	next := s.st.clone()
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return Snapshot{}, err
	}

	startTimer := false
	switch {
	case len(next.items) == 0 && len(s.st.items) > 0:
		next = state{}
	case len(next.items) == 0:
		next.origin = nil
	case next.origin == nil:
		origin := s.timer.Start()
		next.origin = &origin
		startTimer = true
	}

	if persistItems {
		if err := s.mirror(ctx, next, startTimer); err != nil {
			if startTimer {
				s.timer.Stop()
			}
			s.mu.Unlock()
			s.logger.Error("mirror table state",
				zap.String("table", s.key.String()),
				zap.Error(err))
			return Snapshot{}, err
		}
	}

	s.st = next
	if next.origin == nil {
		s.timer.Stop()
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if s.observer != nil {
		s.observer(snap)
	}
	return snap, nil
}

// mirror writes the cart and timer keys in one batch.
func (s *Store) mirror(ctx context.Context, next state, startTimer bool) error {
	var b tablestate.Batch
	switch {
	case len(next.items) == 0:
		b.Erase = []string{s.key.cartKey(), s.key.timerKey()}
	case startTimer:
		b.Set = map[string]any{
			s.key.cartKey():  next.items,
			s.key.timerKey(): *next.origin,
		}
	default:
		b.Set = map[string]any{s.key.cartKey(): next.items}
	}
	if err := s.persist.Apply(ctx, b); err != nil {
		return fmt.Errorf("mirror cart: %w", err)
	}
	return nil
}
