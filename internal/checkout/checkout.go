// Package checkout turns a table's cart into a Transaction and hands it to
// the transaction collaborator.
//
// Per table the submission runs IDLE -> SUBMITTING -> ACCEPTED | REJECTED.
// The cart is held for the whole submission so no other terminal can change
// what is being billed. It is cleared only after the collaborator accepts; a
// rejection leaves it untouched and nothing is retried automatically. Once
// dispatched, a submission is not cancelled by its caller.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kiwari-pos/tablepos/internal/cart"
	"github.com/kiwari-pos/tablepos/internal/enum"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FallbackMessage is shown when the collaborator gives no reason.
const FallbackMessage = "transaction could not be completed, please try again"

// SubmitTimeout bounds a dispatched submission.
const SubmitTimeout = 30 * time.Second

var hundred = decimal.NewFromInt(100)

// Errors returned by the checkout service.
var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidPaymentType = errors.New("invalid payment_type")
	ErrSplitsRequired     = errors.New("splits are required for SPLIT payments")
	ErrUnexpectedSplits   = errors.New("splits are only allowed for SPLIT payments")
	ErrInvalidSplitType   = errors.New("invalid split type")
	ErrDuplicateSplitType = errors.New("duplicate split type")
	ErrInvalidSplitPct    = errors.New("split percent must be > 0")
	ErrSplitSum           = errors.New("split percents must sum to 100")
	ErrSubmissionInFlight = errors.New("a submission for this table is already in progress")
	ErrRejected           = errors.New("transaction rejected")
)

// RemoteError is a failure reported by the transaction collaborator.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("collaborator returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("collaborator returned status %d: %s", e.StatusCode, e.Message)
}

// UserMessage picks the collaborator's message when one is available.
func UserMessage(err error) string {
	var re *RemoteError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	return FallbackMessage
}

// Split is one part of a SPLIT payment as entered by the cashier.
type Split struct {
	Type    string          `json:"type"`
	Percent decimal.Decimal `json:"percent"`
}

// Request is the validated payment input.
type Request struct {
	PaymentType string  `json:"payment_type"`
	Splits      []Split `json:"splits"`
}

// Validate checks the payment type and, for SPLIT payments, that every part
// names a distinct non-split type and the percents sum to exactly 100.
func (r Request) Validate() error {
	if !isPaymentType(r.PaymentType) {
		return ErrInvalidPaymentType
	}
	if r.PaymentType != enum.PaymentTypeSplit {
		if len(r.Splits) > 0 {
			return ErrUnexpectedSplits
		}
		return nil
	}

	if len(r.Splits) == 0 {
		return ErrSplitsRequired
	}
	sum := decimal.Zero
	seen := make(map[string]bool, len(r.Splits))
	for i, sp := range r.Splits {
		if sp.Type == enum.PaymentTypeSplit || !isPaymentType(sp.Type) {
			return fmt.Errorf("splits[%d]: %w", i, ErrInvalidSplitType)
		}
		if seen[sp.Type] {
			return fmt.Errorf("splits[%d]: %w", i, ErrDuplicateSplitType)
		}
		seen[sp.Type] = true
		if !sp.Percent.IsPositive() {
			return fmt.Errorf("splits[%d]: %w", i, ErrInvalidSplitPct)
		}
		sum = sum.Add(sp.Percent)
	}
	if !sum.Equal(hundred) {
		return ErrSplitSum
	}
	return nil
}

func isPaymentType(s string) bool {
	switch s {
	case enum.PaymentTypeCash, enum.PaymentTypeCard, enum.PaymentTypeUPI,
		enum.PaymentTypeDue, enum.PaymentTypeSplit:
		return true
	}
	return false
}

// TransactionItem is a line item as submitted.
type TransactionItem struct {
	ItemID    string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// PaymentSplit is a split part with its share of the total.
type PaymentSplit struct {
	Type    string
	Percent decimal.Decimal
	Amount  decimal.Decimal
}

// Transaction is the immutable record of a completed sale.
type Transaction struct {
	ID              uuid.UUID
	RestaurantID    uuid.UUID
	TableID         string
	CustomerID      string
	Items           []TransactionItem
	TaxPercent      decimal.Decimal
	DiscountPercent decimal.Decimal
	RoundOff        decimal.Decimal
	Subtotal        decimal.Decimal
	TaxAmount       decimal.Decimal
	DiscountAmount  decimal.Decimal
	Total           decimal.Decimal
	PaymentType     string
	Splits          []PaymentSplit
	CreatedAt       time.Time
}

// Ack is the collaborator's acknowledgement.
type Ack struct {
	TransactionID string `json:"transaction_id"`
	Number        string `json:"number"`
}

// Recorder accepts finalized transactions.
// Satisfied by *service.TransactionService and *backoffice.Client.
type Recorder interface {
	SubmitTransaction(ctx context.Context, tx Transaction) (Ack, error)
}

// Result is returned for an accepted submission.
type Result struct {
	Transaction Transaction
	Ack         Ack
	// CartCleared is false when the sale went through but the cart mirror
	// could not be erased.
	CartCleared bool
}

// AcceptedFunc is called after the collaborator accepted a transaction.
type AcceptedFunc func(Transaction, Ack)

// Service submits carts.
type Service struct {
	recorder   Recorder
	logger     *zap.Logger
	now        func() time.Time
	timeout    time.Duration
	onAccepted AcceptedFunc

	mu     sync.Mutex
	states map[cart.Key]string
}

// NewService creates a checkout Service.
func NewService(recorder Recorder, logger *zap.Logger, onAccepted AcceptedFunc) *Service {
	return &Service{
		recorder:   recorder,
		logger:     logger,
		now:        time.Now,
		timeout:    SubmitTimeout,
		onAccepted: onAccepted,
		states:     make(map[cart.Key]string),
	}
}

// State returns the submission state of a table.
func (s *Service) State(key cart.Key) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.states[key]; ok {
		return st
	}
	return enum.SubmissionIdle
}

// Submit builds a Transaction from the current cart and sends it.
func (s *Service) Submit(ctx context.Context, store *cart.Store, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	key := store.Key()
	prev, err := s.begin(key)
	if err != nil {
		return nil, err
	}

	snap, err := store.Hold()
	if err != nil {
		s.setState(key, prev)
		return nil, ErrSubmissionInFlight
	}

	detached := context.WithoutCancel(ctx)
	if snap.IsEmpty() {
		store.Release(detached, false) //nolint:errcheck
		s.setState(key, prev)
		return nil, ErrEmptyCart
	}

	submitCtx, cancel := context.WithTimeout(detached, s.timeout)
	defer cancel()

	tx := s.build(snap, req)
	ack, err := s.recorder.SubmitTransaction(submitCtx, tx)
	if err != nil {
		store.Release(detached, false) //nolint:errcheck
		s.setState(key, enum.SubmissionRejected)
		s.logger.Warn("transaction rejected",
			zap.String("table", key.String()),
			zap.String("transaction_id", tx.ID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrRejected, err)
	}

	result := &Result{Transaction: tx, Ack: ack, CartCleared: true}
	if _, err := store.Release(detached, true); err != nil {
		result.CartCleared = false
		s.logger.Error("clear cart after accepted transaction",
			zap.String("table", key.String()),
			zap.String("transaction_id", tx.ID.String()),
			zap.Error(err))
	}
	s.setState(key, enum.SubmissionAccepted)

	if s.onAccepted != nil {
		s.onAccepted(tx, ack)
	}
	return result, nil
}

func (s *Service) begin(key cart.Key) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.states[key]
	if !ok {
		prev = enum.SubmissionIdle
	}
	if prev == enum.SubmissionSubmitting {
		return "", ErrSubmissionInFlight
	}
	s.states[key] = enum.SubmissionSubmitting
	return prev, nil
}

func (s *Service) setState(key cart.Key, state string) {
	s.mu.Lock()
	s.states[key] = state
	s.mu.Unlock()
}

func (s *Service) build(snap cart.Snapshot, req Request) Transaction {
	items := make([]TransactionItem, len(snap.Items))
	for i, li := range snap.Items {
		items[i] = TransactionItem{
			ItemID:    li.ItemID,
			Name:      li.Name,
			UnitPrice: li.UnitPrice,
			Quantity:  li.Quantity,
		}
	}

	var splits []PaymentSplit
	for _, sp := range req.Splits {
		splits = append(splits, PaymentSplit{
			Type:    sp.Type,
			Percent: sp.Percent,
			Amount:  snap.Totals.Total.Mul(sp.Percent).Div(hundred),
		})
	}

	var customerID string
	if snap.Customer != nil {
		customerID = snap.Customer.ID
	}

	return Transaction{
		ID:              uuid.New(),
		RestaurantID:    snap.Key.RestaurantID,
		TableID:         snap.Key.TableID,
		CustomerID:      customerID,
		Items:           items,
		TaxPercent:      snap.Params.TaxPercent,
		DiscountPercent: snap.Params.DiscountPercent,
		RoundOff:        snap.Params.RoundOff,
		Subtotal:        snap.Totals.Subtotal,
		TaxAmount:       snap.Totals.TaxAmount,
		DiscountAmount:  snap.Totals.DiscountAmount,
		Total:           snap.Totals.Total,
		PaymentType:     req.PaymentType,
		Splits:          splits,
		CreatedAt:       s.now().UTC(),
	}
}
