package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/kiwari-pos/tablepos/internal/checkout"
	"github.com/kiwari-pos/tablepos/internal/database"
	"github.com/shopspring/decimal"
)

const maxTransactionNumberRetries = 3

const (
	transactionNumberConstraint = "transactions_restaurant_id_transaction_number_key"
	transactionPKConstraint     = "transactions_pkey"
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// TransactionStore defines the DB methods needed to record transactions.
// Satisfied by *database.Queries (and its WithTx variant).
type TransactionStore interface {
	GetNextTransactionNumber(ctx context.Context, restaurantID uuid.UUID) (int32, error)
	GetCustomer(ctx context.Context, arg database.GetCustomerParams) (database.Customer, error)
	CreateTransaction(ctx context.Context, arg database.CreateTransactionParams) (database.Transaction, error)
	CreateTransactionItem(ctx context.Context, arg database.CreateTransactionItemParams) (database.TransactionItem, error)
	CreateTransactionSplit(ctx context.Context, arg database.CreateTransactionSplitParams) (database.TransactionSplit, error)
}

// NewTransactionStore creates a TransactionStore from a DBTX (pool or tx).
type NewTransactionStore func(db database.DBTX) TransactionStore

// TransactionService is the local ledger. It records finalized
// transactions in Postgres and acts as the transaction collaborator when no
// remote back office is configured.
type TransactionService struct {
	pool     TxBeginner
	newStore NewTransactionStore
}

// NewTransactionService creates a new TransactionService.
func NewTransactionService(pool TxBeginner, newStore NewTransactionStore) *TransactionService {
	return &TransactionService{pool: pool, newStore: newStore}
}

// SubmitTransaction writes tx with its items and splits atomically.
// Business rejections come back as *checkout.RemoteError so the caller can
// show the message. Retries up to maxTransactionNumberRetries times when a
// concurrent insert took the same transaction number.
func (s *TransactionService) SubmitTransaction(ctx context.Context, tx checkout.Transaction) (checkout.Ack, error) {
	if len(tx.Items) == 0 {
		return checkout.Ack{}, reject(http.StatusUnprocessableEntity, "transaction has no items")
	}

	var lastErr error
	for attempt := 0; attempt < maxTransactionNumberRetries; attempt++ {
		ack, err := s.recordTx(ctx, tx)
		if err == nil {
			return ack, nil
		}
		switch {
		case isConstraintViolation(err, transactionNumberConstraint):
			lastErr = err
			continue
		case isConstraintViolation(err, transactionPKConstraint):
			return checkout.Ack{}, reject(http.StatusConflict, "transaction already recorded")
		}
		return checkout.Ack{}, err
	}
	return checkout.Ack{}, lastErr
}

func (s *TransactionService) recordTx(ctx context.Context, tx checkout.Transaction) (checkout.Ack, error) {
	dbtx, err := s.pool.Begin(ctx)
	if err != nil {
		return checkout.Ack{}, fmt.Errorf("begin tx: %w", err)
	}
	defer dbtx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(dbtx)

	// --- Validate customer ---
	customerID := pgtype.UUID{}
	if tx.CustomerID != "" {
		cid, err := uuid.Parse(tx.CustomerID)
		if err != nil {
			return checkout.Ack{}, reject(http.StatusUnprocessableEntity, "invalid customer_id")
		}
		_, err = store.GetCustomer(ctx, database.GetCustomerParams{ID: cid, RestaurantID: tx.RestaurantID})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return checkout.Ack{}, reject(http.StatusUnprocessableEntity, "customer not found")
			}
			return checkout.Ack{}, fmt.Errorf("get customer: %w", err)
		}
		customerID = pgtype.UUID{Bytes: cid, Valid: true}
	}

	// --- Transaction number ---
	next, err := store.GetNextTransactionNumber(ctx, tx.RestaurantID)
	if err != nil {
		return checkout.Ack{}, fmt.Errorf("get next transaction number: %w", err)
	}
	number := fmt.Sprintf("TX-%05d", next)

	// --- Insert transaction ---
	row, err := store.CreateTransaction(ctx, database.CreateTransactionParams{
		ID:                tx.ID,
		RestaurantID:      tx.RestaurantID,
		TransactionNumber: number,
		TableID:           tx.TableID,
		CustomerID:        customerID,
		TaxPercent:        decimalToNumeric(tx.TaxPercent),
		DiscountPercent:   decimalToNumeric(tx.DiscountPercent),
		RoundOff:          decimalToNumeric(tx.RoundOff),
		Subtotal:          decimalToNumeric(tx.Subtotal),
		TaxAmount:         decimalToNumeric(tx.TaxAmount),
		DiscountAmount:    decimalToNumeric(tx.DiscountAmount),
		Total:             decimalToNumeric(tx.Total),
		PaymentType:       tx.PaymentType,
		CreatedAt:         pgtype.Timestamptz{Time: tx.CreatedAt, Valid: true},
	})
	if err != nil {
		return checkout.Ack{}, fmt.Errorf("create transaction: %w", err)
	}

	// --- Insert items ---
	for i, item := range tx.Items {
		_, err := store.CreateTransactionItem(ctx, database.CreateTransactionItemParams{
			TransactionID: row.ID,
			LineNo:        int32(i + 1),
			ItemID:        item.ItemID,
			Name:          item.Name,
			UnitPrice:     decimalToNumeric(item.UnitPrice),
			Quantity:      int32(item.Quantity),
			LineTotal:     decimalToNumeric(item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))),
		})
		if err != nil {
			return checkout.Ack{}, fmt.Errorf("create transaction item[%d]: %w", i, err)
		}
	}

	// --- Insert splits ---
	for i, sp := range tx.Splits {
		_, err := store.CreateTransactionSplit(ctx, database.CreateTransactionSplitParams{
			TransactionID: row.ID,
			PaymentType:   sp.Type,
			Percent:       decimalToNumeric(sp.Percent),
			Amount:        decimalToNumeric(sp.Amount),
		})
		if err != nil {
			return checkout.Ack{}, fmt.Errorf("create transaction split[%d]: %w", i, err)
		}
	}

	// --- Commit ---
	if err := dbtx.Commit(ctx); err != nil {
		return checkout.Ack{}, fmt.Errorf("commit tx: %w", err)
	}

	return checkout.Ack{
		TransactionID: row.ID.String(),
		Number:        row.TransactionNumber,
	}, nil
}

// --- Helpers ---

func reject(status int, msg string) error {
	return &checkout.RemoteError{StatusCode: status, Message: msg}
}

// isConstraintViolation checks for a unique violation (pgconn error code
// 23505) on the named constraint.
func isConstraintViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" && pgErr.ConstraintName == constraint
	}
	return false
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
