package backoffice

import (
	"fmt"
	"time"

	"github.com/kiwari-pos/tablepos/internal/checkout"
	"github.com/shopspring/decimal"
)

// Wire format. Money is a string with two decimals.

type transactionItemRequest struct {
	ItemID    string `json:"item_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"line_total"`
}

type paymentSplitRequest struct {
	PaymentType string `json:"payment_type"`
	Percent     string `json:"percent"`
	Amount      string `json:"amount"`
}

type transactionRequest struct {
	ID              string                   `json:"id"`
	TableID         string                   `json:"table_id"`
	CustomerID      *string                  `json:"customer_id"`
	Items           []transactionItemRequest `json:"items"`
	TaxPercent      string                   `json:"tax_percent"`
	DiscountPercent string                   `json:"discount_percent"`
	RoundOff        string                   `json:"round_off"`
	Subtotal        string                   `json:"subtotal"`
	TaxAmount       string                   `json:"tax_amount"`
	DiscountAmount  string                   `json:"discount_amount"`
	Total           string                   `json:"total"`
	PaymentType     string                   `json:"payment_type"`
	Splits          []paymentSplitRequest    `json:"splits,omitempty"`
	CreatedAt       string                   `json:"created_at"`
}

func toTransactionRequest(tx checkout.Transaction) transactionRequest {
	items := make([]transactionItemRequest, len(tx.Items))
	for i, it := range tx.Items {
		items[i] = transactionItemRequest{
			ItemID:    it.ItemID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice.StringFixed(2),
			Quantity:  it.Quantity,
			LineTotal: it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))).StringFixed(2),
		}
	}

	var splits []paymentSplitRequest
	for _, sp := range tx.Splits {
		splits = append(splits, paymentSplitRequest{
			PaymentType: sp.Type,
			Percent:     sp.Percent.String(),
			Amount:      sp.Amount.StringFixed(2),
		})
	}

	var customerID *string
	if tx.CustomerID != "" {
		id := tx.CustomerID
		customerID = &id
	}

	return transactionRequest{
		ID:              tx.ID.String(),
		TableID:         tx.TableID,
		CustomerID:      customerID,
		Items:           items,
		TaxPercent:      tx.TaxPercent.String(),
		DiscountPercent: tx.DiscountPercent.String(),
		RoundOff:        tx.RoundOff.StringFixed(2),
		Subtotal:        tx.Subtotal.StringFixed(2),
		TaxAmount:       tx.TaxAmount.StringFixed(2),
		DiscountAmount:  tx.DiscountAmount.StringFixed(2),
		Total:           tx.Total.StringFixed(2),
		PaymentType:     tx.PaymentType,
		Splits:          splits,
		CreatedAt:       tx.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func parseMoney(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid price %q", s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative price %q", s)
	}
	return d, nil
}
