// Package events turns cart, timer and checkout activity into live
// updates for the table screens of a restaurant.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/kiwari-pos/tablepos/internal/billing"
	"github.com/kiwari-pos/tablepos/internal/cart"
	"github.com/kiwari-pos/tablepos/internal/checkout"
	"github.com/kiwari-pos/tablepos/internal/enum"
	"github.com/kiwari-pos/tablepos/internal/session"
)

// Broadcaster fans an event out to one restaurant. Satisfied by *ws.Hub.
type Broadcaster interface {
	Publish(restaurantID uuid.UUID, eventType string, payload any)
}

type LineView struct {
	ItemID    string `json:"item_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	LineTotal string `json:"line_total"`
}

// CartView is the wire form of a cart. Money is fixed to two decimals.
type CartView struct {
	RestaurantID    uuid.UUID         `json:"restaurant_id"`
	TableID         string            `json:"table_id"`
	Items           []LineView        `json:"items"`
	TaxPercent      string            `json:"tax_percent"`
	DiscountPercent string            `json:"discount_percent"`
	Customer        *cart.CustomerRef `json:"customer"`
	StartedAt       *time.Time        `json:"started_at"`
	Elapsed         string            `json:"elapsed"`
	SubmissionState string            `json:"submission_state,omitempty"`
	billing.FixedTotals
}

// NewCartView converts a snapshot.
func NewCartView(snap cart.Snapshot) CartView {
	items := make([]LineView, len(snap.Items))
	for i, li := range snap.Items {
		items[i] = LineView{
			ItemID:    li.ItemID,
			Name:      li.Name,
			UnitPrice: li.UnitPrice.StringFixed(2),
			Quantity:  li.Quantity,
			LineTotal: li.LineTotal().StringFixed(2),
		}
	}
	return CartView{
		RestaurantID:    snap.Key.RestaurantID,
		TableID:         snap.Key.TableID,
		Items:           items,
		TaxPercent:      snap.Params.TaxPercent.String(),
		DiscountPercent: snap.Params.DiscountPercent.String(),
		Customer:        snap.Customer,
		StartedAt:       snap.StartedAt,
		Elapsed:         session.FormatElapsed(snap.Elapsed),
		FixedTotals:     snap.Totals.Fixed(),
	}
}

type tablePayload struct {
	TableID string `json:"table_id"`
}

// CartObserver publishes cart.updated after every mutation, or
// cart.cleared once the cart is empty.
func CartObserver(b Broadcaster) cart.Observer {
	return func(snap cart.Snapshot) {
		if snap.IsEmpty() {
			b.Publish(snap.Key.RestaurantID, enum.EventCartCleared, tablePayload{TableID: snap.Key.TableID})
			return
		}
		b.Publish(snap.Key.RestaurantID, enum.EventCartUpdated, NewCartView(snap))
	}
}

type acceptedPayload struct {
	TableID       string `json:"table_id"`
	TransactionID string `json:"transaction_id"`
	Number        string `json:"number"`
	Total         string `json:"total"`
	PaymentType   string `json:"payment_type"`
}

// TransactionAccepted publishes transaction.accepted for a recorded sale.
func TransactionAccepted(b Broadcaster) checkout.AcceptedFunc {
	return func(tx checkout.Transaction, ack checkout.Ack) {
		id := ack.TransactionID
		if id == "" {
			id = tx.ID.String()
		}
		b.Publish(tx.RestaurantID, enum.EventTransactionAccepted, acceptedPayload{
			TableID:       tx.TableID,
			TransactionID: id,
			Number:        ack.Number,
			Total:         tx.Total.StringFixed(2),
			PaymentType:   tx.PaymentType,
		})
	}
}
