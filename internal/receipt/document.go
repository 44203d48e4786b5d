// Package receipt renders invoices and kitchen order tickets as bitmaps
// sized for a thermal printer, and exports them as PNG or PDF.
package receipt

import (
	"errors"
	"strings"
	"time"

	"github.com/kiwari-pos/tablepos/internal/billing"
	"github.com/kiwari-pos/tablepos/internal/cart"
	"github.com/kiwari-pos/tablepos/internal/enum"
	"github.com/shopspring/decimal"
)

var ErrUnknownKind = errors.New("unknown document kind")

// Line is one printed row.
type Line struct {
	Name      string
	Quantity  int
	UnitPrice decimal.Decimal
	Amount    decimal.Decimal
}

// Document is everything a layout can print.
type Document struct {
	Kind           string
	RestaurantName string
	TableID        string
	CustomerName   string
	Lines          []Line
	Params         billing.Params
	Totals         billing.Totals
	PaymentType    string
	IssuedAt       time.Time
}

// ParseKind accepts "invoice" / "kot" in any case.
func ParseKind(s string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case enum.DocumentInvoice:
		return enum.DocumentInvoice, nil
	case enum.DocumentKOT:
		return enum.DocumentKOT, nil
	}
	return "", ErrUnknownKind
}

// FromSnapshot builds a Document of the given kind from a cart snapshot.
func FromSnapshot(kind, restaurantName string, snap cart.Snapshot, issuedAt time.Time) Document {
	lines := make([]Line, len(snap.Items))
	for i, li := range snap.Items {
		lines[i] = Line{
			Name:      li.Name,
			Quantity:  li.Quantity,
			UnitPrice: li.UnitPrice,
			Amount:    li.LineTotal(),
		}
	}
	doc := Document{
		Kind:           kind,
		RestaurantName: restaurantName,
		TableID:        snap.Key.TableID,
		Lines:          lines,
		Params:         snap.Params,
		Totals:         snap.Totals,
		IssuedAt:       issuedAt,
	}
	if snap.Customer != nil {
		doc.CustomerName = snap.Customer.Name
	}
	return doc
}
