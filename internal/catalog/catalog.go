// Package catalog is the read-only view of a restaurant's menu and
// customers. The cart consumes it as lookup data and never mutates it.
package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Errors returned by catalog lookups.
var (
	ErrMenuItemNotFound = errors.New("menu item not found")
	ErrCustomerNotFound = errors.New("customer not found")
)

// MenuItem is a purchasable item.
type MenuItem struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
}

// Customer is a known customer of the restaurant.
type Customer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// Source lists catalog data for a restaurant.
// Satisfied by *service.CatalogService and *backoffice.Client.
type Source interface {
	ListMenuItems(ctx context.Context, restaurantID uuid.UUID) ([]MenuItem, error)
	ListCustomers(ctx context.Context, restaurantID uuid.UUID) ([]Customer, error)
}
