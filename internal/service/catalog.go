package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/kiwari-pos/tablepos/internal/catalog"
	"github.com/kiwari-pos/tablepos/internal/database"
)

// CatalogStore defines the DB methods needed to list the catalog.
// Satisfied by *database.Queries.
type CatalogStore interface {
	ListMenuItemsByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]database.MenuItem, error)
	ListCustomersByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]database.Customer, error)
}

// CatalogService serves menu items and customers from the local database.
type CatalogService struct {
	store CatalogStore
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(store CatalogStore) *CatalogService {
	return &CatalogService{store: store}
}

func (s *CatalogService) ListMenuItems(ctx context.Context, restaurantID uuid.UUID) ([]catalog.MenuItem, error) {
	rows, err := s.store.ListMenuItemsByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	out := make([]catalog.MenuItem, len(rows))
	for i, r := range rows {
		out[i] = catalog.MenuItem{
			ID:    r.ID.String(),
			Name:  r.Name,
			Price: numericToDecimal(r.Price),
		}
	}
	return out, nil
}

func (s *CatalogService) ListCustomers(ctx context.Context, restaurantID uuid.UUID) ([]catalog.Customer, error) {
	rows, err := s.store.ListCustomersByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	out := make([]catalog.Customer, len(rows))
	for i, r := range rows {
		out[i] = catalog.Customer{
			ID:    r.ID.String(),
			Name:  r.Name,
			Phone: r.Phone.String,
			Email: r.Email.String,
		}
	}
	return out, nil
}
