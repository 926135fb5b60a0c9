package ports

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// CatalogEntry is the read-only view of a product consulted at order time.
type CatalogEntry struct {
	Ref      string
	Name     string
	Price    decimal.Decimal
	Stock    int
	ImageRef string
}

// CatalogStore is the inventory collaborator. Reserve is an atomic
// check-and-decrement: two concurrent orders can never both claim the last
// unit. Release compensates a reservation when order creation fails
// downstream or the order is cancelled.
type CatalogStore interface {
	GetByRef(ctx context.Context, ref string) (*CatalogEntry, error)
	Reserve(ctx context.Context, ref string, quantity int) error
	Release(ctx context.Context, ref string, quantity int) error
}

// ErrProductNotFound is returned when a catalog reference does not resolve.
var ErrProductNotFound = errors.New("product not found")
