package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ovenlight/checkout/internal/orders/domain"
	"github.com/ovenlight/checkout/internal/orders/ports"
)

// Store reads products and manages stock reservations. The conditional
// UPDATE in Reserve is what keeps two concurrent orders from both claiming
// the last unit.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) GetByRef(ctx context.Context, ref string) (*ports.CatalogEntry, error) {
	query := `
		SELECT ref, name, price, stock, image_ref
		FROM products
		WHERE ref = $1
	`

	var entry ports.CatalogEntry
	err := s.pool.QueryRow(ctx, query, ref).Scan(
		&entry.Ref,
		&entry.Name,
		&entry.Price,
		&entry.Stock,
		&entry.ImageRef,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%q: %w", ref, ports.ErrProductNotFound)
		}
		return nil, fmt.Errorf("select product: %w", err)
	}

	return &entry, nil
}

func (s *Store) Reserve(ctx context.Context, ref string, quantity int) error {
	query := `
		UPDATE products
		SET stock = stock - $2
		WHERE ref = $1 AND stock >= $2
	`

	result, err := s.pool.Exec(ctx, query, ref, quantity)
	if err != nil {
		return fmt.Errorf("reserve stock: %w", err)
	}
	if result.RowsAffected() == 0 {
		var one int
		err := s.pool.QueryRow(ctx, `SELECT 1 FROM products WHERE ref = $1`, ref).Scan(&one)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%q: %w", ref, ports.ErrProductNotFound)
		}
		if err != nil {
			return fmt.Errorf("check product exists: %w", err)
		}
		return fmt.Errorf("%q: %w", ref, domain.ErrOutOfStock)
	}

	return nil
}

func (s *Store) Release(ctx context.Context, ref string, quantity int) error {
	query := `
		UPDATE products
		SET stock = stock + $2
		WHERE ref = $1
	`

	result, err := s.pool.Exec(ctx, query, ref, quantity)
	if err != nil {
		return fmt.Errorf("release stock: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("%q: %w", ref, ports.ErrProductNotFound)
	}

	return nil
}
