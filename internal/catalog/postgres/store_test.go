//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ovenlight/checkout/internal/catalog/postgres"
	"github.com/ovenlight/checkout/internal/database"
	"github.com/ovenlight/checkout/internal/orders/domain"
	"github.com/ovenlight/checkout/internal/orders/ports"
	"github.com/shopspring/decimal"
	testpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := testpostgres.Run(ctx,
		"postgres:16-alpine",
		testpostgres.WithDatabase("test"),
		testpostgres.WithUsername("test"),
		testpostgres.WithPassword("test"),
		testpostgres.BasicWaitStrategies(),
		testpostgres.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").WithOccurrence(2)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	projectRoot := findProjectRoot(t)
	migrationsPath := filepath.Join(projectRoot, "migrations")

	if err := database.RunMigrations(connStr, migrationsPath); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	pool, err := database.NewPool(ctx, connStr, database.PoolConfig{})
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
	})

	return pool
}

func findProjectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

func seedProduct(t *testing.T, pool *pgxpool.Pool, ref string, price string, stock int) {
	t.Helper()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO products (ref, name, price, stock) VALUES ($1, $2, $3, $4)`,
		ref, "Product "+ref, price, stock,
	)
	if err != nil {
		t.Fatalf("failed to seed product: %v", err)
	}
}

func currentStock(t *testing.T, pool *pgxpool.Pool, ref string) int {
	t.Helper()
	var stock int
	err := pool.QueryRow(context.Background(), `SELECT stock FROM products WHERE ref = $1`, ref).Scan(&stock)
	if err != nil {
		t.Fatalf("failed to read stock: %v", err)
	}
	return stock
}

func TestStoreGetByRef(t *testing.T) {
	pool := setupTestDB(t)
	store := postgres.NewStore(pool)
	ctx := context.Background()

	seedProduct(t, pool, "prod_pizza", "499.50", 5)

	t.Run("returns product", func(t *testing.T) {
		entry, err := store.GetByRef(ctx, "prod_pizza")
		if err != nil {
			t.Fatalf("failed to get product: %v", err)
		}
		if entry.Name != "Product prod_pizza" || entry.Stock != 5 {
			t.Errorf("unexpected entry %+v", entry)
		}
		if !entry.Price.Equal(decimal.RequireFromString("499.50")) {
			t.Errorf("expected price 499.50, got %s", entry.Price)
		}
	})

	t.Run("unknown ref is not found", func(t *testing.T) {
		if _, err := store.GetByRef(ctx, "prod_ghost"); !errors.Is(err, ports.ErrProductNotFound) {
			t.Errorf("expected ErrProductNotFound, got %v", err)
		}
	})
}

func TestStoreReserve(t *testing.T) {
	pool := setupTestDB(t)
	store := postgres.NewStore(pool)
	ctx := context.Background()

	t.Run("decrements stock", func(t *testing.T) {
		seedProduct(t, pool, "prod_a", "100", 5)

		if err := store.Reserve(ctx, "prod_a", 3); err != nil {
			t.Fatalf("failed to reserve: %v", err)
		}
		if got := currentStock(t, pool, "prod_a"); got != 2 {
			t.Errorf("expected stock 2, got %d", got)
		}
	})

	t.Run("rejects more than available", func(t *testing.T) {
		seedProduct(t, pool, "prod_b", "100", 2)

		err := store.Reserve(ctx, "prod_b", 3)
		if !errors.Is(err, domain.ErrOutOfStock) {
			t.Errorf("expected ErrOutOfStock, got %v", err)
		}
		if got := currentStock(t, pool, "prod_b"); got != 2 {
			t.Errorf("stock must be unchanged, got %d", got)
		}
	})

	t.Run("unknown ref is not found", func(t *testing.T) {
		if err := store.Reserve(ctx, "prod_ghost", 1); !errors.Is(err, ports.ErrProductNotFound) {
			t.Errorf("expected ErrProductNotFound, got %v", err)
		}
	})

	t.Run("release restores stock", func(t *testing.T) {
		seedProduct(t, pool, "prod_c", "100", 5)

		if err := store.Reserve(ctx, "prod_c", 4); err != nil {
			t.Fatalf("failed to reserve: %v", err)
		}
		if err := store.Release(ctx, "prod_c", 4); err != nil {
			t.Fatalf("failed to release: %v", err)
		}
		if got := currentStock(t, pool, "prod_c"); got != 5 {
			t.Errorf("expected stock 5, got %d", got)
		}
	})

	t.Run("concurrent reservations never oversell", func(t *testing.T) {
		seedProduct(t, pool, "prod_d", "100", 1)

		const attempts = 8
		var wg sync.WaitGroup
		errs := make([]error, attempts)

		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = store.Reserve(ctx, "prod_d", 1)
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			if err == nil {
				succeeded++
			} else if !errors.Is(err, domain.ErrOutOfStock) {
				t.Errorf("unexpected error: %v", err)
			}
		}
		if succeeded != 1 {
			t.Errorf("expected exactly 1 successful reservation, got %d", succeeded)
		}
		if got := currentStock(t, pool, "prod_d"); got != 0 {
			t.Errorf("expected stock 0, got %d", got)
		}
	})
}
