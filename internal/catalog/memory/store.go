package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/ovenlight/checkout/internal/orders/domain"
	"github.com/ovenlight/checkout/internal/orders/ports"
)

// Store is an in-memory catalog for local development and tests. Reserve is
// a check-and-decrement under the store mutex, matching the atomicity the
// SQL version gets from a conditional UPDATE.
type Store struct {
	mu      sync.Mutex
	entries map[string]ports.CatalogEntry
}

// NewStore builds a store seeded with the given entries.
func NewStore(entries ...ports.CatalogEntry) *Store {
	s := &Store{entries: make(map[string]ports.CatalogEntry, len(entries))}
	for _, e := range entries {
		s.entries[e.Ref] = e
	}
	return s
}

// GetByRef returns the current catalog entry for ref.
func (s *Store) GetByRef(_ context.Context, ref string) (*ports.CatalogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[ref]
	if !ok {
		return nil, fmt.Errorf("%q: %w", ref, ports.ErrProductNotFound)
	}
	clone := entry
	return &clone, nil
}

// Reserve decrements stock if enough remains, atomically.
func (s *Store) Reserve(_ context.Context, ref string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[ref]
	if !ok {
		return fmt.Errorf("%q: %w", ref, ports.ErrProductNotFound)
	}
	if entry.Stock < quantity {
		return fmt.Errorf("%q: %w", ref, domain.ErrOutOfStock)
	}
	entry.Stock -= quantity
	s.entries[ref] = entry
	return nil
}

// Release returns previously reserved stock.
func (s *Store) Release(_ context.Context, ref string, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[ref]
	if !ok {
		return fmt.Errorf("%q: %w", ref, ports.ErrProductNotFound)
	}
	entry.Stock += quantity
	s.entries[ref] = entry
	return nil
}

// Stock reports the current stock level, for tests.
func (s *Store) Stock(ref string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[ref].Stock
}
