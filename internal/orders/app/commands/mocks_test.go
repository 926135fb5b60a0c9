package commands_test

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ovenlight/checkout/internal/orders/domain"
	"github.com/ovenlight/checkout/internal/orders/ports"
)

type mockRepository struct {
	createFn       func(ctx context.Context, order domain.Order) error
	getByIDFn      func(ctx context.Context, id string) (*domain.Order, error)
	updateStatusFn func(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) error
	markPaidFn     func(ctx context.Context, id, paymentID, signature string, at time.Time) (bool, error)
}

func (m *mockRepository) Create(ctx context.Context, order domain.Order) error {
	if m.createFn != nil {
		return m.createFn(ctx, order)
	}
	return nil
}

func (m *mockRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, ports.ErrNotFound
}

func (m *mockRepository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	return nil, nil
}

func (m *mockRepository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, from, to, at)
	}
	return nil
}

func (m *mockRepository) MarkPaid(ctx context.Context, id, paymentID, signature string, at time.Time) (bool, error) {
	if m.markPaidFn != nil {
		return m.markPaidFn(ctx, id, paymentID, signature, at)
	}
	return true, nil
}

func (m *mockRepository) Stats(ctx context.Context, since time.Time) (ports.OrderStats, error) {
	return ports.OrderStats{}, nil
}

// mockCatalog tracks reservations and releases per product ref so tests can
// assert compensation happened.
type mockCatalog struct {
	mu       sync.Mutex
	entries  map[string]ports.CatalogEntry
	reserved map[string]int
	released map[string]int

	reserveFn func(ctx context.Context, ref string, quantity int) error
}

func newMockCatalog(entries ...ports.CatalogEntry) *mockCatalog {
	c := &mockCatalog{
		entries:  make(map[string]ports.CatalogEntry),
		reserved: make(map[string]int),
		released: make(map[string]int),
	}
	for _, e := range entries {
		c.entries[e.Ref] = e
	}
	return c
}

func (m *mockCatalog) GetByRef(ctx context.Context, ref string) (*ports.CatalogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[ref]
	if !ok {
		return nil, fmt.Errorf("%q: %w", ref, ports.ErrProductNotFound)
	}
	return &entry, nil
}

func (m *mockCatalog) Reserve(ctx context.Context, ref string, quantity int) error {
	if m.reserveFn != nil {
		if err := m.reserveFn(ctx, ref, quantity); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reserved[ref] += quantity
	return nil
}

func (m *mockCatalog) Release(ctx context.Context, ref string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.released[ref] += quantity
	return nil
}

func (m *mockCatalog) reservedFor(ref string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reserved[ref]
}

func (m *mockCatalog) releasedFor(ref string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released[ref]
}

type mockGateway struct {
	openOrderFn func(ctx context.Context, amount int64, currency, receipt string) (*ports.GatewayOrder, error)
	calls       int
}

func (m *mockGateway) OpenOrder(ctx context.Context, amount int64, currency, receipt string) (*ports.GatewayOrder, error) {
	m.calls++
	if m.openOrderFn != nil {
		return m.openOrderFn(ctx, amount, currency, receipt)
	}
	return &ports.GatewayOrder{ID: "gw_order_1", Amount: amount, Currency: currency}, nil
}

type stubIDSource struct {
	orderID   string
	receiptID string
}

func (s stubIDSource) OrderID() string {
	return s.orderID
}

func (s stubIDSource) ReceiptID(ownerID string) string {
	return s.receiptID
}

type mockEventBus struct {
	publishOrderCreatedFn     func(ctx context.Context, orderID string) error
	publishPaymentConfirmedFn func(ctx context.Context, orderID string) error
	publishOrderCancelledFn   func(ctx context.Context, orderID string) error
	publishStatusChangedFn    func(ctx context.Context, orderID string, status domain.OrderStatus) error
}

func (m *mockEventBus) PublishOrderCreated(ctx context.Context, orderID string) error {
	if m.publishOrderCreatedFn != nil {
		return m.publishOrderCreatedFn(ctx, orderID)
	}
	return nil
}

func (m *mockEventBus) PublishPaymentConfirmed(ctx context.Context, orderID string) error {
	if m.publishPaymentConfirmedFn != nil {
		return m.publishPaymentConfirmedFn(ctx, orderID)
	}
	return nil
}

func (m *mockEventBus) PublishOrderCancelled(ctx context.Context, orderID string) error {
	if m.publishOrderCancelledFn != nil {
		return m.publishOrderCancelledFn(ctx, orderID)
	}
	return nil
}

func (m *mockEventBus) PublishStatusChanged(ctx context.Context, orderID string, status domain.OrderStatus) error {
	if m.publishStatusChangedFn != nil {
		return m.publishStatusChangedFn(ctx, orderID, status)
	}
	return nil
}
