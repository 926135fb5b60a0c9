package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ovenlight/checkout/internal/orders/domain"
	"github.com/ovenlight/checkout/internal/orders/ports"
	"github.com/shopspring/decimal"
)

// Repository provides an in-memory ledger useful for local development and
// tests. All mutations happen under one mutex, which makes the conditional
// updates atomic the same way the SQL versions are.
type Repository struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
}

// NewRepository constructs a new in-memory repository.
func NewRepository() *Repository {
	return &Repository{orders: make(map[string]domain.Order)}
}

// Create stores a new order instance.
func (r *Repository) Create(_ context.Context, order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

// GetByID fetches a single order by identifier.
func (r *Repository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := cloneOrder(order)
	return &clone, nil
}

// List returns orders respecting the provided filter, newest first.
// Pagination is 1-based.
func (r *Repository) List(_ context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Order
	for _, order := range r.orders {
		if filter.OwnerID != "" && order.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Status != nil && order.Status != *filter.Status {
			continue
		}
		result = append(result, cloneOrder(order))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}

	start := (page - 1) * pageSize
	if start >= len(result) {
		return []domain.Order{}, nil
	}

	end := start + pageSize
	if end > len(result) {
		end = len(result)
	}

	return result[start:end], nil
}

// UpdateStatus applies from -> to only while the stored status still equals
// from, stamping the lifecycle timestamps the target status calls for.
func (r *Repository) UpdateStatus(_ context.Context, id string, from, to domain.OrderStatus, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return ports.ErrNotFound
	}
	if order.Status != from {
		return ports.ErrStaleStatus
	}

	order.Status = to
	order.UpdatedAt = at
	switch to {
	case domain.StatusDelivered:
		order.DeliveredAt = &at
	case domain.StatusCancelled:
		order.CancelledAt = &at
	}
	r.orders[id] = order
	return nil
}

// MarkPaid performs the conditional pending -> paid transition.
func (r *Repository) MarkPaid(_ context.Context, id, paymentID, signature string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return false, ports.ErrNotFound
	}
	if order.PaymentStatus != domain.PaymentPending || order.Status != domain.StatusCreated {
		return false, nil
	}

	order.PaymentStatus = domain.PaymentPaid
	order.Status = domain.StatusConfirmed
	order.PaidAt = &at
	order.UpdatedAt = at
	if order.Gateway != nil {
		gw := *order.Gateway
		gw.PaymentID = paymentID
		gw.Signature = signature
		order.Gateway = &gw
	}
	r.orders[id] = order
	return true, nil
}

// Stats recomputes the rollups over the full order set.
func (r *Repository) Stats(_ context.Context, since time.Time) (ports.OrderStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := ports.OrderStats{TotalRevenue: decimal.Zero}
	for _, order := range r.orders {
		stats.TotalOrders++
		if order.PaymentStatus == domain.PaymentPaid {
			stats.TotalRevenue = stats.TotalRevenue.Add(order.Amounts.Total)
		}
		if !order.CreatedAt.Before(since) {
			stats.TodayOrders++
		}
		if order.Pending() {
			stats.PendingOrders++
		}
	}
	return stats, nil
}

func cloneOrder(order domain.Order) domain.Order {
	clone := order
	clone.Items = make([]domain.LineItem, len(order.Items))
	copy(clone.Items, order.Items)
	if order.Gateway != nil {
		gw := *order.Gateway
		clone.Gateway = &gw
	}
	if order.PaidAt != nil {
		t := *order.PaidAt
		clone.PaidAt = &t
	}
	if order.DeliveredAt != nil {
		t := *order.DeliveredAt
		clone.DeliveredAt = &t
	}
	if order.CancelledAt != nil {
		t := *order.CancelledAt
		clone.CancelledAt = &t
	}
	return clone
}
