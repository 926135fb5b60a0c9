package ports

import (
	"context"
	"errors"
	"time"

	"github.com/ovenlight/checkout/internal/orders/domain"
	"github.com/shopspring/decimal"
)

// OrderRepository exposes persistence operations required by the
// application layer. Status mutations are conditional updates so concurrent
// callers race safely: the loser of a compare-and-set observes
// ErrStaleStatus and re-validates against fresh state.
type OrderRepository interface {
	Create(ctx context.Context, order domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter ListFilter) ([]domain.Order, error)

	// UpdateStatus applies from -> to only while the stored status still
	// equals from, stamping delivered_at/cancelled_at when the target
	// status calls for it.
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) error

	// MarkPaid transitions payment pending -> paid and order
	// created -> confirmed in one conditional write, recording the gateway
	// payment id and signature. It reports false without error when the
	// condition no longer holds, which is how duplicate gateway callbacks
	// stay idempotent.
	MarkPaid(ctx context.Context, id, paymentID, signature string, at time.Time) (bool, error)

	// Stats recomputes the operational rollups on demand; since marks the
	// start of the current calendar day for the today count.
	Stats(ctx context.Context, since time.Time) (OrderStats, error)
}

// ListFilter narrows list queries by owner, status and pagination.
type ListFilter struct {
	OwnerID  string
	Status   *domain.OrderStatus
	Page     int
	PageSize int
}

// OrderStats is the read-only projection served to dashboards.
type OrderStats struct {
	TotalOrders   int64           `json:"total_orders"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TodayOrders   int64           `json:"today_orders"`
	PendingOrders int64           `json:"pending_orders"`
}

var (
	// ErrNotFound is returned when the requested order does not exist or
	// is not visible to the caller.
	ErrNotFound = errors.New("order not found")
	// ErrStaleStatus is returned when a conditional status update lost a
	// race and the expected prior status no longer holds.
	ErrStaleStatus = errors.New("order status changed concurrently")
)
