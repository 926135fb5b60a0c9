package ports

import (
	"context"

	"github.com/ovenlight/checkout/internal/orders/domain"
)

// EventBus defines the contract for publishing order lifecycle events.
type EventBus interface {
	PublishOrderCreated(ctx context.Context, orderID string) error
	PublishPaymentConfirmed(ctx context.Context, orderID string) error
	PublishOrderCancelled(ctx context.Context, orderID string) error
	PublishStatusChanged(ctx context.Context, orderID string, status domain.OrderStatus) error
}
