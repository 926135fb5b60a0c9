package kafka

import (
	"context"
	"log/slog"

	"github.com/ovenlight/checkout/internal/orders/domain"
)

// NoopEventBus logs lifecycle events without sending them to Kafka. Useful
// for local dev before wiring a real broker.
type NoopEventBus struct{}

// NewNoopEventBus returns a new no-op event publisher.
func NewNoopEventBus() *NoopEventBus {
	return &NoopEventBus{}
}

func (n *NoopEventBus) PublishOrderCreated(_ context.Context, orderID string) error {
	slog.Debug("event::order_created", "order_id", orderID)
	return nil
}

func (n *NoopEventBus) PublishPaymentConfirmed(_ context.Context, orderID string) error {
	slog.Debug("event::payment_confirmed", "order_id", orderID)
	return nil
}

func (n *NoopEventBus) PublishOrderCancelled(_ context.Context, orderID string) error {
	slog.Debug("event::order_cancelled", "order_id", orderID)
	return nil
}

func (n *NoopEventBus) PublishStatusChanged(_ context.Context, orderID string, status domain.OrderStatus) error {
	slog.Debug("event::order_status_changed", "order_id", orderID, "status", string(status))
	return nil
}
