package adapters

import (
	"context"
	"time"

	"github.com/ovenlight/checkout/internal/kafka"
	"github.com/ovenlight/checkout/internal/orders/domain"
	"github.com/ovenlight/checkout/internal/orders/ports"
	"github.com/ovenlight/checkout/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableEventBus struct {
	bus     ports.EventBus
	metrics *kafka.Metrics
}

func NewObservableEventBus(bus ports.EventBus, metrics *kafka.Metrics) *ObservableEventBus {
	return &ObservableEventBus{
		bus:     bus,
		metrics: metrics,
	}
}

func (e *ObservableEventBus) PublishOrderCreated(ctx context.Context, orderID string) error {
	return e.publish(ctx, "order.created", orderID, nil, func(ctx context.Context) error {
		return e.bus.PublishOrderCreated(ctx, orderID)
	})
}

func (e *ObservableEventBus) PublishPaymentConfirmed(ctx context.Context, orderID string) error {
	return e.publish(ctx, "order.payment_confirmed", orderID, nil, func(ctx context.Context) error {
		return e.bus.PublishPaymentConfirmed(ctx, orderID)
	})
}

func (e *ObservableEventBus) PublishOrderCancelled(ctx context.Context, orderID string) error {
	return e.publish(ctx, "order.cancelled", orderID, nil, func(ctx context.Context) error {
		return e.bus.PublishOrderCancelled(ctx, orderID)
	})
}

func (e *ObservableEventBus) PublishStatusChanged(ctx context.Context, orderID string, status domain.OrderStatus) error {
	extra := []attribute.KeyValue{attribute.String("order.status", string(status))}
	return e.publish(ctx, "order.status_changed", orderID, extra, func(ctx context.Context) error {
		return e.bus.PublishStatusChanged(ctx, orderID, status)
	})
}

func (e *ObservableEventBus) publish(ctx context.Context, topic, orderID string, extra []attribute.KeyValue, fn func(context.Context) error) error {
	ctx, span := telemetry.StartSpan(ctx, "EventBus.Publish")
	defer span.End()

	attrs := append([]attribute.KeyValue{
		attribute.String("order.id", orderID),
		attribute.String("event.type", topic),
		attribute.String("topic", topic),
	}, extra...)
	telemetry.AddSpanAttributes(span, attrs...)

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start).Seconds()

	e.metrics.RecordPublish(ctx, topic, duration, err == nil)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}
