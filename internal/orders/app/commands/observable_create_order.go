package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/ovenlight/checkout/internal/orders/domain"
	"github.com/ovenlight/checkout/internal/orders/metrics"
	"github.com/ovenlight/checkout/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableCreateOrderHandler struct {
	handler CreateOrderHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableCreateOrderHandler(handler CreateOrderHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableCreateOrderHandler {
	return &ObservableCreateOrderHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableCreateOrderHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "CreateOrderCommand.Handle")
	defer span.End()

	start := time.Now()
	var success bool
	defer func() {
		duration := time.Since(start).Seconds()
		o.metrics.RecordOrderCreationDuration(ctx, duration)
		o.metrics.RecordOrderCreated(ctx, success)
	}()

	o.logger.InfoContext(ctx, "creating order",
		"owner_id", cmd.OwnerID,
		"item_count", len(cmd.Items),
		"payment_method", string(cmd.PaymentMethod),
	)

	order, err := o.handler.Handle(ctx, cmd)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		o.logger.ErrorContext(ctx, "failed to create order",
			"error", err,
			"owner_id", cmd.OwnerID,
		)
		return nil, err
	}

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", order.ID),
		attribute.String("order.owner_id", order.OwnerID),
		attribute.String("order.payment_method", string(order.PaymentMethod)),
		attribute.String("order.total", order.Amounts.Total.String()),
	)

	o.logger.InfoContext(ctx, "order created",
		"order_id", order.ID,
		"owner_id", order.OwnerID,
		"total", order.Amounts.Total.String(),
	)

	success = true
	telemetry.SetSpanSuccess(span)

	return order, nil
}
