package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ovenlight/checkout/internal/orders/domain"
	"github.com/ovenlight/checkout/internal/orders/metrics"
	"github.com/ovenlight/checkout/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableVerifyPaymentHandler struct {
	handler VerifyPaymentHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableVerifyPaymentHandler(handler VerifyPaymentHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableVerifyPaymentHandler {
	return &ObservableVerifyPaymentHandler{
		handler: handler,
		logger:  logger,
		metrics: metrics,
	}
}

func (o *ObservableVerifyPaymentHandler) Handle(ctx context.Context, cmd VerifyPaymentCommand) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "VerifyPaymentCommand.Handle")
	defer span.End()

	start := time.Now()

	order, err := o.handler.Handle(ctx, cmd)
	duration := time.Since(start).Seconds()

	outcome := "success"
	switch {
	case errors.Is(err, domain.ErrSignatureMismatch):
		outcome = "signature_mismatch"
	case err != nil:
		outcome = "error"
	}
	o.metrics.RecordPaymentVerified(ctx, outcome, duration)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		// Full detail stays server-side; the HTTP layer surfaces mismatches
		// generically.
		o.logger.ErrorContext(ctx, "payment verification failed",
			"error", err,
			"order_id", cmd.OrderID,
			"gateway_order_id", cmd.GatewayOrderID,
			"gateway_payment_id", cmd.GatewayPaymentID,
		)
		return nil, err
	}

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", order.ID),
		attribute.String("order.payment_status", string(order.PaymentStatus)),
	)

	o.logger.InfoContext(ctx, "payment verified",
		"order_id", order.ID,
		"gateway_payment_id", cmd.GatewayPaymentID,
	)

	telemetry.SetSpanSuccess(span)
	return order, nil
}
