package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	ordersCreatedTotal    metric.Int64Counter
	orderCreationDuration metric.Float64Histogram
	paymentsVerifiedTotal metric.Int64Counter
	paymentVerifyDuration metric.Float64Histogram
	ordersCancelledTotal  metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.ordersCreatedTotal, err = meter.Int64Counter(
		"orders_created_total",
		metric.WithDescription("Total number of orders created"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create orders_created_total counter: %w", err)
	}

	m.orderCreationDuration, err = meter.Float64Histogram(
		"order_creation_duration_seconds",
		metric.WithDescription("Duration of order creation operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_creation_duration histogram: %w", err)
	}

	m.paymentsVerifiedTotal, err = meter.Int64Counter(
		"payments_verified_total",
		metric.WithDescription("Total number of payment verification attempts"),
		metric.WithUnit("{verification}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create payments_verified_total counter: %w", err)
	}

	m.paymentVerifyDuration, err = meter.Float64Histogram(
		"payment_verification_duration_seconds",
		metric.WithDescription("Duration of payment verification operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create payment_verification_duration histogram: %w", err)
	}

	m.ordersCancelledTotal, err = meter.Int64Counter(
		"orders_cancelled_total",
		metric.WithDescription("Total number of orders cancelled"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create orders_cancelled_total counter: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordOrderCreated(ctx context.Context, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	m.ordersCreatedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("status", status),
	))
}

func (m *Metrics) RecordOrderCreationDuration(ctx context.Context, durationSeconds float64) {
	m.orderCreationDuration.Record(ctx, durationSeconds)
}

func (m *Metrics) RecordPaymentVerified(ctx context.Context, outcome string, durationSeconds float64) {
	m.paymentsVerifiedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
	m.paymentVerifyDuration.Record(ctx, durationSeconds)
}

func (m *Metrics) RecordOrderCancelled(ctx context.Context) {
	m.ordersCancelledTotal.Add(ctx, 1)
}
