package adapters

import (
	"context"
	"time"

	"github.com/ovenlight/checkout/internal/database"
	"github.com/ovenlight/checkout/internal/orders/domain"
	"github.com/ovenlight/checkout/internal/orders/ports"
	"github.com/ovenlight/checkout/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

type ObservableRepository struct {
	repo    ports.OrderRepository
	metrics *database.Metrics
}

func NewObservableRepository(repo ports.OrderRepository, metrics *database.Metrics) *ObservableRepository {
	return &ObservableRepository{
		repo:    repo,
		metrics: metrics,
	}
}

func (r *ObservableRepository) Create(ctx context.Context, order domain.Order) error {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.Create")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", order.ID),
		attribute.String("operation", "create"),
	)

	start := time.Now()
	err := r.repo.Create(ctx, order)
	duration := time.Since(start).Seconds()

	r.metrics.RecordQuery(ctx, "create_order", duration)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}

func (r *ObservableRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.GetByID")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", id),
		attribute.String("operation", "get_by_id"),
	)

	start := time.Now()
	order, err := r.repo.GetByID(ctx, id)
	duration := time.Since(start).Seconds()

	r.metrics.RecordQuery(ctx, "get_order_by_id", duration)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}

	telemetry.SetSpanSuccess(span)
	return order, nil
}

func (r *ObservableRepository) List(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.List")
	defer span.End()

	attrs := []attribute.KeyValue{
		attribute.String("operation", "list"),
		attribute.Int("page", filter.Page),
		attribute.Int("page_size", filter.PageSize),
	}
	if filter.OwnerID != "" {
		attrs = append(attrs, attribute.String("filter.owner_id", filter.OwnerID))
	}
	if filter.Status != nil {
		attrs = append(attrs, attribute.String("filter.status", string(*filter.Status)))
	}
	telemetry.AddSpanAttributes(span, attrs...)

	start := time.Now()
	orders, err := r.repo.List(ctx, filter)
	duration := time.Since(start).Seconds()

	r.metrics.RecordQuery(ctx, "list_orders", duration)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return nil, err
	}

	telemetry.AddSpanAttributes(span, attribute.Int("result.count", len(orders)))
	telemetry.SetSpanSuccess(span)
	return orders, nil
}

func (r *ObservableRepository) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus, at time.Time) error {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.UpdateStatus")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", id),
		attribute.String("order.from_status", string(from)),
		attribute.String("order.to_status", string(to)),
		attribute.String("operation", "update_status"),
	)

	start := time.Now()
	err := r.repo.UpdateStatus(ctx, id, from, to, at)
	duration := time.Since(start).Seconds()

	r.metrics.RecordQuery(ctx, "update_order_status", duration)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}

func (r *ObservableRepository) MarkPaid(ctx context.Context, id, paymentID, signature string, at time.Time) (bool, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.MarkPaid")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", id),
		attribute.String("operation", "mark_paid"),
	)

	start := time.Now()
	applied, err := r.repo.MarkPaid(ctx, id, paymentID, signature, at)
	duration := time.Since(start).Seconds()

	r.metrics.RecordQuery(ctx, "mark_order_paid", duration)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return false, err
	}

	telemetry.AddSpanAttributes(span, attribute.Bool("result.applied", applied))
	telemetry.SetSpanSuccess(span)
	return applied, nil
}

func (r *ObservableRepository) Stats(ctx context.Context, since time.Time) (ports.OrderStats, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.Stats")
	defer span.End()

	telemetry.AddSpanAttributes(span, attribute.String("operation", "stats"))

	start := time.Now()
	stats, err := r.repo.Stats(ctx, since)
	duration := time.Since(start).Seconds()

	r.metrics.RecordQuery(ctx, "order_stats", duration)

	if err != nil {
		telemetry.RecordSpanError(span, err)
		return ports.OrderStats{}, err
	}

	telemetry.SetSpanSuccess(span)
	return stats, nil
}
