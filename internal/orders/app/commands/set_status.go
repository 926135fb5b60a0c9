package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ovenlight/checkout/internal/orders/domain"
	"github.com/ovenlight/checkout/internal/orders/ports"
)

// SetStatusCommandHandler applies administrative status transitions. The
// transition table is enforced regardless of caller; a concurrent
// conflicting transition resolves in favor of whichever commits first, the
// loser receiving an invalid-transition error after re-validation.
type SetStatusCommandHandler struct {
	repo    ports.OrderRepository
	catalog ports.CatalogStore
	events  ports.EventBus
}

func NewSetStatusCommandHandler(repo ports.OrderRepository, catalog ports.CatalogStore, events ports.EventBus) *SetStatusCommandHandler {
	return &SetStatusCommandHandler{
		repo:    repo,
		catalog: catalog,
		events:  events,
	}
}

func (h *SetStatusCommandHandler) Handle(ctx context.Context, orderID string, to domain.OrderStatus) (*domain.Order, error) {
	order, err := h.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := order.CheckTransition(to); err != nil {
		return nil, err
	}

	err = h.repo.UpdateStatus(ctx, orderID, order.Status, to, time.Now().UTC())
	if errors.Is(err, ports.ErrStaleStatus) {
		return nil, domain.ErrInvalidTransition
	}
	if err != nil {
		return nil, err
	}

	// Administrative cancellation releases stock just like owner-initiated
	// cancellation does.
	if to == domain.StatusCancelled {
		releaseCatalogItems(ctx, h.catalog, order.Items)
	}

	updated, err := h.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := h.events.PublishStatusChanged(ctx, updated.ID, updated.Status); err != nil {
		return updated, fmt.Errorf("status updated but failed to publish event: %w", err)
	}

	return updated, nil
}
