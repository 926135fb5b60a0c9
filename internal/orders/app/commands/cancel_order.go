package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ovenlight/checkout/internal/orders/domain"
	"github.com/ovenlight/checkout/internal/orders/ports"
)

// CancelOrderCommandHandler performs owner-initiated cancellation. Foreign
// orders read as not found; orders past preparing are no longer
// cancellable. A successful cancellation releases the stock held for
// catalog items.
type CancelOrderCommandHandler struct {
	repo    ports.OrderRepository
	catalog ports.CatalogStore
	events  ports.EventBus
}

func NewCancelOrderCommandHandler(repo ports.OrderRepository, catalog ports.CatalogStore, events ports.EventBus) *CancelOrderCommandHandler {
	return &CancelOrderCommandHandler{
		repo:    repo,
		catalog: catalog,
		events:  events,
	}
}

func (h *CancelOrderCommandHandler) Handle(ctx context.Context, ownerID, orderID string) (*domain.Order, error) {
	order, err := h.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.OwnerID != ownerID {
		return nil, ports.ErrNotFound
	}
	if !order.Cancellable() {
		return nil, domain.ErrAlreadyTerminal
	}

	err = h.repo.UpdateStatus(ctx, orderID, order.Status, domain.StatusCancelled, time.Now().UTC())
	if errors.Is(err, ports.ErrStaleStatus) {
		// Lost a race with another transition; re-validate against the
		// committed state.
		current, getErr := h.repo.GetByID(ctx, orderID)
		if getErr != nil {
			return nil, getErr
		}
		if !current.Cancellable() {
			return nil, domain.ErrAlreadyTerminal
		}
		return nil, domain.ErrInvalidTransition
	}
	if err != nil {
		return nil, err
	}

	releaseCatalogItems(ctx, h.catalog, order.Items)

	updated, err := h.repo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := h.events.PublishOrderCancelled(ctx, updated.ID); err != nil {
		return updated, fmt.Errorf("order cancelled but failed to publish event: %w", err)
	}

	return updated, nil
}

// releaseCatalogItems returns the stock held by an order's catalog items.
func releaseCatalogItems(ctx context.Context, catalog ports.CatalogStore, items []domain.LineItem) {
	for _, item := range items {
		if item.Kind != domain.ItemCatalog {
			continue
		}
		// Release is best-effort compensation; failures surface through
		// the catalog store's own logging, not to the caller.
		_ = catalog.Release(ctx, item.ProductRef, item.Quantity)
	}
}
