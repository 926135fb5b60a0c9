package queries

import (
	"context"

	"github.com/ovenlight/checkout/internal/orders/domain"
	"github.com/ovenlight/checkout/internal/orders/ports"
)

// ListOrdersQueryHandler returns orders matching a filter. Owner scoping is
// optional so administrators can list across owners.
type ListOrdersQueryHandler struct {
	repo ports.OrderRepository
}

// NewListOrdersQueryHandler constructs a ListOrdersQueryHandler.
func NewListOrdersQueryHandler(repo ports.OrderRepository) *ListOrdersQueryHandler {
	return &ListOrdersQueryHandler{repo: repo}
}

// Handle executes the list query.
func (h *ListOrdersQueryHandler) Handle(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	return h.repo.List(ctx, filter)
}
