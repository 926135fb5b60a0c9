package queries

import (
	"context"
	"strings"

	"github.com/ovenlight/checkout/internal/orders/domain"
	"github.com/ovenlight/checkout/internal/orders/ports"
)

// GetOrderQuery retrieves a single order, scoped to its owner when an
// owner id is supplied. Foreign orders read as not found rather than
// forbidden.
type GetOrderQuery struct {
	OwnerID string
	OrderID string
}

// Validate ensures the query has valid parameters.
func (q GetOrderQuery) Validate() error {
	if strings.TrimSpace(q.OrderID) == "" {
		return ports.ErrNotFound
	}
	return nil
}

// GetOrderQueryHandler executes GetOrderQuery.
type GetOrderQueryHandler struct {
	repo ports.OrderRepository
}

// NewGetOrderQueryHandler constructs a GetOrderQueryHandler.
func NewGetOrderQueryHandler(repo ports.OrderRepository) *GetOrderQueryHandler {
	return &GetOrderQueryHandler{repo: repo}
}

// Handle executes the query and retrieves the order.
func (h *GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (*domain.Order, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	order, err := h.repo.GetByID(ctx, query.OrderID)
	if err != nil {
		return nil, err
	}

	if query.OwnerID != "" && order.OwnerID != query.OwnerID {
		return nil, ports.ErrNotFound
	}

	return order, nil
}
