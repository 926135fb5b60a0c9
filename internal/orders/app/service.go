package app

import (
	"context"
	"log/slog"

	"github.com/ovenlight/checkout/internal/orders/app/commands"
	"github.com/ovenlight/checkout/internal/orders/app/queries"
	"github.com/ovenlight/checkout/internal/orders/domain"
	"github.com/ovenlight/checkout/internal/orders/metrics"
	"github.com/ovenlight/checkout/internal/orders/ports"
)

// Config carries the policy knobs the service needs beyond its ports.
type Config struct {
	Pricer        domain.Pricer
	Currency      string
	GatewaySecret string
}

// Service bundles the order use cases exposed to the API.
type Service struct {
	idemStore      ports.IdempotencyStore
	createHandler  commands.CreateOrderHandler
	verifyHandler  commands.VerifyPaymentHandler
	cancelHandler  *commands.CancelOrderCommandHandler
	statusHandler  *commands.SetStatusCommandHandler
	getHandler     *queries.GetOrderQueryHandler
	listHandler    *queries.ListOrdersQueryHandler
	statsHandler   *queries.GetStatsQueryHandler
	serviceMetrics *metrics.Metrics
}

// NewService wires required dependencies.
func NewService(
	repo ports.OrderRepository,
	catalog ports.CatalogStore,
	gateway ports.PaymentGateway,
	ids ports.IDSource,
	events ports.EventBus,
	idem ports.IdempotencyStore,
	logger *slog.Logger,
	m *metrics.Metrics,
	cfg Config,
) *Service {
	createCore := commands.NewCreateOrderCommandHandler(repo, catalog, gateway, ids, events, cfg.Pricer, cfg.Currency)
	verifyCore := commands.NewVerifyPaymentCommandHandler(repo, events, cfg.GatewaySecret)

	return &Service{
		idemStore:      idem,
		createHandler:  commands.NewObservableCreateOrderHandler(createCore, logger, m),
		verifyHandler:  commands.NewObservableVerifyPaymentHandler(verifyCore, logger, m),
		cancelHandler:  commands.NewCancelOrderCommandHandler(repo, catalog, events),
		statusHandler:  commands.NewSetStatusCommandHandler(repo, catalog, events),
		getHandler:     queries.NewGetOrderQueryHandler(repo),
		listHandler:    queries.NewListOrdersQueryHandler(repo),
		statsHandler:   queries.NewGetStatsQueryHandler(repo, nil),
		serviceMetrics: m,
	}
}

// CreateOrderInput captures the payload for creating an order.
type CreateOrderInput struct {
	OwnerID         string               `json:"-"`
	Items           []commands.ItemInput `json:"items"`
	ShippingAddress domain.Address       `json:"shipping_address"`
	PaymentMethod   domain.PaymentMethod `json:"payment_method"`
}

// CreateOrder resolves, prices and persists a new order.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error) {
	cmd := commands.CreateOrderCommand{
		OwnerID:         input.OwnerID,
		Items:           input.Items,
		ShippingAddress: input.ShippingAddress,
		PaymentMethod:   input.PaymentMethod,
	}
	return s.createHandler.Handle(ctx, cmd)
}

// VerifyPaymentInput carries the gateway callback fields.
type VerifyPaymentInput struct {
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	GatewaySignature string `json:"gateway_signature"`
	OrderID          string `json:"order_id"`
}

// VerifyPayment reconciles a gateway payment callback against the ledger.
func (s *Service) VerifyPayment(ctx context.Context, input VerifyPaymentInput) (*domain.Order, error) {
	cmd := commands.VerifyPaymentCommand{
		GatewayOrderID:   input.GatewayOrderID,
		GatewayPaymentID: input.GatewayPaymentID,
		GatewaySignature: input.GatewaySignature,
		OrderID:          input.OrderID,
	}
	return s.verifyHandler.Handle(ctx, cmd)
}

// CancelOrder cancels an order on behalf of its owner and releases held
// stock.
func (s *Service) CancelOrder(ctx context.Context, ownerID, orderID string) (*domain.Order, error) {
	order, err := s.cancelHandler.Handle(ctx, ownerID, orderID)
	if err == nil {
		s.serviceMetrics.RecordOrderCancelled(ctx)
	}
	return order, err
}

// SetOrderStatus applies an administrative status transition.
func (s *Service) SetOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	return s.statusHandler.Handle(ctx, orderID, status)
}

// GetOrder retrieves an order, owner-scoped when ownerID is non-empty.
func (s *Service) GetOrder(ctx context.Context, ownerID, orderID string) (*domain.Order, error) {
	return s.getHandler.Handle(ctx, queries.GetOrderQuery{OwnerID: ownerID, OrderID: orderID})
}

// ListOrders returns orders using a filter.
func (s *Service) ListOrders(ctx context.Context, filter ports.ListFilter) ([]domain.Order, error) {
	return s.listHandler.Handle(ctx, filter)
}

// GetStats returns the operational rollups.
func (s *Service) GetStats(ctx context.Context) (ports.OrderStats, error) {
	return s.statsHandler.Handle(ctx)
}

// SaveIdempotentResponse writes response details for a key.
func (s *Service) SaveIdempotentResponse(ctx context.Context, key string, response ports.StoredResponse) error {
	return s.idemStore.Save(ctx, key, response)
}

// GetIdempotentResponse retrieves previously stored response data.
func (s *Service) GetIdempotentResponse(ctx context.Context, key string) (*ports.StoredResponse, error) {
	return s.idemStore.Get(ctx, key)
}
