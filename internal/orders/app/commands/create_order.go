package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ovenlight/checkout/internal/orders/domain"
	"github.com/ovenlight/checkout/internal/orders/ports"
	"github.com/shopspring/decimal"
)

// subunitFactor converts a currency amount into the gateway's smallest
// subunit (e.g. rupees to paise). Rounding to an integer subunit happens
// here and nowhere else.
var subunitFactor = decimal.NewFromInt(100)

// ItemInput is a client-submitted cart line before resolution. For catalog
// items only Ref and Quantity are honored; name, price and image come from
// the catalog. For freeform items everything is taken verbatim.
type ItemInput struct {
	Kind      domain.ItemKind `json:"kind"`
	Ref       string          `json:"ref,omitempty"`
	Name      string          `json:"name,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price,omitempty"`
	Quantity  int             `json:"quantity"`
	ImageRef  string          `json:"image_ref,omitempty"`
}

type CreateOrderCommand struct {
	OwnerID         string
	Items           []ItemInput
	ShippingAddress domain.Address
	PaymentMethod   domain.PaymentMethod
}

func (c CreateOrderCommand) Validate() error {
	if strings.TrimSpace(c.OwnerID) == "" {
		return &domain.InvalidItemError{Reason: "owner_id is required"}
	}
	if len(c.Items) == 0 {
		return domain.ErrEmptyCart
	}
	switch c.PaymentMethod {
	case domain.MethodGateway, domain.MethodCashOnDelivery:
	default:
		return &domain.InvalidItemError{Reason: fmt.Sprintf("unknown payment method %q", c.PaymentMethod)}
	}
	return c.ShippingAddress.Validate()
}

type CreateOrderHandler interface {
	Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error)
}

// CreateOrderCommandHandler turns a cart snapshot into a durable,
// stock-checked order. Stock is decremented atomically per catalog item
// before the gateway order is opened; any later failure releases every
// decrement, so order creation is all-or-nothing from the caller's point
// of view.
type CreateOrderCommandHandler struct {
	repo     ports.OrderRepository
	catalog  ports.CatalogStore
	gateway  ports.PaymentGateway
	ids      ports.IDSource
	events   ports.EventBus
	pricer   domain.Pricer
	currency string
}

func NewCreateOrderCommandHandler(
	repo ports.OrderRepository,
	catalog ports.CatalogStore,
	gateway ports.PaymentGateway,
	ids ports.IDSource,
	events ports.EventBus,
	pricer domain.Pricer,
	currency string,
) *CreateOrderCommandHandler {
	return &CreateOrderCommandHandler{
		repo:     repo,
		catalog:  catalog,
		gateway:  gateway,
		ids:      ids,
		events:   events,
		pricer:   pricer,
		currency: currency,
	}
}

func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	items, err := h.resolveItems(ctx, cmd.Items)
	if err != nil {
		return nil, err
	}

	amounts := h.pricer.Price(items)

	reserved, err := h.reserveStock(ctx, items)
	if err != nil {
		return nil, err
	}

	var gatewayRef *domain.GatewayRef
	if cmd.PaymentMethod == domain.MethodGateway {
		receipt := h.ids.ReceiptID(cmd.OwnerID)
		amount := amounts.Total.Mul(subunitFactor).Round(0).IntPart()

		gwOrder, err := h.gateway.OpenOrder(ctx, amount, h.currency, receipt)
		if err != nil {
			h.releaseStock(ctx, reserved)
			return nil, fmt.Errorf("open gateway order: %w", err)
		}
		gatewayRef = &domain.GatewayRef{
			OrderID:  gwOrder.ID,
			Amount:   gwOrder.Amount,
			Currency: gwOrder.Currency,
		}
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:              h.ids.OrderID(),
		OwnerID:         cmd.OwnerID,
		Items:           items,
		ShippingAddress: cmd.ShippingAddress,
		Amounts:         amounts,
		PaymentMethod:   cmd.PaymentMethod,
		PaymentStatus:   domain.PaymentPending,
		Status:          domain.StatusCreated,
		Gateway:         gatewayRef,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := order.Validate(); err != nil {
		h.releaseStock(ctx, reserved)
		return nil, err
	}

	if err := h.repo.Create(ctx, order); err != nil {
		h.releaseStock(ctx, reserved)
		return nil, err
	}

	if err := h.events.PublishOrderCreated(ctx, order.ID); err != nil {
		return &order, fmt.Errorf("order saved but failed to publish event: %w", err)
	}

	return &order, nil
}

// resolveItems normalizes the submitted cart into priced line items.
// Catalog items are priced from the catalog, never from the client;
// freeform items are trusted verbatim after basic validation.
func (h *CreateOrderCommandHandler) resolveItems(ctx context.Context, inputs []ItemInput) ([]domain.LineItem, error) {
	items := make([]domain.LineItem, 0, len(inputs))
	for i, in := range inputs {
		if in.Quantity < 1 {
			return nil, &domain.InvalidItemError{Index: i, Reason: "quantity must be at least 1"}
		}

		switch in.Kind {
		case domain.ItemCatalog:
			if strings.TrimSpace(in.Ref) == "" {
				return nil, &domain.InvalidItemError{Index: i, Reason: "ref is required for catalog items"}
			}
			entry, err := h.catalog.GetByRef(ctx, in.Ref)
			if err != nil {
				return nil, err
			}
			if in.Quantity > entry.Stock {
				return nil, fmt.Errorf("%q: %w", entry.Ref, domain.ErrOutOfStock)
			}
			items = append(items, domain.LineItem{
				Kind:       domain.ItemCatalog,
				ProductRef: entry.Ref,
				Name:       entry.Name,
				UnitPrice:  entry.Price,
				Quantity:   in.Quantity,
				ImageRef:   entry.ImageRef,
			})

		case domain.ItemFreeform:
			if strings.TrimSpace(in.Name) == "" {
				return nil, &domain.InvalidItemError{Index: i, Reason: "name is required"}
			}
			if !in.UnitPrice.IsPositive() {
				return nil, &domain.InvalidItemError{Index: i, Reason: "unit_price must be positive"}
			}
			items = append(items, domain.LineItem{
				Kind:      domain.ItemFreeform,
				Name:      in.Name,
				UnitPrice: in.UnitPrice,
				Quantity:  in.Quantity,
				ImageRef:  in.ImageRef,
			})

		default:
			return nil, &domain.InvalidItemError{Index: i, Reason: fmt.Sprintf("unknown item kind %q", in.Kind)}
		}
	}

	if len(items) == 0 {
		return nil, domain.ErrEmptyCart
	}
	return items, nil
}

// reserveStock decrements stock per catalog item. On a mid-list failure it
// releases the decrements already taken so two orders never both hold the
// last unit.
func (h *CreateOrderCommandHandler) reserveStock(ctx context.Context, items []domain.LineItem) ([]domain.LineItem, error) {
	reserved := make([]domain.LineItem, 0, len(items))
	for _, item := range items {
		if item.Kind != domain.ItemCatalog {
			continue
		}
		if err := h.catalog.Reserve(ctx, item.ProductRef, item.Quantity); err != nil {
			h.releaseStock(ctx, reserved)
			return nil, err
		}
		reserved = append(reserved, item)
	}
	return reserved, nil
}

func (h *CreateOrderCommandHandler) releaseStock(ctx context.Context, reserved []domain.LineItem) {
	releaseCatalogItems(ctx, h.catalog, reserved)
}
