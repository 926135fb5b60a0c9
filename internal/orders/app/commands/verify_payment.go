package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ovenlight/checkout/internal/gateway"
	"github.com/ovenlight/checkout/internal/orders/domain"
	"github.com/ovenlight/checkout/internal/orders/ports"
)

// MissingFieldError reports which verification input was absent.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s is required", e.Field)
}

type VerifyPaymentCommand struct {
	GatewayOrderID   string
	GatewayPaymentID string
	GatewaySignature string
	OrderID          string
}

func (c VerifyPaymentCommand) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"gateway_order_id", c.GatewayOrderID},
		{"gateway_payment_id", c.GatewayPaymentID},
		{"gateway_signature", c.GatewaySignature},
		{"order_id", c.OrderID},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return &MissingFieldError{Field: f.name}
		}
	}
	return nil
}

type VerifyPaymentHandler interface {
	Handle(ctx context.Context, cmd VerifyPaymentCommand) (*domain.Order, error)
}

// VerifyPaymentCommandHandler is the trust boundary of the subsystem: the
// only place a client's claim of payment success becomes a durable state
// change. It trusts nothing but the HMAC over the two gateway-issued
// identifiers, and it is safe under at-least-once callback delivery.
type VerifyPaymentCommandHandler struct {
	repo   ports.OrderRepository
	events ports.EventBus
	secret string
}

func NewVerifyPaymentCommandHandler(repo ports.OrderRepository, events ports.EventBus, secret string) *VerifyPaymentCommandHandler {
	return &VerifyPaymentCommandHandler{
		repo:   repo,
		events: events,
		secret: secret,
	}
}

func (h *VerifyPaymentCommandHandler) Handle(ctx context.Context, cmd VerifyPaymentCommand) (*domain.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	order, err := h.repo.GetByID(ctx, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	// A valid signature from some other order must not be replayable
	// against this one.
	if order.Gateway == nil || order.Gateway.OrderID != cmd.GatewayOrderID {
		return nil, domain.ErrSignatureMismatch
	}

	if !gateway.VerifySignature(h.secret, cmd.GatewayOrderID, cmd.GatewayPaymentID, cmd.GatewaySignature) {
		return nil, domain.ErrSignatureMismatch
	}

	applied, err := h.repo.MarkPaid(ctx, order.ID, cmd.GatewayPaymentID, cmd.GatewaySignature, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	updated, err := h.repo.GetByID(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	if !applied {
		// Duplicate callback: already paid is a success, anything else
		// means the payment left pending through another path.
		if updated.PaymentStatus == domain.PaymentPaid {
			return updated, nil
		}
		if updated.Status != domain.StatusCreated {
			return nil, domain.ErrInvalidTransition
		}
		return nil, domain.ErrPaymentNotPending
	}

	if err := h.events.PublishPaymentConfirmed(ctx, updated.ID); err != nil {
		return updated, fmt.Errorf("payment recorded but failed to publish event: %w", err)
	}

	return updated, nil
}
