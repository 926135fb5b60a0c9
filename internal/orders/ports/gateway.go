package ports

import (
	"context"
	"errors"
)

// GatewayOrder is the external payment provider's handle for a pending
// charge. Amount is in the gateway's smallest currency subunit.
type GatewayOrder struct {
	ID       string
	Amount   int64
	Currency string
}

// PaymentGateway opens gateway orders. One attempt per call: a failure
// aborts order creation with no partial state, and retries are a
// caller-level concern.
type PaymentGateway interface {
	OpenOrder(ctx context.Context, amount int64, currency, receipt string) (*GatewayOrder, error)
}

// IDSource supplies order and receipt identifiers so tests can run with
// deterministic ids instead of clock-derived ones.
type IDSource interface {
	OrderID() string
	ReceiptID(ownerID string) string
}

// ErrGatewayUnavailable is returned when the gateway call fails or times
// out. Surfaced to callers as retryable; no order is created.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")
