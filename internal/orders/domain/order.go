package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus captures the fulfilment lifecycle of an order.
type OrderStatus string

const (
	StatusCreated        OrderStatus = "created"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusPreparing      OrderStatus = "preparing"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
	StatusReturned       OrderStatus = "returned"
)

// PaymentStatus tracks the payment axis independently of fulfilment.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// PaymentMethod distinguishes gateway checkout from cash on delivery.
type PaymentMethod string

const (
	MethodGateway        PaymentMethod = "gateway"
	MethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

// ItemKind discriminates the two line-item variants.
type ItemKind string

const (
	// ItemCatalog prices the item from the product catalog; the
	// client-submitted price is ignored.
	ItemCatalog ItemKind = "catalog"
	// ItemFreeform trusts the client-submitted price verbatim. This is an
	// intentional trust boundary for promotional and externally priced
	// items, not an oversight.
	ItemFreeform ItemKind = "freeform"
)

// LineItem is a price-frozen snapshot embedded in an order. Catalog items
// keep a reference to the product they were priced from; the price is never
// re-derived after creation.
type LineItem struct {
	Kind       ItemKind        `json:"kind"`
	ProductRef string          `json:"product_ref,omitempty"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
	ImageRef   string          `json:"image_ref,omitempty"`
}

// Address is the shipping destination recorded at creation time.
type Address struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
}

// Validate checks every required field and the phone format, naming the
// first offending field.
func (a Address) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"name", a.Name},
		{"phone", a.Phone},
		{"line1", a.Line1},
		{"city", a.City},
		{"state", a.State},
		{"postal_code", a.PostalCode},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return &InvalidAddressError{Field: f.name, Reason: "is required"}
		}
	}
	phone := strings.TrimSpace(a.Phone)
	if len(phone) != 10 {
		return &InvalidAddressError{Field: "phone", Reason: "must be exactly 10 digits"}
	}
	for _, r := range phone {
		if r < '0' || r > '9' {
			return &InvalidAddressError{Field: "phone", Reason: "must contain only digits"}
		}
	}
	return nil
}

// Amounts holds the priced breakdown of an order. Values stay exact
// decimals; conversion to gateway subunits happens once, at the gateway
// boundary.
type Amounts struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	Tax            decimal.Decimal `json:"tax"`
	DeliveryCharge decimal.Decimal `json:"delivery_charge"`
	Total          decimal.Decimal `json:"total"`
}

// GatewayRef links an order to its external payment-gateway order. The
// first three fields are set at creation; PaymentID and Signature are set
// together, exactly once, by a successful payment verification.
type GatewayRef struct {
	OrderID   string `json:"order_id"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	PaymentID string `json:"payment_id,omitempty"`
	Signature string `json:"signature,omitempty"`
}

// Order is the root aggregate of the ledger. Items, address and amounts are
// immutable after creation; only the two status axes, the gateway payment
// fields and the lifecycle timestamps mutate.
type Order struct {
	ID              string        `json:"id"`
	OwnerID         string        `json:"owner_id"`
	Items           []LineItem    `json:"items"`
	ShippingAddress Address       `json:"shipping_address"`
	Amounts         Amounts       `json:"amounts"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	PaymentStatus   PaymentStatus `json:"payment_status"`
	Status          OrderStatus   `json:"status"`
	Gateway         *GatewayRef   `json:"gateway,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
	PaidAt          *time.Time    `json:"paid_at,omitempty"`
	DeliveredAt     *time.Time    `json:"delivered_at,omitempty"`
	CancelledAt     *time.Time    `json:"cancelled_at,omitempty"`
}

// Validate ensures the aggregate honors its creation-time invariants.
func (o Order) Validate() error {
	if strings.TrimSpace(o.OwnerID) == "" {
		return &InvalidItemError{Reason: "owner_id is required"}
	}
	if len(o.Items) == 0 {
		return ErrEmptyCart
	}
	for i, item := range o.Items {
		if item.Quantity < 1 {
			return &InvalidItemError{Index: i, Reason: "quantity must be at least 1"}
		}
		if strings.TrimSpace(item.Name) == "" {
			return &InvalidItemError{Index: i, Reason: "name is required"}
		}
		if item.UnitPrice.IsNegative() {
			return &InvalidItemError{Index: i, Reason: "unit_price must not be negative"}
		}
		if item.Kind == ItemCatalog && item.ProductRef == "" {
			return &InvalidItemError{Index: i, Reason: "product_ref is required for catalog items"}
		}
	}
	if err := o.ShippingAddress.Validate(); err != nil {
		return err
	}
	sum := o.Amounts.Subtotal.Add(o.Amounts.Tax).Add(o.Amounts.DeliveryCharge)
	if !o.Amounts.Total.Equal(sum) {
		return &InvalidItemError{Reason: "total does not equal subtotal + tax + delivery charge"}
	}
	if o.PaymentMethod == MethodGateway && o.Gateway == nil {
		return &InvalidItemError{Reason: "gateway reference is required for gateway payment"}
	}
	return nil
}

// transitions is the only source of truth for the fulfilment state machine.
var transitions = map[OrderStatus][]OrderStatus{
	StatusCreated:        {StatusConfirmed, StatusCancelled},
	StatusConfirmed:      {StatusPreparing, StatusCancelled},
	StatusPreparing:      {StatusOutForDelivery, StatusCancelled},
	StatusOutForDelivery: {StatusDelivered},
	StatusDelivered:      {StatusReturned},
}

// CanTransition reports whether the state machine permits from -> to.
func CanTransition(from, to OrderStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CheckTransition validates a requested transition against the state
// machine and the payment guard: a gateway-paid order is never confirmed
// while its payment is still pending. Cash-on-delivery orders confirm with
// payment pending, since payment happens on delivery.
func (o Order) CheckTransition(to OrderStatus) error {
	if !CanTransition(o.Status, to) {
		if to == StatusCancelled {
			return ErrAlreadyTerminal
		}
		return ErrInvalidTransition
	}
	if to == StatusConfirmed && o.PaymentMethod == MethodGateway && o.PaymentStatus != PaymentPaid {
		return ErrInvalidTransition
	}
	return nil
}

// Cancellable reports whether the order may still be cancelled. Orders out
// for delivery or beyond are not.
func (o Order) Cancellable() bool {
	switch o.Status {
	case StatusCreated, StatusConfirmed, StatusPreparing:
		return true
	default:
		return false
	}
}

// Pending reports whether the order counts toward the operational backlog.
func (o Order) Pending() bool {
	switch o.Status {
	case StatusCreated, StatusConfirmed, StatusPreparing:
		return true
	default:
		return false
	}
}
