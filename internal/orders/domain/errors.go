package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCart is returned when the resolved line-item list is empty.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrOutOfStock is returned when a catalog item cannot cover the
	// requested quantity.
	ErrOutOfStock = errors.New("insufficient stock")
	// ErrInvalidTransition is returned for a status change the state
	// machine does not permit.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrAlreadyTerminal is returned when cancellation is requested for an
	// order that can no longer be cancelled.
	ErrAlreadyTerminal = errors.New("order can no longer be cancelled")
	// ErrSignatureMismatch is returned when the recomputed gateway
	// signature does not match the supplied one. Callers surface it
	// generically; the detail stays in server logs.
	ErrSignatureMismatch = errors.New("payment signature mismatch")
	// ErrPaymentNotPending is returned when a verification callback
	// arrives for an order whose payment already left the pending state
	// through a non-paid path.
	ErrPaymentNotPending = errors.New("payment is not pending")
)

// InvalidItemError names the offending line item and why it was rejected.
type InvalidItemError struct {
	Index  int
	Reason string
}

func (e *InvalidItemError) Error() string {
	return fmt.Sprintf("item %d: %s", e.Index, e.Reason)
}

// InvalidAddressError names the first offending shipping-address field.
type InvalidAddressError struct {
	Field  string
	Reason string
}

func (e *InvalidAddressError) Error() string {
	return fmt.Sprintf("address %s %s", e.Field, e.Reason)
}
