package orders

import (
	"errors"
	"fmt"
)

var (
	ErrBadRequest       = errors.New("malformed order request")
	ErrNotInCart        = errors.New("product not in cart or amount too large")
	ErrMultiSeller      = errors.New("order items span more than one seller")
	ErrOrderNotFound    = errors.New("order not found")
	ErrInvalidState     = errors.New("action not allowed in current order status")
	ErrIdentityMismatch = errors.New("user lacks required role for this order")
	ErrExpired          = errors.New("cancel window has passed")
)

// ProductNotFoundError names the missing product so the API layer can
// echo it back, as the storefront expects.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product not found: %s", e.ProductID)
}

// AmountExceededError reports a line that asked for more than the
// product has available.
type AmountExceededError struct {
	ProductID string
}

func (e *AmountExceededError) Error() string {
	return fmt.Sprintf("requested amount exceeds available stock: %s", e.ProductID)
}

// InconsistencyError reports that a compensating stock restore could not
// be applied while rejecting or cancelling an order. The surrounding
// transaction rolls the status change back, so no half-applied state is
// left behind, but the caller must learn this was not a plain not-found.
type InconsistencyError struct {
	OrderID string
	Err     error
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("stock restore failed for order %s: %v", e.OrderID, e.Err)
}

func (e *InconsistencyError) Unwrap() error { return e.Err }
