package model

import (
	"errors"
	"fmt"
)

// =====================================================
// CUSTOM ERROR CODES
// =====================================================
const (
	ErrCodeOrderNotFound        = "ORD001"
	ErrCodeInvalidTransition    = "ORD002"
	ErrCodeInsufficientStock    = "ORD004"
	ErrCodeCartChanged          = "ORD005"
	ErrCodeBookUnavailable      = "ORD006"
	ErrCodeCartEmpty            = "ORD012"
	ErrCodeInvalidPaymentMethod = "ORD013"
	ErrCodeForbidden            = "ORD014"
	ErrCodePaymentNotAllowed    = "ORD016"
)

// =====================================================
// ERROR DEFINITIONS
// =====================================================
var (
	ErrOrderNotFound         = errors.New("order not found")
	ErrInvalidTransition     = errors.New("invalid order status transition")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrCartChanged           = errors.New("cart changed since it was reconciled")
	ErrBookUnavailable       = errors.New("book is no longer available")
	ErrCartEmpty             = errors.New("cart is empty")
	ErrInvalidPaymentMethod  = errors.New("invalid payment method")
	ErrForbidden             = errors.New("not allowed to act on this order")
	ErrPaymentNotAllowed     = errors.New("payment cannot be started for this order")
	ErrInvalidPaymentOutcome = errors.New("payment outcome must be paid or failed")
)

// =====================================================
// CUSTOM ERROR TYPE
// =====================================================
type OrderError struct {
	Code    string
	Message string
	Details map[string]interface{}
	Err     error
}

func (e *OrderError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *OrderError) Unwrap() error {
	return e.Err
}

// NewOrderError creates a new OrderError
func NewOrderError(code, message string, err error) *OrderError {
	return &OrderError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewInsufficientStockError names the offending line
func NewInsufficientStockError(bookID int64, title string, requested, available int) *OrderError {
	return &OrderError{
		Code:    ErrCodeInsufficientStock,
		Message: fmt.Sprintf("book %d (%s): requested %d, available %d", bookID, title, requested, available),
		Details: map[string]interface{}{
			"book_id":   bookID,
			"title":     title,
			"requested": requested,
			"available": available,
		},
		Err: ErrInsufficientStock,
	}
}

func NewInvalidTransitionError(from, to Status) *OrderError {
	return &OrderError{
		Code:    ErrCodeInvalidTransition,
		Message: fmt.Sprintf("cannot move order from %s to %s", from, to),
		Details: map[string]interface{}{"from": from, "to": to},
		Err:     ErrInvalidTransition,
	}
}

func NewBookUnavailableError(bookID int64) *OrderError {
	return &OrderError{
		Code:    ErrCodeBookUnavailable,
		Message: fmt.Sprintf("book %d", bookID),
		Details: map[string]interface{}{"book_id": bookID},
		Err:     ErrBookUnavailable,
	}
}

// NewCartChangedError carries the adjustments the client must accept before retrying
func NewCartChangedError(adjustments interface{}) *OrderError {
	return &OrderError{
		Code:    ErrCodeCartChanged,
		Message: "cart must be reconciled again before checkout",
		Details: map[string]interface{}{"adjustments": adjustments},
		Err:     ErrCartChanged,
	}
}
