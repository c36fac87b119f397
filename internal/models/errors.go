package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidCoupon      = errors.New("invalid coupon")
	ErrUnauthorized       = errors.New("not authorized")
	ErrInvalidTransition  = errors.New("invalid order status transition")
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrCouponNotFound      = fmt.Errorf("coupon %w", ErrNotFound)
	ErrCouponExpired       = fmt.Errorf("%w: coupon is expired or inactive", ErrInvalidCoupon)
	ErrCouponBelowMinimum  = fmt.Errorf("%w: minimum purchase not met", ErrInvalidCoupon)
	ErrCouponAlreadyUsed   = fmt.Errorf("%w: you have already used this coupon", ErrInvalidCoupon)
	ErrCouponNotApplicable = fmt.Errorf("%w: coupon not applicable to items in cart", ErrInvalidCoupon)
	ErrCouponLimitReached  = fmt.Errorf("%w: coupon usage limit reached", ErrInvalidCoupon)

	ErrAlreadyReviewed = fmt.Errorf("product already reviewed: %w", ErrConflict)
)

// InsufficientStockError reports the line that could not be reserved.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	name := e.ProductName
	if name == "" {
		name = e.ProductID
	}
	return fmt.Sprintf("insufficient stock for %s (requested: %d, available: %d)", name, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// ValidationError carries per-field messages.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
