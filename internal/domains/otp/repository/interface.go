package repository

import (
	"context"

	"bookstore-ecommerce/internal/domains/otp/model"
)

// UpdateFunc receives the current record (nil when absent).
// A non-nil returned record is stored; nil leaves storage untouched.
// The returned error is passed back to the caller after the write.
type UpdateFunc func(current *model.Record) (*model.Record, error)

// Repository gives single-row atomicity per (email, purpose)
type Repository interface {
	Update(ctx context.Context, email string, purpose model.Purpose, fn UpdateFunc) error
}
