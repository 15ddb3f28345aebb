package repository

import (
	"context"

	"github.com/google/uuid"

	"bookstore-ecommerce/internal/domains/wishlist/model"
)

type Repository interface {
	List(ctx context.Context, userID uuid.UUID) ([]model.Item, error)
	// Add is idempotent; it reports whether a new row was created
	Add(ctx context.Context, userID uuid.UUID, bookID int64) (bool, error)
	Remove(ctx context.Context, userID uuid.UUID, bookID int64) error
}
