package repository

import (
	"context"

	"github.com/google/uuid"

	"bookstore-ecommerce/internal/domains/cart/model"
)

// Repository stores the server copy of a user's cart.
// Clearing after checkout happens inside the order transaction.
type Repository interface {
	List(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error)
	SetQuantity(ctx context.Context, userID uuid.UUID, bookID int64, quantity int) error
	Remove(ctx context.Context, userID uuid.UUID, bookID int64) error
	Clear(ctx context.Context, userID uuid.UUID) error
}
