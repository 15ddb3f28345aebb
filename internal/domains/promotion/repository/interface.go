package repository

import (
	"context"

	"github.com/google/uuid"

	"bookstore-ecommerce/internal/domains/promotion/model"
)

type Repository interface {
	// FindByCode is an exact, case-sensitive match. Returns model.ErrPromoNotFound.
	FindByCode(ctx context.Context, code string) (*model.PromoCode, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.PromoCode, error)
	Create(ctx context.Context, p *model.PromoCode) error
	Update(ctx context.Context, p *model.PromoCode) error
	List(ctx context.Context, limit, offset int) ([]model.PromoCode, int, error)
}
