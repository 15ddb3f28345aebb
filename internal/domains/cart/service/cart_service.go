package service

import (
	"context"

	"github.com/google/uuid"

	"bookstore-ecommerce/internal/domains/cart/model"
	"bookstore-ecommerce/internal/domains/cart/repository"
	catalogService "bookstore-ecommerce/internal/domains/catalog/service"
)

type Service interface {
	Reconciler
	// GetCart reconciles the stored cart so the client always sees current price/stock
	GetCart(ctx context.Context, userID uuid.UUID) (*model.Reconciliation, error)
	SetItem(ctx context.Context, userID uuid.UUID, bookID int64, quantity int) error
	RemoveItem(ctx context.Context, userID uuid.UUID, bookID int64) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

type cartService struct {
	Reconciler
	repo    repository.Repository
	catalog catalogService.Gateway
}

func NewCartService(repo repository.Repository, catalog catalogService.Gateway) Service {
	return &cartService{
		Reconciler: NewReconciler(catalog),
		repo:       repo,
		catalog:    catalog,
	}
}

func (s *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*model.Reconciliation, error) {
	items, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return &model.Reconciliation{
			Lines:       []model.ReconciledLine{},
			Adjustments: []model.Adjustment{},
		}, nil
	}

	lines := make([]model.LineRequest, len(items))
	for i, it := range items {
		lines[i] = model.LineRequest{BookID: it.BookID, Quantity: it.Quantity}
	}
	return s.Reconcile(ctx, lines)
}

func (s *cartService) SetItem(ctx context.Context, userID uuid.UUID, bookID int64, quantity int) error {
	if err := (model.SetItemRequest{Quantity: quantity}).Validate(); err != nil {
		return model.ErrInvalidQuantity
	}

	// chỉ cần book tồn tại; stock được kiểm tra lại lúc reconcile/đặt hàng
	if _, err := s.catalog.Lookup(ctx, bookID); err != nil {
		return err
	}
	return s.repo.SetQuantity(ctx, userID, bookID, quantity)
}

func (s *cartService) RemoveItem(ctx context.Context, userID uuid.UUID, bookID int64) error {
	return s.repo.Remove(ctx, userID, bookID)
}

func (s *cartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.repo.Clear(ctx, userID)
}
