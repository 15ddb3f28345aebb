package service

import (
	"context"

	"github.com/google/uuid"

	catalogService "bookstore-ecommerce/internal/domains/catalog/service"
	"bookstore-ecommerce/internal/domains/wishlist/model"
	"bookstore-ecommerce/internal/domains/wishlist/repository"
)

type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]model.Item, error)
	Add(ctx context.Context, userID uuid.UUID, bookID int64) (bool, error)
	Remove(ctx context.Context, userID uuid.UUID, bookID int64) error
}

type wishlistService struct {
	repo    repository.Repository
	catalog catalogService.Gateway
}

func NewWishlistService(repo repository.Repository, catalog catalogService.Gateway) Service {
	return &wishlistService{repo: repo, catalog: catalog}
}

func (s *wishlistService) List(ctx context.Context, userID uuid.UUID) ([]model.Item, error) {
	return s.repo.List(ctx, userID)
}

// Add trả về ErrBookNotFound nếu sách không tồn tại; thêm lại lần 2 không lỗi
func (s *wishlistService) Add(ctx context.Context, userID uuid.UUID, bookID int64) (bool, error) {
	if _, err := s.catalog.Lookup(ctx, bookID); err != nil {
		return false, err
	}
	return s.repo.Add(ctx, userID, bookID)
}

func (s *wishlistService) Remove(ctx context.Context, userID uuid.UUID, bookID int64) error {
	return s.repo.Remove(ctx, userID, bookID)
}
