package service

import (
	"context"
	"fmt"
	"time"

	"bookstore-ecommerce/internal/domains/catalog/model"
	"bookstore-ecommerce/internal/domains/catalog/repository"
	"bookstore-ecommerce/pkg/cache"
	"bookstore-ecommerce/pkg/logger"
)

const bookDetailTTL = time.Minute

// Gateway là read-only lookup mà cart và order dùng
type Gateway interface {
	Lookup(ctx context.Context, id int64) (*model.StockInfo, error)
	LookupMany(ctx context.Context, ids []int64) (map[int64]model.StockInfo, error)
}

// Service adds the browse operations exposed over HTTP
type Service interface {
	Gateway
	GetBook(ctx context.Context, id int64) (*model.Book, error)
	ListBooks(ctx context.Context, filter model.ListFilter) ([]model.Book, int, error)
}

type catalogService struct {
	repo  repository.Repository
	cache cache.Cache
}

func NewCatalogService(repo repository.Repository, c cache.Cache) Service {
	return &catalogService{repo: repo, cache: c}
}

// Lookup luôn đọc từ database (không cache) vì stock thay đổi liên tục
func (s *catalogService) Lookup(ctx context.Context, id int64) (*model.StockInfo, error) {
	return s.repo.Lookup(ctx, id)
}

func (s *catalogService) LookupMany(ctx context.Context, ids []int64) (map[int64]model.StockInfo, error) {
	return s.repo.LookupMany(ctx, ids)
}

func (s *catalogService) GetBook(ctx context.Context, id int64) (*model.Book, error) {
	key := fmt.Sprintf("book:detail:%d", id)

	var cached model.Book
	if found, err := s.cache.Get(ctx, key, &cached); err == nil && found {
		return &cached, nil
	} else if err != nil {
		logger.Error("book cache read failed", err)
	}

	book, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, book, bookDetailTTL); err != nil {
		logger.Error("book cache write failed", err)
	}
	return book, nil
}

func (s *catalogService) ListBooks(ctx context.Context, filter model.ListFilter) ([]model.Book, int, error) {
	filter.Normalize()
	return s.repo.List(ctx, filter)
}
