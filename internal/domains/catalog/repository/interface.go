package repository

import (
	"context"

	"bookstore-ecommerce/internal/domains/catalog/model"
)

// Repository is the read side of the catalog
type Repository interface {
	// Lookup returns price and stock, model.ErrBookNotFound when missing
	Lookup(ctx context.Context, id int64) (*model.StockInfo, error)
	// LookupMany skips unknown ids instead of failing
	LookupMany(ctx context.Context, ids []int64) (map[int64]model.StockInfo, error)
	GetByID(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context, filter model.ListFilter) ([]model.Book, int, error)
}
