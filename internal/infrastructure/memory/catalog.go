package memory

import (
	"context"
	"sort"

	"bookstore-ecommerce/internal/domains/catalog/model"
)

type CatalogRepository struct {
	s *Store
}

func stockInfo(b *model.Book) model.StockInfo {
	return model.StockInfo{BookID: b.ID, Title: b.Title, Price: b.Price, Stock: b.Stock}
}

func (r *CatalogRepository) Lookup(ctx context.Context, id int64) (*model.StockInfo, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.books[id]
	if !ok {
		return nil, model.ErrBookNotFound
	}
	info := stockInfo(b)
	return &info, nil
}

func (r *CatalogRepository) LookupMany(ctx context.Context, ids []int64) (map[int64]model.StockInfo, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	result := make(map[int64]model.StockInfo, len(ids))
	for _, id := range ids {
		if b, ok := r.s.books[id]; ok {
			result[id] = stockInfo(b)
		}
	}
	return result, nil
}

func (r *CatalogRepository) GetByID(ctx context.Context, id int64) (*model.Book, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.books[id]
	if !ok {
		return nil, model.ErrBookNotFound
	}
	book := *b
	return &book, nil
}

func (r *CatalogRepository) List(ctx context.Context, filter model.ListFilter) ([]model.Book, int, error) {
	filter.Normalize()

	r.s.mu.RLock()
	matched := make([]model.Book, 0, len(r.s.books))
	for _, b := range r.s.books {
		if filter.GenreID != nil && !hasGenre(b, *filter.GenreID) {
			continue
		}
		if filter.AuthorID != nil && !hasAuthor(b, *filter.AuthorID) {
			continue
		}
		matched = append(matched, *b)
	}
	r.s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	return page(matched, filter.Offset(), filter.Limit), len(matched), nil
}

func hasGenre(b *model.Book, id int64) bool {
	for _, g := range b.Genres {
		if g.ID == id {
			return true
		}
	}
	return false
}

func hasAuthor(b *model.Book, id int64) bool {
	for _, a := range b.Authors {
		if a.ID == id {
			return true
		}
	}
	return false
}

// page cắt slice theo offset/limit như LIMIT ... OFFSET
func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
