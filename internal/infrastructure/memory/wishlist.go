package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"bookstore-ecommerce/internal/domains/wishlist/model"
)

type WishlistRepository struct {
	s *Store
}

func (r *WishlistRepository) List(ctx context.Context, userID uuid.UUID) ([]model.Item, error) {
	r.s.mu.RLock()
	items := make([]model.Item, 0, len(r.s.wishlist[userID]))
	for bookID, addedAt := range r.s.wishlist[userID] {
		b, ok := r.s.books[bookID]
		if !ok {
			continue
		}
		items = append(items, model.Item{
			UserID:  userID,
			BookID:  bookID,
			Title:   b.Title,
			Price:   b.Price,
			InStock: b.Stock > 0,
			AddedAt: addedAt,
		})
	}
	r.s.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool { return items[i].AddedAt.After(items[j].AddedAt) })
	return items, nil
}

func (r *WishlistRepository) Add(ctx context.Context, userID uuid.UUID, bookID int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	lines, ok := r.s.wishlist[userID]
	if !ok {
		lines = make(map[int64]time.Time)
		r.s.wishlist[userID] = lines
	}
	if _, exists := lines[bookID]; exists {
		return false, nil
	}
	lines[bookID] = r.s.now()
	return true, nil
}

func (r *WishlistRepository) Remove(ctx context.Context, userID uuid.UUID, bookID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.wishlist[userID], bookID)
	return nil
}
