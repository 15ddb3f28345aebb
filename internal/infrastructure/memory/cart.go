package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"bookstore-ecommerce/internal/domains/cart/model"
)

type CartRepository struct {
	s *Store
}

func (r *CartRepository) List(ctx context.Context, userID uuid.UUID) ([]model.CartItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	items := make([]model.CartItem, 0, len(r.s.carts[userID]))
	for _, it := range r.s.carts[userID] {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].UpdatedAt.Before(items[j].UpdatedAt) })
	return items, nil
}

func (r *CartRepository) SetQuantity(ctx context.Context, userID uuid.UUID, bookID int64, quantity int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	lines, ok := r.s.carts[userID]
	if !ok {
		lines = make(map[int64]model.CartItem)
		r.s.carts[userID] = lines
	}
	lines[bookID] = model.CartItem{UserID: userID, BookID: bookID, Quantity: quantity, UpdatedAt: r.s.now()}
	return nil
}

func (r *CartRepository) Remove(ctx context.Context, userID uuid.UUID, bookID int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.carts[userID], bookID)
	return nil
}

func (r *CartRepository) Clear(ctx context.Context, userID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.carts, userID)
	return nil
}
