package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"bookstore-ecommerce/internal/domains/promotion/model"
)

type PromotionRepository struct {
	s *Store
}

func (r *PromotionRepository) FindByCode(ctx context.Context, code string) (*model.PromoCode, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.promos {
		if p.Code == code {
			promo := *p
			return &promo, nil
		}
	}
	return nil, model.ErrPromoNotFound
}

func (r *PromotionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PromoCode, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.promos[id]
	if !ok {
		return nil, model.ErrPromoNotFound
	}
	promo := *p
	return &promo, nil
}

func (r *PromotionRepository) Create(ctx context.Context, p *model.PromoCode) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.promos {
		if existing.Code == p.Code {
			return model.ErrPromoDuplicateCode
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := r.s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	promo := *p
	r.s.promos[p.ID] = &promo
	return nil
}

func (r *PromotionRepository) Update(ctx context.Context, p *model.PromoCode) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.promos[p.ID]; !ok {
		return model.ErrPromoNotFound
	}
	for _, existing := range r.s.promos {
		if existing.Code == p.Code && existing.ID != p.ID {
			return model.ErrPromoDuplicateCode
		}
	}
	p.UpdatedAt = r.s.now()
	promo := *p
	r.s.promos[p.ID] = &promo
	return nil
}

func (r *PromotionRepository) List(ctx context.Context, limit, offset int) ([]model.PromoCode, int, error) {
	r.s.mu.RLock()
	all := make([]model.PromoCode, 0, len(r.s.promos))
	for _, p := range r.s.promos {
		all = append(all, *p)
	}
	r.s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	return page(all, offset, limit), len(all), nil
}
