package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bookstore-ecommerce/internal/domains/promotion/model"
	"bookstore-ecommerce/internal/domains/promotion/repository"
)

// Validator is the boundary the order engine depends on
type Validator interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*model.Discount, error)
}

type Service interface {
	Validator
	Preview(ctx context.Context, req model.ValidateRequest) (*model.ValidateResponse, error)
	Create(ctx context.Context, req model.UpsertPromoRequest) (*model.PromoCode, error)
	Update(ctx context.Context, id uuid.UUID, req model.UpsertPromoRequest) (*model.PromoCode, error)
	List(ctx context.Context, page, limit int) ([]model.PromoCode, int, error)
}

type promotionService struct {
	repo repository.Repository
	now  func() time.Time
}

func NewPromotionService(repo repository.Repository) Service {
	return &promotionService{repo: repo, now: time.Now}
}

// NewPromotionServiceWithClock is used by tests to pin "now"
func NewPromotionServiceWithClock(repo repository.Repository, now func() time.Time) Service {
	return &promotionService{repo: repo, now: now}
}

// Validate kiểm tra theo thứ tự: tồn tại → hết hạn → giá trị tối thiểu.
// Không ghi gì vào storage nên gọi lặp lại luôn cho cùng kết quả.
func (s *promotionService) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*model.Discount, error) {
	promo, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if promo.IsExpired(s.now()) {
		return nil, model.ErrPromoExpired.WithDetails(map[string]interface{}{
			"code":        promo.Code,
			"expiry_date": promo.ExpiryDate,
		})
	}

	if !promo.MeetsMinimum(subtotal) {
		return nil, model.ErrPromoMinimumNotMet.WithDetails(map[string]interface{}{
			"code":       promo.Code,
			"min_amount": promo.MinAmount.StringFixed(model.MoneyScale),
			"subtotal":   subtotal.StringFixed(model.MoneyScale),
		})
	}

	return &model.Discount{Code: promo.Code, DiscountPercent: promo.DiscountPercent}, nil
}

// Preview cho client xem trước số tiền giảm trước khi đặt hàng
func (s *promotionService) Preview(ctx context.Context, req model.ValidateRequest) (*model.ValidateResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	discount, err := s.Validate(ctx, req.Code, req.Subtotal)
	if err != nil {
		return nil, err
	}

	amount := discount.Amount(req.Subtotal)
	return &model.ValidateResponse{
		Code:            discount.Code,
		DiscountPercent: discount.DiscountPercent,
		DiscountAmount:  amount,
		Total:           req.Subtotal.Sub(amount),
	}, nil
}

func (s *promotionService) Create(ctx context.Context, req model.UpsertPromoRequest) (*model.PromoCode, error) {
	req.Code = strings.TrimSpace(req.Code)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	promo := &model.PromoCode{
		ID:              uuid.New(),
		Code:            req.Code,
		DiscountPercent: req.DiscountPercent,
		MinAmount:       req.MinAmount,
		ExpiryDate:      req.ExpiryDate,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.repo.Create(ctx, promo); err != nil {
		return nil, err
	}
	return promo, nil
}

func (s *promotionService) Update(ctx context.Context, id uuid.UUID, req model.UpsertPromoRequest) (*model.PromoCode, error) {
	req.Code = strings.TrimSpace(req.Code)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	promo, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	promo.Code = req.Code
	promo.DiscountPercent = req.DiscountPercent
	promo.MinAmount = req.MinAmount
	promo.ExpiryDate = req.ExpiryDate
	promo.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, promo); err != nil {
		return nil, err
	}
	return promo, nil
}

func (s *promotionService) List(ctx context.Context, page, limit int) ([]model.PromoCode, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.repo.List(ctx, limit, (page-1)*limit)
}
