package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
)

type ValidateRequest struct {
	Code     string          `json:"code"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

func (r ValidateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code, validation.Required, validation.Length(1, 50)),
		validation.Field(&r.Subtotal, validation.By(nonNegative)),
	)
}

type ValidateResponse struct {
	Code            string          `json:"code"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	DiscountAmount  decimal.Decimal `json:"discount_amount"`
	Total           decimal.Decimal `json:"total"`
}

// UpsertPromoRequest dùng cho cả create và update (admin)
type UpsertPromoRequest struct {
	Code            string          `json:"code"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	MinAmount       decimal.Decimal `json:"min_amount"`
	ExpiryDate      time.Time       `json:"expiry_date"`
}

func (r UpsertPromoRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Code, validation.Required, validation.Length(1, 50)),
		validation.Field(&r.DiscountPercent, validation.By(percentRange)),
		validation.Field(&r.MinAmount, validation.By(nonNegative)),
		validation.Field(&r.ExpiryDate, validation.Required),
	)
}

func nonNegative(value interface{}) error {
	d, _ := value.(decimal.Decimal)
	if d.IsNegative() {
		return validation.NewError("validation_negative", "must not be negative")
	}
	return nil
}

func percentRange(value interface{}) error {
	d, _ := value.(decimal.Decimal)
	if d.IsNegative() || d.GreaterThan(hundred) {
		return validation.NewError("validation_percent", "must be between 0 and 100")
	}
	return nil
}
