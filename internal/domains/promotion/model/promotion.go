package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// MoneyScale là số chữ số thập phân của đơn vị tiền nhỏ nhất
const MoneyScale int32 = 2

// PromoCode: usable while now < ExpiryDate and subtotal >= MinAmount.
// There is no usage counter: the same code can be applied to any number of orders.
type PromoCode struct {
	ID              uuid.UUID       `json:"id"`
	Code            string          `json:"code"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	MinAmount       decimal.Decimal `json:"min_amount"`
	ExpiryDate      time.Time       `json:"expiry_date"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// IsExpired: hết hạn khi now >= expiry_date
func (p *PromoCode) IsExpired(now time.Time) bool {
	return !now.Before(p.ExpiryDate)
}

// MeetsMinimum reports subtotal >= min_amount
func (p *PromoCode) MeetsMinimum(subtotal decimal.Decimal) bool {
	return subtotal.GreaterThanOrEqual(p.MinAmount)
}

// Discount is the outcome of a successful validation
type Discount struct {
	Code            string          `json:"code"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

// Amount applies the discount to subtotal
func (d Discount) Amount(subtotal decimal.Decimal) decimal.Decimal {
	return ComputeDiscount(subtotal, d.DiscountPercent)
}

// ComputeDiscount = subtotal * percent / 100, round half-up về 2 chữ số thập phân
func ComputeDiscount(subtotal, percent decimal.Decimal) decimal.Decimal {
	if percent.LessThanOrEqual(decimal.Zero) || subtotal.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	discount := subtotal.Mul(percent).Div(hundred).Round(MoneyScale)
	if discount.GreaterThan(subtotal) {
		return subtotal
	}
	return discount
}
