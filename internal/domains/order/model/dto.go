package model

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	cartModel "bookstore-ecommerce/internal/domains/cart/model"
)

var phoneRegex = regexp.MustCompile(`^(0|\+84)[0-9]{9,10}$`)

// =====================================================
// REQUEST DTOs
// =====================================================

type ShippingRequest struct {
	RecipientName string `json:"recipient_name"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
}

func (s ShippingRequest) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.RecipientName, validation.Required, validation.Length(1, 100)),
		validation.Field(&s.Phone, validation.Required, validation.Match(phoneRegex)),
		validation.Field(&s.Address, validation.Required, validation.Length(5, 500)),
	)
}

func (s ShippingRequest) ToShipping() Shipping {
	return Shipping{RecipientName: s.RecipientName, Phone: s.Phone, Address: s.Address}
}

// CreateOrderRequest - body của POST /orders
type CreateOrderRequest struct {
	Items         []cartModel.LineRequest `json:"items"`
	PromoCode     string                  `json:"promo_code,omitempty"`
	Shipping      ShippingRequest         `json:"shipping"`
	PaymentMethod PaymentMethod           `json:"payment_method"`
}

func (r CreateOrderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Items, validation.Required.Error(ErrCartEmpty.Error()), validation.Length(1, cartModel.MaxLines)),
		validation.Field(&r.PromoCode, validation.Length(0, 50)),
		validation.Field(&r.Shipping),
		validation.Field(&r.PaymentMethod, validation.Required, validation.In(PaymentMethodCOD, PaymentMethodVNPay)),
	)
}

type UpdateStatusRequest struct {
	Status Status `json:"status"`
	Note   string `json:"note,omitempty"`
}

func (r UpdateStatusRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.Required, validation.In(StatusShipped, StatusDelivered, StatusCancelled)),
		validation.Field(&r.Note, validation.Length(0, 500)),
	)
}

type CancelOrderRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (r CancelOrderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Reason, validation.Length(0, 500)),
	)
}

// ListOrdersRequest - query params; UserID nil nghĩa là admin xem tất cả
type ListOrdersRequest struct {
	UserID *uuid.UUID `form:"-"`
	Status Status     `form:"status"`
	Page   int        `form:"page"`
	Limit  int        `form:"limit"`
}

func (r *ListOrdersRequest) Normalize() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 || r.Limit > 100 {
		r.Limit = 20
	}
}

func (r ListOrdersRequest) Offset() int {
	return (r.Page - 1) * r.Limit
}

// =====================================================
// RESPONSE DTOs
// =====================================================

type CreateOrderResponse struct {
	Order      *Order `json:"order"`
	PaymentURL string `json:"payment_url,omitempty"`
}

type ListOrdersResponse struct {
	Orders []Order `json:"orders"`
	Total  int     `json:"total"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

// PaymentUpdate is the result of applying a gateway outcome
type PaymentUpdate struct {
	Order          *Order
	Applied        bool
	RefundRequired bool
}
