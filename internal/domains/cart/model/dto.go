package model

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	MaxLines        = 100
	MaxLineQuantity = 999
)

var (
	ErrCartEmpty       = errors.New("cart is empty")
	ErrInvalidQuantity = errors.New("quantity must be between 1 and 999")
)

const (
	ErrCodeCartEmpty       = "CRT001"
	ErrCodeInvalidQuantity = "CRT002"
)

func (l LineRequest) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.BookID, validation.Required, validation.Min(int64(1))),
		validation.Field(&l.Quantity, validation.Required, validation.Min(1), validation.Max(MaxLineQuantity)),
	)
}

type ReconcileRequest struct {
	Items []LineRequest `json:"items"`
}

func (r ReconcileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Items, validation.Required, validation.Length(1, MaxLines)),
	)
}

type SetItemRequest struct {
	Quantity int `json:"quantity"`
}

func (r SetItemRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Quantity, validation.Required, validation.Min(1), validation.Max(MaxLineQuantity)),
	)
}
