package model

import (
	"net/http"
)

type ErrorCode string

const (
	ErrCodePromoNotFound      ErrorCode = "PRM001"
	ErrCodePromoExpired       ErrorCode = "PRM002"
	ErrCodePromoMinimumNotMet ErrorCode = "PRM003"
	ErrCodePromoDuplicateCode ErrorCode = "PRM004"
)

// AppError mang HTTP status và details để handler trả về trực tiếp
type AppError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	HTTPStatus int                    `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

// Is matches on code so errors carrying details still satisfy errors.Is(err, ErrPromoExpired)
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

// WithDetails returns a copy carrying details
func (e *AppError) WithDetails(details map[string]interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

var (
	ErrPromoNotFound = &AppError{
		Code:       ErrCodePromoNotFound,
		Message:    "promo code not found",
		HTTPStatus: http.StatusNotFound,
	}

	ErrPromoExpired = &AppError{
		Code:       ErrCodePromoExpired,
		Message:    "promo code has expired",
		HTTPStatus: http.StatusUnprocessableEntity,
	}

	ErrPromoMinimumNotMet = &AppError{
		Code:       ErrCodePromoMinimumNotMet,
		Message:    "order subtotal is below the promo minimum",
		HTTPStatus: http.StatusUnprocessableEntity,
	}

	ErrPromoDuplicateCode = &AppError{
		Code:       ErrCodePromoDuplicateCode,
		Message:    "promo code already exists",
		HTTPStatus: http.StatusConflict,
	}
)
