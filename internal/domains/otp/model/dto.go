package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

type RequestOTPRequest struct {
	Email   string  `json:"email"`
	Purpose Purpose `json:"purpose"`
}

func (r RequestOTPRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Purpose, validation.Required, validation.In(PurposeRegister, PurposeResetPassword)),
	)
}

type VerifyOTPRequest struct {
	Email   string  `json:"email"`
	Purpose Purpose `json:"purpose"`
	Code    string  `json:"code"`
}

func (r VerifyOTPRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Purpose, validation.Required, validation.In(PurposeRegister, PurposeResetPassword)),
		validation.Field(&r.Code, validation.Required, is.Digit, validation.Length(4, 10)),
	)
}
