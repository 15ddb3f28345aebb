package model

import "net/http"

type OTPError struct {
	Code       string
	Message    string
	HTTPStatus int
}

func (e *OTPError) Error() string {
	return e.Message
}

func (e *OTPError) Is(target error) bool {
	t, ok := target.(*OTPError)
	return ok && t.Code == e.Code
}

var (
	ErrOTPNotFound        = &OTPError{Code: "OTP001", Message: "no verification code was requested", HTTPStatus: http.StatusNotFound}
	ErrOTPExpired         = &OTPError{Code: "OTP002", Message: "verification code has expired", HTTPStatus: http.StatusGone}
	ErrOTPMismatch        = &OTPError{Code: "OTP003", Message: "verification code is incorrect", HTTPStatus: http.StatusUnprocessableEntity}
	ErrOTPAlreadyConsumed = &OTPError{Code: "OTP004", Message: "verification code has already been used", HTTPStatus: http.StatusConflict}
	ErrOTPMarkerInvalid   = &OTPError{Code: "OTP005", Message: "verification token is invalid or expired", HTTPStatus: http.StatusForbidden}
	ErrOTPRateLimited     = &OTPError{Code: "OTP006", Message: "too many verification codes requested, try again later", HTTPStatus: http.StatusTooManyRequests}
	ErrOTPInvalidPurpose  = &OTPError{Code: "OTP007", Message: "invalid verification purpose", HTTPStatus: http.StatusBadRequest}
)
