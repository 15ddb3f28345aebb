package user

import (
	"errors"
	"net/http"
)

// Repository-level errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
)

// Service-level errors
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserInactive       = errors.New("user account is inactive")
	ErrAccountLocked      = errors.New("too many failed login attempts, try again later")
)

// ErrorCodes maps service errors to API codes and HTTP status
var ErrorCodes = map[error]struct {
	Code   string
	Status int
}{
	ErrUserNotFound:       {"USR001", http.StatusNotFound},
	ErrEmailAlreadyExists: {"USR002", http.StatusConflict},
	ErrInvalidCredentials: {"USR003", http.StatusUnauthorized},
	ErrUserInactive:       {"USR004", http.StatusForbidden},
	ErrAccountLocked:      {"USR005", http.StatusTooManyRequests},
}
