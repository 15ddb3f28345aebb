package model

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Session stores only the SHA-256 hash of the opaque refresh token
type Session struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	TokenHash   string    `json:"-"`
	DeviceClass *string   `json:"device_class,omitempty"`
	UserAgent   string    `json:"user_agent"`
	IP          string    `json:"ip"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Meta mô tả client đang đăng nhập
type Meta struct {
	DeviceClass string
	UserAgent   string
	IP          string
}

// Issued is returned to the client once; the plain token is never stored
type Issued struct {
	Token   string
	Session *Session
}

type SessionError struct {
	Code       string
	Message    string
	HTTPStatus int
}

func (e *SessionError) Error() string {
	return e.Message
}

func (e *SessionError) Is(target error) bool {
	t, ok := target.(*SessionError)
	return ok && t.Code == e.Code
}

var (
	ErrSessionNotFound = &SessionError{Code: "SES001", Message: "session not found", HTTPStatus: http.StatusUnauthorized}
	ErrSessionExpired  = &SessionError{Code: "SES002", Message: "session has expired", HTTPStatus: http.StatusUnauthorized}
)
