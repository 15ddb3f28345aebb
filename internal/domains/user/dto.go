package user

import (
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	otpModel "bookstore-ecommerce/internal/domains/otp/model"
)

var passwordRules = []validation.Rule{
	validation.Required,
	validation.Length(8, 128).Error("password must be 8-128 characters"),
	validation.Match(regexp.MustCompile(`[A-Z]`)).Error("password must contain at least one uppercase letter"),
	validation.Match(regexp.MustCompile(`[a-z]`)).Error("password must contain at least one lowercase letter"),
	validation.Match(regexp.MustCompile(`[0-9]`)).Error("password must contain at least one number"),
}

// ========================================
// AUTH DTOs
// ========================================

// RequestOTPRequest - POST /auth/otp/request
type RequestOTPRequest = otpModel.RequestOTPRequest

// VerifyOTPRequest - POST /auth/otp/verify
type VerifyOTPRequest = otpModel.VerifyOTPRequest

// RegisterRequest - bước cuối của đăng ký, cần verification_token từ /auth/otp/verify
type RegisterRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	FullName          string `json:"full_name"`
	Phone             string `json:"phone,omitempty"`
	VerificationToken string `json:"verification_token"`
	DeviceClass       string `json:"device_class,omitempty"`
}

func (r RegisterRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat, validation.Length(5, 255)),
		validation.Field(&r.Password, passwordRules...),
		validation.Field(&r.FullName, validation.Required, validation.Length(2, 100)),
		validation.Field(&r.Phone, validation.When(r.Phone != "", is.E164.Error("phone must be in E.164 format (e.g., +84912345678)"))),
		validation.Field(&r.VerificationToken, validation.Required),
		validation.Field(&r.DeviceClass, validation.Length(0, 32)),
	)
}

type LoginRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DeviceClass string `json:"device_class,omitempty"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.Password, validation.Required),
		validation.Field(&r.DeviceClass, validation.Length(0, 32)),
	)
}

// AuthResponse - access JWT + opaque refresh token
type AuthResponse struct {
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
	User             UserDTO   `json:"user"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (r RefreshTokenRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.RefreshToken, validation.Required),
	)
}

// ResetPasswordRequest - reset bằng verification_token (purpose reset_password)
type ResetPasswordRequest struct {
	Email             string `json:"email"`
	VerificationToken string `json:"verification_token"`
	NewPassword       string `json:"new_password"`
}

func (r ResetPasswordRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Email, validation.Required, is.EmailFormat),
		validation.Field(&r.VerificationToken, validation.Required),
		validation.Field(&r.NewPassword, passwordRules...),
	)
}

// ========================================
// USER PROFILE DTOs
// ========================================

type UpdateProfileRequest struct {
	FullName  string  `json:"full_name,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

func (r UpdateProfileRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.FullName,
			validation.When(r.FullName != "", validation.Length(2, 100)),
		),
		validation.Field(&r.Phone,
			validation.When(r.Phone != nil && *r.Phone != "", is.E164.Error("phone must be in E.164 format")),
		),
		validation.Field(&r.AvatarURL,
			validation.When(r.AvatarURL != nil && *r.AvatarURL != "", is.URL),
		),
	)
}

// ========================================
// ADMIN DTOs
// ========================================

type ListUsersRequest struct {
	Search string `form:"search"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

func (r *ListUsersRequest) SetDefaults() {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.Limit < 1 || r.Limit > 100 {
		r.Limit = 20
	}
}

type UpdateStatusRequest struct {
	IsActive bool `json:"is_active"`
}

type SessionDTO struct {
	ID          uuid.UUID `json:"id"`
	DeviceClass *string   `json:"device_class,omitempty"`
	UserAgent   string    `json:"user_agent"`
	IP          string    `json:"ip"`
	ExpiresAt   time.Time `json:"expires_at"`
	CreatedAt   time.Time `json:"created_at"`
}
