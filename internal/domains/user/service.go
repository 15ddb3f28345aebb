package user

import (
	"context"

	"github.com/google/uuid"

	otpModel "bookstore-ecommerce/internal/domains/otp/model"
	sessionModel "bookstore-ecommerce/internal/domains/session/model"
)

// Service định nghĩa business logic layer contract
type Service interface {
	// OTP-backed flows
	RequestOTP(ctx context.Context, req RequestOTPRequest) (*otpModel.RequestResult, error)
	VerifyOTP(ctx context.Context, req VerifyOTPRequest) (*otpModel.VerifyResult, error)
	Register(ctx context.Context, req RegisterRequest, meta sessionModel.Meta) (*AuthResponse, error)
	ResetPassword(ctx context.Context, req ResetPasswordRequest) error

	// Sessions
	Login(ctx context.Context, req LoginRequest, meta sessionModel.Meta) (*AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context, userID uuid.UUID) error
	ListSessions(ctx context.Context, userID uuid.UUID) ([]SessionDTO, error)

	// Profile
	GetProfile(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*UserDTO, error)

	// Admin
	ListUsers(ctx context.Context, req ListUsersRequest) ([]UserDTO, int, error)
	UpdateUserStatus(ctx context.Context, userID uuid.UUID, req UpdateStatusRequest) error
}
