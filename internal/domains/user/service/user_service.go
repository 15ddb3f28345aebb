package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	otpModel "bookstore-ecommerce/internal/domains/otp/model"
	otpService "bookstore-ecommerce/internal/domains/otp/service"
	sessionModel "bookstore-ecommerce/internal/domains/session/model"
	sessionService "bookstore-ecommerce/internal/domains/session/service"
	"bookstore-ecommerce/internal/domains/user"
	"bookstore-ecommerce/pkg/cache"
	"bookstore-ecommerce/pkg/jwt"
	"bookstore-ecommerce/pkg/logger"
)

// Config gom các tham số bảo mật của luồng auth
type Config struct {
	BcryptCost        int
	MaxFailedLogins   int
	FailedLoginWindow time.Duration
	OTPTTL            time.Duration
}

var DefaultConfig = Config{
	BcryptCost:        12,
	MaxFailedLogins:   5,
	FailedLoginWindow: 15 * time.Minute,
	OTPTTL:            5 * time.Minute,
}

// userService implement user.Service interface
type userService struct {
	repo     user.Repository
	otp      otpService.Service
	sessions sessionService.Service
	tokens   *jwt.Manager
	cache    cache.Cache
	cfg      Config
}

// NewUserService tạo service instance
func NewUserService(
	repo user.Repository,
	otp otpService.Service,
	sessions sessionService.Service,
	tokens *jwt.Manager,
	c cache.Cache,
	cfg Config,
) user.Service {
	return &userService{
		repo:     repo,
		otp:      otp,
		sessions: sessions,
		tokens:   tokens,
		cache:    c,
		cfg:      cfg,
	}
}

// ========================================
// OTP FLOWS
// ========================================

func (s *userService) RequestOTP(ctx context.Context, req user.RequestOTPRequest) (*otpModel.RequestResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	email := otpModel.NormalizeEmail(req.Email)

	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email exists: %w", err)
	}

	switch req.Purpose {
	case otpModel.PurposeRegister:
		if exists {
			return nil, user.ErrEmailAlreadyExists
		}
	case otpModel.PurposeResetPassword:
		// Không tiết lộ email có tồn tại hay không
		if !exists {
			return &otpModel.RequestResult{ExpiresAt: time.Now().Add(s.cfg.OTPTTL)}, nil
		}
	}

	return s.otp.Request(ctx, email, req.Purpose)
}

func (s *userService) VerifyOTP(ctx context.Context, req user.VerifyOTPRequest) (*otpModel.VerifyResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.otp.Verify(ctx, req.Email, req.Purpose, req.Code)
}

// Register tạo user sau khi email đã được xác thực bằng OTP
func (s *userService) Register(ctx context.Context, req user.RegisterRequest, meta sessionModel.Meta) (*user.AuthResponse, error) {
	// 1. VALIDATE INPUT
	if err := req.Validate(); err != nil {
		return nil, err
	}
	email := otpModel.NormalizeEmail(req.Email)

	// 2. BUSINESS RULE: email chưa tồn tại (check trước để không tiêu OTP vô ích)
	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check email exists: %w", err)
	}
	if exists {
		return nil, user.ErrEmailAlreadyExists
	}

	// 3. HASH PASSWORD (ngoài mọi lock)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	newUser := &user.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(passwordHash),
		FullName:     req.FullName,
		Role:         user.RoleCustomer,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if req.Phone != "" {
		phone := req.Phone
		newUser.Phone = &phone
	}

	// 4. CONSUME OTP + PERSIST; create lỗi thì OTP trở lại verified
	err = s.otp.Finalize(ctx, email, otpModel.PurposeRegister, req.VerificationToken, func(ctx context.Context) error {
		return s.repo.Create(ctx, newUser)
	})
	if err != nil {
		return nil, err
	}

	logger.Info("User registered", map[string]interface{}{"user_id": newUser.ID})

	// 5. ĐĂNG NHẬP LUÔN
	meta.DeviceClass = req.DeviceClass
	return s.issue(ctx, newUser, meta)
}

// ResetPassword đặt lại mật khẩu và thu hồi mọi session
func (s *userService) ResetPassword(ctx context.Context, req user.ResetPasswordRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	email := otpModel.NormalizeEmail(req.Email)

	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return otpModel.ErrOTPMarkerInvalid
		}
		return err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	err = s.otp.Finalize(ctx, email, otpModel.PurposeResetPassword, req.VerificationToken, func(ctx context.Context) error {
		return s.repo.UpdatePassword(ctx, u.ID, string(passwordHash))
	})
	if err != nil {
		return err
	}

	revoked, err := s.sessions.RevokeAll(ctx, u.ID)
	if err != nil {
		return fmt.Errorf("revoke sessions: %w", err)
	}
	_ = s.cache.Delete(ctx, failedLoginKey(email))

	logger.Info("Password reset", map[string]interface{}{"user_id": u.ID, "sessions_revoked": revoked})
	return nil
}

// ========================================
// SESSIONS
// ========================================

// Login xác thực user; sai mật khẩu quá MaxFailedLogins lần trong cửa sổ → khóa tạm thời
func (s *userService) Login(ctx context.Context, req user.LoginRequest, meta sessionModel.Meta) (*user.AuthResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	email := otpModel.NormalizeEmail(req.Email)
	attemptKey := failedLoginKey(email)

	var attempts int64
	if _, err := s.cache.Get(ctx, attemptKey, &attempts); err != nil {
		logger.Warn("Failed to read login attempts", map[string]interface{}{"error": err.Error()})
	}
	if attempts >= int64(s.cfg.MaxFailedLogins) {
		return nil, user.ErrAccountLocked
	}

	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, user.ErrUserNotFound) {
		return nil, err
	}

	// bcrypt.CompareHashAndPassword là constant-time
	if u == nil || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		if _, err := cache.HitFixedWindow(ctx, s.cache, attemptKey, s.cfg.FailedLoginWindow); err != nil {
			logger.Warn("Failed to record login attempt", map[string]interface{}{"error": err.Error()})
		}
		return nil, user.ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, user.ErrUserInactive
	}

	_ = s.cache.Delete(ctx, attemptKey)
	if err := s.repo.UpdateLastLogin(ctx, u.ID); err != nil {
		logger.Warn("Failed to update last login", map[string]interface{}{"user_id": u.ID})
	}

	meta.DeviceClass = req.DeviceClass
	return s.issue(ctx, u, meta)
}

func (s *userService) Refresh(ctx context.Context, refreshToken string) (*user.AuthResponse, error) {
	issued, err := s.sessions.Rotate(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	u, err := s.repo.FindByID(ctx, issued.Session.UserID)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		_ = s.sessions.Revoke(ctx, issued.Token)
		return nil, user.ErrUserInactive
	}
	return s.respond(u, issued)
}

// Logout là idempotent: token không còn tồn tại cũng coi như đã logout
func (s *userService) Logout(ctx context.Context, refreshToken string) error {
	err := s.sessions.Revoke(ctx, refreshToken)
	if err != nil && !errors.Is(err, sessionModel.ErrSessionNotFound) {
		return err
	}
	return nil
}

func (s *userService) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	n, err := s.sessions.RevokeAll(ctx, userID)
	if err != nil {
		return err
	}
	logger.Info("User logged out everywhere", map[string]interface{}{"user_id": userID, "sessions": n})
	return nil
}

func (s *userService) ListSessions(ctx context.Context, userID uuid.UUID) ([]user.SessionDTO, error) {
	sessions, err := s.sessions.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]user.SessionDTO, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, user.SessionDTO{
			ID:          sess.ID,
			DeviceClass: sess.DeviceClass,
			UserAgent:   sess.UserAgent,
			IP:          sess.IP,
			ExpiresAt:   sess.ExpiresAt,
			CreatedAt:   sess.CreatedAt,
		})
	}
	return out, nil
}

// ========================================
// PROFILE
// ========================================

func (s *userService) GetProfile(ctx context.Context, userID uuid.UUID) (*user.UserDTO, error) {
	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	dto := u.ToDTO()
	return &dto, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID uuid.UUID, req user.UpdateProfileRequest) (*user.UserDTO, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	u, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Partial update: chỉ ghi đè field được gửi lên
	if req.FullName != "" {
		u.FullName = req.FullName
	}
	if req.Phone != nil {
		u.Phone = emptyToNil(*req.Phone)
	}
	if req.AvatarURL != nil {
		u.AvatarURL = emptyToNil(*req.AvatarURL)
	}
	u.UpdatedAt = time.Now()

	if err := s.repo.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	dto := u.ToDTO()
	return &dto, nil
}

// ========================================
// ADMIN
// ========================================

func (s *userService) ListUsers(ctx context.Context, req user.ListUsersRequest) ([]user.UserDTO, int, error) {
	req.SetDefaults()
	users, total, err := s.repo.List(ctx, req)
	if err != nil {
		return nil, 0, err
	}
	dtos := make([]user.UserDTO, 0, len(users))
	for i := range users {
		dtos = append(dtos, users[i].ToDTO())
	}
	return dtos, total, nil
}

// UpdateUserStatus: vô hiệu hóa user đồng thời thu hồi mọi session
func (s *userService) UpdateUserStatus(ctx context.Context, userID uuid.UUID, req user.UpdateStatusRequest) error {
	if err := s.repo.UpdateStatus(ctx, userID, req.IsActive); err != nil {
		return err
	}
	if !req.IsActive {
		if _, err := s.sessions.RevokeAll(ctx, userID); err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}
	}
	return nil
}

// ========================================
// HELPERS
// ========================================

func (s *userService) issue(ctx context.Context, u *user.User, meta sessionModel.Meta) (*user.AuthResponse, error) {
	issued, err := s.sessions.Issue(ctx, u.ID, meta)
	if err != nil {
		return nil, fmt.Errorf("issue session: %w", err)
	}
	return s.respond(u, issued)
}

func (s *userService) respond(u *user.User, issued *sessionModel.Issued) (*user.AuthResponse, error) {
	accessToken, expiresAt, err := s.tokens.GenerateAccessToken(u.ID.String(), u.Email, u.Role.String())
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	return &user.AuthResponse{
		AccessToken:      accessToken,
		AccessExpiresAt:  expiresAt,
		RefreshToken:     issued.Token,
		RefreshExpiresAt: issued.Session.ExpiresAt,
		User:             u.ToDTO(),
	}, nil
}

func failedLoginKey(email string) string {
	return "failed_login:" + email
}

func emptyToNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
