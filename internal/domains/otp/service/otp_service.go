package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"time"

	"bookstore-ecommerce/internal/domains/otp/model"
	"bookstore-ecommerce/internal/domains/otp/repository"
	"bookstore-ecommerce/pkg/cache"
	"bookstore-ecommerce/pkg/logger"
	"bookstore-ecommerce/pkg/metrics"
)

// Sender delivers a plain code to the user (email task)
type Sender interface {
	SendOTP(ctx context.Context, email string, purpose model.Purpose, code string, ttl time.Duration) error
}

// Service is the OTP authenticator
type Service interface {
	Request(ctx context.Context, email string, purpose model.Purpose) (*model.RequestResult, error)
	Verify(ctx context.Context, email string, purpose model.Purpose, code string) (*model.VerifyResult, error)

	// Finalize consumes a verified marker, runs action and restores the verified state if action fails
	Finalize(ctx context.Context, email string, purpose model.Purpose, marker string, action func(ctx context.Context) error) error
}

type Config struct {
	Length      int
	TTL         time.Duration
	MarkerTTL   time.Duration
	MaxAttempts int
	RateLimit   int
	RateWindow  time.Duration
}

var DefaultConfig = Config{
	Length:      6,
	TTL:         5 * time.Minute,
	MarkerTTL:   10 * time.Minute,
	MaxAttempts: 5,
	RateLimit:   5,
	RateWindow:  15 * time.Minute,
}

type otpService struct {
	repo   repository.Repository
	cache  cache.Cache
	sender Sender
	cfg    Config
	now    func() time.Time
}

func NewOTPService(repo repository.Repository, c cache.Cache, sender Sender, cfg Config) Service {
	return NewOTPServiceWithClock(repo, c, sender, cfg, time.Now)
}

func NewOTPServiceWithClock(repo repository.Repository, c cache.Cache, sender Sender, cfg Config, now func() time.Time) Service {
	return &otpService{repo: repo, cache: c, sender: sender, cfg: cfg, now: now}
}

// =====================================================
// REQUEST
// =====================================================
func (s *otpService) Request(ctx context.Context, email string, purpose model.Purpose) (*model.RequestResult, error) {
	if !purpose.IsValid() {
		return nil, model.ErrOTPInvalidPurpose
	}
	email = model.NormalizeEmail(email)

	rateKey := fmt.Sprintf("otp:rate:%s:%s", purpose, email)
	hits, err := cache.HitFixedWindow(ctx, s.cache, rateKey, s.cfg.RateWindow)
	if err != nil {
		return nil, fmt.Errorf("otp rate limit: %w", err)
	}
	if hits > int64(s.cfg.RateLimit) {
		metrics.OTPRequestsTotal.WithLabelValues(string(purpose), "rate_limited").Inc()
		return nil, model.ErrOTPRateLimited
	}

	code, err := generateCode(s.cfg.Length)
	if err != nil {
		return nil, err
	}

	now := s.now()
	record := &model.Record{
		Email:     email,
		Purpose:   purpose,
		CodeHash:  model.Hash(code),
		State:     model.StateRequested,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.cfg.TTL),
	}

	// Reissue: bản ghi cũ bị thay thế, không bao giờ có 2 code cùng hợp lệ
	err = s.repo.Update(ctx, email, purpose, func(*model.Record) (*model.Record, error) {
		return record, nil
	})
	if err != nil {
		return nil, err
	}

	// Gửi code sau khi ghi xong, ngoài mọi lock
	if err := s.sender.SendOTP(ctx, email, purpose, code, s.cfg.TTL); err != nil {
		logger.ErrorWithFields("Failed to dispatch OTP", err, map[string]interface{}{
			"email":   email,
			"purpose": purpose,
		})
		return nil, fmt.Errorf("dispatch otp: %w", err)
	}

	metrics.OTPRequestsTotal.WithLabelValues(string(purpose), "issued").Inc()
	return &model.RequestResult{ExpiresAt: record.ExpiresAt}, nil
}

// =====================================================
// VERIFY
// =====================================================
func (s *otpService) Verify(ctx context.Context, email string, purpose model.Purpose, code string) (*model.VerifyResult, error) {
	if !purpose.IsValid() {
		return nil, model.ErrOTPInvalidPurpose
	}
	email = model.NormalizeEmail(email)

	marker, err := generateMarker()
	if err != nil {
		return nil, err
	}

	var result *model.VerifyResult
	err = s.repo.Update(ctx, email, purpose, func(rec *model.Record) (*model.Record, error) {
		if rec == nil {
			return nil, model.ErrOTPNotFound
		}
		now := s.now()
		matches := rec.MatchesCode(code)

		// Code đã dùng: báo AlreadyConsumed trước khi xét hết hạn
		if rec.State != model.StateRequested {
			if matches {
				return nil, model.ErrOTPAlreadyConsumed
			}
			return nil, model.ErrOTPMismatch
		}

		if !now.Before(rec.ExpiresAt) || rec.Attempts >= s.cfg.MaxAttempts {
			return nil, model.ErrOTPExpired
		}

		if !matches {
			rec.Attempts++
			return rec, model.ErrOTPMismatch
		}

		rec.State = model.StateVerified
		rec.MarkerHash = model.Hash(marker)
		rec.MarkerExpiresAt = now.Add(s.cfg.MarkerTTL)
		result = &model.VerifyResult{Marker: marker, ExpiresAt: rec.MarkerExpiresAt}
		return rec, nil
	})

	metrics.OTPVerificationsTotal.WithLabelValues(string(purpose), verifyLabel(err)).Inc()
	if err != nil {
		return nil, err
	}
	return result, nil
}

// =====================================================
// FINALIZE
// =====================================================
func (s *otpService) Finalize(ctx context.Context, email string, purpose model.Purpose, marker string, action func(ctx context.Context) error) error {
	email = model.NormalizeEmail(email)

	// STEP 1: verified → consumed
	err := s.repo.Update(ctx, email, purpose, func(rec *model.Record) (*model.Record, error) {
		if rec == nil {
			return nil, model.ErrOTPMarkerInvalid
		}
		if rec.State == model.StateConsumed {
			return nil, model.ErrOTPAlreadyConsumed
		}
		if rec.State != model.StateVerified || !rec.MatchesMarker(marker) || !s.now().Before(rec.MarkerExpiresAt) {
			return nil, model.ErrOTPMarkerInvalid
		}
		rec.State = model.StateConsumed
		return rec, nil
	})
	if err != nil {
		return err
	}

	// STEP 2: chạy action; lỗi thì trả lại trạng thái verified để user thử lại
	if actionErr := action(ctx); actionErr != nil {
		restoreErr := s.repo.Update(ctx, email, purpose, func(rec *model.Record) (*model.Record, error) {
			if rec == nil || rec.State != model.StateConsumed || !rec.MatchesMarker(marker) {
				return nil, nil
			}
			rec.State = model.StateVerified
			return rec, nil
		})
		if restoreErr != nil {
			logger.ErrorWithFields("Failed to restore OTP after failed action", restoreErr, map[string]interface{}{
				"email":   email,
				"purpose": purpose,
			})
		}
		return actionErr
	}
	return nil
}

// =====================================================
// HELPERS
// =====================================================

// generateCode returns a uniformly distributed numeric code of length digits
func generateCode(length int) (string, error) {
	if length <= 0 {
		length = DefaultConfig.Length
	}
	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(length)), nil)
	n, err := rand.Int(rand.Reader, limit)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%0*d", length, n), nil
}

func generateMarker() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate verification token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func verifyLabel(err error) string {
	if err == nil {
		return "verified"
	}
	var otpErr *model.OTPError
	if errors.As(err, &otpErr) {
		return otpErr.Code
	}
	return "error"
}
