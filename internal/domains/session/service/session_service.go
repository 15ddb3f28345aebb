package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"

	"bookstore-ecommerce/internal/domains/session/model"
	"bookstore-ecommerce/internal/domains/session/repository"
	"bookstore-ecommerce/pkg/logger"
	"bookstore-ecommerce/pkg/metrics"
)

const tokenBytes = 32

type Service interface {
	Issue(ctx context.Context, userID uuid.UUID, meta model.Meta) (*model.Issued, error)

	// Rotate exchanges a refresh token for a new one; the old token stops working immediately
	Rotate(ctx context.Context, refreshToken string) (*model.Issued, error)

	Revoke(ctx context.Context, refreshToken string) error
	RevokeAll(ctx context.Context, userID uuid.UUID) (int64, error)
	List(ctx context.Context, userID uuid.UUID) ([]model.Session, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

type sessionService struct {
	repo repository.Repository
	ttl  time.Duration
	now  func() time.Time
}

func NewSessionService(repo repository.Repository, ttl time.Duration) Service {
	return NewSessionServiceWithClock(repo, ttl, time.Now)
}

func NewSessionServiceWithClock(repo repository.Repository, ttl time.Duration, now func() time.Time) Service {
	return &sessionService{repo: repo, ttl: ttl, now: now}
}

func (s *sessionService) Issue(ctx context.Context, userID uuid.UUID, meta model.Meta) (*model.Issued, error) {
	token, hash, err := newToken()
	if err != nil {
		return nil, err
	}

	now := s.now()
	sess := &model.Session{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: hash,
		UserAgent: meta.UserAgent,
		IP:        meta.IP,
		ExpiresAt: now.Add(s.ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if meta.DeviceClass != "" {
		dc := meta.DeviceClass
		sess.DeviceClass = &dc
	}

	if err := s.repo.Insert(ctx, sess); err != nil {
		return nil, err
	}
	return &model.Issued{Token: token, Session: sess}, nil
}

func (s *sessionService) Rotate(ctx context.Context, refreshToken string) (*model.Issued, error) {
	token, hash, err := newToken()
	if err != nil {
		return nil, err
	}

	var issued *model.Issued
	err = s.repo.Rotate(ctx, HashToken(refreshToken), func(current *model.Session) (*model.Session, error) {
		if current == nil {
			return nil, model.ErrSessionNotFound
		}
		now := s.now()
		if current.IsExpired(now) {
			return nil, model.ErrSessionExpired
		}

		// Successor giữ user và device class, expiry tính lại từ đầu
		next := &model.Session{
			ID:          uuid.New(),
			UserID:      current.UserID,
			TokenHash:   hash,
			DeviceClass: current.DeviceClass,
			UserAgent:   current.UserAgent,
			IP:          current.IP,
			ExpiresAt:   now.Add(s.ttl),
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		issued = &model.Issued{Token: token, Session: next}
		return next, nil
	})

	result := "rotated"
	if err != nil {
		result = "rejected"
	}
	metrics.SessionRotationsTotal.WithLabelValues(result).Inc()

	if err != nil {
		return nil, err
	}
	return issued, nil
}

func (s *sessionService) Revoke(ctx context.Context, refreshToken string) error {
	deleted, err := s.repo.DeleteByHash(ctx, HashToken(refreshToken))
	if err != nil {
		return err
	}
	if !deleted {
		return model.ErrSessionNotFound
	}
	return nil
}

func (s *sessionService) RevokeAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.repo.DeleteByUser(ctx, userID)
}

func (s *sessionService) List(ctx context.Context, userID uuid.UUID) ([]model.Session, error) {
	return s.repo.ListByUser(ctx, userID)
}

// CleanupExpired chạy định kỳ bởi worker
func (s *sessionService) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := s.repo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.Info("Expired sessions removed", map[string]interface{}{"count": n})
	}
	return n, nil
}

// HashToken = hex(sha256(token)); chỉ hash được lưu trong DB
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func newToken() (token, hash string, err error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("generate refresh token: %w", err)
	}
	token = base64.RawURLEncoding.EncodeToString(b)
	return token, HashToken(token), nil
}
