package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bookstore-ecommerce/internal/domains/session/model"
)

// RotateFunc receives the locked session (nil when absent) and returns its successor
type RotateFunc func(current *model.Session) (*model.Session, error)

type Repository interface {
	// Insert stores s. When s.DeviceClass is set the user's previous session
	// of the same class is deleted in the same transaction.
	Insert(ctx context.Context, s *model.Session) error

	// Rotate locks the row for tokenHash, calls fn, then deletes the old row and
	// inserts the successor atomically. fn's error aborts without changes.
	Rotate(ctx context.Context, tokenHash string, fn RotateFunc) error

	DeleteByHash(ctx context.Context, tokenHash string) (bool, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Session, error)
}
