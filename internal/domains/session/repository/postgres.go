package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookstore-ecommerce/internal/domains/session/model"
	"bookstore-ecommerce/pkg/database"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

const sessionColumns = `id, user_id, refresh_token_hash, device_class, user_agent, ip_address, expires_at, created_at, updated_at`

func scanSession(row pgx.Row) (*model.Session, error) {
	var s model.Session
	err := row.Scan(&s.ID, &s.UserID, &s.TokenHash, &s.DeviceClass, &s.UserAgent, &s.IP,
		&s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func insertSession(ctx context.Context, tx pgx.Tx, s *model.Session) error {
	if s.DeviceClass != nil {
		if _, err := tx.Exec(ctx,
			`DELETE FROM sessions WHERE user_id = $1 AND device_class = $2`, s.UserID, *s.DeviceClass); err != nil {
			return fmt.Errorf("replace device session: %w", err)
		}
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO sessions (`+sessionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		s.ID, s.UserID, s.TokenHash, s.DeviceClass, s.UserAgent, s.IP, s.ExpiresAt, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *postgresRepository) Insert(ctx context.Context, s *model.Session) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		return insertSession(ctx, tx, s)
	})
}

func (r *postgresRepository) Rotate(ctx context.Context, tokenHash string, fn RotateFunc) error {
	return database.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		current, err := scanSession(tx.QueryRow(ctx,
			`SELECT `+sessionColumns+` FROM sessions WHERE refresh_token_hash = $1 FOR UPDATE`, tokenHash))
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("lock session: %w", err)
		}

		next, err := fn(current)
		if err != nil {
			return err
		}
		if next == nil || current == nil {
			return nil
		}

		if _, err := tx.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, current.ID); err != nil {
			return fmt.Errorf("delete rotated session: %w", err)
		}
		return insertSession(ctx, tx, next)
	})
}

func (r *postgresRepository) DeleteByHash(ctx context.Context, tokenHash string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE refresh_token_hash = $1`, tokenHash)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *postgresRepository) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("delete user sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *postgresRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (r *postgresRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Session, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []model.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}
