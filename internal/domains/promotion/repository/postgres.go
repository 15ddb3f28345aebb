package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookstore-ecommerce/internal/domains/promotion/model"
)

const promoColumns = `id, code, discount_percent, min_amount, expiry_date, created_at, updated_at`

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func scanPromo(row pgx.Row) (*model.PromoCode, error) {
	var p model.PromoCode
	err := row.Scan(&p.ID, &p.Code, &p.DiscountPercent, &p.MinAmount, &p.ExpiryDate, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrPromoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan promo: %w", err)
	}
	return &p, nil
}

func (r *postgresRepository) FindByCode(ctx context.Context, code string) (*model.PromoCode, error) {
	// code column là TEXT (không phải CITEXT) nên so sánh phân biệt hoa thường
	return scanPromo(r.pool.QueryRow(ctx,
		`SELECT `+promoColumns+` FROM promo_codes WHERE code = $1`, code))
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.PromoCode, error) {
	return scanPromo(r.pool.QueryRow(ctx,
		`SELECT `+promoColumns+` FROM promo_codes WHERE id = $1`, id))
}

func (r *postgresRepository) Create(ctx context.Context, p *model.PromoCode) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO promo_codes (id, code, discount_percent, min_amount, expiry_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.Code, p.DiscountPercent, p.MinAmount, p.ExpiryDate, p.CreatedAt, p.UpdatedAt)
	return mapWriteError(err)
}

func (r *postgresRepository) Update(ctx context.Context, p *model.PromoCode) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE promo_codes
		SET code = $2, discount_percent = $3, min_amount = $4, expiry_date = $5, updated_at = $6
		WHERE id = $1`,
		p.ID, p.Code, p.DiscountPercent, p.MinAmount, p.ExpiryDate, p.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrPromoNotFound
	}
	return nil
}

func (r *postgresRepository) List(ctx context.Context, limit, offset int) ([]model.PromoCode, int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+promoColumns+`, COUNT(*) OVER()
		FROM promo_codes ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list promos: %w", err)
	}
	defer rows.Close()

	var (
		promos []model.PromoCode
		total  int
	)
	for rows.Next() {
		var p model.PromoCode
		if err := rows.Scan(&p.ID, &p.Code, &p.DiscountPercent, &p.MinAmount, &p.ExpiryDate,
			&p.CreatedAt, &p.UpdatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan promo: %w", err)
		}
		promos = append(promos, p)
	}
	return promos, total, rows.Err()
}

func mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return model.ErrPromoDuplicateCode
	}
	return fmt.Errorf("write promo: %w", err)
}
