package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookstore-ecommerce/internal/domains/wishlist/model"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) List(ctx context.Context, userID uuid.UUID) ([]model.Item, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT w.user_id, w.book_id, b.title, b.price, b.stock > 0, w.created_at
		FROM wishlists w
		JOIN books b ON b.id = w.book_id
		WHERE w.user_id = $1
		ORDER BY w.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		var it model.Item
		if err := rows.Scan(&it.UserID, &it.BookID, &it.Title, &it.Price, &it.InStock, &it.AddedAt); err != nil {
			return nil, fmt.Errorf("scan wishlist item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *postgresRepository) Add(ctx context.Context, userID uuid.UUID, bookID int64) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO wishlists (user_id, book_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, book_id) DO NOTHING`, userID, bookID)
	if err != nil {
		return false, fmt.Errorf("add wishlist item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *postgresRepository) Remove(ctx context.Context, userID uuid.UUID, bookID int64) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM wishlists WHERE user_id = $1 AND book_id = $2`, userID, bookID); err != nil {
		return fmt.Errorf("remove wishlist item: %w", err)
	}
	return nil
}
