package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookstore-ecommerce/internal/domains/catalog/model"
)

type postgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &postgresRepository{pool: pool}
}

func (r *postgresRepository) Lookup(ctx context.Context, id int64) (*model.StockInfo, error) {
	var s model.StockInfo
	err := r.pool.QueryRow(ctx,
		`SELECT id, title, price, stock FROM books WHERE id = $1`, id,
	).Scan(&s.BookID, &s.Title, &s.Price, &s.Stock)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup book %d: %w", id, err)
	}
	return &s, nil
}

func (r *postgresRepository) LookupMany(ctx context.Context, ids []int64) (map[int64]model.StockInfo, error) {
	result := make(map[int64]model.StockInfo, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, title, price, stock FROM books WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("lookup books: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s model.StockInfo
		if err := rows.Scan(&s.BookID, &s.Title, &s.Price, &s.Stock); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		result[s.BookID] = s
	}
	return result, rows.Err()
}

func (r *postgresRepository) GetByID(ctx context.Context, id int64) (*model.Book, error) {
	var b model.Book
	err := r.pool.QueryRow(ctx, `
		SELECT id, title, isbn, description, price, stock, created_at, updated_at
		FROM books WHERE id = $1`, id,
	).Scan(&b.ID, &b.Title, &b.ISBN, &b.Description, &b.Price, &b.Stock, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get book %d: %w", id, err)
	}

	books := []model.Book{b}
	if err := r.attachRelations(ctx, books); err != nil {
		return nil, err
	}
	return &books[0], nil
}

func (r *postgresRepository) List(ctx context.Context, filter model.ListFilter) ([]model.Book, int, error) {
	filter.Normalize()

	rows, err := r.pool.Query(ctx, `
		SELECT b.id, b.title, b.isbn, b.description, b.price, b.stock, b.created_at, b.updated_at,
		       COUNT(*) OVER() AS total
		FROM books b
		WHERE ($1::bigint IS NULL OR EXISTS (SELECT 1 FROM book_genres bg WHERE bg.book_id = b.id AND bg.genre_id = $1))
		  AND ($2::bigint IS NULL OR EXISTS (SELECT 1 FROM book_authors ba WHERE ba.book_id = b.id AND ba.author_id = $2))
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT $3 OFFSET $4`,
		filter.GenreID, filter.AuthorID, filter.Limit, filter.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	var (
		books []model.Book
		total int
	)
	for rows.Next() {
		var b model.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.ISBN, &b.Description, &b.Price, &b.Stock,
			&b.CreatedAt, &b.UpdatedAt, &total); err != nil {
			return nil, 0, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.attachRelations(ctx, books); err != nil {
		return nil, 0, err
	}
	return books, total, nil
}

// attachRelations loads authors and genres for a page of books (2 queries)
func (r *postgresRepository) attachRelations(ctx context.Context, books []model.Book) error {
	if len(books) == 0 {
		return nil
	}

	index := make(map[int64]int, len(books))
	ids := make([]int64, len(books))
	for i := range books {
		index[books[i].ID] = i
		ids[i] = books[i].ID
		books[i].Authors = []model.Author{}
		books[i].Genres = []model.Genre{}
	}

	rows, err := r.pool.Query(ctx, `
		SELECT ba.book_id, a.id, a.name FROM book_authors ba
		JOIN authors a ON a.id = ba.author_id
		WHERE ba.book_id = ANY($1) ORDER BY a.name`, ids)
	if err != nil {
		return fmt.Errorf("load authors: %w", err)
	}
	for rows.Next() {
		var bookID int64
		var a model.Author
		if err := rows.Scan(&bookID, &a.ID, &a.Name); err != nil {
			rows.Close()
			return fmt.Errorf("scan author: %w", err)
		}
		b := &books[index[bookID]]
		b.Authors = append(b.Authors, a)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.pool.Query(ctx, `
		SELECT bg.book_id, g.id, g.name FROM book_genres bg
		JOIN genres g ON g.id = bg.genre_id
		WHERE bg.book_id = ANY($1) ORDER BY g.name`, ids)
	if err != nil {
		return fmt.Errorf("load genres: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var bookID int64
		var g model.Genre
		if err := rows.Scan(&bookID, &g.ID, &g.Name); err != nil {
			return fmt.Errorf("scan genre: %w", err)
		}
		b := &books[index[bookID]]
		b.Genres = append(b.Genres, g)
	}
	return rows.Err()
}
