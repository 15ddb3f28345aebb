package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var ErrBookNotFound = errors.New("book not found")

const ErrCodeBookNotFound = "CAT001"

// Book là entity chính của catalog
type Book struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	ISBN        *string         `json:"isbn,omitempty"`
	Description *string         `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Authors     []Author        `json:"authors"`
	Genres      []Genre         `json:"genres"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type Author struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type Genre struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// StockInfo is the authoritative price/stock pair used by the cart and order flows
type StockInfo struct {
	BookID int64           `json:"book_id"`
	Title  string          `json:"title"`
	Price  decimal.Decimal `json:"price"`
	Stock  int             `json:"stock"`
}

// InStock reports whether at least qty units are available
func (s StockInfo) InStock(qty int) bool {
	return s.Stock >= qty
}

// ListFilter for GET /books
type ListFilter struct {
	GenreID  *int64
	AuthorID *int64
	Page     int
	Limit    int
}

// Normalize áp dụng giá trị mặc định cho phân trang
func (f *ListFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 || f.Limit > 100 {
		f.Limit = 20
	}
}

func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}
