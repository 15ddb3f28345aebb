package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item là một dòng wishlist, unique theo (user_id, book_id)
type Item struct {
	UserID  uuid.UUID       `json:"-"`
	BookID  int64           `json:"book_id"`
	Title   string          `json:"title"`
	Price   decimal.Decimal `json:"price"`
	InStock bool            `json:"in_stock"`
	AddedAt time.Time       `json:"added_at"`
}
