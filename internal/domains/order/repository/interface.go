package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	catalogModel "bookstore-ecommerce/internal/domains/catalog/model"
	"bookstore-ecommerce/internal/domains/order/model"
)

// Store là điểm vào của order engine tới storage.
// Mọi thay đổi stock/order/cart đều đi qua WithTx để commit hoặc rollback cùng nhau.
type Store interface {
	// WithTx runs fn in one transaction. fn's error rolls everything back.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	GetByNumber(ctx context.Context, number string) (*model.Order, error)
	List(ctx context.Context, req model.ListOrdersRequest) ([]model.Order, int, error)

	// ListUnpaidBefore returns online-payment orders still processing and not paid, created before cutoff
	ListUnpaidBefore(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error)
}

// Tx is the set of writes available inside a transaction
type Tx interface {
	// LockBooks locks the rows in ascending id order and returns current price/stock.
	// Unknown ids are absent from the map.
	LockBooks(ctx context.Context, ids []int64) (map[int64]catalogModel.StockInfo, error)

	// AdjustStock adds delta (negative to decrement). Stock never goes below zero.
	AdjustStock(ctx context.Context, bookID int64, delta int) error

	// InsertOrder persists the order, its items and its initial history
	InsertOrder(ctx context.Context, o *model.Order) error

	// LockOrder loads the order with its items, holding a row lock until commit
	LockOrder(ctx context.Context, id uuid.UUID) (*model.Order, error)

	// SaveState writes the mutable fields, bumps version and appends entries
	SaveState(ctx context.Context, o *model.Order, entries []model.HistoryEntry) error

	// ClearCartLines removes the purchased books from the user's server cart
	ClearCartLines(ctx context.Context, userID uuid.UUID, bookIDs []int64) error
}
