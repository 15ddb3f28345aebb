package repository

import (
	"context"

	"bookstore-ecommerce/internal/domains/payment/model"
)

// CallbackLogRepository is append-only
type CallbackLogRepository interface {
	Insert(ctx context.Context, log *model.CallbackLog) error
	ListByTxnRef(ctx context.Context, txnRef string) ([]model.CallbackLog, error)
}
