package memory

import (
	"context"

	"github.com/google/uuid"

	"bookstore-ecommerce/internal/domains/payment/model"
)

type CallbackLogRepository struct {
	s *Store
}

func (r *CallbackLogRepository) Insert(ctx context.Context, log *model.CallbackLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	if log.ReceivedAt.IsZero() {
		log.ReceivedAt = r.s.now()
	}
	r.s.callbackLogs = append(r.s.callbackLogs, *log)
	return nil
}

// ListByTxnRef trả về theo thứ tự nhận
func (r *CallbackLogRepository) ListByTxnRef(ctx context.Context, txnRef string) ([]model.CallbackLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	logs := make([]model.CallbackLog, 0)
	for _, l := range r.s.callbackLogs {
		if l.TxnRef == txnRef {
			logs = append(logs, l)
		}
	}
	return logs, nil
}
