package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"bookstore-ecommerce/internal/domains/payment/model"
)

type postgresCallbackLog struct {
	pool *pgxpool.Pool
}

func NewPostgresCallbackLog(pool *pgxpool.Pool) CallbackLogRepository {
	return &postgresCallbackLog{pool: pool}
}

func (r *postgresCallbackLog) Insert(ctx context.Context, log *model.CallbackLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO payment_callback_logs (id, gateway, txn_ref, raw_query, signature_valid, outcome, response_code, received_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		log.ID, log.Gateway, log.TxnRef, log.RawQuery, log.SignatureValid, log.Outcome, log.ResponseCode, log.ReceivedAt)
	if err != nil {
		return fmt.Errorf("insert callback log: %w", err)
	}
	return nil
}

func (r *postgresCallbackLog) ListByTxnRef(ctx context.Context, txnRef string) ([]model.CallbackLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, gateway, txn_ref, raw_query, signature_valid, outcome, response_code, received_at
		FROM payment_callback_logs WHERE txn_ref = $1 ORDER BY received_at`, txnRef)
	if err != nil {
		return nil, fmt.Errorf("list callback logs: %w", err)
	}
	defer rows.Close()

	var logs []model.CallbackLog
	for rows.Next() {
		var l model.CallbackLog
		if err := rows.Scan(&l.ID, &l.Gateway, &l.TxnRef, &l.RawQuery, &l.SignatureValid, &l.Outcome, &l.ResponseCode, &l.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scan callback log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
