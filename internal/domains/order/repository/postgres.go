package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	catalogModel "bookstore-ecommerce/internal/domains/catalog/model"
	"bookstore-ecommerce/internal/domains/order/model"
	"bookstore-ecommerce/pkg/database"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type postgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) Store {
	return &postgresStore{pool: pool}
}

func (s *postgresStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	return database.WithTransaction(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(&postgresTx{tx: tx})
	})
}

const orderColumns = `
	o.id, o.order_number, o.user_id, o.subtotal, o.discount_amount, o.total,
	o.promo_code, o.promo_discount_percent,
	o.status, o.payment_status, o.payment_method, o.gateway_txn_ref, o.refund_required,
	o.recipient_name, o.phone, o.address,
	o.version, o.created_at, o.updated_at, o.paid_at, o.cancelled_at, o.cancel_reason`

func scanOrder(row pgx.Row, extra ...any) (*model.Order, error) {
	var (
		o            model.Order
		promoCode    *string
		promoPercent decimal.NullDecimal
	)
	dest := []any{
		&o.ID, &o.Number, &o.UserID, &o.Subtotal, &o.DiscountAmount, &o.Total,
		&promoCode, &promoPercent,
		&o.Status, &o.PaymentStatus, &o.PaymentMethod, &o.GatewayTxnRef, &o.RefundRequired,
		&o.Shipping.RecipientName, &o.Shipping.Phone, &o.Shipping.Address,
		&o.Version, &o.CreatedAt, &o.UpdatedAt, &o.PaidAt, &o.CancelledAt, &o.CancelReason,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrOrderNotFound
		}
		return nil, err
	}
	if promoCode != nil {
		o.Promo = &model.AppliedPromo{Code: *promoCode, DiscountPercent: promoPercent.Decimal}
	}
	return &o, nil
}

func loadItems(ctx context.Context, q querier, o *model.Order) error {
	rows, err := q.Query(ctx, `
		SELECT book_id, title, quantity, unit_price, line_total
		FROM order_items WHERE order_id = $1 ORDER BY id`, o.ID)
	if err != nil {
		return fmt.Errorf("load order items: %w", err)
	}
	defer rows.Close()

	o.Items = []model.Item{}
	for rows.Next() {
		var it model.Item
		if err := rows.Scan(&it.BookID, &it.Title, &it.Quantity, &it.UnitPrice, &it.LineTotal); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	return rows.Err()
}

func loadHistory(ctx context.Context, q querier, o *model.Order) error {
	rows, err := q.Query(ctx, `
		SELECT event, status, payment_status, title, description, actor, completed_at
		FROM order_status_history WHERE order_id = $1 ORDER BY id`, o.ID)
	if err != nil {
		return fmt.Errorf("load order history: %w", err)
	}
	defer rows.Close()

	o.History = []model.HistoryEntry{}
	for rows.Next() {
		var h model.HistoryEntry
		if err := rows.Scan(&h.Event, &h.Status, &h.PaymentStatus, &h.Title, &h.Description, &h.Actor, &h.CompletedAt); err != nil {
			return fmt.Errorf("scan order history: %w", err)
		}
		o.History = append(o.History, h)
	}
	return rows.Err()
}

func (s *postgresStore) getOne(ctx context.Context, where string, arg any) (*model.Order, error) {
	o, err := scanOrder(s.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders o WHERE `+where, arg))
	if err != nil {
		if errors.Is(err, model.ErrOrderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if err := loadItems(ctx, s.pool, o); err != nil {
		return nil, err
	}
	if err := loadHistory(ctx, s.pool, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *postgresStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return s.getOne(ctx, `o.id = $1`, id)
}

func (s *postgresStore) GetByNumber(ctx context.Context, number string) (*model.Order, error) {
	return s.getOne(ctx, `o.order_number = $1`, number)
}

func (s *postgresStore) List(ctx context.Context, req model.ListOrdersRequest) ([]model.Order, int, error) {
	req.Normalize()

	var status *string
	if req.Status != "" {
		v := string(req.Status)
		status = &v
	}

	rows, err := s.pool.Query(ctx, `
		SELECT `+orderColumns+`, COUNT(*) OVER() AS total
		FROM orders o
		WHERE ($1::uuid IS NULL OR o.user_id = $1)
		  AND ($2::text IS NULL OR o.status = $2)
		ORDER BY o.created_at DESC, o.id
		LIMIT $3 OFFSET $4`,
		req.UserID, status, req.Limit, req.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	total := 0
	for rows.Next() {
		o, err := scanOrder(rows, &total)
		if err != nil {
			return nil, 0, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for i := range orders {
		if err := loadItems(ctx, s.pool, &orders[i]); err != nil {
			return nil, 0, err
		}
	}
	return orders, total, nil
}

func (s *postgresStore) ListUnpaidBefore(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id FROM orders
		WHERE payment_method = $1
		  AND status = $2
		  AND payment_status <> $3
		  AND created_at < $4
		ORDER BY created_at
		LIMIT $5`,
		model.PaymentMethodVNPay, model.StatusProcessing, model.PaymentPaid, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list unpaid orders: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// =====================================================
// TRANSACTION
// =====================================================

type postgresTx struct {
	tx pgx.Tx
}

func (t *postgresTx) LockBooks(ctx context.Context, ids []int64) (map[int64]catalogModel.StockInfo, error) {
	sorted := append([]int64(nil), ids...)
	model.SortBookIDs(sorted)

	// ORDER BY id + FOR UPDATE: mọi transaction khóa theo cùng thứ tự nên không deadlock
	rows, err := t.tx.Query(ctx, `
		SELECT id, title, price, stock FROM books
		WHERE id = ANY($1)
		ORDER BY id
		FOR UPDATE`, sorted)
	if err != nil {
		return nil, fmt.Errorf("lock books: %w", err)
	}
	defer rows.Close()

	result := make(map[int64]catalogModel.StockInfo, len(sorted))
	for rows.Next() {
		var s catalogModel.StockInfo
		if err := rows.Scan(&s.BookID, &s.Title, &s.Price, &s.Stock); err != nil {
			return nil, fmt.Errorf("scan locked book: %w", err)
		}
		result[s.BookID] = s
	}
	return result, rows.Err()
}

func (t *postgresTx) AdjustStock(ctx context.Context, bookID int64, delta int) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE books SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1 AND stock + $2 >= 0`, bookID, delta)
	if err != nil {
		return fmt.Errorf("adjust stock of book %d: %w", bookID, err)
	}
	if tag.RowsAffected() == 0 {
		return model.NewInsufficientStockError(bookID, "", -delta, 0)
	}
	return nil
}

func (t *postgresTx) InsertOrder(ctx context.Context, o *model.Order) error {
	var promoCode *string
	var promoPercent decimal.NullDecimal
	if o.Promo != nil {
		promoCode = &o.Promo.Code
		promoPercent = decimal.NewNullDecimal(o.Promo.DiscountPercent)
	}

	_, err := t.tx.Exec(ctx, `
		INSERT INTO orders (
			id, order_number, user_id, subtotal, discount_amount, total,
			promo_code, promo_discount_percent,
			status, payment_status, payment_method, gateway_txn_ref, refund_required,
			recipient_name, phone, address,
			version, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		o.ID, o.Number, o.UserID, o.Subtotal, o.DiscountAmount, o.Total,
		promoCode, promoPercent,
		o.Status, o.PaymentStatus, o.PaymentMethod, o.GatewayTxnRef, o.RefundRequired,
		o.Shipping.RecipientName, o.Shipping.Phone, o.Shipping.Address,
		o.Version, o.CreatedAt, o.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	batch := &pgx.Batch{}
	for _, it := range o.Items {
		batch.Queue(`
			INSERT INTO order_items (order_id, book_id, title, quantity, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			o.ID, it.BookID, it.Title, it.Quantity, it.UnitPrice, it.LineTotal)
	}
	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert order items: %w", err)
	}

	return t.appendHistory(ctx, o.ID, o.History)
}

func (t *postgresTx) LockOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	o, err := scanOrder(t.tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders o WHERE o.id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, model.ErrOrderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("lock order: %w", err)
	}
	if err := loadItems(ctx, t.tx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (t *postgresTx) SaveState(ctx context.Context, o *model.Order, entries []model.HistoryEntry) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE orders SET
			status = $2, payment_status = $3, gateway_txn_ref = $4, refund_required = $5,
			paid_at = $6, cancelled_at = $7, cancel_reason = $8,
			updated_at = $9, version = version + 1
		WHERE id = $1 AND version = $10`,
		o.ID, o.Status, o.PaymentStatus, o.GatewayTxnRef, o.RefundRequired,
		o.PaidAt, o.CancelledAt, o.CancelReason, o.UpdatedAt, o.Version)
	if err != nil {
		return fmt.Errorf("save order state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("save order state: version conflict on %s", o.ID)
	}
	o.Version++
	o.History = append(o.History, entries...)
	return t.appendHistory(ctx, o.ID, entries)
}

func (t *postgresTx) appendHistory(ctx context.Context, orderID uuid.UUID, entries []model.HistoryEntry) error {
	if len(entries) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, h := range entries {
		batch.Queue(`
			INSERT INTO order_status_history (order_id, event, status, payment_status, title, description, actor, completed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			orderID, h.Event, h.Status, h.PaymentStatus, h.Title, h.Description, h.Actor, h.CompletedAt)
	}
	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("append order history: %w", err)
	}
	return nil
}

func (t *postgresTx) ClearCartLines(ctx context.Context, userID uuid.UUID, bookIDs []int64) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM cart_items WHERE user_id = $1 AND book_id = ANY($2)`, userID, bookIDs); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
