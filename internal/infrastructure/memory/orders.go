package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	catalogModel "bookstore-ecommerce/internal/domains/catalog/model"
	"bookstore-ecommerce/internal/domains/order/model"
	"bookstore-ecommerce/internal/domains/order/repository"
)

// OrderStore implements repository.Store on top of Store
type OrderStore struct {
	s *Store
}

var _ repository.Store = (*OrderStore)(nil)

func (o *OrderStore) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	tx := &memoryTx{
		s:          o.s,
		heldBooks:  make(map[int64]*sync.Mutex),
		heldOrders: make(map[uuid.UUID]*sync.Mutex),
		stockDelta: make(map[int64]int),
		saved:      make(map[uuid.UUID]*model.Order),
	}
	defer tx.release()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		// rollback: staged writes are simply dropped
		return err
	}
	return tx.commit()
}

func (o *OrderStore) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()

	stored, ok := o.s.orders[id]
	if !ok {
		return nil, model.ErrOrderNotFound
	}
	return cloneOrder(stored), nil
}

func (o *OrderStore) GetByNumber(ctx context.Context, number string) (*model.Order, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()

	for _, stored := range o.s.orders {
		if stored.Number == number {
			return cloneOrder(stored), nil
		}
	}
	return nil, model.ErrOrderNotFound
}

func (o *OrderStore) List(ctx context.Context, req model.ListOrdersRequest) ([]model.Order, int, error) {
	req.Normalize()

	o.s.mu.RLock()
	matched := make([]model.Order, 0)
	for _, stored := range o.s.orders {
		if req.UserID != nil && stored.UserID != *req.UserID {
			continue
		}
		if req.Status != "" && stored.Status != req.Status {
			continue
		}
		c := cloneOrder(stored)
		c.History = nil
		matched = append(matched, *c)
	}
	o.s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})
	return page(matched, req.Offset(), req.Limit), len(matched), nil
}

func (o *OrderStore) ListUnpaidBefore(ctx context.Context, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	o.s.mu.RLock()
	candidates := make([]*model.Order, 0)
	for _, stored := range o.s.orders {
		if stored.PaymentMethod == model.PaymentMethodVNPay &&
			stored.Status == model.StatusProcessing &&
			stored.PaymentStatus != model.PaymentPaid &&
			stored.CreatedAt.Before(cutoff) {
			candidates = append(candidates, stored)
		}
	}
	o.s.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].CreatedAt.Before(candidates[j].CreatedAt) })
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	ids := make([]uuid.UUID, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

// =====================================================
// TRANSACTION
// =====================================================

type cartClear struct {
	userID  uuid.UUID
	bookIDs []int64
}

// memoryTx giữ row lock tới khi WithTx kết thúc; mọi ghi chỉ được apply ở commit
type memoryTx struct {
	s *Store

	heldBooks  map[int64]*sync.Mutex
	heldOrders map[uuid.UUID]*sync.Mutex

	stockDelta map[int64]int
	inserted   []*model.Order
	saved      map[uuid.UUID]*model.Order
	cartClears []cartClear
}

func (t *memoryTx) LockBooks(ctx context.Context, ids []int64) (map[int64]catalogModel.StockInfo, error) {
	sorted := append([]int64(nil), ids...)
	model.SortBookIDs(sorted)

	result := make(map[int64]catalogModel.StockInfo, len(sorted))
	for _, id := range sorted {
		if _, held := t.heldBooks[id]; !held {
			l, ok := t.s.bookLock(id)
			if !ok {
				continue
			}
			l.Lock()
			t.heldBooks[id] = l
		}
		if info, ok := t.currentStock(id); ok {
			result[id] = info
		}
	}
	return result, nil
}

func (t *memoryTx) currentStock(id int64) (catalogModel.StockInfo, bool) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	b, ok := t.s.books[id]
	if !ok {
		return catalogModel.StockInfo{}, false
	}
	info := stockInfo(b)
	info.Stock += t.stockDelta[id]
	return info, true
}

func (t *memoryTx) AdjustStock(ctx context.Context, bookID int64, delta int) error {
	if _, held := t.heldBooks[bookID]; !held {
		if _, err := t.LockBooks(ctx, []int64{bookID}); err != nil {
			return err
		}
	}
	info, ok := t.currentStock(bookID)
	if !ok || info.Stock+delta < 0 {
		return model.NewInsufficientStockError(bookID, info.Title, -delta, info.Stock)
	}
	t.stockDelta[bookID] += delta
	return nil
}

func (t *memoryTx) InsertOrder(ctx context.Context, o *model.Order) error {
	t.inserted = append(t.inserted, cloneOrder(o))
	return nil
}

func (t *memoryTx) LockOrder(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	if _, held := t.heldOrders[id]; !held {
		l, ok := t.s.orderLock(id)
		if !ok {
			return nil, model.ErrOrderNotFound
		}
		l.Lock()
		t.heldOrders[id] = l
	}

	if staged, ok := t.saved[id]; ok {
		return cloneOrder(staged), nil
	}

	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	stored, ok := t.s.orders[id]
	if !ok {
		return nil, model.ErrOrderNotFound
	}
	return cloneOrder(stored), nil
}

func (t *memoryTx) SaveState(ctx context.Context, o *model.Order, entries []model.HistoryEntry) error {
	if _, held := t.heldOrders[o.ID]; !held {
		return fmt.Errorf("save order state: order %s is not locked", o.ID)
	}

	current, err := t.LockOrder(ctx, o.ID)
	if err != nil {
		return err
	}
	if current.Version != o.Version {
		return fmt.Errorf("save order state: version conflict on %s", o.ID)
	}

	o.Version++
	o.History = append(o.History, entries...)

	next := cloneOrder(o)
	next.History = append(current.History, entries...)
	t.saved[o.ID] = next
	return nil
}

func (t *memoryTx) ClearCartLines(ctx context.Context, userID uuid.UUID, bookIDs []int64) error {
	t.cartClears = append(t.cartClears, cartClear{userID: userID, bookIDs: append([]int64(nil), bookIDs...)})
	return nil
}

func (t *memoryTx) commit() error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	// constraint checks trước khi ghi bất cứ thứ gì
	for _, o := range t.inserted {
		if _, exists := t.s.orders[o.ID]; exists {
			return fmt.Errorf("insert order: duplicate id %s", o.ID)
		}
		for _, existing := range t.s.orders {
			if existing.Number == o.Number {
				return fmt.Errorf("insert order: duplicate number %s", o.Number)
			}
		}
	}
	for id, delta := range t.stockDelta {
		b, ok := t.s.books[id]
		if !ok || b.Stock+delta < 0 {
			return model.NewInsufficientStockError(id, "", -delta, 0)
		}
	}

	now := t.s.now()
	for id, delta := range t.stockDelta {
		if delta == 0 {
			continue
		}
		b := t.s.books[id]
		b.Stock += delta
		b.UpdatedAt = now
	}
	for _, o := range t.inserted {
		t.s.orders[o.ID] = o
		t.s.orderLocks[o.ID] = &sync.Mutex{}
	}
	for id, o := range t.saved {
		t.s.orders[id] = o
	}
	for _, c := range t.cartClears {
		for _, bookID := range c.bookIDs {
			delete(t.s.carts[c.userID], bookID)
		}
	}
	return nil
}

func (t *memoryTx) release() {
	for _, l := range t.heldOrders {
		l.Unlock()
	}
	for _, l := range t.heldBooks {
		l.Unlock()
	}
}

// cloneOrder deep-copies o so callers never share slices or pointers with the store
func cloneOrder(o *model.Order) *model.Order {
	c := *o
	c.Items = append([]model.Item(nil), o.Items...)
	if o.History != nil {
		c.History = append([]model.HistoryEntry(nil), o.History...)
	}
	if o.Promo != nil {
		p := *o.Promo
		c.Promo = &p
	}
	c.GatewayTxnRef = cloneString(o.GatewayTxnRef)
	c.CancelReason = cloneString(o.CancelReason)
	c.PaidAt = cloneTime(o.PaidAt)
	c.CancelledAt = cloneTime(o.CancelledAt)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
