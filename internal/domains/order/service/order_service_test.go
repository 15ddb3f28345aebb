package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cartModel "bookstore-ecommerce/internal/domains/cart/model"
	cartService "bookstore-ecommerce/internal/domains/cart/service"
	catalogModel "bookstore-ecommerce/internal/domains/catalog/model"
	catalogService "bookstore-ecommerce/internal/domains/catalog/service"
	"bookstore-ecommerce/internal/domains/order/model"
	"bookstore-ecommerce/internal/domains/order/repository"
	"bookstore-ecommerce/internal/domains/order/service"
	promoModel "bookstore-ecommerce/internal/domains/promotion/model"
	promoService "bookstore-ecommerce/internal/domains/promotion/service"
	"bookstore-ecommerce/internal/infrastructure/memory"
)

var testNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.Event
}

func (p *recordingPublisher) Publish(_ context.Context, events ...model.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []model.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	store     *memory.Store
	svc       service.OrderService
	publisher *recordingPublisher
	user      uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	store.SeedBook(catalogModel.Book{ID: 1, Title: "The Go Programming Language", Price: decimal.RequireFromString("10.00"), Stock: 5})
	store.SeedBook(catalogModel.Book{ID: 2, Title: "Concurrency in Go", Price: decimal.RequireFromString("7.50"), Stock: 3})
	store.SeedPromo(promoModel.PromoCode{
		Code:            "SAVE10",
		DiscountPercent: decimal.NewFromInt(10),
		MinAmount:       decimal.NewFromInt(15),
		ExpiryDate:      testNow.Add(24 * time.Hour),
	})
	store.SeedPromo(promoModel.PromoCode{
		Code:            "OLD",
		DiscountPercent: decimal.NewFromInt(50),
		ExpiryDate:      testNow.Add(-time.Hour),
	})

	catalog := catalogService.NewCatalogService(store.Catalog(), memory.NewCache())
	promos := promoService.NewPromotionServiceWithClock(store.Promotions(), func() time.Time { return testNow })
	publisher := &recordingPublisher{}

	svc := service.NewOrderService(
		store.Orders(),
		cartService.NewReconciler(catalog),
		promos,
		publisher,
		service.WithClock(func() time.Time { return testNow }),
	)
	return &fixture{store: store, svc: svc, publisher: publisher, user: uuid.New()}
}

func orderRequest(method model.PaymentMethod, promo string, lines ...cartModel.LineRequest) model.CreateOrderRequest {
	return model.CreateOrderRequest{
		Items:     lines,
		PromoCode: promo,
		Shipping: model.ShippingRequest{
			RecipientName: "Nguyen Van A",
			Phone:         "0912345678",
			Address:       "12 Ly Thuong Kiet, Ha Noi",
		},
		PaymentMethod: method,
	}
}

func line(bookID int64, qty int) cartModel.LineRequest {
	return cartModel.LineRequest{BookID: bookID, Quantity: qty}
}

// =====================================================
// CREATE
// =====================================================

func TestCreate_WithPromo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.svc.Create(ctx, f.user, orderRequest(model.PaymentMethodCOD, "SAVE10", line(1, 2)))
	require.NoError(t, err)

	assert.Equal(t, "20.00", o.Subtotal.StringFixed(2))
	assert.Equal(t, "2.00", o.DiscountAmount.StringFixed(2))
	assert.Equal(t, "18.00", o.Total.StringFixed(2))
	require.NotNil(t, o.Promo)
	assert.Equal(t, "SAVE10", o.Promo.Code)
	assert.Equal(t, model.StatusProcessing, o.Status)
	assert.Equal(t, model.PaymentPending, o.PaymentStatus)
	assert.Equal(t, 3, f.store.BookStock(1))

	require.Len(t, o.History, 1)
	assert.Equal(t, model.EventCreated, o.History[0].Event)
	assert.Equal(t, []model.EventType{model.EventTypeOrderCreated}, f.publisher.types())
}

func TestCreate_PromoCanBeReused(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, f.user, orderRequest(model.PaymentMethodCOD, "SAVE10", line(1, 2)))
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, f.user, orderRequest(model.PaymentMethodCOD, "SAVE10", line(1, 2)))
	require.NoError(t, err)

	assert.True(t, first.Total.Equal(second.Total))
	assert.Equal(t, 1, f.store.BookStock(1))
}

func TestCreate_ClearsOrderedCartLines(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	carts := f.store.Carts()
	require.NoError(t, carts.SetQuantity(ctx, f.user, 1, 1))
	require.NoError(t, carts.SetQuantity(ctx, f.user, 2, 1))

	_, err := f.svc.Create(ctx, f.user, orderRequest(model.PaymentMethodCOD, "", line(1, 1)))
	require.NoError(t, err)

	items, err := carts.List(ctx, f.user)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(2), items[0].BookID)
}

func TestCreate_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		req     model.CreateOrderRequest
		wantErr error
	}{
		{
			name:    "quantity above stock",
			req:     orderRequest(model.PaymentMethodCOD, "", line(2, 4)),
			wantErr: model.ErrInsufficientStock,
		},
		{
			name:    "duplicate lines summed above stock",
			req:     orderRequest(model.PaymentMethodCOD, "", line(2, 2), line(2, 2)),
			wantErr: model.ErrInsufficientStock,
		},
		{
			name:    "unknown book",
			req:     orderRequest(model.PaymentMethodCOD, "", line(1, 1), line(99, 1)),
			wantErr: model.ErrCartChanged,
		},
		{
			name:    "expired promo",
			req:     orderRequest(model.PaymentMethodCOD, "OLD", line(1, 2)),
			wantErr: promoModel.ErrPromoExpired,
		},
		{
			name:    "promo minimum not met",
			req:     orderRequest(model.PaymentMethodCOD, "SAVE10", line(1, 1)),
			wantErr: promoModel.ErrPromoMinimumNotMet,
		},
		{
			name:    "unknown promo",
			req:     orderRequest(model.PaymentMethodCOD, "NOPE", line(1, 2)),
			wantErr: promoModel.ErrPromoNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			o, err := f.svc.Create(context.Background(), f.user, tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, o)

			// không có thay đổi nào được ghi
			assert.Equal(t, 5, f.store.BookStock(1))
			assert.Equal(t, 3, f.store.BookStock(2))
			assert.Empty(t, f.publisher.types())
		})
	}
}

func TestCreate_InsufficientStockNamesTheLine(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), f.user, orderRequest(model.PaymentMethodCOD, "", line(1, 1), line(2, 4)))
	require.ErrorIs(t, err, model.ErrInsufficientStock)

	var orderErr *model.OrderError
	require.True(t, errors.As(err, &orderErr))
	assert.Equal(t, model.ErrCodeInsufficientStock, orderErr.Code)
	assert.Equal(t, int64(2), orderErr.Details["book_id"])
	assert.Equal(t, 4, orderErr.Details["requested"])
	assert.Equal(t, 3, orderErr.Details["available"])

	// dòng hợp lệ cũng không bị trừ kho
	assert.Equal(t, 5, f.store.BookStock(1))
	assert.Equal(t, 3, f.store.BookStock(2))
}

func TestCreate_ValidationErrors(t *testing.T) {
	f := newFixture(t)

	req := orderRequest(model.PaymentMethod("cash"), "", line(1, 1))
	req.Shipping.Phone = "abc"

	_, err := f.svc.Create(context.Background(), f.user, req)
	require.Error(t, err)
	assert.Equal(t, 5, f.store.BookStock(1))

	_, err = f.svc.Create(context.Background(), f.user, orderRequest(model.PaymentMethodCOD, ""))
	require.Error(t, err)
}

func TestCreate_ConcurrentOrdersNeverOversell(t *testing.T) {
	f := newFixture(t)
	const buyers = 12

	var (
		wg           sync.WaitGroup
		success      int32
		insufficient int32
	)
	start := make(chan struct{})
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.svc.Create(context.Background(), uuid.New(), orderRequest(model.PaymentMethodCOD, "", line(1, 1)))
			switch {
			case err == nil:
				atomic.AddInt32(&success, 1)
			case errors.Is(err, model.ErrInsufficientStock):
				atomic.AddInt32(&insufficient, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(5), success)
	assert.Equal(t, int32(buyers-5), insufficient)
	assert.Equal(t, 0, f.store.BookStock(1))
}

// =====================================================
// CANCEL / STATUS
// =====================================================

func TestCancel_RestoresStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.svc.Create(ctx, f.user, orderRequest(model.PaymentMethodCOD, "", line(1, 3)))
	require.NoError(t, err)
	assert.Equal(t, 2, f.store.BookStock(1))

	cancelled, err := f.svc.Cancel(ctx, o.ID, model.Actor{UserID: f.user}, "ordered by mistake")
	require.NoError(t, err)

	assert.Equal(t, model.StatusCancelled, cancelled.Status)
	assert.False(t, cancelled.RefundRequired)
	assert.Equal(t, 5, f.store.BookStock(1))

	_, err = f.svc.Cancel(ctx, o.ID, model.Actor{UserID: f.user}, "")
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
	assert.Equal(t, 5, f.store.BookStock(1))
}

func TestCancel_OtherUsersOrderIsHidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.svc.Create(ctx, f.user, orderRequest(model.PaymentMethodCOD, "", line(1, 1)))
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, o.ID, model.Actor{UserID: uuid.New()}, "")
	assert.ErrorIs(t, err, model.ErrOrderNotFound)
	assert.Equal(t, 4, f.store.BookStock(1))
}

func TestCancel_PaidOrderRequiresRefund(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.svc.Create(ctx, f.user, orderRequest(model.PaymentMethodVNPay, "", line(2, 1)))
	require.NoError(t, err)
	_, err = f.svc.UpdatePayment(ctx, o.ID, model.PaymentPaid, "14000001")
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(ctx, o.ID, model.Actor{UserID: f.user}, "")
	require.NoError(t, err)

	assert.True(t, cancelled.RefundRequired)
	assert.Equal(t, model.PaymentPaid, cancelled.PaymentStatus)
	assert.Contains(t, f.publisher.types(), model.EventTypeRefundRequired)
}

func TestUpdateStatus_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	admin := model.Actor{UserID: uuid.New(), Admin: true}

	o, err := f.svc.Create(ctx, f.user, orderRequest(model.PaymentMethodCOD, "", line(1, 1)))
	require.NoError(t, err)

	shipped, err := f.svc.UpdateStatus(ctx, o.ID, admin, model.UpdateStatusRequest{Status: model.StatusShipped})
	require.NoError(t, err)
	assert.Equal(t, model.StatusShipped, shipped.Status)

	_, err = f.svc.Cancel(ctx, o.ID, admin, "too late")
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	delivered, err := f.svc.UpdateStatus(ctx, o.ID, admin, model.UpdateStatusRequest{Status: model.StatusDelivered})
	require.NoError(t, err)
	assert.Equal(t, model.StatusDelivered, delivered.Status)

	history, err := f.svc.History(ctx, o.ID, model.Actor{UserID: f.user})
	require.NoError(t, err)
	events := make([]model.HistoryEvent, 0, len(history))
	for _, h := range history {
		events = append(events, h.Event)
	}
	assert.Equal(t, []model.HistoryEvent{model.EventCreated, model.EventShipped, model.EventDelivered}, events)
}

// =====================================================
// PAYMENT
// =====================================================

func TestUpdatePayment_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.svc.Create(ctx, f.user, orderRequest(model.PaymentMethodVNPay, "", line(1, 1)))
	require.NoError(t, err)

	first, err := f.svc.UpdatePayment(ctx, o.ID, model.PaymentPaid, "14000001")
	require.NoError(t, err)
	assert.True(t, first.Applied)

	second, err := f.svc.UpdatePayment(ctx, o.ID, model.PaymentPaid, "14000001")
	require.NoError(t, err)
	assert.False(t, second.Applied)

	downgrade, err := f.svc.UpdatePayment(ctx, o.ID, model.PaymentFailed, "")
	require.NoError(t, err)
	assert.False(t, downgrade.Applied)
	assert.Equal(t, model.PaymentPaid, downgrade.Order.PaymentStatus)

	// created + payment_paid, không có entry lặp
	assert.Len(t, downgrade.Order.History, 2)
}

func TestUpdatePayment_AfterCancelFlagsRefund(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	o, err := f.svc.Create(ctx, f.user, orderRequest(model.PaymentMethodVNPay, "", line(1, 1)))
	require.NoError(t, err)
	_, err = f.svc.Cancel(ctx, o.ID, model.Actor{UserID: f.user}, "")
	require.NoError(t, err)

	res, err := f.svc.UpdatePayment(ctx, o.ID, model.PaymentPaid, "14000002")
	require.NoError(t, err)

	assert.True(t, res.RefundRequired)
	assert.Equal(t, model.StatusCancelled, res.Order.Status)
	assert.Equal(t, 5, f.store.BookStock(1))
}

func TestExpireUnpaid(t *testing.T) {
	store := memory.NewStore()
	store.SeedBook(catalogModel.Book{ID: 1, Title: "Learning Go", Price: decimal.NewFromInt(12), Stock: 4})
	catalog := catalogService.NewCatalogService(store.Catalog(), memory.NewCache())

	clock := testNow
	svc := service.NewOrderService(
		store.Orders(),
		cartService.NewReconciler(catalog),
		promoService.NewPromotionService(store.Promotions()),
		nil,
		service.WithClock(func() time.Time { return clock }),
	)
	ctx := context.Background()
	user := uuid.New()

	unpaid, err := svc.Create(ctx, user, orderRequest(model.PaymentMethodVNPay, "", line(1, 1)))
	require.NoError(t, err)
	paid, err := svc.Create(ctx, user, orderRequest(model.PaymentMethodVNPay, "", line(1, 1)))
	require.NoError(t, err)
	_, err = svc.UpdatePayment(ctx, paid.ID, model.PaymentPaid, "14000003")
	require.NoError(t, err)
	cod, err := svc.Create(ctx, user, orderRequest(model.PaymentMethodCOD, "", line(1, 1)))
	require.NoError(t, err)
	assert.Equal(t, 1, store.BookStock(1))

	clock = testNow.Add(31 * time.Minute)
	n, err := svc.ExpireUnpaid(ctx, 30*time.Minute, 100)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, store.BookStock(1))

	got, err := svc.Get(ctx, unpaid.ID, model.SystemActor())
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)

	for _, id := range []uuid.UUID{paid.ID, cod.ID} {
		got, err := svc.Get(ctx, id, model.SystemActor())
		require.NoError(t, err)
		assert.Equal(t, model.StatusProcessing, got.Status)
	}
}

func TestUpdatePayment_RacesCancel(t *testing.T) {
	const rounds = 50

	for i := 0; i < rounds; i++ {
		f := newFixture(t)
		ctx := context.Background()

		o, err := f.svc.Create(ctx, f.user, orderRequest(model.PaymentMethodVNPay, "", line(1, 2)))
		require.NoError(t, err)
		require.Equal(t, 3, f.store.BookStock(1))

		var (
			wg        sync.WaitGroup
			payErr    error
			cancelErr error
		)
		start := make(chan struct{})
		wg.Add(2)
		go func() {
			defer wg.Done()
			<-start
			_, payErr = f.svc.UpdatePayment(ctx, o.ID, model.PaymentPaid, "14000099")
		}()
		go func() {
			defer wg.Done()
			<-start
			_, cancelErr = f.svc.Cancel(ctx, o.ID, model.Actor{UserID: f.user}, "changed my mind")
		}()
		close(start)
		wg.Wait()

		require.NoError(t, payErr)
		require.NoError(t, cancelErr)

		got, err := f.svc.Get(ctx, o.ID, model.SystemActor())
		require.NoError(t, err)
		assert.Equal(t, model.StatusCancelled, got.Status)
		// stock chỉ được hoàn đúng một lần
		assert.Equal(t, 5, f.store.BookStock(1))

		events := make(map[model.HistoryEvent]int)
		for _, h := range got.History {
			events[h.Event]++
		}
		assert.Equal(t, 1, events[model.EventCancelled])

		switch got.PaymentStatus {
		case model.PaymentPaid:
			assert.True(t, got.RefundRequired)
			assert.Equal(t, 1, events[model.EventPaymentPaid])
			assert.Equal(t, 1, events[model.EventRefundRequired])
		case model.PaymentPending:
			assert.False(t, got.RefundRequired)
			assert.Zero(t, events[model.EventPaymentPaid])
		default:
			t.Fatalf("unexpected payment status %s", got.PaymentStatus)
		}
	}
}

// =====================================================
// STORE TRANSACTION
// =====================================================

var errCartUnavailable = errors.New("cart table unavailable")

// failingCartStore bọc store thật, ClearCartLines luôn lỗi (sau khi stock đã bị trừ)
type failingCartStore struct {
	repository.Store
}

func (s failingCartStore) WithTx(ctx context.Context, fn func(tx repository.Tx) error) error {
	return s.Store.WithTx(ctx, func(tx repository.Tx) error {
		return fn(failingCartTx{Tx: tx})
	})
}

type failingCartTx struct {
	repository.Tx
}

func (failingCartTx) ClearCartLines(context.Context, uuid.UUID, []int64) error {
	return errCartUnavailable
}

func TestCreate_FailureAfterStockDecrementRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	catalog := catalogService.NewCatalogService(f.store.Catalog(), memory.NewCache())
	svc := service.NewOrderService(
		failingCartStore{Store: f.store.Orders()},
		cartService.NewReconciler(catalog),
		promoService.NewPromotionServiceWithClock(f.store.Promotions(), func() time.Time { return testNow }),
		f.publisher,
		service.WithClock(func() time.Time { return testNow }),
	)

	o, err := svc.Create(ctx, f.user, orderRequest(model.PaymentMethodCOD, "SAVE10", line(1, 2), line(2, 1)))
	require.ErrorIs(t, err, errCartUnavailable)
	assert.Nil(t, o)

	assert.Equal(t, 5, f.store.BookStock(1))
	assert.Equal(t, 3, f.store.BookStock(2))

	_, total, err := f.store.Orders().List(ctx, model.ListOrdersRequest{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, f.publisher.types())
}

func TestWithTx_RollbackDiscardsStagedWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := f.store.Orders().WithTx(ctx, func(tx repository.Tx) error {
		if _, err := tx.LockBooks(ctx, []int64{2, 1}); err != nil {
			return err
		}
		require.NoError(t, tx.AdjustStock(ctx, 1, -2))
		require.NoError(t, tx.AdjustStock(ctx, 2, -1))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 5, f.store.BookStock(1))
	assert.Equal(t, 3, f.store.BookStock(2))

	err = f.store.Orders().WithTx(ctx, func(tx repository.Tx) error {
		return tx.AdjustStock(ctx, 2, -4)
	})
	assert.ErrorIs(t, err, model.ErrInsufficientStock)
	assert.Equal(t, 3, f.store.BookStock(2))
}
