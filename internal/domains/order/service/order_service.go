package service

import (
	"context"
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	cartModel "bookstore-ecommerce/internal/domains/cart/model"
	cartService "bookstore-ecommerce/internal/domains/cart/service"
	"bookstore-ecommerce/internal/domains/order/model"
	"bookstore-ecommerce/internal/domains/order/repository"
	promoModel "bookstore-ecommerce/internal/domains/promotion/model"
	promoService "bookstore-ecommerce/internal/domains/promotion/service"
	"bookstore-ecommerce/pkg/database"
	"bookstore-ecommerce/pkg/logger"
	"bookstore-ecommerce/pkg/metrics"
	"bookstore-ecommerce/pkg/tracing"
)

// =====================================================
// ORDER SERVICE IMPLEMENTATION
// =====================================================
type orderService struct {
	store      repository.Store
	reconciler cartService.Reconciler
	promos     promoService.Validator
	publisher  EventPublisher
	retry      database.RetryPolicy
	now        func() time.Time
}

type Option func(*orderService)

// WithClock pins "now" (tests, jobs)
func WithClock(now func() time.Time) Option {
	return func(s *orderService) { s.now = now }
}

func WithRetryPolicy(p database.RetryPolicy) Option {
	return func(s *orderService) { s.retry = p }
}

// NewOrderService creates a new order service
func NewOrderService(
	store repository.Store,
	reconciler cartService.Reconciler,
	promos promoService.Validator,
	publisher EventPublisher,
	opts ...Option,
) OrderService {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	s := &orderService{
		store:      store,
		reconciler: reconciler,
		promos:     promos,
		publisher:  publisher,
		retry:      database.DefaultRetryPolicy,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// =====================================================
// CREATE ORDER - MAIN BUSINESS LOGIC
// =====================================================
func (s *orderService) Create(ctx context.Context, userID uuid.UUID, req model.CreateOrderRequest) (o *model.Order, err error) {
	ctx, span := tracing.StartSpan(ctx, "OrderService.Create",
		attribute.String("user_id", userID.String()),
		attribute.Int("lines", len(req.Items)),
	)
	start := time.Now()
	defer func() {
		tracing.EndSpan(span, err)
		if err != nil {
			metrics.OrdersFailedTotal.WithLabelValues(failureReason(err)).Inc()
		}
	}()

	// STEP 1: validate shape trước mọi thay đổi state
	if err = req.Validate(); err != nil {
		return nil, err
	}

	// STEP 2: pre-check; sách không còn tồn tại thì client phải bỏ dòng đó trước.
	// Thiếu hàng được quyết định dưới row lock ở STEP 3 (InsufficientStock).
	recon, err := s.reconciler.Reconcile(ctx, req.Items)
	if err != nil {
		return nil, err
	}
	if removed := recon.Removed(); len(removed) > 0 {
		return nil, model.NewCartChangedError(removed)
	}
	lines := cartModel.MergeLines(req.Items)

	// STEP 3: một transaction duy nhất cho stock + order + cart
	err = database.WithRetry(ctx, s.retry, func() error {
		o = nil
		return s.store.WithTx(ctx, func(tx repository.Tx) error {
			ids := make([]int64, len(lines))
			for i, l := range lines {
				ids[i] = l.BookID
			}

			locked, err := tx.LockBooks(ctx, ids)
			if err != nil {
				return err
			}

			now := s.now()
			draft := &model.Order{
				ID:            uuid.New(),
				Number:        model.NewOrderNumber(now),
				UserID:        userID,
				Items:         make([]model.Item, 0, len(lines)),
				Subtotal:      decimal.Zero,
				Status:        model.StatusProcessing,
				PaymentStatus: model.PaymentPending,
				PaymentMethod: req.PaymentMethod,
				Shipping:      req.Shipping.ToShipping(),
				Version:       1,
				CreatedAt:     now,
				UpdatedAt:     now,
			}

			for _, l := range lines {
				info, ok := locked[l.BookID]
				if !ok {
					return model.NewBookUnavailableError(l.BookID)
				}
				if !info.InStock(l.Quantity) {
					return model.NewInsufficientStockError(l.BookID, info.Title, l.Quantity, info.Stock)
				}
				lineTotal := info.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
				draft.Items = append(draft.Items, model.Item{
					BookID:    l.BookID,
					Title:     info.Title,
					Quantity:  l.Quantity,
					UnitPrice: info.Price,
					LineTotal: lineTotal,
				})
				draft.Subtotal = draft.Subtotal.Add(lineTotal)
			}

			draft.DiscountAmount = decimal.Zero
			if req.PromoCode != "" {
				discount, err := s.promos.Validate(ctx, req.PromoCode, draft.Subtotal)
				if err != nil {
					return err
				}
				draft.DiscountAmount = discount.Amount(draft.Subtotal)
				draft.Promo = &model.AppliedPromo{Code: discount.Code, DiscountPercent: discount.DiscountPercent}
			}
			draft.Total = draft.Subtotal.Sub(draft.DiscountAmount)

			for _, it := range draft.Items {
				if err := tx.AdjustStock(ctx, it.BookID, -it.Quantity); err != nil {
					return err
				}
			}

			draft.History = []model.HistoryEntry{model.CreatedEntry(draft, model.Actor{UserID: userID})}
			if err := tx.InsertOrder(ctx, draft); err != nil {
				return err
			}
			if err := tx.ClearCartLines(ctx, userID, draft.BookIDs()); err != nil {
				return err
			}

			o = draft
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	// STEP 4: side effects sau commit
	metrics.OrdersCreatedTotal.WithLabelValues(string(o.PaymentMethod)).Inc()
	metrics.OrderCreateLatency.Observe(time.Since(start).Seconds())
	s.publish(ctx, model.NewEvent(model.EventTypeOrderCreated, o, o.CreatedAt))

	logger.Info("Order created", map[string]interface{}{
		"order_id":       o.ID,
		"order_number":   o.Number,
		"user_id":        userID,
		"total":          o.Total.StringFixed(2),
		"payment_method": o.PaymentMethod,
	})
	return o, nil
}

// =====================================================
// READS
// =====================================================
func (s *orderService) Get(ctx context.Context, orderID uuid.UUID, actor model.Actor) (*model.Order, error) {
	o, err := s.store.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	// Không tiết lộ đơn của người khác: trả về not found
	if !actor.CanManage(o) {
		return nil, model.ErrOrderNotFound
	}
	return o, nil
}

func (s *orderService) GetByNumber(ctx context.Context, number string) (*model.Order, error) {
	return s.store.GetByNumber(ctx, number)
}

func (s *orderService) List(ctx context.Context, req model.ListOrdersRequest) (*model.ListOrdersResponse, error) {
	req.Normalize()
	orders, total, err := s.store.List(ctx, req)
	if err != nil {
		return nil, err
	}
	return &model.ListOrdersResponse{Orders: orders, Total: total, Page: req.Page, Limit: req.Limit}, nil
}

func (s *orderService) History(ctx context.Context, orderID uuid.UUID, actor model.Actor) ([]model.HistoryView, error) {
	o, err := s.Get(ctx, orderID, actor)
	if err != nil {
		return nil, err
	}
	views := make([]model.HistoryView, 0, len(o.History))
	for _, h := range o.History {
		views = append(views, h.View())
	}
	return views, nil
}

// =====================================================
// CANCEL / STATUS
// =====================================================
func (s *orderService) Cancel(ctx context.Context, orderID uuid.UUID, actor model.Actor, reason string) (o *model.Order, err error) {
	ctx, span := tracing.StartSpan(ctx, "OrderService.Cancel", attribute.String("order_id", orderID.String()))
	defer func() { tracing.EndSpan(span, err) }()

	var events []model.Event
	err = database.WithRetry(ctx, s.retry, func() error {
		events = nil
		return s.store.WithTx(ctx, func(tx repository.Tx) error {
			locked, err := tx.LockOrder(ctx, orderID)
			if err != nil {
				return err
			}
			if !actor.CanManage(locked) {
				return model.ErrOrderNotFound
			}
			if !locked.Status.CanTransitionTo(model.StatusCancelled) {
				return model.NewInvalidTransitionError(locked.Status, model.StatusCancelled)
			}

			// Khóa sách theo thứ tự id tăng dần rồi hoàn kho
			if _, err := tx.LockBooks(ctx, locked.BookIDs()); err != nil {
				return err
			}
			for _, it := range locked.Items {
				if err := tx.AdjustStock(ctx, it.BookID, it.Quantity); err != nil {
					return err
				}
			}

			now := s.now()
			entry, err := locked.Transition(model.StatusCancelled, now, actor, reason)
			if err != nil {
				return err
			}
			entries := []model.HistoryEntry{entry}
			events = append(events, model.NewEvent(model.EventTypeOrderCancelled, locked, now))

			if locked.PaymentStatus == model.PaymentPaid {
				entries = append(entries, locked.MarkRefundRequired(now))
				events = append(events, model.NewEvent(model.EventTypeRefundRequired, locked, now))
			}

			if err := tx.SaveState(ctx, locked, entries); err != nil {
				return err
			}
			o = locked
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.OrdersCancelledTotal.Inc()
	metrics.OrderStatusTransitions.WithLabelValues(string(model.StatusProcessing), string(model.StatusCancelled)).Inc()
	if o.RefundRequired {
		metrics.RefundsRequiredTotal.Inc()
	}
	s.publish(ctx, events...)

	logger.Info("Order cancelled", map[string]interface{}{
		"order_id":        o.ID,
		"actor":           actor.String(),
		"refund_required": o.RefundRequired,
	})
	return s.reload(ctx, o), nil
}

func (s *orderService) UpdateStatus(ctx context.Context, orderID uuid.UUID, actor model.Actor, req model.UpdateStatusRequest) (o *model.Order, err error) {
	if err = req.Validate(); err != nil {
		return nil, err
	}
	if req.Status == model.StatusCancelled {
		return s.Cancel(ctx, orderID, actor, req.Note)
	}

	ctx, span := tracing.StartSpan(ctx, "OrderService.UpdateStatus",
		attribute.String("order_id", orderID.String()),
		attribute.String("status", string(req.Status)),
	)
	defer func() { tracing.EndSpan(span, err) }()

	var from model.Status
	err = database.WithRetry(ctx, s.retry, func() error {
		return s.store.WithTx(ctx, func(tx repository.Tx) error {
			locked, err := tx.LockOrder(ctx, orderID)
			if err != nil {
				return err
			}
			from = locked.Status
			entry, err := locked.Transition(req.Status, s.now(), actor, req.Note)
			if err != nil {
				return err
			}
			if err := tx.SaveState(ctx, locked, []model.HistoryEntry{entry}); err != nil {
				return err
			}
			o = locked
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	metrics.OrderStatusTransitions.WithLabelValues(string(from), string(o.Status)).Inc()
	s.publish(ctx, model.NewEvent(model.EventTypeStatusChanged, o, o.UpdatedAt))
	return s.reload(ctx, o), nil
}

// =====================================================
// PAYMENT
// =====================================================
func (s *orderService) UpdatePayment(ctx context.Context, orderID uuid.UUID, outcome model.PaymentStatus, gatewayRef string) (res *model.PaymentUpdate, err error) {
	ctx, span := tracing.StartSpan(ctx, "OrderService.UpdatePayment",
		attribute.String("order_id", orderID.String()),
		attribute.String("outcome", string(outcome)),
	)
	defer func() { tracing.EndSpan(span, err) }()

	var change model.PaymentChange
	var updated *model.Order
	err = database.WithRetry(ctx, s.retry, func() error {
		return s.store.WithTx(ctx, func(tx repository.Tx) error {
			locked, err := tx.LockOrder(ctx, orderID)
			if err != nil {
				return err
			}
			change, err = locked.ApplyPayment(outcome, gatewayRef, s.now())
			if err != nil {
				return err
			}
			updated = locked
			if !change.Applied {
				return nil
			}
			return tx.SaveState(ctx, locked, change.Entries)
		})
	})
	if err != nil {
		return nil, err
	}

	if change.Applied {
		eventType := model.EventTypePaymentFailed
		if outcome == model.PaymentPaid {
			eventType = model.EventTypePaymentPaid
		}
		events := []model.Event{model.NewEvent(eventType, updated, updated.UpdatedAt)}
		if change.RefundRequired {
			metrics.RefundsRequiredTotal.Inc()
			events = append(events, model.NewEvent(model.EventTypeRefundRequired, updated, updated.UpdatedAt))
			logger.Warn("Payment received for cancelled order", map[string]interface{}{
				"order_id":    updated.ID,
				"gateway_ref": gatewayRef,
			})
		}
		s.publish(ctx, events...)
	}

	return &model.PaymentUpdate{
		Order:          s.reload(ctx, updated),
		Applied:        change.Applied,
		RefundRequired: change.RefundRequired,
	}, nil
}

// ExpireUnpaid: job định kỳ hủy đơn VNPay chưa thanh toán quá hạn
func (s *orderService) ExpireUnpaid(ctx context.Context, timeout time.Duration, batch int) (int, error) {
	cutoff := s.now().Add(-timeout)
	ids, err := s.store.ListUnpaidBefore(ctx, cutoff, batch)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, id := range ids {
		_, err := s.Cancel(ctx, id, model.SystemActor(), "payment not completed in time")
		if err != nil {
			// Đơn có thể đã được thanh toán/hủy giữa lúc list và lúc khóa
			if errors.Is(err, model.ErrInvalidTransition) {
				continue
			}
			logger.ErrorWithFields("Failed to expire unpaid order", err, map[string]interface{}{"order_id": id})
			continue
		}
		cancelled++
	}
	return cancelled, nil
}

// =====================================================
// HELPERS
// =====================================================

// publish: lỗi publish không làm fail request vì transaction đã commit
func (s *orderService) publish(ctx context.Context, events ...model.Event) {
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		logger.ErrorWithFields("Failed to publish order events", err, map[string]interface{}{
			"event_type": events[0].Type,
			"order_id":   events[0].OrderID,
		})
	}
}

// reload trả về bản đầy đủ (có history); fallback về bản đang giữ nếu đọc lỗi
func (s *orderService) reload(ctx context.Context, o *model.Order) *model.Order {
	fresh, err := s.store.GetByID(ctx, o.ID)
	if err != nil {
		return o
	}
	return fresh
}

func failureReason(err error) string {
	var (
		promoErr       *promoModel.AppError
		validationErrs validation.Errors
	)
	switch {
	case errors.Is(err, model.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, model.ErrCartChanged):
		return "cart_changed"
	case errors.Is(err, model.ErrBookUnavailable):
		return "book_unavailable"
	case errors.As(err, &promoErr):
		return "promo"
	case errors.As(err, &validationErrs):
		return "validation"
	case database.IsTransient(err):
		return "transient"
	}
	return "other"
}
