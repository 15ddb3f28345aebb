package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bookstore-ecommerce/internal/domains/order/model"
)

// =====================================================
// ORDER SERVICE INTERFACE
// =====================================================
type OrderService interface {
	// Create validates, re-checks stock under lock and persists the order atomically
	Create(ctx context.Context, userID uuid.UUID, req model.CreateOrderRequest) (*model.Order, error)

	// Get order detail; customers only see their own orders
	Get(ctx context.Context, orderID uuid.UUID, actor model.Actor) (*model.Order, error)
	GetByNumber(ctx context.Context, number string) (*model.Order, error)

	// List orders; UserID nil lists every order (admin)
	List(ctx context.Context, req model.ListOrdersRequest) (*model.ListOrdersResponse, error)
	History(ctx context.Context, orderID uuid.UUID, actor model.Actor) ([]model.HistoryView, error)

	// Cancel restores stock and flags refund when the order was already paid
	Cancel(ctx context.Context, orderID uuid.UUID, actor model.Actor, reason string) (*model.Order, error)

	// UpdateStatus (admin): shipped, delivered, cancelled
	UpdateStatus(ctx context.Context, orderID uuid.UUID, actor model.Actor, req model.UpdateStatusRequest) (*model.Order, error)

	// UpdatePayment applies a verified gateway outcome; repeated calls are no-ops
	UpdatePayment(ctx context.Context, orderID uuid.UUID, outcome model.PaymentStatus, gatewayRef string) (*model.PaymentUpdate, error)

	// ExpireUnpaid cancels online-payment orders left unpaid past timeout
	ExpireUnpaid(ctx context.Context, timeout time.Duration, batch int) (int, error)
}

// EventPublisher nhận event sau khi transaction đã commit
type EventPublisher interface {
	Publish(ctx context.Context, events ...model.Event) error
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, ...model.Event) error { return nil }

// MultiPublisher fans out to every publisher and returns the first error
type MultiPublisher []EventPublisher

func (m MultiPublisher) Publish(ctx context.Context, events ...model.Event) error {
	var first error
	for _, p := range m {
		if err := p.Publish(ctx, events...); err != nil && first == nil {
			first = err
		}
	}
	return first
}
