package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventTypeOrderCreated   EventType = "order.created"
	EventTypeStatusChanged  EventType = "order.status_changed"
	EventTypeOrderCancelled EventType = "order.cancelled"
	EventTypePaymentPaid    EventType = "order.payment_paid"
	EventTypePaymentFailed  EventType = "order.payment_failed"
	EventTypeRefundRequired EventType = "order.refund_required"
)

// Event is emitted after commit to the outside collaborators (Kafka, notification jobs).
// Delivery is at-least-once; consumers deduplicate on ID.
type Event struct {
	ID            string          `json:"event_id"`
	Type          EventType       `json:"event_type"`
	OrderID       uuid.UUID       `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	UserID        uuid.UUID       `json:"user_id"`
	Status        Status          `json:"status"`
	PaymentStatus PaymentStatus   `json:"payment_status"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Total         decimal.Decimal `json:"total"`
	GatewayTxnRef string          `json:"gateway_txn_ref,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

func NewEvent(t EventType, o *Order, now time.Time) Event {
	e := Event{
		ID:            uuid.NewString(),
		Type:          t,
		OrderID:       o.ID,
		OrderNumber:   o.Number,
		UserID:        o.UserID,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		PaymentMethod: o.PaymentMethod,
		Total:         o.Total,
		OccurredAt:    now,
	}
	if o.GatewayTxnRef != nil {
		e.GatewayTxnRef = *o.GatewayTxnRef
	}
	return e
}
