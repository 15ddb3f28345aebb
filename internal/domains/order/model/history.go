package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type HistoryEvent string

const (
	EventCreated        HistoryEvent = "created"
	EventShipped        HistoryEvent = "shipped"
	EventDelivered      HistoryEvent = "delivered"
	EventCancelled      HistoryEvent = "cancelled"
	EventPaymentPaid    HistoryEvent = "payment_paid"
	EventPaymentFailed  HistoryEvent = "payment_failed"
	EventRefundRequired HistoryEvent = "refund_required"
)

var statusEvents = map[Status]HistoryEvent{
	StatusShipped:   EventShipped,
	StatusDelivered: EventDelivered,
	StatusCancelled: EventCancelled,
}

var eventTitles = map[HistoryEvent]string{
	EventCreated:        "Order placed",
	EventShipped:        "Order shipped",
	EventDelivered:      "Order delivered",
	EventCancelled:      "Order cancelled",
	EventPaymentPaid:    "Payment received",
	EventPaymentFailed:  "Payment failed",
	EventRefundRequired: "Refund required",
}

// HistoryEntry is append-only; entries are never updated or removed
type HistoryEntry struct {
	Event         HistoryEvent  `json:"event"`
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Actor         string        `json:"actor"`
	CompletedAt   time.Time     `json:"completed_at"`
}

// HistoryView is the client-facing shape of a history entry
type HistoryView struct {
	Event       HistoryEvent `json:"event"`
	Status      Status       `json:"status"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	CompletedAt time.Time    `json:"completed_at"`
}

func (e HistoryEntry) View() HistoryView {
	return HistoryView{
		Event:       e.Event,
		Status:      e.Status,
		Title:       e.Title,
		Description: e.Description,
		CompletedAt: e.CompletedAt,
	}
}

// Actor là người/tiến trình thực hiện thay đổi
type Actor struct {
	UserID uuid.UUID
	Admin  bool
	System bool
}

func SystemActor() Actor {
	return Actor{System: true}
}

func (a Actor) String() string {
	switch {
	case a.System:
		return "system"
	case a.Admin:
		return "admin:" + a.UserID.String()
	default:
		return "user:" + a.UserID.String()
	}
}

// CanManage: admin/system mọi đơn, customer chỉ đơn của mình
func (a Actor) CanManage(o *Order) bool {
	return a.System || a.Admin || o.IsOwnedBy(a.UserID)
}

func newEntry(o *Order, event HistoryEvent, now time.Time, actor Actor, description string) HistoryEntry {
	return HistoryEntry{
		Event:         event,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		Title:         eventTitles[event],
		Description:   description,
		Actor:         actor.String(),
		CompletedAt:   now,
	}
}

// CreatedEntry is the first entry of every order
func CreatedEntry(o *Order, actor Actor) HistoryEntry {
	desc := fmt.Sprintf("Order %s placed with %d line(s), total %s", o.Number, len(o.Items), o.Total.StringFixed(2))
	return newEntry(o, EventCreated, o.CreatedAt, actor, desc)
}

func describeTransition(from, to Status, note string) string {
	desc := fmt.Sprintf("Status changed from %s to %s", from, to)
	if note != "" {
		desc += ": " + note
	}
	return desc
}
