package model

import (
	"crypto/rand"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================================================
// STATUS AXIS
// =====================================================
type Status string

const (
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
)

// allowedTransitions: forward-only; cancel chỉ được phép khi đang processing
var allowedTransitions = map[Status][]Status{
	StatusProcessing: {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
}

func (s Status) IsValid() bool {
	switch s {
	case StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

func (s Status) CanTransitionTo(to Status) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

// =====================================================
// PAYMENT AXIS (independent of Status)
// =====================================================
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

func (p PaymentStatus) IsValid() bool {
	switch p {
	case PaymentPending, PaymentPaid, PaymentFailed:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodCOD   PaymentMethod = "cod"
	PaymentMethodVNPay PaymentMethod = "vnpay"
)

func (m PaymentMethod) IsOnline() bool {
	return m == PaymentMethodVNPay
}

// =====================================================
// ENTITIES
// =====================================================

// Item is a snapshot taken at order time; later catalog price changes never touch it
type Item struct {
	BookID    int64           `json:"book_id"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// AppliedPromo is a copy of the promo at creation, not a live reference
type AppliedPromo struct {
	Code            string          `json:"code"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

type Shipping struct {
	RecipientName string `json:"recipient_name"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
}

type Order struct {
	ID             uuid.UUID       `json:"id"`
	Number         string          `json:"number"`
	UserID         uuid.UUID       `json:"user_id"`
	Items          []Item          `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Total          decimal.Decimal `json:"total"`
	Promo          *AppliedPromo   `json:"promo,omitempty"`

	Status         Status        `json:"status"`
	PaymentStatus  PaymentStatus `json:"payment_status"`
	PaymentMethod  PaymentMethod `json:"payment_method"`
	GatewayTxnRef  *string       `json:"gateway_txn_ref,omitempty"`
	RefundRequired bool          `json:"refund_required"`

	Shipping Shipping       `json:"shipping"`
	History  []HistoryEntry `json:"history,omitempty"`

	Version      int        `json:"version"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	PaidAt       *time.Time `json:"paid_at,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	CancelReason *string    `json:"cancel_reason,omitempty"`
}

// BookIDs returns the distinct book ids of the order in ascending order (lock order)
func (o *Order) BookIDs() []int64 {
	seen := make(map[int64]struct{}, len(o.Items))
	ids := make([]int64, 0, len(o.Items))
	for _, it := range o.Items {
		if _, ok := seen[it.BookID]; ok {
			continue
		}
		seen[it.BookID] = struct{}{}
		ids = append(ids, it.BookID)
	}
	SortBookIDs(ids)
	return ids
}

// IsOwnedBy reports whether userID placed the order
func (o *Order) IsOwnedBy(userID uuid.UUID) bool {
	return o.UserID == userID
}

// Transition moves the status axis and returns the history entry to persist
func (o *Order) Transition(to Status, now time.Time, actor Actor, note string) (HistoryEntry, error) {
	if !o.Status.CanTransitionTo(to) {
		return HistoryEntry{}, NewInvalidTransitionError(o.Status, to)
	}

	from := o.Status
	o.Status = to
	o.UpdatedAt = now

	event := statusEvents[to]
	entry := newEntry(o, event, now, actor, describeTransition(from, to, note))
	if to == StatusCancelled {
		o.CancelledAt = &now
		if note != "" {
			reason := note
			o.CancelReason = &reason
		}
	}
	return entry, nil
}

// PaymentChange là kết quả của ApplyPayment
type PaymentChange struct {
	Applied        bool
	RefundRequired bool
	Entries        []HistoryEntry
}

// ApplyPayment records a verified gateway outcome. Rules:
//   - same outcome as current → no-op (gateway retries)
//   - current is paid → no-op (a paid order is never un-paid)
//   - paid on a cancelled order → recorded and flagged refund_required
//
// Status is never changed here.
func (o *Order) ApplyPayment(outcome PaymentStatus, gatewayRef string, now time.Time) (PaymentChange, error) {
	if outcome != PaymentPaid && outcome != PaymentFailed {
		return PaymentChange{}, ErrInvalidPaymentOutcome
	}
	if o.PaymentStatus == outcome || o.PaymentStatus == PaymentPaid {
		return PaymentChange{}, nil
	}

	o.PaymentStatus = outcome
	o.UpdatedAt = now
	if gatewayRef != "" {
		ref := gatewayRef
		o.GatewayTxnRef = &ref
	}

	change := PaymentChange{Applied: true}

	if outcome == PaymentFailed {
		change.Entries = append(change.Entries, newEntry(o, EventPaymentFailed, now, SystemActor(),
			"Payment was declined by the gateway"))
		return change, nil
	}

	o.PaidAt = &now
	change.Entries = append(change.Entries, newEntry(o, EventPaymentPaid, now, SystemActor(),
		"Payment confirmed by the gateway"))

	if o.Status == StatusCancelled {
		change.Entries = append(change.Entries, o.MarkRefundRequired(now))
		change.RefundRequired = true
	}
	return change, nil
}

// MarkRefundRequired flags a paid order whose goods will not be delivered
func (o *Order) MarkRefundRequired(now time.Time) HistoryEntry {
	o.RefundRequired = true
	o.UpdatedAt = now
	return newEntry(o, EventRefundRequired, now, SystemActor(),
		"Order was paid but cancelled; a refund must be issued")
}

// MinorUnits trả về total ở đơn vị nhỏ nhất (x100), dùng cho gateway
func (o *Order) MinorUnits() int64 {
	return ToMinorUnits(o.Total)
}

func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// NewOrderNumber: BK + yyyymmdd + 8 hex chars, chỉ gồm chữ và số (VNPay TxnRef)
func NewOrderNumber(now time.Time) string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		u := uuid.New()
		copy(b, u[:4])
	}
	return "BK" + now.UTC().Format("20060102") + strings.ToUpper(hex.EncodeToString(b))
}

func SortBookIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}
