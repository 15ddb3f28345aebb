package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrder(status Status, payment PaymentStatus) *Order {
	return &Order{
		ID:            uuid.New(),
		Number:        "BK20260101ABCDEF01",
		UserID:        uuid.New(),
		Total:         decimal.RequireFromString("18.00"),
		Status:        status,
		PaymentStatus: payment,
		PaymentMethod: PaymentMethodVNPay,
		Items: []Item{
			{BookID: 7, Quantity: 1},
			{BookID: 2, Quantity: 3},
			{BookID: 7, Quantity: 1},
		},
	}
}

func TestStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusProcessing, StatusShipped, true},
		{StatusProcessing, StatusCancelled, true},
		{StatusShipped, StatusDelivered, true},
		{StatusProcessing, StatusDelivered, false},
		{StatusShipped, StatusCancelled, false},
		{StatusShipped, StatusProcessing, false},
		{StatusDelivered, StatusCancelled, false},
		{StatusCancelled, StatusProcessing, false},
		{StatusCancelled, StatusShipped, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrder_Transition(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	admin := Actor{UserID: uuid.New(), Admin: true}

	t.Run("records history entry", func(t *testing.T) {
		o := newTestOrder(StatusProcessing, PaymentPaid)

		entry, err := o.Transition(StatusShipped, now, admin, "")
		require.NoError(t, err)

		assert.Equal(t, StatusShipped, o.Status)
		assert.Equal(t, EventShipped, entry.Event)
		assert.Equal(t, StatusShipped, entry.Status)
		assert.Equal(t, PaymentPaid, entry.PaymentStatus)
		assert.Equal(t, "admin:"+admin.UserID.String(), entry.Actor)
		assert.Equal(t, now, entry.CompletedAt)
	})

	t.Run("cancel stores reason", func(t *testing.T) {
		o := newTestOrder(StatusProcessing, PaymentPending)

		_, err := o.Transition(StatusCancelled, now, SystemActor(), "changed my mind")
		require.NoError(t, err)

		require.NotNil(t, o.CancelledAt)
		require.NotNil(t, o.CancelReason)
		assert.Equal(t, "changed my mind", *o.CancelReason)
	})

	t.Run("rejects backwards move", func(t *testing.T) {
		o := newTestOrder(StatusDelivered, PaymentPaid)

		_, err := o.Transition(StatusShipped, now, admin, "")
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, StatusDelivered, o.Status)
	})
}

func TestOrder_ApplyPayment(t *testing.T) {
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	t.Run("pending to paid", func(t *testing.T) {
		o := newTestOrder(StatusProcessing, PaymentPending)

		change, err := o.ApplyPayment(PaymentPaid, "14012345", now)
		require.NoError(t, err)

		assert.True(t, change.Applied)
		assert.False(t, change.RefundRequired)
		assert.Equal(t, PaymentPaid, o.PaymentStatus)
		assert.Equal(t, StatusProcessing, o.Status)
		require.NotNil(t, o.GatewayTxnRef)
		assert.Equal(t, "14012345", *o.GatewayTxnRef)
		require.Len(t, change.Entries, 1)
		assert.Equal(t, EventPaymentPaid, change.Entries[0].Event)
	})

	t.Run("same outcome twice is a no-op", func(t *testing.T) {
		o := newTestOrder(StatusProcessing, PaymentPaid)

		change, err := o.ApplyPayment(PaymentPaid, "14012345", now)
		require.NoError(t, err)
		assert.False(t, change.Applied)
		assert.Empty(t, change.Entries)
	})

	t.Run("paid is never downgraded", func(t *testing.T) {
		o := newTestOrder(StatusProcessing, PaymentPaid)

		change, err := o.ApplyPayment(PaymentFailed, "", now)
		require.NoError(t, err)
		assert.False(t, change.Applied)
		assert.Equal(t, PaymentPaid, o.PaymentStatus)
	})

	t.Run("failed can still become paid", func(t *testing.T) {
		o := newTestOrder(StatusProcessing, PaymentFailed)

		change, err := o.ApplyPayment(PaymentPaid, "", now)
		require.NoError(t, err)
		assert.True(t, change.Applied)
		assert.Equal(t, PaymentPaid, o.PaymentStatus)
	})

	t.Run("paid after cancel flags refund", func(t *testing.T) {
		o := newTestOrder(StatusCancelled, PaymentPending)

		change, err := o.ApplyPayment(PaymentPaid, "14012345", now)
		require.NoError(t, err)

		assert.True(t, change.RefundRequired)
		assert.True(t, o.RefundRequired)
		assert.Equal(t, StatusCancelled, o.Status)
		require.Len(t, change.Entries, 2)
		assert.Equal(t, EventRefundRequired, change.Entries[1].Event)
	})

	t.Run("pending is not an outcome", func(t *testing.T) {
		o := newTestOrder(StatusProcessing, PaymentFailed)

		_, err := o.ApplyPayment(PaymentPending, "", now)
		assert.ErrorIs(t, err, ErrInvalidPaymentOutcome)
	})
}

func TestOrder_BookIDs(t *testing.T) {
	o := newTestOrder(StatusProcessing, PaymentPending)
	assert.Equal(t, []int64{2, 7}, o.BookIDs())
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(1800), ToMinorUnits(decimal.RequireFromString("18.00")))
	assert.Equal(t, int64(1999), ToMinorUnits(decimal.RequireFromString("19.99")))
	assert.Equal(t, int64(1), ToMinorUnits(decimal.RequireFromString("0.005")))
}

func TestNewOrderNumber(t *testing.T) {
	now := time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC)

	n := NewOrderNumber(now)
	assert.Regexp(t, `^BK20260309[0-9A-F]{8}$`, n)
	assert.NotEqual(t, n, NewOrderNumber(now))
}

func TestActor_CanManage(t *testing.T) {
	o := newTestOrder(StatusProcessing, PaymentPending)

	assert.True(t, Actor{UserID: o.UserID}.CanManage(o))
	assert.False(t, Actor{UserID: uuid.New()}.CanManage(o))
	assert.True(t, Actor{UserID: uuid.New(), Admin: true}.CanManage(o))
	assert.True(t, SystemActor().CanManage(o))
}
