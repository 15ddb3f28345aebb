package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderModel "bookstore-ecommerce/internal/domains/order/model"
	otpModel "bookstore-ecommerce/internal/domains/otp/model"
)

type recordingEnqueuer struct {
	tasks []*asynq.Task
	seen  map[string]bool
}

func (r *recordingEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	for _, o := range opts {
		if o.Type() == asynq.TaskIDOpt {
			id := o.Value().(string)
			if r.seen[id] {
				return nil, asynq.ErrTaskIDConflict
			}
			r.seen[id] = true
		}
	}
	r.tasks = append(r.tasks, task)
	return &asynq.TaskInfo{ID: uuid.NewString(), Queue: QueueDefault}, nil
}

func newRecorder() *recordingEnqueuer {
	return &recordingEnqueuer{seen: map[string]bool{}}
}

func TestDispatcher_SendOTP(t *testing.T) {
	rec := newRecorder()
	d := NewDispatcher(rec)

	err := d.SendOTP(context.Background(), "reader@example.com", otpModel.PurposeRegister, "123456", 5*time.Minute)
	require.NoError(t, err)
	require.Len(t, rec.tasks, 1)
	assert.Equal(t, TypeSendOTPEmail, rec.tasks[0].Type())

	var p OTPEmailPayload
	require.NoError(t, json.Unmarshal(rec.tasks[0].Payload(), &p))
	assert.Equal(t, "123456", p.Code)
	assert.Equal(t, "register", p.Purpose)
	assert.Equal(t, 5*time.Minute, p.ExpiresIn)
}

func TestDispatcher_PublishOnlyRefundRequired(t *testing.T) {
	rec := newRecorder()
	d := NewDispatcher(rec)

	ref := "14012345"
	order := &orderModel.Order{
		ID:            uuid.New(),
		Number:        "ORD-20260101-ABC123",
		Total:         decimal.RequireFromString("18"),
		GatewayTxnRef: &ref,
	}
	now := time.Now()
	refund := orderModel.NewEvent(orderModel.EventTypeRefundRequired, order, now)

	err := d.Publish(context.Background(),
		orderModel.NewEvent(orderModel.EventTypeOrderCancelled, order, now),
		refund,
	)
	require.NoError(t, err)
	require.Len(t, rec.tasks, 1)
	assert.Equal(t, TypeSendRefundNotice, rec.tasks[0].Type())

	var p RefundNoticePayload
	require.NoError(t, json.Unmarshal(rec.tasks[0].Payload(), &p))
	assert.Equal(t, "18.00", p.Total)
	assert.Equal(t, ref, p.GatewayTxnRef)

	// publish lại cùng event: không lỗi, không thêm task
	require.NoError(t, d.Publish(context.Background(), refund))
	assert.Len(t, rec.tasks, 1)
}

func TestHumanDuration(t *testing.T) {
	assert.Equal(t, "5 phút", humanDuration(5*time.Minute))
	assert.Equal(t, "1m30s", humanDuration(90*time.Second))
	assert.Equal(t, "vài phút", humanDuration(0))
}
