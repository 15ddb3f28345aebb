package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	orderModel "bookstore-ecommerce/internal/domains/order/model"
	otpModel "bookstore-ecommerce/internal/domains/otp/model"
	"bookstore-ecommerce/pkg/logger"
)

// Enqueuer là phần của *asynq.Client mà Dispatcher cần
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Dispatcher đẩy việc chậm (SMTP, thông báo refund) ra worker.
// Nó vừa là otp Sender vừa là order EventPublisher.
type Dispatcher struct {
	client Enqueuer
}

func NewDispatcher(client Enqueuer) *Dispatcher {
	return &Dispatcher{client: client}
}

func (d *Dispatcher) enqueue(ctx context.Context, taskType string, payload interface{}, opts ...asynq.Option) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", taskType, err)
	}
	info, err := d.client.EnqueueContext(ctx, asynq.NewTask(taskType, raw), opts...)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	logger.Debug("Task enqueued", map[string]interface{}{
		"type":  taskType,
		"id":    info.ID,
		"queue": info.Queue,
	})
	return nil
}

// SendOTP: code hết hạn sau ttl nên task cũng không được chạy sau đó
func (d *Dispatcher) SendOTP(ctx context.Context, email string, purpose otpModel.Purpose, code string, ttl time.Duration) error {
	return d.enqueue(ctx, TypeSendOTPEmail, OTPEmailPayload{
		Email:     email,
		Purpose:   string(purpose),
		Code:      code,
		ExpiresIn: ttl,
	},
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(3),
		asynq.Deadline(time.Now().Add(ttl)),
	)
}

// Publish chỉ quan tâm refund_required; các event khác đã có Kafka
func (d *Dispatcher) Publish(ctx context.Context, events ...orderModel.Event) error {
	for _, e := range events {
		if e.Type != orderModel.EventTypeRefundRequired {
			continue
		}
		err := d.enqueue(ctx, TypeSendRefundNotice, RefundNoticePayload{
			EventID:       e.ID,
			OrderID:       e.OrderID.String(),
			OrderNumber:   e.OrderNumber,
			Total:         e.Total.StringFixed(2),
			GatewayTxnRef: e.GatewayTxnRef,
		},
			asynq.Queue(QueueDefault),
			asynq.MaxRetry(10),
			// cùng event chỉ gửi một lần dù Publish bị gọi lại
			asynq.TaskID("refund:"+e.ID),
		)
		if err != nil && !isDuplicate(err) {
			return err
		}
	}
	return nil
}

func isDuplicate(err error) bool {
	return errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask)
}
