package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	orderModel "bookstore-ecommerce/internal/domains/order/model"
	orderService "bookstore-ecommerce/internal/domains/order/service"
	"bookstore-ecommerce/internal/domains/payment/gateway/vnpay"
	"bookstore-ecommerce/internal/domains/payment/model"
	"bookstore-ecommerce/internal/domains/payment/repository"
	"bookstore-ecommerce/pkg/logger"
	"bookstore-ecommerce/pkg/metrics"
	"bookstore-ecommerce/pkg/tracing"
)

// =====================================================
// PAYMENT SERVICE INTERFACE
// =====================================================
type Service interface {
	// PaymentURL builds the VNPay redirect for an order already known to be payable
	PaymentURL(ctx context.Context, o *orderModel.Order, clientIP string) (string, error)

	// InitiatePayment POST /orders/:id/payment
	InitiatePayment(ctx context.Context, orderID uuid.UUID, actor orderModel.Actor, clientIP string) (*model.InitiatePaymentResponse, error)

	// HandleCallback verifies and applies a gateway notification
	HandleCallback(ctx context.Context, params map[string]string) (*CallbackResult, error)

	// HandleIPN wraps HandleCallback and maps the outcome to VNPay's reply codes
	HandleIPN(ctx context.Context, params map[string]string) vnpay.IPNResponse

	// VerifyReturn checks the browser redirect without touching order state
	VerifyReturn(ctx context.Context, params map[string]string) *model.ReturnResult

	// CallbackLogs (admin) lists every callback received for an order number
	CallbackLogs(ctx context.Context, txnRef string) ([]model.CallbackLog, error)
}

type CallbackResult struct {
	Order   *orderModel.Order
	Outcome model.CallbackOutcome
	Applied bool
}

type paymentService struct {
	client *vnpay.Client
	orders orderService.OrderService
	logs   repository.CallbackLogRepository
	now    func() time.Time
}

func NewPaymentService(client *vnpay.Client, orders orderService.OrderService, logs repository.CallbackLogRepository) Service {
	return &paymentService{client: client, orders: orders, logs: logs, now: time.Now}
}

// =====================================================
// OUTBOUND
// =====================================================
func (s *paymentService) PaymentURL(ctx context.Context, o *orderModel.Order, clientIP string) (string, error) {
	url, err := s.client.BuildPaymentURL(vnpay.PaymentRequest{
		TxnRef:      o.Number,
		AmountMinor: o.MinorUnits(),
		OrderInfo:   fmt.Sprintf("Thanh toan don hang %s", o.Number),
		ClientIP:    clientIP,
	})
	if err != nil {
		return "", err
	}
	metrics.PaymentURLsIssued.Inc()
	return url, nil
}

func (s *paymentService) InitiatePayment(ctx context.Context, orderID uuid.UUID, actor orderModel.Actor, clientIP string) (*model.InitiatePaymentResponse, error) {
	o, err := s.orders.Get(ctx, orderID, actor)
	if err != nil {
		return nil, err
	}

	if o.PaymentMethod != orderModel.PaymentMethodVNPay ||
		o.Status != orderModel.StatusProcessing ||
		o.PaymentStatus == orderModel.PaymentPaid {
		return nil, model.NewPaymentError(model.ErrCodeNotPayable, model.ErrNotPayable)
	}

	url, err := s.PaymentURL(ctx, o, clientIP)
	if err != nil {
		return nil, err
	}
	return &model.InitiatePaymentResponse{OrderID: o.ID, OrderNumber: o.Number, PaymentURL: url}, nil
}

// =====================================================
// INBOUND
// =====================================================
func (s *paymentService) HandleCallback(ctx context.Context, params map[string]string) (res *CallbackResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "PaymentService.HandleCallback",
		attribute.String("txn_ref", params["vnp_TxnRef"]),
	)
	defer func() { tracing.EndSpan(span, err) }()

	entry := &model.CallbackLog{
		ID:           uuid.New(),
		Gateway:      model.GatewayVNPay,
		TxnRef:       params["vnp_TxnRef"],
		RawQuery:     vnpay.EncodeParams(params),
		ResponseCode: params["vnp_ResponseCode"],
		ReceivedAt:   s.now(),
	}
	defer func() {
		s.record(ctx, entry)
	}()

	// STEP 1: chữ ký sai → từ chối, không đụng tới order
	if !s.client.Verify(params) {
		entry.Outcome = model.OutcomeInvalidSignature
		logger.Warn("VNPay callback with invalid signature", map[string]interface{}{
			"txn_ref": entry.TxnRef,
		})
		return nil, model.NewPaymentError(model.ErrCodeInvalidSignature, model.ErrInvalidSignature)
	}
	entry.SignatureValid = true

	cb, err := vnpay.ParseCallback(params)
	if err != nil {
		entry.Outcome = model.OutcomeMalformed
		return nil, model.NewPaymentError(model.ErrCodeMalformedCallback, fmt.Errorf("%w: %v", model.ErrMalformedCallback, err))
	}

	if cb.TmnCode != s.client.TmnCode() {
		entry.Outcome = model.OutcomeInvalidMerchant
		return nil, model.NewPaymentError(model.ErrCodeInvalidMerchant, model.ErrInvalidMerchant)
	}

	// STEP 2: order phải tồn tại và số tiền phải khớp
	o, err := s.orders.GetByNumber(ctx, cb.TxnRef)
	if err != nil {
		if errors.Is(err, orderModel.ErrOrderNotFound) {
			entry.Outcome = model.OutcomeOrderNotFound
		} else {
			entry.Outcome = model.OutcomeError
		}
		return nil, err
	}

	if cb.AmountMinor != o.MinorUnits() {
		entry.Outcome = model.OutcomeAmountMismatch
		logger.Warn("VNPay callback amount mismatch", map[string]interface{}{
			"order_id": o.ID,
			"expected": o.MinorUnits(),
			"received": cb.AmountMinor,
		})
		return nil, model.NewPaymentError(model.ErrCodeAmountMismatch, model.ErrAmountMismatch)
	}

	// STEP 3: áp dụng kết quả (idempotent)
	outcome := orderModel.PaymentFailed
	if cb.Succeeded() {
		outcome = orderModel.PaymentPaid
	}

	update, err := s.orders.UpdatePayment(ctx, o.ID, outcome, cb.TransactionNo)
	if err != nil {
		entry.Outcome = model.OutcomeError
		return nil, err
	}

	switch {
	case !update.Applied:
		entry.Outcome = model.OutcomeDuplicate
	case outcome == orderModel.PaymentPaid:
		entry.Outcome = model.OutcomePaid
	default:
		entry.Outcome = model.OutcomeFailed
	}

	logger.Info("VNPay callback processed", map[string]interface{}{
		"order_id":        o.ID,
		"response_code":   cb.ResponseCode,
		"outcome":         entry.Outcome,
		"refund_required": update.RefundRequired,
	})
	return &CallbackResult{Order: update.Order, Outcome: entry.Outcome, Applied: update.Applied}, nil
}

func (s *paymentService) HandleIPN(ctx context.Context, params map[string]string) vnpay.IPNResponse {
	res, err := s.HandleCallback(ctx, params)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidSignature):
			return vnpay.IPNInvalidSignature
		case errors.Is(err, orderModel.ErrOrderNotFound):
			return vnpay.IPNOrderNotFound
		case errors.Is(err, model.ErrAmountMismatch):
			return vnpay.IPNInvalidAmount
		}
		logger.Error("VNPay IPN failed", err)
		return vnpay.IPNUnknownError
	}
	if !res.Applied {
		return vnpay.IPNAlreadyConfirmed
	}
	return vnpay.IPNConfirmed
}

func (s *paymentService) VerifyReturn(ctx context.Context, params map[string]string) *model.ReturnResult {
	result := &model.ReturnResult{
		OrderNumber:  params["vnp_TxnRef"],
		ResponseCode: params["vnp_ResponseCode"],
	}
	if !s.client.Verify(params) {
		result.Message = model.ErrInvalidSignature.Error()
		return result
	}

	result.Valid = true
	cb, err := vnpay.ParseCallback(params)
	if err != nil {
		result.Message = err.Error()
		return result
	}
	result.Success = cb.Succeeded()
	result.Message = vnpay.ResponseMessage(cb.ResponseCode)
	return result
}

func (s *paymentService) CallbackLogs(ctx context.Context, txnRef string) ([]model.CallbackLog, error) {
	return s.logs.ListByTxnRef(ctx, txnRef)
}

// record: callback log không được làm hỏng việc xử lý callback
func (s *paymentService) record(ctx context.Context, entry *model.CallbackLog) {
	if entry.Outcome == "" {
		entry.Outcome = model.OutcomeError
	}
	metrics.PaymentCallbacksTotal.WithLabelValues(entry.Gateway, string(entry.Outcome)).Inc()
	if err := s.logs.Insert(ctx, entry); err != nil {
		logger.ErrorWithFields("Failed to write callback log", err, map[string]interface{}{"txn_ref": entry.TxnRef})
	}
}
