package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	orderService "bookstore-ecommerce/internal/domains/order/service"
	sessionService "bookstore-ecommerce/internal/domains/session/service"
	"bookstore-ecommerce/internal/infrastructure/email"
)

// ============================================
// OTP Email Handler
// ============================================

func OTPEmailHandler(emailSvc email.EmailService) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var p OTPEmailPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry) // Sai format payload, skip retry
		}

		err := emailSvc.SendOTPEmail(ctx, email.OTPEmailData{
			Email:     p.Email,
			Purpose:   p.Purpose,
			Code:      p.Code,
			ExpiresIn: humanDuration(p.ExpiresIn),
		})
		if err != nil {
			return err // Lỗi mạng, SMTP, retry lại
		}

		log.Info().Str("email", p.Email).Str("purpose", p.Purpose).Msg("OTP email sent")
		return nil
	}
}

// ============================================
// Refund Notice Handler
// ============================================

func RefundNoticeHandler(emailSvc email.EmailService, opsEmail string) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var p RefundNoticePayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
		}

		err := emailSvc.SendRefundNotice(ctx, opsEmail, email.RefundNoticeData{
			OrderNumber:   p.OrderNumber,
			Total:         p.Total,
			GatewayTxnRef: p.GatewayTxnRef,
			Reason:        "order cancelled after payment",
		})
		if err != nil {
			return err
		}

		log.Warn().
			Str("order_number", p.OrderNumber).
			Str("gateway_txn_ref", p.GatewayTxnRef).
			Msg("Refund notice sent to operations")
		return nil
	}
}

// ============================================
// Maintenance Handlers
// ============================================

// ExpireUnpaidOrdersHandler huỷ đơn VNPay quá timeout và trả stock
func ExpireUnpaidOrdersHandler(orders orderService.OrderService, timeout time.Duration) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		p := ExpireUnpaidPayload{Batch: 100}
		if len(t.Payload()) > 0 {
			if err := json.Unmarshal(t.Payload(), &p); err != nil {
				return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
			}
		}
		if p.Batch <= 0 {
			p.Batch = 100
		}

		n, err := orders.ExpireUnpaid(ctx, timeout, p.Batch)
		if err != nil {
			return fmt.Errorf("expire unpaid orders: %w", err)
		}
		if n > 0 {
			log.Info().Int("cancelled", n).Dur("timeout", timeout).Msg("Expired unpaid orders")
		}
		return nil
	}
}

func CleanupSessionsHandler(sessions sessionService.Service) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		n, err := sessions.CleanupExpired(ctx)
		if err != nil {
			return fmt.Errorf("cleanup sessions: %w", err)
		}
		log.Info().Int64("deleted", n).Msg("Expired sessions cleaned up")
		return nil
	}
}

func humanDuration(d time.Duration) string {
	if d <= 0 {
		return "vài phút"
	}
	if d%time.Minute == 0 {
		return fmt.Sprintf("%d phút", int(d/time.Minute))
	}
	return d.String()
}

// Register gắn mọi handler vào mux
func Register(mux *asynq.ServeMux, emailSvc email.EmailService, opsEmail string,
	orders orderService.OrderService, unpaidTimeout time.Duration, sessions sessionService.Service) {
	mux.HandleFunc(TypeSendOTPEmail, OTPEmailHandler(emailSvc))
	mux.HandleFunc(TypeSendRefundNotice, RefundNoticeHandler(emailSvc, opsEmail))
	mux.HandleFunc(TypeExpireUnpaidOrders, ExpireUnpaidOrdersHandler(orders, unpaidTimeout))
	mux.HandleFunc(TypeCleanupSessions, CleanupSessionsHandler(sessions))
}
