package email

// internal/infrastructure/email/smtp_service.go
import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"bookstore-ecommerce/pkg/logger"
)

type EmailService interface {
	SendOTPEmail(ctx context.Context, data OTPEmailData) error
	SendRefundNotice(ctx context.Context, to string, data RefundNoticeData) error
}

// sendFunc = smtp.SendMail; tách ra để test không cần SMTP server
type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type smtpEmailService struct {
	smtpAddr string
	smtpFrom string
	send     sendFunc
}

func NewSMTPEmailService(smtpHost string, smtpPort int, from string) EmailService {
	return &smtpEmailService{
		smtpAddr: fmt.Sprintf("%s:%d", smtpHost, smtpPort),
		smtpFrom: from,
		send:     smtp.SendMail,
	}
}

var otpSubjects = map[string]string{
	"register":       "Mã xác thực đăng ký tài khoản Bookstore",
	"reset_password": "Mã xác thực đặt lại mật khẩu Bookstore",
}

func (s *smtpEmailService) SendOTPEmail(ctx context.Context, data OTPEmailData) error {
	subject, ok := otpSubjects[data.Purpose]
	if !ok {
		subject = "Mã xác thực Bookstore"
	}
	body := fmt.Sprintf(`Chào bạn,

	Mã xác thực của bạn là: %s

	Mã có hiệu lực %s và chỉ dùng được một lần.

	Nếu bạn không yêu cầu mã này, vui lòng bỏ qua email này.`, data.Code, data.ExpiresIn)

	return s.deliver(Message{To: []string{data.Email}, Subject: subject, Body: body})
}

func (s *smtpEmailService) SendRefundNotice(ctx context.Context, to string, data RefundNoticeData) error {
	subject := fmt.Sprintf("[Refund] Đơn %s cần hoàn tiền", data.OrderNumber)
	body := fmt.Sprintf(`Đơn hàng %s đã thanh toán nhưng bị huỷ.

	Số tiền: %s
	Mã giao dịch VNPay: %s
	Lý do: %s

	Vui lòng hoàn tiền thủ công trên cổng thanh toán.`, data.OrderNumber, data.Total, data.GatewayTxnRef, data.Reason)

	return s.deliver(Message{To: []string{to}, Subject: subject, Body: body})
}

func (s *smtpEmailService) deliver(m Message) error {
	msg := []byte(fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		s.smtpFrom, strings.Join(m.To, ", "), m.Subject, m.Body))

	// Gửi email qua SMTP
	if err := s.send(s.smtpAddr, nil, s.smtpFrom, m.To, msg); err != nil {
		logger.Info("Failed to send email", map[string]interface{}{
			"error":     err.Error(),
			"to":        m.To,
			"smtp_addr": s.smtpAddr,
		})
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
