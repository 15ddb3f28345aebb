package email

import (
	"context"
	"fmt"
	"time"

	otpModel "bookstore-ecommerce/internal/domains/otp/model"
)

// OTPMailer gửi OTP trực tiếp qua SMTP, không qua queue.
// Dùng khi chạy memory mode (không có Redis/asynq worker).
type OTPMailer struct {
	emailService EmailService
}

func NewOTPMailer(emailService EmailService) *OTPMailer {
	return &OTPMailer{emailService: emailService}
}

func (m *OTPMailer) SendOTP(ctx context.Context, email string, purpose otpModel.Purpose, code string, ttl time.Duration) error {
	return m.emailService.SendOTPEmail(ctx, OTPEmailData{
		Email:     email,
		Purpose:   string(purpose),
		Code:      code,
		ExpiresIn: fmt.Sprintf("%d phút", int(ttl.Minutes())),
	})
}
