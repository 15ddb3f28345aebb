package email

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captured struct {
	addr string
	from string
	to   []string
	msg  string
}

func newTestService(c *captured, err error) *smtpEmailService {
	return &smtpEmailService{
		smtpAddr: "localhost:1025",
		smtpFrom: "noreply@bookstore.local",
		send: func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			c.addr, c.from, c.to, c.msg = addr, from, to, string(msg)
			return err
		},
	}
}

func TestSendOTPEmail(t *testing.T) {
	var c captured
	svc := newTestService(&c, nil)

	err := svc.SendOTPEmail(context.Background(), OTPEmailData{
		Email: "reader@example.com", Purpose: "register", Code: "482913", ExpiresIn: "5 phút",
	})
	require.NoError(t, err)

	assert.Equal(t, "localhost:1025", c.addr)
	assert.Equal(t, []string{"reader@example.com"}, c.to)
	assert.Contains(t, c.msg, "482913")
	assert.Contains(t, c.msg, "Subject: Mã xác thực đăng ký tài khoản Bookstore")
}

func TestSendRefundNotice(t *testing.T) {
	var c captured
	svc := newTestService(&c, nil)

	err := svc.SendRefundNotice(context.Background(), "ops@bookstore.local", RefundNoticeData{
		OrderNumber: "ORD-20260101-ABC123", Total: "18.00", GatewayTxnRef: "14012345", Reason: "customer request",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"ops@bookstore.local"}, c.to)
	assert.Contains(t, c.msg, "ORD-20260101-ABC123")
	assert.Contains(t, c.msg, "14012345")
}

func TestSendOTPEmail_SMTPFailure(t *testing.T) {
	var c captured
	svc := newTestService(&c, errors.New("connection refused"))

	err := svc.SendOTPEmail(context.Background(), OTPEmailData{Email: "a@b.c", Purpose: "register", Code: "1"})
	assert.ErrorContains(t, err, "connection refused")
}
