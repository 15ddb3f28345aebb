package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

const GatewayVNPay = "vnpay"

// CallbackOutcome là kết quả xử lý một callback, lưu vào callback log
type CallbackOutcome string

const (
	OutcomePaid             CallbackOutcome = "paid"
	OutcomeFailed           CallbackOutcome = "failed"
	OutcomeDuplicate        CallbackOutcome = "duplicate"
	OutcomeInvalidSignature CallbackOutcome = "invalid_signature"
	OutcomeInvalidMerchant  CallbackOutcome = "invalid_merchant"
	OutcomeOrderNotFound    CallbackOutcome = "order_not_found"
	OutcomeAmountMismatch   CallbackOutcome = "amount_mismatch"
	OutcomeMalformed        CallbackOutcome = "malformed"
	OutcomeError            CallbackOutcome = "error"
)

// CallbackLog records every callback received, valid or not
type CallbackLog struct {
	ID             uuid.UUID       `json:"id"`
	Gateway        string          `json:"gateway"`
	TxnRef         string          `json:"txn_ref"`
	RawQuery       string          `json:"raw_query"`
	SignatureValid bool            `json:"signature_valid"`
	Outcome        CallbackOutcome `json:"outcome"`
	ResponseCode   string          `json:"response_code"`
	ReceivedAt     time.Time       `json:"received_at"`
}

// =====================================================
// ERRORS
// =====================================================
const (
	ErrCodeInvalidSignature  = "PAY012"
	ErrCodeAmountMismatch    = "PAY004"
	ErrCodeInvalidMerchant   = "PAY005"
	ErrCodeOrderNotFound     = "PAY001"
	ErrCodeNotPayable        = "PAY002"
	ErrCodeMalformedCallback = "PAY014"
)

var (
	ErrInvalidSignature  = errors.New("invalid gateway signature")
	ErrAmountMismatch    = errors.New("callback amount does not match order total")
	ErrInvalidMerchant   = errors.New("callback merchant code does not match")
	ErrNotPayable        = errors.New("order cannot be paid online")
	ErrMalformedCallback = errors.New("malformed callback")
)

// PaymentError wraps a sentinel with an API code
type PaymentError struct {
	Code    string
	Message string
	Err     error
}

func (e *PaymentError) Error() string {
	return e.Message
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

func NewPaymentError(code string, err error) *PaymentError {
	return &PaymentError{Code: code, Message: err.Error(), Err: err}
}

// =====================================================
// RESPONSES
// =====================================================

type InitiatePaymentResponse struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	PaymentURL  string    `json:"payment_url"`
}

// ReturnResult is shown to the browser after the gateway redirect; it never changes state
type ReturnResult struct {
	Valid        bool   `json:"valid"`
	Success      bool   `json:"success"`
	OrderNumber  string `json:"order_number"`
	ResponseCode string `json:"response_code"`
	Message      string `json:"message"`
}
