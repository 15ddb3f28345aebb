package queue

import "time"

// Task types
const (
	TypeSendOTPEmail       = "email:send_otp"
	TypeSendRefundNotice   = "order:refund_notice"
	TypeExpireUnpaidOrders = "order:expire_unpaid"
	TypeCleanupSessions    = "session:cleanup_expired"
)

// Queue names, priority theo thứ tự giảm dần
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// Queues dùng cho asynq.Config
var Queues = map[string]int{
	QueueCritical: 6,
	QueueDefault:  3,
	QueueLow:      1,
}

type OTPEmailPayload struct {
	Email     string        `json:"email"`
	Purpose   string        `json:"purpose"`
	Code      string        `json:"code"`
	ExpiresIn time.Duration `json:"expires_in"`
}

type RefundNoticePayload struct {
	EventID       string `json:"event_id"`
	OrderID       string `json:"order_id"`
	OrderNumber   string `json:"order_number"`
	Total         string `json:"total"`
	GatewayTxnRef string `json:"gateway_txn_ref"`
}

type ExpireUnpaidPayload struct {
	Batch int `json:"batch"`
}

type CleanupSessionsPayload struct{}
