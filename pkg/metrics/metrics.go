package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookstore_orders_created_total",
		Help: "Total number of orders created",
	}, []string{"payment_method"})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookstore_orders_failed_total",
		Help: "Total number of rejected order attempts",
	}, []string{"reason"})

	OrdersCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookstore_orders_cancelled_total",
		Help: "Total number of cancelled orders",
	})

	OrderStatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookstore_order_status_transitions_total",
		Help: "Order status transitions",
	}, []string{"from", "to"})

	RefundsRequiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookstore_refunds_required_total",
		Help: "Paid orders cancelled and waiting for a refund",
	})

	OrderCreateLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bookstore_order_create_latency_seconds",
		Help:    "Latency of the order creation transaction",
		Buckets: prometheus.DefBuckets,
	})

	PaymentCallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookstore_payment_callbacks_total",
		Help: "Gateway callbacks by outcome",
	}, []string{"gateway", "outcome"})

	PaymentURLsIssued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bookstore_payment_urls_issued_total",
		Help: "Signed payment initiation URLs issued",
	})

	OTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookstore_otp_requests_total",
		Help: "OTP requests by purpose and result",
	}, []string{"purpose", "result"})

	OTPVerificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookstore_otp_verifications_total",
		Help: "OTP verifications by purpose and result",
	}, []string{"purpose", "result"})

	SessionRotationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookstore_session_rotations_total",
		Help: "Refresh token rotations by result",
	}, []string{"result"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	WorkerTaskFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookstore_worker_task_failures_total",
		Help: "Background task failures by task type",
	}, []string{"task"})
)
