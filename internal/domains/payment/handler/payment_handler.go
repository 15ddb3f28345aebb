package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	orderModel "bookstore-ecommerce/internal/domains/order/model"
	"bookstore-ecommerce/internal/domains/payment/gateway/vnpay"
	"bookstore-ecommerce/internal/domains/payment/model"
	"bookstore-ecommerce/internal/domains/payment/service"
	"bookstore-ecommerce/internal/shared/middleware"
	"bookstore-ecommerce/internal/shared/response"
	"bookstore-ecommerce/pkg/logger"
)

type PaymentHandler struct {
	paymentService service.Service
}

func NewPaymentHandler(paymentService service.Service) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// InitiatePayment POST /orders/:id/payment
func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid order id")
		return
	}

	actor := orderModel.Actor{UserID: userID, Admin: middleware.IsAdmin(c)}
	result, err := h.paymentService.InitiatePayment(c.Request.Context(), orderID, actor, c.GetString("client_ip"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// VNPayIPN GET /payments/vnpay/ipn
// VNPay expects HTTP 200 with {RspCode, Message} regardless of the outcome
func (h *PaymentHandler) VNPayIPN(c *gin.Context) {
	params := vnpay.FromValues(c.Request.URL.Query())
	reply := h.paymentService.HandleIPN(c.Request.Context(), params)
	c.JSON(http.StatusOK, reply)
}

// VNPayReturn GET /payments/vnpay/return
func (h *PaymentHandler) VNPayReturn(c *gin.Context) {
	params := vnpay.FromValues(c.Request.URL.Query())
	result := h.paymentService.VerifyReturn(c.Request.Context(), params)
	if !result.Valid {
		response.ErrorResponse(c, http.StatusBadRequest, model.ErrCodeInvalidSignature, result.Message)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// ListCallbacks GET /admin/payments/callbacks?txn_ref=
func (h *PaymentHandler) ListCallbacks(c *gin.Context) {
	txnRef := c.Query("txn_ref")
	if txnRef == "" {
		response.BadRequest(c, "txn_ref is required")
		return
	}
	logs, err := h.paymentService.CallbackLogs(c.Request.Context(), txnRef)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, logs)
}

func (h *PaymentHandler) handleError(c *gin.Context, err error) {
	var payErr *model.PaymentError
	if errors.As(err, &payErr) {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, model.ErrNotPayable) {
			status = http.StatusConflict
		}
		response.ErrorResponse(c, status, payErr.Code, payErr.Message)
		return
	}
	if errors.Is(err, orderModel.ErrOrderNotFound) {
		response.ErrorResponse(c, http.StatusNotFound, orderModel.ErrCodeOrderNotFound, "order not found")
		return
	}

	logger.Error("payment handler error", err)
	response.InternalServerError(c, "internal error")
}
