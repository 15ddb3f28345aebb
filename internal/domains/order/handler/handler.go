package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"bookstore-ecommerce/internal/domains/order/model"
	"bookstore-ecommerce/internal/domains/order/service"
	promoModel "bookstore-ecommerce/internal/domains/promotion/model"
	"bookstore-ecommerce/internal/shared/middleware"
	"bookstore-ecommerce/internal/shared/response"
	"bookstore-ecommerce/pkg/logger"
)

// PaymentLinker builds the gateway redirect for a freshly created online order
type PaymentLinker interface {
	PaymentURL(ctx context.Context, o *model.Order, clientIP string) (string, error)
}

type OrderHandler struct {
	orderService service.OrderService
	payments     PaymentLinker
}

func NewOrderHandler(orderService service.OrderService, payments PaymentLinker) *OrderHandler {
	return &OrderHandler{orderService: orderService, payments: payments}
}

// =====================================================
// CUSTOMER ENDPOINTS
// =====================================================

// CreateOrder POST /orders
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req model.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.handleError(c, err)
		return
	}

	resp := model.CreateOrderResponse{Order: order}
	if order.PaymentMethod.IsOnline() && h.payments != nil {
		url, err := h.payments.PaymentURL(c.Request.Context(), order, c.GetString("client_ip"))
		if err != nil {
			// Đơn đã tạo; client có thể gọi POST /orders/:id/payment để lấy lại URL
			logger.ErrorWithFields("Failed to build payment url", err, map[string]interface{}{"order_id": order.ID})
		}
		resp.PaymentURL = url
	}
	response.Success(c, http.StatusCreated, resp)
}

// ListOrders GET /orders
func (h *OrderHandler) ListOrders(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req model.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters")
		return
	}
	req.UserID = &userID

	h.list(c, req)
}

// GetOrder GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, actor, ok := h.orderAndActor(c)
	if !ok {
		return
	}

	order, err := h.orderService.Get(c.Request.Context(), orderID, actor)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, order)
}

// GetHistory GET /orders/:id/history
func (h *OrderHandler) GetHistory(c *gin.Context) {
	orderID, actor, ok := h.orderAndActor(c)
	if !ok {
		return
	}

	history, err := h.orderService.History(c.Request.Context(), orderID, actor)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, history)
}

// CancelOrder PATCH /orders/:id/cancel
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	orderID, actor, ok := h.orderAndActor(c)
	if !ok {
		return
	}

	var req model.CancelOrderRequest
	// body là optional
	_ = c.ShouldBindJSON(&req)
	if err := req.Validate(); err != nil {
		response.ValidationFailed(c, err)
		return
	}

	order, err := h.orderService.Cancel(c.Request.Context(), orderID, actor, req.Reason)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, order)
}

// =====================================================
// ADMIN ENDPOINTS
// =====================================================

// ListAllOrders GET /admin/orders
func (h *OrderHandler) ListAllOrders(c *gin.Context) {
	var req model.ListOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters")
		return
	}
	h.list(c, req)
}

// UpdateOrderStatus PATCH /admin/orders/:id/status
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	orderID, actor, ok := h.orderAndActor(c)
	if !ok {
		return
	}

	var req model.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), orderID, actor, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, order)
}

// =====================================================
// HELPERS
// =====================================================

func (h *OrderHandler) list(c *gin.Context, req model.ListOrdersRequest) {
	if req.Status != "" && !req.Status.IsValid() {
		response.BadRequest(c, "invalid status filter")
		return
	}

	result, err := h.orderService.List(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, result.Orders, &response.Meta{
		Page: result.Page, Limit: result.Limit, Total: result.Total,
	})
}

func (h *OrderHandler) orderAndActor(c *gin.Context) (uuid.UUID, model.Actor, bool) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return uuid.Nil, model.Actor{}, false
	}
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid order id")
		return uuid.Nil, model.Actor{}, false
	}
	return orderID, model.Actor{UserID: userID, Admin: middleware.IsAdmin(c)}, true
}

var orderErrorStatus = map[string]int{
	model.ErrCodeOrderNotFound:        http.StatusNotFound,
	model.ErrCodeInvalidTransition:    http.StatusConflict,
	model.ErrCodeInsufficientStock:    http.StatusConflict,
	model.ErrCodeCartChanged:          http.StatusConflict,
	model.ErrCodeBookUnavailable:      http.StatusConflict,
	model.ErrCodeCartEmpty:            http.StatusBadRequest,
	model.ErrCodeInvalidPaymentMethod: http.StatusBadRequest,
	model.ErrCodeForbidden:            http.StatusForbidden,
	model.ErrCodePaymentNotAllowed:    http.StatusConflict,
}

func (h *OrderHandler) handleError(c *gin.Context, err error) {
	var orderErr *model.OrderError
	if errors.As(err, &orderErr) {
		status, ok := orderErrorStatus[orderErr.Code]
		if !ok {
			status = http.StatusBadRequest
		}
		response.ErrorWithDetails(c, status, orderErr.Code, orderErr.Error(), orderErr.Details)
		return
	}

	if errors.Is(err, model.ErrOrderNotFound) {
		response.ErrorResponse(c, http.StatusNotFound, model.ErrCodeOrderNotFound, "order not found")
		return
	}

	var promoErr *promoModel.AppError
	if errors.As(err, &promoErr) {
		response.ErrorWithDetails(c, promoErr.HTTPStatus, string(promoErr.Code), promoErr.Message, promoErr.Details)
		return
	}

	var vErrs validation.Errors
	if errors.As(err, &vErrs) {
		response.ValidationFailed(c, vErrs)
		return
	}

	logger.Error("order handler error", err)
	response.InternalServerError(c, "internal error")
}
