package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"bookstore-ecommerce/internal/domains/cart/model"
	"bookstore-ecommerce/internal/domains/cart/service"
	catalogModel "bookstore-ecommerce/internal/domains/catalog/model"
	"bookstore-ecommerce/internal/shared/middleware"
	"bookstore-ecommerce/internal/shared/response"
	"bookstore-ecommerce/pkg/logger"
)

type CartHandler struct {
	service service.Service
}

func NewCartHandler(s service.Service) *CartHandler {
	return &CartHandler{service: s}
}

// Reconcile POST /cart/reconcile (anonymous allowed)
func (h *CartHandler) Reconcile(c *gin.Context) {
	var req model.ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	result, err := h.service.Reconcile(c.Request.Context(), req.Items)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// GetCart GET /cart
func (h *CartHandler) GetCart(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.GetCart(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// SetItem PUT /cart/items/:bookId
func (h *CartHandler) SetItem(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}
	bookID, err := strconv.ParseInt(c.Param("bookId"), 10, 64)
	if err != nil || bookID <= 0 {
		response.BadRequest(c, "invalid book id")
		return
	}

	var req model.SetItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	if err := h.service.SetItem(c.Request.Context(), userID, bookID, req.Quantity); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"book_id": bookID, "quantity": req.Quantity})
}

// RemoveItem DELETE /cart/items/:bookId
func (h *CartHandler) RemoveItem(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}
	bookID, err := strconv.ParseInt(c.Param("bookId"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid book id")
		return
	}

	if err := h.service.RemoveItem(c.Request.Context(), userID, bookID); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Clear DELETE /cart
func (h *CartHandler) Clear(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}
	if err := h.service.Clear(c.Request.Context(), userID); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CartHandler) handleError(c *gin.Context, err error) {
	var vErrs validation.Errors
	switch {
	case errors.As(err, &vErrs):
		response.ValidationFailed(c, vErrs)
	case errors.Is(err, model.ErrInvalidQuantity):
		response.ErrorResponse(c, http.StatusUnprocessableEntity, model.ErrCodeInvalidQuantity, err.Error())
	case errors.Is(err, catalogModel.ErrBookNotFound):
		response.ErrorResponse(c, http.StatusNotFound, catalogModel.ErrCodeBookNotFound, err.Error())
	default:
		logger.Error("cart handler error", err)
		response.InternalServerError(c, "internal error")
	}
}
