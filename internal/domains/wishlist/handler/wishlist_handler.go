package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	catalogModel "bookstore-ecommerce/internal/domains/catalog/model"
	"bookstore-ecommerce/internal/domains/wishlist/service"
	"bookstore-ecommerce/internal/shared/middleware"
	"bookstore-ecommerce/internal/shared/response"
	"bookstore-ecommerce/pkg/logger"
)

type WishlistHandler struct {
	service service.Service
}

func NewWishlistHandler(s service.Service) *WishlistHandler {
	return &WishlistHandler{service: s}
}

// List GET /wishlist
func (h *WishlistHandler) List(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	items, err := h.service.List(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, items)
}

// Add POST /wishlist/:bookId
func (h *WishlistHandler) Add(c *gin.Context) {
	userID, bookID, ok := h.params(c)
	if !ok {
		return
	}

	created, err := h.service.Add(c.Request.Context(), userID, bookID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	response.Success(c, status, gin.H{"book_id": bookID})
}

// Remove DELETE /wishlist/:bookId
func (h *WishlistHandler) Remove(c *gin.Context) {
	userID, bookID, ok := h.params(c)
	if !ok {
		return
	}

	if err := h.service.Remove(c.Request.Context(), userID, bookID); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *WishlistHandler) params(c *gin.Context) (uuid.UUID, int64, bool) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return uuid.Nil, 0, false
	}
	bookID, err := strconv.ParseInt(c.Param("bookId"), 10, 64)
	if err != nil || bookID <= 0 {
		response.BadRequest(c, "invalid book id")
		return uuid.Nil, 0, false
	}
	return userID, bookID, true
}

func (h *WishlistHandler) handleError(c *gin.Context, err error) {
	if errors.Is(err, catalogModel.ErrBookNotFound) {
		response.ErrorResponse(c, http.StatusNotFound, catalogModel.ErrCodeBookNotFound, "book not found")
		return
	}
	logger.Error("wishlist handler error", err)
	response.InternalServerError(c, "internal error")
}
