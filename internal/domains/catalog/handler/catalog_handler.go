package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"bookstore-ecommerce/internal/domains/catalog/model"
	"bookstore-ecommerce/internal/domains/catalog/service"
	"bookstore-ecommerce/internal/shared/response"
)

type CatalogHandler struct {
	service service.Service
}

func NewCatalogHandler(s service.Service) *CatalogHandler {
	return &CatalogHandler{service: s}
}

// ListBooks GET /books?page=&limit=&genre_id=&author_id=
func (h *CatalogHandler) ListBooks(c *gin.Context) {
	filter := model.ListFilter{
		Page:  queryInt(c, "page", 1),
		Limit: queryInt(c, "limit", 20),
	}
	if v, ok := queryInt64(c, "genre_id"); ok {
		filter.GenreID = &v
	}
	if v, ok := queryInt64(c, "author_id"); ok {
		filter.AuthorID = &v
	}
	filter.Normalize()

	books, total, err := h.service.ListBooks(c.Request.Context(), filter)
	if err != nil {
		response.InternalServerError(c, "failed to list books")
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, books, &response.Meta{
		Page:  filter.Page,
		Limit: filter.Limit,
		Total: total,
	})
}

// GetBook GET /books/:id
func (h *CatalogHandler) GetBook(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid book id")
		return
	}

	book, err := h.service.GetBook(c.Request.Context(), id)
	if errors.Is(err, model.ErrBookNotFound) {
		response.ErrorResponse(c, http.StatusNotFound, model.ErrCodeBookNotFound, err.Error())
		return
	}
	if err != nil {
		response.InternalServerError(c, "failed to load book")
		return
	}

	response.Success(c, http.StatusOK, book)
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}

func queryInt64(c *gin.Context, key string) (int64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
