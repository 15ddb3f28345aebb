package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	otpModel "bookstore-ecommerce/internal/domains/otp/model"
	sessionModel "bookstore-ecommerce/internal/domains/session/model"
	"bookstore-ecommerce/internal/domains/user"
	"bookstore-ecommerce/internal/shared/middleware"
	"bookstore-ecommerce/internal/shared/response"
	"bookstore-ecommerce/pkg/logger"
)

// UserHandler xử lý HTTP requests cho auth + profile
type UserHandler struct {
	service user.Service
}

func NewUserHandler(service user.Service) *UserHandler {
	return &UserHandler{service: service}
}

// ========================================
// OTP
// ========================================

// RequestOTP POST /auth/otp/request
func (h *UserHandler) RequestOTP(c *gin.Context) {
	var req user.RequestOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	result, err := h.service.RequestOTP(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusAccepted, result)
}

// VerifyOTP POST /auth/otp/verify
func (h *UserHandler) VerifyOTP(c *gin.Context) {
	var req user.VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	result, err := h.service.VerifyOTP(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// ========================================
// AUTH
// ========================================

// Register POST /auth/register
func (h *UserHandler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	result, err := h.service.Register(c.Request.Context(), req, sessionMeta(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, result)
}

// Login POST /auth/login
func (h *UserHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	result, err := h.service.Login(c.Request.Context(), req, sessionMeta(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// Refresh POST /auth/refresh
func (h *UserHandler) Refresh(c *gin.Context) {
	var req user.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationFailed(c, err)
		return
	}

	result, err := h.service.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// Logout POST /auth/logout
func (h *UserHandler) Logout(c *gin.Context) {
	var req user.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		response.ValidationFailed(c, err)
		return
	}

	if err := h.service.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "logged out"})
}

// LogoutAll POST /auth/logout-all
func (h *UserHandler) LogoutAll(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	if err := h.service.LogoutAll(c.Request.Context(), userID); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "logged out from all devices"})
}

// ListSessions GET /auth/sessions
func (h *UserHandler) ListSessions(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	sessions, err := h.service.ListSessions(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, sessions)
}

// ResetPassword POST /auth/password/reset
func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req user.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), req); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "password has been reset"})
}

// ========================================
// PROFILE
// ========================================

// GetProfile GET /users/me
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	profile, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}

// UpdateProfile PUT /users/me
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req user.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	profile, err := h.service.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}

// ========================================
// ADMIN
// ========================================

// ListUsers GET /admin/users
func (h *UserHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	req := user.ListUsersRequest{Search: c.Query("search"), Page: page, Limit: limit}
	req.SetDefaults()

	users, total, err := h.service.ListUsers(c.Request.Context(), req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, users, &response.Meta{Page: req.Page, Limit: req.Limit, Total: total})
}

// UpdateUserStatus PATCH /admin/users/:id/status
func (h *UserHandler) UpdateUserStatus(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid user id")
		return
	}

	var req user.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	if err := h.service.UpdateUserStatus(c.Request.Context(), userID, req); err != nil {
		h.handleError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "user status updated"})
}

// ========================================
// HELPERS
// ========================================

func sessionMeta(c *gin.Context) sessionModel.Meta {
	return sessionModel.Meta{
		UserAgent: c.Request.UserAgent(),
		IP:        c.GetString("client_ip"),
	}
}

func (h *UserHandler) handleError(c *gin.Context, err error) {
	var otpErr *otpModel.OTPError
	if errors.As(err, &otpErr) {
		response.ErrorResponse(c, otpErr.HTTPStatus, otpErr.Code, otpErr.Message)
		return
	}

	var sessErr *sessionModel.SessionError
	if errors.As(err, &sessErr) {
		response.ErrorResponse(c, sessErr.HTTPStatus, sessErr.Code, sessErr.Message)
		return
	}

	for target, mapping := range user.ErrorCodes {
		if errors.Is(err, target) {
			response.ErrorResponse(c, mapping.Status, mapping.Code, target.Error())
			return
		}
	}

	var vErrs validation.Errors
	if errors.As(err, &vErrs) {
		response.ValidationFailed(c, vErrs)
		return
	}

	logger.Error("user handler error", err)
	response.InternalServerError(c, "internal error")
}
