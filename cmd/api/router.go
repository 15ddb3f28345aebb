package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bookstore-ecommerce/internal/shared/middleware"
	"bookstore-ecommerce/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ClientIP(),
	)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupAuthRoutes(v1, c)
		setupUserRoutes(v1, c)
		setupCatalogRoutes(v1, c)
		setupCartRoutes(v1, c)
		setupPromotionRoutes(v1, c)
		setupWishlistRoutes(v1, c)
		setupOrderRoutes(v1, c)
		setupPaymentRoutes(v1, c)
		setupAdminRoutes(v1, c)
	}

	return router
}

// ========================================
// AUTH ROUTES
// ========================================
func setupAuthRoutes(v1 *gin.RouterGroup, c *container.Container) {
	auth := v1.Group("/auth")
	{
		auth.POST("/otp/request", c.UserHandler.RequestOTP)
		auth.POST("/otp/verify", c.UserHandler.VerifyOTP)
		auth.POST("/register", c.UserHandler.Register)
		auth.POST("/login", c.UserHandler.Login)
		auth.POST("/refresh", c.UserHandler.Refresh)
		auth.POST("/logout", c.UserHandler.Logout)
		auth.POST("/password/reset", c.UserHandler.ResetPassword)

		authed := auth.Group("", middleware.AuthMiddleware(c.JWTManager))
		authed.POST("/logout-all", c.UserHandler.LogoutAll)
		authed.GET("/sessions", c.UserHandler.ListSessions)
	}
}

// ========================================
// USER ROUTES
// ========================================
func setupUserRoutes(v1 *gin.RouterGroup, c *container.Container) {
	users := v1.Group("/users")
	users.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		users.GET("/me", c.UserHandler.GetProfile)
		users.PUT("/me", c.UserHandler.UpdateProfile)
	}
}

// ========================================
// CATALOG ROUTES
// ========================================
func setupCatalogRoutes(v1 *gin.RouterGroup, c *container.Container) {
	books := v1.Group("/books")
	{
		books.GET("", c.CatalogHandler.ListBooks)
		books.GET("/:id", c.CatalogHandler.GetBook)
	}
}

// ========================================
// CART ROUTES
// ========================================
func setupCartRoutes(v1 *gin.RouterGroup, c *container.Container) {
	cart := v1.Group("/cart")
	{
		// giỏ của khách chưa đăng nhập nằm ở client, server chỉ đối soát
		cart.POST("/reconcile", middleware.OptionalAuth(c.JWTManager), c.CartHandler.Reconcile)

		authed := cart.Group("", middleware.AuthMiddleware(c.JWTManager))
		authed.GET("", c.CartHandler.GetCart)
		authed.DELETE("", c.CartHandler.Clear)
		authed.PUT("/items/:bookId", c.CartHandler.SetItem)
		authed.DELETE("/items/:bookId", c.CartHandler.RemoveItem)
	}
}

// ========================================
// PROMOTION ROUTES
// ========================================
func setupPromotionRoutes(v1 *gin.RouterGroup, c *container.Container) {
	v1.POST("/promotions/validate", c.PromoHandler.Validate)
}

// ========================================
// WISHLIST ROUTES
// ========================================
func setupWishlistRoutes(v1 *gin.RouterGroup, c *container.Container) {
	wishlist := v1.Group("/wishlist")
	wishlist.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		wishlist.GET("", c.WishlistHandler.List)
		wishlist.POST("/:bookId", c.WishlistHandler.Add)
		wishlist.DELETE("/:bookId", c.WishlistHandler.Remove)
	}
}

// ========================================
// ORDER ROUTES
// ========================================
func setupOrderRoutes(v1 *gin.RouterGroup, c *container.Container) {
	orders := v1.Group("/orders")
	orders.Use(middleware.AuthMiddleware(c.JWTManager))
	{
		orders.POST("", c.OrderHandler.CreateOrder)
		orders.GET("", c.OrderHandler.ListOrders)
		orders.GET("/:id", c.OrderHandler.GetOrder)
		orders.GET("/:id/history", c.OrderHandler.GetHistory)
		orders.PATCH("/:id/cancel", c.OrderHandler.CancelOrder)
		orders.POST("/:id/payment", c.PaymentHandler.InitiatePayment)
	}
}

// ========================================
// PAYMENT ROUTES (gateway facing, no JWT)
// ========================================
func setupPaymentRoutes(v1 *gin.RouterGroup, c *container.Container) {
	payments := v1.Group("/payments/vnpay")
	{
		payments.GET("/ipn", c.PaymentHandler.VNPayIPN)
		payments.GET("/return", c.PaymentHandler.VNPayReturn)
	}
}

// ========================================
// ADMIN ROUTES
// ========================================
func setupAdminRoutes(v1 *gin.RouterGroup, c *container.Container) {
	admin := v1.Group("/admin")
	admin.Use(
		middleware.AuthMiddleware(c.JWTManager),
		middleware.RequireRole(middleware.RoleAdmin),
	)
	{
		admin.GET("/users", c.UserHandler.ListUsers)
		admin.PATCH("/users/:id/status", c.UserHandler.UpdateUserStatus)

		admin.GET("/promotions", c.PromoHandler.List)
		admin.POST("/promotions", c.PromoHandler.Create)
		admin.PUT("/promotions/:id", c.PromoHandler.Update)

		admin.GET("/orders", c.OrderHandler.ListAllOrders)
		admin.PATCH("/orders/:id/status", c.OrderHandler.UpdateOrderStatus)

		admin.GET("/payments/callbacks", c.PaymentHandler.ListCallbacks)
	}
}

// ========================================
// HEALTH
// ========================================
func healthCheckHandler(c *container.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
		defer cancel()

		checks := c.HealthCheck(checkCtx)
		status := http.StatusOK
		for name, v := range checks {
			if name != "storage" && v != "up" {
				status = http.StatusServiceUnavailable
			}
		}

		ctx.JSON(status, gin.H{
			"status":  http.StatusText(status),
			"version": c.Config.App.Version,
			"checks":  checks,
		})
	}
}
