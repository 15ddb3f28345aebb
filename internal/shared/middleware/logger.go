package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"bookstore-ecommerce/pkg/metrics"
)

func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		// route template (/orders/:id) giữ cardinality của metrics thấp
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		statusLabel := strconv.Itoa(status)
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, statusLabel).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route, statusLabel).Observe(latency.Seconds())

		event := log.Info()
		if status >= 500 {
			event = log.Error()
		}
		event.
			Str("request_id", c.GetString("request_id")).
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("latency_ms", latency).
			Str("ip", c.ClientIP()).
			Msg("HTTP Request")
	}
}
