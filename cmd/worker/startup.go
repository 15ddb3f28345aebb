// cmd/worker/startup.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"bookstore-ecommerce/pkg/container"
)

// checkDependencies: worker không start nếu Postgres/Redis chưa sẵn sàng
func checkDependencies(ctx context.Context, c *container.Container) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	for name, status := range c.HealthCheck(ctx) {
		if name == "storage" {
			continue
		}
		log.Info().Str("dependency", name).Str("status", status).Msg("dependency check")
		if status != "up" {
			return fmt.Errorf("%s is %s", name, status)
		}
	}
	return nil
}

// serveProbes mở /health, /ready, /metrics cho orchestrator và Prometheus
func serveProbes(c *container.Container) {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "UP", "service": "bookstore-worker"})
	})
	r.GET("/ready", func(ctx *gin.Context) {
		checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()

		checks := c.HealthCheck(checkCtx)
		status := http.StatusOK
		for name, v := range checks {
			if name != "storage" && v != "up" {
				status = http.StatusServiceUnavailable
			}
		}
		ctx.JSON(status, checks)
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := ":" + c.Config.Worker.MetricsPort
	log.Info().Str("addr", addr).Msg("worker probes listening")
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Error().Err(err).Str("addr", addr).Msg("probe server stopped")
	}
}
