// cmd/worker/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"bookstore-ecommerce/internal/config"
	"bookstore-ecommerce/pkg/container"
	"bookstore-ecommerce/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger.Init(cfg.App.Environment, cfg.App.LogLevel)

	// job expire/cleanup chạy trên Postgres + Redis, memory store chỉ sống trong process API
	if cfg.UseMemoryStorage() {
		log.Fatal().Str("storage", cfg.App.StorageDriver).Msg("worker requires postgres storage")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.Build(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("container init failed")
	}
	defer c.Cleanup()

	if err := checkDependencies(ctx, c); err != nil {
		log.Fatal().Err(err).Msg("dependency check failed")
	}
	go serveProbes(c)

	rt := newWorkerRuntime(c)
	if err := rt.start(c); err != nil {
		log.Fatal().Err(err).Msg("worker start failed")
	}

	<-ctx.Done()
	log.Info().Dur("grace", cfg.Worker.ShutdownTimeout).Msg("shutdown signal received")
	rt.stop()
}
