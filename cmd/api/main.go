package main

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"bookstore-ecommerce/internal/config"
	"bookstore-ecommerce/pkg/logger"
)

func main() {
	// config.Load tự đọc .env khi chạy local, production dùng system env
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logger.Init(cfg.App.Environment, cfg.App.LogLevel)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	log.Info().Str("env", cfg.App.Environment).Str("app", cfg.App.Name).Msg("starting")

	Serve(cfg)
}
