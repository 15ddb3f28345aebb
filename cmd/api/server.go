package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"bookstore-ecommerce/internal/config"
	"bookstore-ecommerce/pkg/container"
)

// Serve dựng container, mở HTTP server và chặn tới khi nhận SIGINT/SIGTERM.
// Request đang xử lý được phép chạy xong trong App.ShutdownTimeout.
func Serve(cfg *config.Config) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.Build(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("storage", cfg.App.StorageDriver).Msg("container init failed")
	}
	defer c.Cleanup()

	srv := newHTTPServer(cfg, SetupRouter(c))

	serveErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Str("version", cfg.App.Version).
			Str("storage", cfg.App.StorageDriver).
			Msg("bookstore api listening")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server stopped unexpectedly")
		}
		return
	case <-ctx.Done():
	}

	log.Info().Dur("grace", cfg.App.ShutdownTimeout).Msg("shutdown signal received, draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("forced shutdown, some requests were cut off")
		return
	}
	log.Info().Msg("api stopped")
}

func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           h,
		ReadHeaderTimeout: cfg.App.ReadTimeout,
		ReadTimeout:       cfg.App.ReadTimeout,
		WriteTimeout:      cfg.App.WriteTimeout,
		IdleTimeout:       4 * cfg.App.WriteTimeout,
		MaxHeaderBytes:    1 << 20,
	}
}
