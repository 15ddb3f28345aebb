package main

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"bookstore-ecommerce/internal/infrastructure/queue"
	"bookstore-ecommerce/pkg/container"
	"bookstore-ecommerce/pkg/metrics"
)

// workerRuntime gom asynq server (xử lý task) và scheduler (sinh task định kỳ)
type workerRuntime struct {
	server    *asynq.Server
	scheduler *queue.Scheduler
}

func newWorkerRuntime(c *container.Container) *workerRuntime {
	srv := asynq.NewServer(c.RedisOpt(), asynq.Config{
		Queues:          queue.Queues,
		Concurrency:     c.Config.Worker.Concurrency,
		ShutdownTimeout: c.Config.Worker.ShutdownTimeout,
		ErrorHandler:    asynq.ErrorHandlerFunc(reportTaskFailure),
	})

	return &workerRuntime{
		server:    srv,
		scheduler: queue.NewScheduler(c.RedisOpt()),
	}
}

func reportTaskFailure(ctx context.Context, task *asynq.Task, err error) {
	retried, _ := asynq.GetRetryCount(ctx)
	maxRetry, _ := asynq.GetMaxRetry(ctx)
	metrics.WorkerTaskFailures.WithLabelValues(task.Type()).Inc()

	log.Error().Err(err).
		Str("task", task.Type()).
		Int("retry", retried).
		Int("max_retry", maxRetry).
		Msg("task failed")
}

// start đăng ký handler + cron job rồi chạy cả hai ở background
func (w *workerRuntime) start(c *container.Container) error {
	mux := asynq.NewServeMux()
	registerHandlers(mux, c)

	if err := w.scheduler.RegisterJobs(); err != nil {
		return fmt.Errorf("register periodic jobs: %w", err)
	}
	if err := w.server.Start(mux); err != nil {
		return fmt.Errorf("start task server: %w", err)
	}
	if err := w.scheduler.Start(); err != nil {
		w.server.Shutdown()
		return fmt.Errorf("start scheduler: %w", err)
	}

	log.Info().
		Int("concurrency", c.Config.Worker.Concurrency).
		Interface("queues", queue.Queues).
		Msg("worker started")
	return nil
}

// stop: scheduler dừng trước để không sinh task mới trong lúc server drain
func (w *workerRuntime) stop() {
	w.scheduler.Shutdown()
	w.server.Shutdown()
	log.Info().Msg("worker stopped")
}
