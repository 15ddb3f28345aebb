package main

import (
	"github.com/hibiken/asynq"

	"bookstore-ecommerce/internal/infrastructure/queue"
	"bookstore-ecommerce/pkg/container"
)

// registerHandlers gắn mọi job handler vào mux
func registerHandlers(mux *asynq.ServeMux, c *container.Container) {
	queue.Register(
		mux,
		c.Email,
		c.Config.SMTP.OpsEmail,
		c.OrderService,
		c.Config.Order.UnpaidTimeout,
		c.SessionService,
	)
}
