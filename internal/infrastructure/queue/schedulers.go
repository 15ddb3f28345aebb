package queue

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"bookstore-ecommerce/pkg/logger"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
}

func NewScheduler(redisOpt asynq.RedisClientOpt) *Scheduler {
	scheduler := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)
	return &Scheduler{scheduler: scheduler}
}

func (s *Scheduler) RegisterJobs() error {
	if err := s.registerExpireUnpaidOrdersJob(); err != nil {
		return err
	}
	if err := s.registerCleanupSessionsJob(); err != nil {
		return err
	}
	return nil
}

// ================================================
// JOB 1: Expire Unpaid Orders (Every minute)
// ================================================
func (s *Scheduler) registerExpireUnpaidOrdersJob() error {
	payload, err := json.Marshal(ExpireUnpaidPayload{Batch: 100})
	if err != nil {
		return err
	}

	_, err = s.scheduler.Register(
		"* * * * *",
		asynq.NewTask(TypeExpireUnpaidOrders, payload),
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(1),
		asynq.Timeout(2*time.Minute),
		// lần chạy trước chưa xong thì bỏ qua lần này
		asynq.Unique(time.Minute),
	)
	if err != nil {
		logger.Error("Failed to register ExpireUnpaidOrders job", err)
		return err
	}

	logger.Info("✓ Registered ExpireUnpaidOrders: every minute", map[string]interface{}{})
	return nil
}

// ================================================
// JOB 2: Cleanup Expired Sessions (Daily at 2 AM)
// ================================================
func (s *Scheduler) registerCleanupSessionsJob() error {
	payload, err := json.Marshal(CleanupSessionsPayload{})
	if err != nil {
		return err
	}

	_, err = s.scheduler.Register(
		"0 2 * * *",
		asynq.NewTask(TypeCleanupSessions, payload),
		asynq.Queue(QueueLow),
		asynq.MaxRetry(1),
		asynq.Timeout(5*time.Minute),
	)
	if err != nil {
		logger.Error("Failed to register CleanupSessions job", err)
		return err
	}

	logger.Info("✓ Registered CleanupSessions: daily at 2 AM", map[string]interface{}{})
	return nil
}

// Start chạy scheduler ở background, không tự bắt signal
func (s *Scheduler) Start() error {
	return s.scheduler.Start()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
