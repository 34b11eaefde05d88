package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

const (
	// Ten minutes keeps sync latency well inside the feed staleness window.
	paymentsSyncCron   = "*/10 * * * *"
	vipExpirySweepCron = "0 * * * *"

	scheduledSyncLimit = 15
)

type Scheduler interface {
	RegisterTasks() error
	Run()
	Shutdown()
}

type scheduler struct {
	asynqScheduler *asynq.Scheduler
	log            *slog.Logger
}

func NewScheduler(redisOpt asynq.RedisConnOpt, log *slog.Logger) Scheduler {
	return &scheduler{
		asynqScheduler: asynq.NewScheduler(redisOpt, nil),
		log:            log,
	}
}

func (s *scheduler) RegisterTasks() error {
	syncTask, err := NewPaymentsSyncTask(scheduledSyncLimit)
	if err != nil {
		return err
	}

	if _, err := s.asynqScheduler.Register(paymentsSyncCron, syncTask); err != nil {
		return err
	}

	sweepTask, err := NewVipExpirySweepTask()
	if err != nil {
		return err
	}

	if _, err := s.asynqScheduler.Register(vipExpirySweepCron, sweepTask); err != nil {
		return err
	}

	if s.log != nil {
		s.log.InfoContext(context.Background(), "scheduler: registered payments sync and vip expiry sweep")
	}

	return nil
}

func (s *scheduler) Run() {
	if s.log != nil {
		s.log.InfoContext(context.Background(), "scheduler: starting")
	}

	go func() {
		if err := s.asynqScheduler.Run(); err != nil && s.log != nil {
			s.log.ErrorContext(context.Background(), "scheduler: run failed", "error", err)
		}
	}()
}

func (s *scheduler) Shutdown() {
	if s.log != nil {
		s.log.InfoContext(context.Background(), "scheduler: shutting down")
	}

	s.asynqScheduler.Shutdown()
}
