package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Manager enqueues one-off tasks outside the cron schedule.
type Manager interface {
	Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

type manager struct {
	client *asynq.Client
	log    *slog.Logger
}

// NewManager builds a Manager backed by an asynq client.
func NewManager(redisOpt asynq.RedisConnOpt, log *slog.Logger) Manager {
	client := asynq.NewClient(redisOpt)

	return &manager{
		client: client,
		log:    log,
	}
}

func (m *manager) Enqueue(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	info, err := m.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return nil, err
	}

	if m.log != nil {
		m.log.Debug("task enqueued",
			slog.String("type", task.Type()),
			slog.String("queue", info.Queue))
	}

	return info, nil
}

func (m *manager) Close() error {
	return m.client.Close()
}

// EnqueueInitialSync queues one immediate payment feed sync so a fresh
// start catches up on payments made while the bot was down instead of
// waiting for the next cron tick.
func EnqueueInitialSync(ctx context.Context, mgr Manager) error {
	task, err := NewPaymentsSyncTask(scheduledSyncLimit)
	if err != nil {
		return err
	}

	_, err = mgr.Enqueue(ctx, task, asynq.Queue(QueueCritical))
	return err
}
