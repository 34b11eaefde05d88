// Package jobs schedules and runs the background maintenance work:
// periodic payment feed syncs and VIP expiry sweeps.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	TaskTypePaymentsSync   = "payments:sync"
	TaskTypeVipExpirySweep = "vip:expiry_sweep"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// DefaultQueues is the worker queue weighting.
var DefaultQueues = map[string]int{
	QueueCritical: 6,
	QueueDefault:  3,
	QueueLow:      1,
}

// PaymentsSyncPayload bounds how many feed records one sync pulls.
type PaymentsSyncPayload struct {
	Limit int `json:"limit"`
}

// VipExpirySweepPayload is empty; the sweep takes no parameters.
type VipExpirySweepPayload struct{}

func NewPaymentsSyncTask(limit int) (*asynq.Task, error) {
	payload, err := json.Marshal(PaymentsSyncPayload{Limit: limit})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypePaymentsSync, payload, asynq.Queue(QueueDefault)), nil
}

func NewVipExpirySweepTask() (*asynq.Task, error) {
	payload, err := json.Marshal(VipExpirySweepPayload{})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(TaskTypeVipExpirySweep, payload, asynq.Queue(QueueLow)), nil
}
