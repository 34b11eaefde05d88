package handlers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Sweeper bulk-clears lapsed VIP entitlements.
type Sweeper interface {
	ExpirySweep(ctx context.Context) (int64, error)
}

// VipExpirySweepHandler runs the hourly entitlement sweep.
type VipExpirySweepHandler struct {
	sweeper Sweeper
	log     *slog.Logger
}

func NewVipExpirySweepHandler(sweeper Sweeper, log *slog.Logger) *VipExpirySweepHandler {
	if log == nil {
		log = slog.Default()
	}

	return &VipExpirySweepHandler{sweeper: sweeper, log: log}
}

func (h *VipExpirySweepHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	cleared, err := h.sweeper.ExpirySweep(ctx)
	if err != nil {
		return fmt.Errorf("vip expiry sweep: %w", err)
	}

	if cleared > 0 {
		h.log.InfoContext(ctx, "vip expiry sweep cleared entitlements",
			slog.Int64("cleared", cleared))
	}

	return nil
}
