// Package handlers contains the asynq task handlers for scheduled
// maintenance work.
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/raditpra/unduh-bot/internal/jobs"
	"github.com/raditpra/unduh-bot/internal/reconcile"
)

// Syncer pulls the payment feed into the ledger.
type Syncer interface {
	Sync(ctx context.Context, limit int) ([]reconcile.Detected, error)
}

// Notifier delivers messages to a chat.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, message string) error
}

// PaymentsSyncHandler runs the scheduled feed sync and tells the admin
// chat about newly detected payments.
type PaymentsSyncHandler struct {
	syncer      Syncer
	notifier    Notifier
	adminChatID int64
	log         *slog.Logger
}

func NewPaymentsSyncHandler(syncer Syncer, notifier Notifier, adminChatID int64, log *slog.Logger) *PaymentsSyncHandler {
	if log == nil {
		log = slog.Default()
	}

	return &PaymentsSyncHandler{
		syncer:      syncer,
		notifier:    notifier,
		adminChatID: adminChatID,
		log:         log,
	}
}

func (h *PaymentsSyncHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload jobs.PaymentsSyncPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		h.log.ErrorContext(ctx, "payments sync: failed to decode payload",
			slog.String("task_type", t.Type()), slog.Any("error", err))
		return err
	}

	detected, err := h.syncer.Sync(ctx, payload.Limit)
	if err != nil {
		// returning the error lets asynq retry with backoff
		return fmt.Errorf("scheduled payments sync: %w", err)
	}

	h.log.InfoContext(ctx, "scheduled payments sync finished",
		slog.Int("detected", len(detected)))

	if len(detected) == 0 || h.notifier == nil || h.adminChatID == 0 {
		return nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "💰 %d new payment(s) detected:\n", len(detected))
	for _, entry := range detected {
		fmt.Fprintf(&sb, "#%d %s (user %d) — %d days, Rp%d",
			entry.PaymentID, entry.SupporterName, entry.UserID, entry.Days, entry.Amount)
		if !entry.ValidationPassed {
			sb.WriteString(" ⚠️")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\nUse !pend to review them.")

	if err := h.notifier.Notify(ctx, h.adminChatID, sb.String()); err != nil {
		h.log.ErrorContext(ctx, "payments sync: admin notification failed", slog.Any("error", err))
	}

	return nil
}
