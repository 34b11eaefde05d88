package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	telebot "gopkg.in/telebot.v3"

	"github.com/raditpra/unduh-bot/internal/domain"
	apperrors "github.com/raditpra/unduh-bot/internal/errors"
	"github.com/raditpra/unduh-bot/internal/vip"
)

// StatusStore is the slice of the store the status view reads.
type StatusStore interface {
	GetVipStatus(ctx context.Context, userID int64) (domain.VipStatus, error)
	GetDailyDownloadCount(ctx context.Context, userID int64, date string) (int, error)
}

// NewStatusHandler reports the caller's entitlement and today's usage.
func NewStatusHandler(store StatusStore, catalog *vip.Catalog, log *slog.Logger) Handler {
	if log == nil {
		log = slog.Default()
	}

	return func(c telebot.Context) error {
		sender := c.Sender()
		if sender == nil {
			return nil
		}

		ctx := context.Background()

		status, err := store.GetVipStatus(ctx, sender.ID)
		if err != nil && !errors.Is(err, apperrors.ErrUserNotFound) {
			return err
		}

		count, err := store.GetDailyDownloadCount(ctx, sender.ID, domain.DateKey(time.Now()))
		if err != nil {
			return err
		}

		limit := catalog.DailyLimit(status.Active)

		var tier string
		if status.Active && status.ExpiresAt != nil {
			tier = fmt.Sprintf("⭐ VIP until %s", status.ExpiresAt.Format("2006-01-02 15:04"))
		} else {
			tier = "Free tier. Use /vip to upgrade."
		}

		return c.Send(fmt.Sprintf("%s\n\nDownloads today: %d/%d", tier, count, limit))
	}
}
