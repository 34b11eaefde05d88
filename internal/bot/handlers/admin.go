package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/raditpra/unduh-bot/internal/bot/keyboard"
	"github.com/raditpra/unduh-bot/internal/domain"
	apperrors "github.com/raditpra/unduh-bot/internal/errors"
	"github.com/raditpra/unduh-bot/internal/reconcile"
)

const (
	syncFetchLimit  = 15
	vipListPageSize = 10
)

// Syncer pulls the payment feed and returns freshly ingested rows.
type Syncer interface {
	Sync(ctx context.Context, limit int) ([]reconcile.Detected, error)
}

// Decider applies admin decisions and maintenance to the ledger.
type Decider interface {
	AutoReconcilePending(ctx context.Context) error
	DeleteVip(ctx context.Context, userID int64) error
}

// AdminStore is the read surface the admin views need.
type AdminStore interface {
	GetPendingPayments(ctx context.Context) ([]domain.Payment, error)
	ListActiveVipUsers(ctx context.Context) ([]domain.User, error)
	UserStats(ctx context.Context) (domain.Stats, error)
}

// Admin bundles the operator-only bang commands. Non-admin senders are
// ignored without a reply so the commands stay invisible.
type Admin struct {
	store      AdminStore
	reconciler Syncer
	controller Decider
	isAdmin    func(int64) bool
	log        *slog.Logger
}

// NewAdmin wires the admin command handlers.
func NewAdmin(store AdminStore, reconciler Syncer, controller Decider, isAdmin func(int64) bool, log *slog.Logger) *Admin {
	if log == nil {
		log = slog.Default()
	}

	return &Admin{
		store:      store,
		reconciler: reconciler,
		controller: controller,
		isAdmin:    isAdmin,
		log:        log,
	}
}

func (a *Admin) authorized(c telebot.Context) bool {
	return c.Sender() != nil && a.isAdmin != nil && a.isAdmin(c.Sender().ID)
}

// SyncPayments handles !cek: fetch the feed, ingest new payments and
// post one review prompt per detected payment.
func (a *Admin) SyncPayments() Handler {
	return func(c telebot.Context) error {
		if !a.authorized(c) {
			return nil
		}

		ctx := context.Background()

		detected, err := a.reconciler.Sync(ctx, syncFetchLimit)
		if err != nil {
			return c.Send("⚠️ Feed fetch failed, payment status is unknown. Try again shortly.")
		}

		if len(detected) == 0 {
			return c.Send("No new payments found.")
		}

		if err := c.Send(fmt.Sprintf("Found %d new payment(s):", len(detected))); err != nil {
			return err
		}

		for _, entry := range detected {
			if err := c.Send(renderDetected(entry), keyboard.PaymentReview(entry.PaymentID)); err != nil {
				return err
			}
		}

		return nil
	}
}

// PendingPayments handles !pend: reconcile drift, then list what still
// needs a decision.
func (a *Admin) PendingPayments() Handler {
	return func(c telebot.Context) error {
		if !a.authorized(c) {
			return nil
		}

		ctx := context.Background()

		if err := a.controller.AutoReconcilePending(ctx); err != nil {
			a.log.Error("auto-reconcile before pending list failed", slog.Any("error", err))
		}

		pending, err := a.store.GetPendingPayments(ctx)
		if err != nil {
			return err
		}

		if len(pending) == 0 {
			return c.Send("No pending payments.")
		}

		if err := c.Send(fmt.Sprintf("%d pending payment(s):", len(pending))); err != nil {
			return err
		}

		for _, payment := range pending {
			text := fmt.Sprintf("#%d user %d — %d days, Rp%d\ncreated %s",
				payment.ID, payment.UserID, payment.Days, payment.Amount,
				payment.CreatedAt.Format("2006-01-02 15:04"))
			if err := c.Send(text, keyboard.PaymentReview(payment.ID)); err != nil {
				return err
			}
		}

		return nil
	}
}

// ListVip handles !listvip: the first page of active VIP users.
func (a *Admin) ListVip() Handler {
	return func(c telebot.Context) error {
		if !a.authorized(c) {
			return nil
		}

		text, markup, err := a.vipPage(context.Background(), 1)
		if err != nil {
			return err
		}

		if markup == nil {
			return c.Send(text)
		}
		return c.Send(text, markup)
	}
}

// ListVipPage handles listvip:<page> callbacks by editing the list in
// place.
func (a *Admin) ListVipPage() CallbackHandler {
	return func(c telebot.Context) error {
		if !a.authorized(c) {
			return c.Respond(&telebot.CallbackResponse{Text: "Not allowed."})
		}

		callback := c.Callback()
		if callback == nil {
			return nil
		}

		_, data, err := keyboard.DecodeCallback(strings.TrimSpace(callback.Data))
		if err != nil {
			return c.Respond(&telebot.CallbackResponse{})
		}

		page, err := strconv.Atoi(data)
		if err != nil {
			page = 1
		}

		text, markup, err := a.vipPage(context.Background(), page)
		if err != nil {
			return err
		}

		if markup == nil {
			if err := c.Edit(text); err != nil {
				return err
			}
		} else if err := c.Edit(text, markup); err != nil {
			return err
		}

		return c.Respond(&telebot.CallbackResponse{})
	}
}

func (a *Admin) vipPage(ctx context.Context, page int) (string, *telebot.ReplyMarkup, error) {
	users, err := a.store.ListActiveVipUsers(ctx)
	if err != nil {
		return "", nil, err
	}

	if len(users) == 0 {
		return "No active VIP users.", nil, nil
	}

	totalPages := (len(users) + vipListPageSize - 1) / vipListPageSize
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * vipListPageSize
	end := start + vipListPageSize
	if end > len(users) {
		end = len(users)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Active VIP users (%d):\n", len(users))
	for _, user := range users[start:end] {
		expires := "?"
		if user.VipExpiresAt != nil {
			expires = user.VipExpiresAt.Format("2006-01-02")
		}
		fmt.Fprintf(&sb, "• %s (%d) until %s\n", user.Username, user.ID, expires)
	}

	if totalPages <= 1 {
		return sb.String(), nil, nil
	}

	return sb.String(), keyboard.Pagination("listvip", page, totalPages), nil
}

// DeleteVip handles "!delvip <userId>".
func (a *Admin) DeleteVip() Handler {
	return func(c telebot.Context) error {
		if !a.authorized(c) {
			return nil
		}

		fields := strings.Fields(c.Text())
		if len(fields) < 2 {
			return c.Send("Usage: !delvip <userId>")
		}

		userID, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return c.Send("Usage: !delvip <userId>")
		}

		if err := a.controller.DeleteVip(context.Background(), userID); err != nil {
			if errors.Is(err, apperrors.ErrVipNotActive) {
				return c.Send(fmt.Sprintf("User %d has no active VIP.", userID))
			}
			return err
		}

		return c.Send(fmt.Sprintf("VIP removed for user %d.", userID))
	}
}

// Debug handles !debug: an aggregate snapshot of the system state.
func (a *Admin) Debug() Handler {
	return func(c telebot.Context) error {
		if !a.authorized(c) {
			return nil
		}

		stats, err := a.store.UserStats(context.Background())
		if err != nil {
			return err
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Users: %d\n", stats.TotalUsers)
		fmt.Fprintf(&sb, "Active VIP: %d\n", stats.ActiveVipCount)
		fmt.Fprintf(&sb, "Downloads today: %d\n", stats.DownloadsToday)
		sb.WriteString("Payments:\n")
		for _, status := range []domain.PaymentStatus{
			domain.PaymentPending, domain.PaymentApproved, domain.PaymentRejected, domain.PaymentExpired,
		} {
			fmt.Fprintf(&sb, "  %s: %d\n", status, stats.PaymentsByStatus[status])
		}

		return c.Send(sb.String())
	}
}

func renderDetected(entry reconcile.Detected) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "#%d %s (user %d)\n%d days, Rp%d",
		entry.PaymentID, entry.SupporterName, entry.UserID, entry.Days, entry.Amount)

	if !entry.ValidationPassed {
		sb.WriteString("\n⚠️ amount does not match the package price")
	}
	if !entry.QuantityOK {
		fmt.Fprintf(&sb, "\n⚠️ quantity %d does not match the package", entry.Quantity)
	}

	return sb.String()
}
