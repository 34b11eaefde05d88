// Package entitlement applies admin decisions and scheduled maintenance
// to the payment ledger and VIP state.
package entitlement

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/raditpra/unduh-bot/internal/domain"
	apperrors "github.com/raditpra/unduh-bot/internal/errors"
	"github.com/raditpra/unduh-bot/internal/locks"
	"github.com/raditpra/unduh-bot/pkg/metrics"
)

// Pending rows older than this are marked expired by auto-reconcile.
const pendingMaxAge = 7 * 24 * time.Hour

// Store is the persistence surface the controller needs.
type Store interface {
	GetPaymentByID(ctx context.Context, id int64) (*domain.Payment, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) error
	GetPendingPayments(ctx context.Context) ([]domain.Payment, error)
	ActivateVip(ctx context.Context, userID int64, expiresAt time.Time) error
	RemoveVip(ctx context.Context, userID int64) error
	IsVipActive(ctx context.Context, userID int64) (bool, error)
	SweepExpiredVip(ctx context.Context) (int64, error)
}

// Notifier delivers best-effort messages to users. Failures are logged
// and never roll back the decision that triggered them.
type Notifier interface {
	Notify(ctx context.Context, userID int64, message string) error
}

// Controller transitions payments and VIP state.
type Controller struct {
	store    Store
	locker   locks.Locker
	notifier Notifier
	log      *slog.Logger
	now      func() time.Time
}

// NewController wires the entitlement controller.
func NewController(st Store, locker locks.Locker, notifier Notifier, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}

	return &Controller{
		store:    st,
		locker:   locker,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// Approve marks the payment approved and activates VIP for its
// duration. The status update runs before activation: a crash between
// the two leaves an approved payment with VIP still pending, which an
// idempotent re-activation heals. The reverse order could grant
// entitlement with no audit trail.
func (c *Controller) Approve(ctx context.Context, paymentID int64) error {
	var approved *domain.Payment

	err := c.locker.WithPayment(ctx, paymentID, func(ctx context.Context) error {
		payment, err := c.store.GetPaymentByID(ctx, paymentID)
		if err != nil {
			return err
		}

		if payment.Status.Terminal() {
			return fmt.Errorf("payment %d is %s: %w", paymentID, payment.Status, apperrors.ErrAlreadyProcessed)
		}

		expiresAt := c.now().Add(time.Duration(payment.Days) * 24 * time.Hour)

		if err := c.store.UpdatePaymentStatus(ctx, paymentID, domain.PaymentApproved); err != nil {
			return err
		}

		if err := c.store.ActivateVip(ctx, payment.UserID, expiresAt); err != nil {
			return err
		}

		metrics.RecordPaymentTransition(string(domain.PaymentApproved))

		c.log.Info("payment approved",
			slog.Int64("payment_id", paymentID),
			slog.Int64("user_id", payment.UserID),
			slog.Int("days", payment.Days),
			slog.Time("expires_at", expiresAt))

		payment.Status = domain.PaymentApproved
		approved = payment
		return nil
	})
	if err != nil {
		return err
	}

	c.notify(ctx, approved.UserID,
		fmt.Sprintf("Your VIP payment was approved. VIP is active for %d days.", approved.Days))

	return nil
}

// Reject marks the payment rejected.
func (c *Controller) Reject(ctx context.Context, paymentID int64) error {
	var rejected *domain.Payment

	err := c.locker.WithPayment(ctx, paymentID, func(ctx context.Context) error {
		payment, err := c.store.GetPaymentByID(ctx, paymentID)
		if err != nil {
			return err
		}

		if payment.Status.Terminal() {
			return fmt.Errorf("payment %d is %s: %w", paymentID, payment.Status, apperrors.ErrAlreadyProcessed)
		}

		if err := c.store.UpdatePaymentStatus(ctx, paymentID, domain.PaymentRejected); err != nil {
			return err
		}

		metrics.RecordPaymentTransition(string(domain.PaymentRejected))

		c.log.Info("payment rejected",
			slog.Int64("payment_id", paymentID),
			slog.Int64("user_id", payment.UserID))

		rejected = payment
		return nil
	})
	if err != nil {
		return err
	}

	c.notify(ctx, rejected.UserID,
		"Your VIP payment was rejected. Contact the admin if you believe this is a mistake.")

	return nil
}

// AutoReconcilePending heals drift between the ledger and entitlement
// state: a pending row whose user is already VIP becomes approved
// without touching the existing expiry, and a pending row older than
// seven days becomes expired. Runs before any pending list is shown.
func (c *Controller) AutoReconcilePending(ctx context.Context) error {
	pending, err := c.store.GetPendingPayments(ctx)
	if err != nil {
		return fmt.Errorf("list pending payments: %w", err)
	}

	for _, payment := range pending {
		payment := payment

		err := c.locker.WithPayment(ctx, payment.ID, func(ctx context.Context) error {
			// re-read under the lock; an admin may have just decided it
			current, err := c.store.GetPaymentByID(ctx, payment.ID)
			if err != nil {
				return err
			}
			if current.Status != domain.PaymentPending {
				return nil
			}

			active, err := c.store.IsVipActive(ctx, current.UserID)
			if err != nil {
				return err
			}

			if active {
				if err := c.store.UpdatePaymentStatus(ctx, current.ID, domain.PaymentApproved); err != nil {
					return err
				}
				metrics.RecordPaymentTransition(string(domain.PaymentApproved))
				c.log.Info("auto-approved pending payment for active vip",
					slog.Int64("payment_id", current.ID),
					slog.Int64("user_id", current.UserID))
				return nil
			}

			if c.now().Sub(current.CreatedAt) > pendingMaxAge {
				if err := c.store.UpdatePaymentStatus(ctx, current.ID, domain.PaymentExpired); err != nil {
					return err
				}
				metrics.RecordPaymentTransition(string(domain.PaymentExpired))
				c.log.Info("expired stale pending payment",
					slog.Int64("payment_id", current.ID),
					slog.Int64("user_id", current.UserID))
			}

			return nil
		})
		if err != nil {
			c.log.Error("auto-reconcile failed for payment",
				slog.Int64("payment_id", payment.ID),
				slog.Any("error", err))
		}
	}

	return nil
}

// DeleteVip removes an active entitlement.
func (c *Controller) DeleteVip(ctx context.Context, userID int64) error {
	active, err := c.store.IsVipActive(ctx, userID)
	if err != nil {
		return err
	}
	if !active {
		return fmt.Errorf("user %d: %w", userID, apperrors.ErrVipNotActive)
	}

	if err := c.store.RemoveVip(ctx, userID); err != nil {
		return err
	}

	c.log.Info("vip removed", slog.Int64("user_id", userID))

	c.notify(ctx, userID, "Your VIP access has been removed by the admin.")

	return nil
}

// ExpirySweep bulk-clears lapsed entitlements. Scheduled hourly; safe
// to race with the lazy per-read check.
func (c *Controller) ExpirySweep(ctx context.Context) (int64, error) {
	affected, err := c.store.SweepExpiredVip(ctx)
	if err != nil {
		return 0, fmt.Errorf("sweep expired vip: %w", err)
	}

	if affected > 0 {
		c.log.Info("vip expiry sweep", slog.Int64("cleared", affected))
	}

	return affected, nil
}

func (c *Controller) notify(ctx context.Context, userID int64, message string) {
	if c.notifier == nil {
		return
	}

	err := apperrors.WithRetry(ctx, func() error {
		return c.notifier.Notify(ctx, userID, message)
	})
	if err != nil {
		c.log.Warn("failed to notify user",
			slog.Int64("user_id", userID),
			slog.Any("error", err))
	}
}
