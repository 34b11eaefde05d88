// Package store persists users, download counters and the payment
// ledger. It is the single source of truth for entitlement state.
package store

import (
	"context"
	"time"

	"github.com/raditpra/unduh-bot/internal/domain"
)

// RecordPaymentParams carries the fields for a new ledger row.
type RecordPaymentParams struct {
	UserID     int64
	Days       int
	Amount     int64
	Status     domain.PaymentStatus
	ExternalID string
}

// Store defines the persistence operations for entitlement state. All
// methods are safe for concurrent callers.
type Store interface {
	UpsertUser(ctx context.Context, userID int64, displayName string) error
	IsVipActive(ctx context.Context, userID int64) (bool, error)
	GetVipStatus(ctx context.Context, userID int64) (domain.VipStatus, error)
	ActivateVip(ctx context.Context, userID int64, expiresAt time.Time) error
	RemoveVip(ctx context.Context, userID int64) error

	GetDailyDownloadCount(ctx context.Context, userID int64, date string) (int, error)
	RecordDownload(ctx context.Context, userID int64, date string) error

	RecordPayment(ctx context.Context, params RecordPaymentParams) (int64, error)
	GetPendingPayments(ctx context.Context) ([]domain.Payment, error)
	GetPaymentByExternalID(ctx context.Context, externalID string) (*domain.Payment, error)
	GetPaymentByCharacteristics(ctx context.Context, userID int64, amount int64, days int) (*domain.Payment, error)
	HasEverProcessed(ctx context.Context, userID int64, amount int64, days int) (bool, error)
	GetPaymentByID(ctx context.Context, id int64) (*domain.Payment, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) error

	SweepExpiredVip(ctx context.Context) (int64, error)
	ListActiveVipUsers(ctx context.Context) ([]domain.User, error)
	UserStats(ctx context.Context) (domain.Stats, error)
}
