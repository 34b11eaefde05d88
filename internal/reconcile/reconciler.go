// Package reconcile turns raw Trakteer feed records into deduplicated
// pending payment rows.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/raditpra/unduh-bot/internal/domain"
	"github.com/raditpra/unduh-bot/internal/locks"
	"github.com/raditpra/unduh-bot/internal/store"
	"github.com/raditpra/unduh-bot/internal/trakteer"
	"github.com/raditpra/unduh-bot/internal/vip"
	"github.com/raditpra/unduh-bot/pkg/metrics"
)

const (
	// Feed records older than this are never (re)ingested.
	stalenessWindow = 36 * time.Hour

	feedTimeLayout = "2006-01-02 15:04:05"
)

// Store is the persistence surface the reconciler needs.
type Store interface {
	UpsertUser(ctx context.Context, userID int64, displayName string) error
	IsVipActive(ctx context.Context, userID int64) (bool, error)
	GetPaymentByExternalID(ctx context.Context, externalID string) (*domain.Payment, error)
	HasEverProcessed(ctx context.Context, userID int64, amount int64, days int) (bool, error)
	RecordPayment(ctx context.Context, params store.RecordPaymentParams) (int64, error)
}

// Detected is one newly created pending payment, carrying the context
// the admin review prompt renders.
type Detected struct {
	PaymentID        int64
	UserID           int64
	Days             int
	Amount           int64
	Quantity         int
	SupporterName    string
	ExternalID       string
	ValidationPassed bool
	QuantityOK       bool
}

// Reconciler ingests feed batches into the payment ledger.
type Reconciler struct {
	feed    trakteer.Feed
	store   Store
	catalog *vip.Catalog
	locker  locks.Locker
	log     *slog.Logger
	now     func() time.Time
}

// NewReconciler wires the reconciler. The catalog is passed explicitly;
// pricing never comes from shared global state.
func NewReconciler(feed trakteer.Feed, st Store, catalog *vip.Catalog, locker locks.Locker, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.Default()
	}

	return &Reconciler{
		feed:    feed,
		store:   st,
		catalog: catalog,
		locker:  locker,
		log:     log,
		now:     time.Now,
	}
}

// Sync fetches the recent feed and ingests it. A fetch failure is
// returned as an error with an empty batch so callers can tell it apart
// from "nothing new"; individual bad records never abort the batch.
func (r *Reconciler) Sync(ctx context.Context, limit int) ([]Detected, error) {
	records, err := r.feed.ListRecentTransactions(ctx, limit)
	if err != nil {
		metrics.RecordSyncFailure()
		r.log.Error("trakteer feed fetch failed", slog.Any("error", err))
		return nil, fmt.Errorf("fetch transaction feed: %w", err)
	}

	return r.Ingest(ctx, records), nil
}

// Ingest runs the parse/validate/dedup pipeline over a raw batch and
// returns the newly created pending payments.
func (r *Reconciler) Ingest(ctx context.Context, records []trakteer.Record) []Detected {
	var detected []Detected

	for _, record := range records {
		entry, ok := r.ingestOne(ctx, record)
		if ok {
			detected = append(detected, entry)
		}
	}

	return detected
}

func (r *Reconciler) ingestOne(ctx context.Context, record trakteer.Record) (Detected, bool) {
	externalID := DeriveExternalID(record)

	userID, days, ok := ParseSupportMessage(record.SupportMessage, r.log)
	if !ok {
		r.log.Info("unparseable support message, skipping record",
			slog.String("external_id", externalID),
			slog.String("supporter", record.SupporterName))
		metrics.RecordPaymentSkipped("parse_failure")
		return Detected{}, false
	}

	validationPassed := r.catalog.ValidateAmount(days, record.Amount)
	if !validationPassed {
		r.log.Warn("payment amount outside tolerance, flagging for review",
			slog.Int64("user_id", userID),
			slog.Int("days", days),
			slog.Int64("amount", record.Amount))
	}

	quantityOK := r.catalog.ValidateQuantity(days, record.Quantity)
	if !quantityOK {
		r.log.Warn("payment quantity mismatch",
			slog.Int64("user_id", userID),
			slog.Int("days", days),
			slog.Int("quantity", record.Quantity))
	}

	var (
		entry   Detected
		created bool
	)

	err := r.locker.WithExternalID(ctx, externalID, func(ctx context.Context) error {
		skip, reason, err := r.shouldSkip(ctx, externalID, record, userID, days)
		if err != nil {
			return err
		}
		if skip {
			r.log.Info("skipping feed record",
				slog.String("external_id", externalID),
				slog.String("reason", reason))
			metrics.RecordPaymentSkipped(reason)
			return nil
		}

		if err := r.store.UpsertUser(ctx, userID, record.SupporterName); err != nil {
			return err
		}

		paymentID, err := r.store.RecordPayment(ctx, store.RecordPaymentParams{
			UserID:     userID,
			Days:       days,
			Amount:     record.Amount,
			Status:     domain.PaymentPending,
			ExternalID: externalID,
		})
		if err != nil {
			return err
		}

		entry = Detected{
			PaymentID:        paymentID,
			UserID:           userID,
			Days:             days,
			Amount:           record.Amount,
			Quantity:         record.Quantity,
			SupporterName:    record.SupporterName,
			ExternalID:       externalID,
			ValidationPassed: validationPassed,
			QuantityOK:       quantityOK,
		}
		created = true

		metrics.RecordPaymentIngested(validationPassed)
		return nil
	})
	if err != nil {
		if errors.Is(err, locks.ErrLocked) {
			// a concurrent sync holds this identifier; it will ingest it
			metrics.RecordPaymentSkipped("locked")
			return Detected{}, false
		}

		r.log.Error("failed to ingest feed record",
			slog.String("external_id", externalID),
			slog.Any("error", err))
		return Detected{}, false
	}

	return entry, created
}

// shouldSkip applies the dedup chain in its required order. The first
// match wins and the record produces no new row.
func (r *Reconciler) shouldSkip(ctx context.Context, externalID string, record trakteer.Record, userID int64, days int) (bool, string, error) {
	existing, err := r.store.GetPaymentByExternalID(ctx, externalID)
	if err != nil {
		return false, "", err
	}
	if existing != nil {
		return true, "already_ingested", nil
	}

	if updatedAt, parseErr := time.ParseInLocation(feedTimeLayout, record.UpdatedAt, time.Local); parseErr == nil {
		if r.now().Sub(updatedAt) > stalenessWindow {
			return true, "stale", nil
		}
	}

	processed, err := r.store.HasEverProcessed(ctx, userID, record.Amount, days)
	if err != nil {
		return false, "", err
	}
	if processed {
		return true, "already_processed", nil
	}

	active, err := r.store.IsVipActive(ctx, userID)
	if err != nil {
		return false, "", err
	}
	if active {
		return true, "vip_active", nil
	}

	return false, "", nil
}
