package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/raditpra/unduh-bot/internal/domain"
	apperrors "github.com/raditpra/unduh-bot/internal/errors"
)

const pqUniqueViolation = "23505"

type postgresStore struct {
	db  *sql.DB
	log *slog.Logger
}

// NewPostgres creates a SQL-backed Store.
func NewPostgres(db *sql.DB, log *slog.Logger) Store {
	return &postgresStore{
		db:  db,
		log: log,
	}
}

// UpsertUser creates the user row if absent, otherwise refreshes the
// display name only. The original created_at is preserved.
func (s *postgresStore) UpsertUser(ctx context.Context, userID int64, displayName string) error {
	const query = `
		INSERT INTO users (user_id, username, created_at, is_vip)
		VALUES ($1, $2, NOW(), FALSE)
		ON CONFLICT (user_id) DO UPDATE SET username = EXCLUDED.username
	`

	if _, err := s.db.ExecContext(ctx, query, userID, displayName); err != nil {
		if s.log != nil {
			s.log.Error("failed to upsert user", slog.Int64("user_id", userID), slog.Any("error", err))
		}
		return fmt.Errorf("upsert user: %w", err)
	}

	return nil
}

// IsVipActive reports whether the user holds a live VIP entitlement.
// An expired-but-flagged row is corrected in place (lazy expiry) and
// reported as inactive.
func (s *postgresStore) IsVipActive(ctx context.Context, userID int64) (bool, error) {
	const query = `
		SELECT is_vip, vip_expires_at
		FROM users
		WHERE user_id = $1
	`

	var (
		isVip     bool
		expiresAt sql.NullTime
	)
	if err := s.db.QueryRowContext(ctx, query, userID).Scan(&isVip, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("select vip flags: %w", err)
	}

	if !isVip {
		return false, nil
	}

	if expiresAt.Valid && expiresAt.Time.After(time.Now()) {
		return true, nil
	}

	// stale flag: clear it so every later reader agrees
	if err := s.RemoveVip(ctx, userID); err != nil {
		return false, err
	}

	if s.log != nil {
		s.log.Info("lazily expired vip", slog.Int64("user_id", userID))
	}

	return false, nil
}

// GetVipStatus is the read-only entitlement view. Unlike IsVipActive it
// never mutates the row.
func (s *postgresStore) GetVipStatus(ctx context.Context, userID int64) (domain.VipStatus, error) {
	const query = `
		SELECT is_vip, vip_expires_at
		FROM users
		WHERE user_id = $1
	`

	var (
		isVip     bool
		expiresAt sql.NullTime
	)
	if err := s.db.QueryRowContext(ctx, query, userID).Scan(&isVip, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.VipStatus{}, apperrors.ErrUserNotFound
		}
		return domain.VipStatus{}, fmt.Errorf("select vip status: %w", err)
	}

	status := domain.VipStatus{}
	if expiresAt.Valid {
		t := expiresAt.Time
		status.ExpiresAt = &t
		status.Active = isVip && t.After(time.Now())
	}

	return status, nil
}

// ActivateVip ensures the user row exists and then sets the VIP fields
// unconditionally. Last writer wins: a shorter new expiry replaces a
// longer existing one.
func (s *postgresStore) ActivateVip(ctx context.Context, userID int64, expiresAt time.Time) error {
	const query = `
		INSERT INTO users (user_id, username, created_at, is_vip, vip_expires_at)
		VALUES ($1, '', NOW(), TRUE, $2)
		ON CONFLICT (user_id) DO UPDATE SET is_vip = TRUE, vip_expires_at = EXCLUDED.vip_expires_at
	`

	if _, err := s.db.ExecContext(ctx, query, userID, expiresAt); err != nil {
		if s.log != nil {
			s.log.Error("failed to activate vip", slog.Int64("user_id", userID), slog.Any("error", err))
		}
		return fmt.Errorf("activate vip: %w", err)
	}

	return nil
}

// RemoveVip clears the VIP fields.
func (s *postgresStore) RemoveVip(ctx context.Context, userID int64) error {
	const query = `
		UPDATE users
		SET is_vip = FALSE, vip_expires_at = NULL
		WHERE user_id = $1
	`

	if _, err := s.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("remove vip: %w", err)
	}

	return nil
}

// GetDailyDownloadCount returns the number of downloads recorded for
// the user on the given calendar date.
func (s *postgresStore) GetDailyDownloadCount(ctx context.Context, userID int64, date string) (int, error) {
	const query = `
		SELECT COUNT(*)
		FROM downloads
		WHERE user_id = $1 AND download_date = $2
	`

	var count int
	if err := s.db.QueryRowContext(ctx, query, userID, date).Scan(&count); err != nil {
		return 0, fmt.Errorf("count daily downloads: %w", err)
	}

	return count, nil
}

// RecordDownload appends one delivered media item to the counter table.
func (s *postgresStore) RecordDownload(ctx context.Context, userID int64, date string) error {
	const query = `
		INSERT INTO downloads (user_id, download_date, created_at)
		VALUES ($1, $2, NOW())
	`

	if _, err := s.db.ExecContext(ctx, query, userID, date); err != nil {
		return fmt.Errorf("record download: %w", err)
	}

	return nil
}

// RecordPayment inserts a new ledger row after two final dedup checks:
// an existing row with the same external identifier, and a pending row
// for the same user, amount and days created within the last hour.
// When either matches, the existing row's ID is returned instead.
func (s *postgresStore) RecordPayment(ctx context.Context, params RecordPaymentParams) (int64, error) {
	if params.ExternalID != "" {
		existing, err := s.GetPaymentByExternalID(ctx, params.ExternalID)
		if err != nil {
			return 0, err
		}
		if existing != nil {
			return existing.ID, nil
		}
	}

	const duplicateQuery = `
		SELECT id
		FROM payments
		WHERE user_id = $1 AND amount = $2 AND days = $3
		  AND status = 'pending'
		  AND created_at > NOW() - INTERVAL '1 hour'
		ORDER BY created_at DESC
		LIMIT 1
	`

	var duplicateID int64
	err := s.db.QueryRowContext(ctx, duplicateQuery, params.UserID, params.Amount, params.Days).Scan(&duplicateID)
	switch {
	case err == nil:
		if s.log != nil {
			s.log.Warn("duplicate pending payment within the hour",
				slog.Int64("user_id", params.UserID),
				slog.Int64("payment_id", duplicateID))
		}
		return duplicateID, nil
	case !errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("check duplicate payment: %w", err)
	}

	const insertQuery = `
		INSERT INTO payments (user_id, days, amount, status, trakteer_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id
	`

	externalID := sql.NullString{String: params.ExternalID, Valid: params.ExternalID != ""}

	var id int64
	if err := s.db.QueryRowContext(
		ctx,
		insertQuery,
		params.UserID,
		params.Days,
		params.Amount,
		string(params.Status),
		externalID,
	).Scan(&id); err != nil {
		// the unique index on trakteer_id backstops concurrent inserts
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation && params.ExternalID != "" {
			existing, lookupErr := s.GetPaymentByExternalID(ctx, params.ExternalID)
			if lookupErr == nil && existing != nil {
				return existing.ID, nil
			}
		}

		if s.log != nil {
			s.log.Error("failed to insert payment", slog.Int64("user_id", params.UserID), slog.Any("error", err))
		}
		return 0, fmt.Errorf("insert payment: %w", err)
	}

	return id, nil
}

const paymentColumns = `id, user_id, days, amount, status, COALESCE(trakteer_id, ''), created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (*domain.Payment, error) {
	var p domain.Payment
	if err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Days,
		&p.Amount,
		&p.Status,
		&p.ExternalID,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &p, nil
}

// GetPendingPayments returns pending rows, oldest first.
func (s *postgresStore) GetPendingPayments(ctx context.Context) ([]domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE status = 'pending'
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select pending payments: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending payment: %w", err)
		}
		payments = append(payments, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pending payments: %w", err)
	}

	return payments, nil
}

// GetPaymentByExternalID returns the row carrying the identifier, or
// nil when none exists.
func (s *postgresStore) GetPaymentByExternalID(ctx context.Context, externalID string) (*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE trakteer_id = $1
	`

	p, err := scanPayment(s.db.QueryRowContext(ctx, query, externalID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select payment by external id: %w", err)
	}

	return p, nil
}

// GetPaymentByCharacteristics returns the most recent row for the
// (user, amount, days) triple, or nil when none exists.
func (s *postgresStore) GetPaymentByCharacteristics(ctx context.Context, userID int64, amount int64, days int) (*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE user_id = $1 AND amount = $2 AND days = $3
		ORDER BY created_at DESC
		LIMIT 1
	`

	p, err := scanPayment(s.db.QueryRowContext(ctx, query, userID, amount, days))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select payment by characteristics: %w", err)
	}

	return p, nil
}

// HasEverProcessed reports whether any terminal-status row exists for
// the (user, amount, days) triple.
func (s *postgresStore) HasEverProcessed(ctx context.Context, userID int64, amount int64, days int) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1
			FROM payments
			WHERE user_id = $1 AND amount = $2 AND days = $3
			  AND status IN ('approved', 'rejected', 'expired')
		)
	`

	var exists bool
	if err := s.db.QueryRowContext(ctx, query, userID, amount, days).Scan(&exists); err != nil {
		return false, fmt.Errorf("check processed payment: %w", err)
	}

	return exists, nil
}

// GetPaymentByID fetches one ledger row.
func (s *postgresStore) GetPaymentByID(ctx context.Context, id int64) (*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE id = $1
	`

	p, err := scanPayment(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("select payment by id: %w", err)
	}

	return p, nil
}

// UpdatePaymentStatus transitions the row to the given status.
func (s *postgresStore) UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus) error {
	const query = `
		UPDATE payments
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, id, string(status))
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update payment status rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.ErrPaymentNotFound
	}

	return nil
}

// SweepExpiredVip clears VIP fields for every user whose expiry has
// passed and returns the number of rows corrected.
func (s *postgresStore) SweepExpiredVip(ctx context.Context) (int64, error) {
	const query = `
		UPDATE users
		SET is_vip = FALSE, vip_expires_at = NULL
		WHERE is_vip = TRUE AND vip_expires_at IS NOT NULL AND vip_expires_at <= NOW()
	`

	result, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("sweep expired vip: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sweep expired vip rows affected: %w", err)
	}

	return affected, nil
}

// ListActiveVipUsers returns users with a live entitlement, soonest
// expiry first.
func (s *postgresStore) ListActiveVipUsers(ctx context.Context) ([]domain.User, error) {
	const query = `
		SELECT user_id, username, is_vip, vip_expires_at, created_at
		FROM users
		WHERE is_vip = TRUE AND vip_expires_at > NOW()
		ORDER BY vip_expires_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select active vip users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var (
			user      domain.User
			expiresAt sql.NullTime
		)
		if err := rows.Scan(&user.ID, &user.Username, &user.IsVip, &expiresAt, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan active vip user: %w", err)
		}
		if expiresAt.Valid {
			t := expiresAt.Time
			user.VipExpiresAt = &t
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate active vip users: %w", err)
	}

	return users, nil
}

// UserStats returns the aggregate snapshot used by the admin debug view
// and the metrics collector.
func (s *postgresStore) UserStats(ctx context.Context) (domain.Stats, error) {
	stats := domain.Stats{PaymentsByStatus: make(map[domain.PaymentStatus]int64)}

	const countsQuery = `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM users WHERE is_vip = TRUE AND vip_expires_at > NOW()),
			(SELECT COUNT(*) FROM downloads WHERE download_date = $1)
	`

	today := domain.DateKey(time.Now())
	if err := s.db.QueryRowContext(ctx, countsQuery, today).Scan(
		&stats.TotalUsers,
		&stats.ActiveVipCount,
		&stats.DownloadsToday,
	); err != nil {
		return domain.Stats{}, fmt.Errorf("select user stats: %w", err)
	}

	const statusQuery = `
		SELECT status, COUNT(*)
		FROM payments
		GROUP BY status
	`

	rows, err := s.db.QueryContext(ctx, statusQuery)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("select payment stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			count  int64
		)
		if err := rows.Scan(&status, &count); err != nil {
			return domain.Stats{}, fmt.Errorf("scan payment stats: %w", err)
		}
		stats.PaymentsByStatus[domain.PaymentStatus(status)] = count
	}

	if err := rows.Err(); err != nil {
		return domain.Stats{}, fmt.Errorf("iterate payment stats: %w", err)
	}

	return stats, nil
}
