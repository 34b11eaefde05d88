package handlers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	telebot "gopkg.in/telebot.v3"

	"github.com/raditpra/unduh-bot/internal/domain"
	apperrors "github.com/raditpra/unduh-bot/internal/errors"
	"github.com/raditpra/unduh-bot/internal/reconcile"
)

type fakeAdminStore struct {
	pending []domain.Payment
	vips    []domain.User
	stats   domain.Stats
}

func (f *fakeAdminStore) GetPendingPayments(ctx context.Context) ([]domain.Payment, error) {
	return f.pending, nil
}

func (f *fakeAdminStore) ListActiveVipUsers(ctx context.Context) ([]domain.User, error) {
	return f.vips, nil
}

func (f *fakeAdminStore) UserStats(ctx context.Context) (domain.Stats, error) {
	return f.stats, nil
}

type fakeSyncer struct {
	detected []reconcile.Detected
	err      error
	gotLimit int
}

func (f *fakeSyncer) Sync(ctx context.Context, limit int) ([]reconcile.Detected, error) {
	f.gotLimit = limit
	return f.detected, f.err
}

type fakeDecider struct {
	reconciled bool
	deleted    []int64
	deleteErr  error
}

func (f *fakeDecider) AutoReconcilePending(ctx context.Context) error {
	f.reconciled = true
	return nil
}

func (f *fakeDecider) DeleteVip(ctx context.Context, userID int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, userID)
	return nil
}

func newTestAdmin(store *fakeAdminStore, syncer *fakeSyncer, decider *fakeDecider) *Admin {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAdmin(store, syncer, decider, adminOnly(1), log)
}

func TestAdminAuthorization(t *testing.T) {
	admin := newTestAdmin(&fakeAdminStore{}, &fakeSyncer{}, &fakeDecider{})

	c := &stubContext{sender: &telebot.User{ID: 99}, text: "!debug"}
	require.NoError(t, admin.Debug()(c))
	assert.Empty(t, c.sent)
}

func TestAdminSyncPayments(t *testing.T) {
	t.Run("reports detected payments", func(t *testing.T) {
		syncer := &fakeSyncer{detected: []reconcile.Detected{
			{PaymentID: 5, UserID: 7, Days: 30, Amount: 35000, SupporterName: "budi", ValidationPassed: true, QuantityOK: true},
		}}
		admin := newTestAdmin(&fakeAdminStore{}, syncer, &fakeDecider{})

		c := &stubContext{sender: &telebot.User{ID: 1}, text: "!cek"}
		require.NoError(t, admin.SyncPayments()(c))

		assert.Equal(t, syncFetchLimit, syncer.gotLimit)
		require.Len(t, c.sent, 2)
		assert.Contains(t, c.sent[0], "1 new payment")
		assert.Contains(t, c.sent[1], "budi")
		assert.Contains(t, c.sent[1], "30 days")
	})

	t.Run("flags amount mismatch", func(t *testing.T) {
		syncer := &fakeSyncer{detected: []reconcile.Detected{
			{PaymentID: 6, UserID: 7, Days: 30, Amount: 12345, QuantityOK: true},
		}}
		admin := newTestAdmin(&fakeAdminStore{}, syncer, &fakeDecider{})

		c := &stubContext{sender: &telebot.User{ID: 1}, text: "!cek"}
		require.NoError(t, admin.SyncPayments()(c))

		require.Len(t, c.sent, 2)
		assert.Contains(t, c.sent[1], "⚠️ amount")
	})

	t.Run("fetch failure is surfaced, not silent", func(t *testing.T) {
		syncer := &fakeSyncer{err: fmt.Errorf("fetch transaction feed: boom")}
		admin := newTestAdmin(&fakeAdminStore{}, syncer, &fakeDecider{})

		c := &stubContext{sender: &telebot.User{ID: 1}, text: "!cek"}
		require.NoError(t, admin.SyncPayments()(c))

		require.Len(t, c.sent, 1)
		assert.Contains(t, c.sent[0], "Feed fetch failed")
	})

	t.Run("empty batch", func(t *testing.T) {
		admin := newTestAdmin(&fakeAdminStore{}, &fakeSyncer{}, &fakeDecider{})

		c := &stubContext{sender: &telebot.User{ID: 1}, text: "!cek"}
		require.NoError(t, admin.SyncPayments()(c))

		require.Len(t, c.sent, 1)
		assert.Contains(t, c.sent[0], "No new payments")
	})
}

func TestAdminPendingPayments(t *testing.T) {
	store := &fakeAdminStore{pending: []domain.Payment{
		{ID: 3, UserID: 7, Days: 7, Amount: 10000, Status: domain.PaymentPending, CreatedAt: time.Now()},
	}}
	decider := &fakeDecider{}
	admin := newTestAdmin(store, &fakeSyncer{}, decider)

	c := &stubContext{sender: &telebot.User{ID: 1}, text: "!pend"}
	require.NoError(t, admin.PendingPayments()(c))

	assert.True(t, decider.reconciled, "pending list must reconcile drift first")
	require.Len(t, c.sent, 2)
	assert.Contains(t, c.sent[1], "#3")
}

func TestAdminDeleteVip(t *testing.T) {
	t.Run("removes vip", func(t *testing.T) {
		decider := &fakeDecider{}
		admin := newTestAdmin(&fakeAdminStore{}, &fakeSyncer{}, decider)

		c := &stubContext{sender: &telebot.User{ID: 1}, text: "!delvip 777"}
		require.NoError(t, admin.DeleteVip()(c))

		assert.Equal(t, []int64{777}, decider.deleted)
		require.Len(t, c.sent, 1)
		assert.Contains(t, c.sent[0], "VIP removed")
	})

	t.Run("usage hint on missing argument", func(t *testing.T) {
		admin := newTestAdmin(&fakeAdminStore{}, &fakeSyncer{}, &fakeDecider{})

		c := &stubContext{sender: &telebot.User{ID: 1}, text: "!delvip"}
		require.NoError(t, admin.DeleteVip()(c))

		require.Len(t, c.sent, 1)
		assert.Contains(t, c.sent[0], "Usage")
	})

	t.Run("not active", func(t *testing.T) {
		decider := &fakeDecider{deleteErr: fmt.Errorf("user 777: %w", apperrors.ErrVipNotActive)}
		admin := newTestAdmin(&fakeAdminStore{}, &fakeSyncer{}, decider)

		c := &stubContext{sender: &telebot.User{ID: 1}, text: "!delvip 777"}
		require.NoError(t, admin.DeleteVip()(c))

		require.Len(t, c.sent, 1)
		assert.Contains(t, c.sent[0], "no active VIP")
	})
}

func TestAdminDebug(t *testing.T) {
	store := &fakeAdminStore{stats: domain.Stats{
		TotalUsers:     12,
		ActiveVipCount: 3,
		DownloadsToday: 40,
		PaymentsByStatus: map[domain.PaymentStatus]int64{
			domain.PaymentPending:  2,
			domain.PaymentApproved: 9,
		},
	}}
	admin := newTestAdmin(store, &fakeSyncer{}, &fakeDecider{})

	c := &stubContext{sender: &telebot.User{ID: 1}, text: "!debug"}
	require.NoError(t, admin.Debug()(c))

	require.Len(t, c.sent, 1)
	assert.Contains(t, c.sent[0], "Users: 12")
	assert.Contains(t, c.sent[0], "Active VIP: 3")
	assert.Contains(t, c.sent[0], "pending: 2")
}

func TestAdminListVip(t *testing.T) {
	expiry := time.Date(2026, 9, 30, 0, 0, 0, 0, time.UTC)
	users := make([]domain.User, 0, 25)
	for i := 0; i < 25; i++ {
		users = append(users, domain.User{
			ID: int64(i + 1), Username: fmt.Sprintf("user%d", i+1),
			IsVip: true, VipExpiresAt: &expiry,
		})
	}
	admin := newTestAdmin(&fakeAdminStore{vips: users}, &fakeSyncer{}, &fakeDecider{})

	c := &stubContext{sender: &telebot.User{ID: 1}, text: "!listvip"}
	require.NoError(t, admin.ListVip()(c))

	require.Len(t, c.sent, 1)
	assert.Contains(t, c.sent[0], "Active VIP users (25)")
	assert.Contains(t, c.sent[0], "user1 (1)")
	assert.NotContains(t, c.sent[0], "user11 (11)")
}
