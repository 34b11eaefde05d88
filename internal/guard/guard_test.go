package guard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/raditpra/unduh-bot/internal/domain"
	"github.com/raditpra/unduh-bot/internal/vip"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) IsVipActive(ctx context.Context, userID int64) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) GetDailyDownloadCount(ctx context.Context, userID int64, date string) (int, error) {
	args := m.Called(ctx, userID, date)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) RecordDownload(ctx context.Context, userID int64, date string) error {
	args := m.Called(ctx, userID, date)
	return args.Error(0)
}

type mockMembership struct {
	mock.Mock
}

func (m *mockMembership) IsMember(ctx context.Context, channel string, userID int64) (bool, error) {
	args := m.Called(ctx, channel, userID)
	return args.Bool(0), args.Error(1)
}

func TestCheck_AdminAlwaysAllowed(t *testing.T) {
	st := &mockStore{}
	g := NewGuard(st, nil, vip.NewCatalog(), nil, testLogger())

	decision, err := g.Check(context.Background(), 1, true)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	// admins never hit the store
	st.AssertNotCalled(t, "IsVipActive", mock.Anything, mock.Anything)
}

func TestCheck_FreeUserUnderLimit(t *testing.T) {
	st := &mockStore{}
	st.On("IsVipActive", mock.Anything, int64(1)).Return(false, nil).Once()
	st.On("GetDailyDownloadCount", mock.Anything, int64(1), mock.Anything).Return(3, nil).Once()

	g := NewGuard(st, nil, vip.NewCatalog(), nil, testLogger())

	decision, err := g.Check(context.Background(), 1, false)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 3, decision.Current)
	assert.Equal(t, 10, decision.Limit)
	st.AssertExpectations(t)
}

func TestCheck_FreeUserAtLimit(t *testing.T) {
	st := &mockStore{}
	st.On("IsVipActive", mock.Anything, int64(1)).Return(false, nil).Once()
	st.On("GetDailyDownloadCount", mock.Anything, int64(1), mock.Anything).Return(10, nil).Once()

	g := NewGuard(st, nil, vip.NewCatalog(), nil, testLogger())

	decision, err := g.Check(context.Background(), 1, false)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, DenyDailyLimit, decision.Reason)
	assert.Equal(t, 10, decision.Current)
	assert.Equal(t, 10, decision.Limit)
}

func TestCheck_VipGetsHigherLimit(t *testing.T) {
	st := &mockStore{}
	st.On("IsVipActive", mock.Anything, int64(1)).Return(true, nil).Once()
	st.On("GetDailyDownloadCount", mock.Anything, int64(1), mock.Anything).Return(50, nil).Once()

	g := NewGuard(st, nil, vip.NewCatalog(), nil, testLogger())

	decision, err := g.Check(context.Background(), 1, false)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 100, decision.Limit)
}

func TestCheck_NonMemberDenied(t *testing.T) {
	st := &mockStore{}
	membership := &mockMembership{}
	membership.On("IsMember", mock.Anything, "@mychannel", int64(1)).Return(false, nil).Once()

	g := NewGuard(st, membership, vip.NewCatalog(), []string{"@mychannel"}, testLogger())

	decision, err := g.Check(context.Background(), 1, false)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, DenyNotMember, decision.Reason)
	assert.Equal(t, "@mychannel", decision.Channel)

	st.AssertNotCalled(t, "IsVipActive", mock.Anything, mock.Anything)
}

func TestCheck_MembershipErrorTreatedAsNonMember(t *testing.T) {
	st := &mockStore{}
	membership := &mockMembership{}
	membership.On("IsMember", mock.Anything, "@mychannel", int64(1)).
		Return(false, errors.New("telegram error")).Once()

	g := NewGuard(st, membership, vip.NewCatalog(), []string{"@mychannel"}, testLogger())

	decision, err := g.Check(context.Background(), 1, false)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, DenyNotMember, decision.Reason)
}

func TestCheck_MemberPassesGate(t *testing.T) {
	st := &mockStore{}
	st.On("IsVipActive", mock.Anything, int64(1)).Return(false, nil).Once()
	st.On("GetDailyDownloadCount", mock.Anything, int64(1), mock.Anything).Return(0, nil).Once()

	membership := &mockMembership{}
	membership.On("IsMember", mock.Anything, "@mychannel", int64(1)).Return(true, nil).Once()

	g := NewGuard(st, membership, vip.NewCatalog(), []string{"@mychannel"}, testLogger())

	decision, err := g.Check(context.Background(), 1, false)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	membership.AssertExpectations(t)
}

func TestCheck_DailyCountRollsOverAtMidnight(t *testing.T) {
	day1 := time.Date(2026, 8, 28, 23, 50, 0, 0, time.Local)
	day2 := day1.Add(24 * time.Hour)

	st := &mockStore{}
	st.On("RecordDownload", mock.Anything, int64(1), domain.DateKey(day1)).Return(nil).Once()
	st.On("IsVipActive", mock.Anything, int64(1)).Return(false, nil).Twice()
	st.On("GetDailyDownloadCount", mock.Anything, int64(1), domain.DateKey(day1)).Return(10, nil).Once()
	st.On("GetDailyDownloadCount", mock.Anything, int64(1), domain.DateKey(day2)).Return(0, nil).Once()

	g := NewGuard(st, nil, vip.NewCatalog(), nil, testLogger())

	// fill the free quota just before midnight
	g.now = func() time.Time { return day1 }
	require.NoError(t, g.RecordDelivery(context.Background(), 1, false))

	decision, err := g.Check(context.Background(), 1, false)
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, DenyDailyLimit, decision.Reason)

	// the next day counts against a fresh key
	g.now = func() time.Time { return day2 }

	decision, err = g.Check(context.Background(), 1, false)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Equal(t, 0, decision.Current)

	st.AssertExpectations(t)
}

func TestRecordDelivery(t *testing.T) {
	st := &mockStore{}
	st.On("RecordDownload", mock.Anything, int64(1), mock.Anything).Return(nil).Once()

	g := NewGuard(st, nil, vip.NewCatalog(), nil, testLogger())

	require.NoError(t, g.RecordDelivery(context.Background(), 1, false))
	st.AssertExpectations(t)
}

func TestRecordDelivery_AdminUncounted(t *testing.T) {
	st := &mockStore{}
	g := NewGuard(st, nil, vip.NewCatalog(), nil, testLogger())

	require.NoError(t, g.RecordDelivery(context.Background(), 1, true))
	st.AssertNotCalled(t, "RecordDownload", mock.Anything, mock.Anything, mock.Anything)
}
