package idempotency

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(t *testing.T) Manager {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewManager(NewRedisStore(client, testLogger()), testLogger())
}

func TestExecute_RunsOperationOnce(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	calls := 0
	fn := func(ctx context.Context) (interface{}, error) {
		calls++
		return "done", nil
	}

	first, err := m.Execute(ctx, "key-1", time.Hour, fn)
	require.NoError(t, err)
	assert.False(t, first.FromCache)

	second, err := m.Execute(ctx, "key-1", time.Hour, fn)
	require.NoError(t, err)
	assert.True(t, second.FromCache)

	assert.Equal(t, 1, calls)
}

func TestExecute_DistinctKeysRunIndependently(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	calls := 0
	fn := func(ctx context.Context) (interface{}, error) {
		calls++
		return nil, nil
	}

	_, err := m.Execute(ctx, "key-a", time.Hour, fn)
	require.NoError(t, err)
	_, err = m.Execute(ctx, "key-b", time.Hour, fn)
	require.NoError(t, err)

	assert.Equal(t, 2, calls)
}

func TestExecute_OperationErrorNotCached(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	wantErr := errors.New("boom")
	_, err := m.Execute(ctx, "key-err", time.Hour, func(ctx context.Context) (interface{}, error) {
		return nil, wantErr
	})
	require.ErrorIs(t, err, wantErr)

	// a failed run must not poison the key; a retry executes again
	result, err := m.Execute(ctx, "key-err", time.Hour, func(ctx context.Context) (interface{}, error) {
		return "recovered", nil
	})
	require.NoError(t, err)
	assert.False(t, result.FromCache)
}

func TestGenerateKey_Deterministic(t *testing.T) {
	assert.Equal(t, GenerateKey("msg", int64(1), 2), GenerateKey("msg", int64(1), 2))
	assert.NotEqual(t, GenerateKey("msg", int64(1), 2), GenerateKey("msg", int64(1), 3))
}
