package locks

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestLocker(t *testing.T) (Locker, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewLocker(client, testLogger()), client
}

func TestWithPayment_RunsFunction(t *testing.T) {
	locker, _ := newTestLocker(t)

	called := false
	err := locker.WithPayment(context.Background(), 7, func(ctx context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("expected function to run")
	}
}

func TestWithPayment_SecondHolderRejected(t *testing.T) {
	locker, _ := newTestLocker(t)
	ctx := context.Background()

	err := locker.WithPayment(ctx, 7, func(ctx context.Context) error {
		inner := locker.WithPayment(ctx, 7, func(ctx context.Context) error {
			t.Fatal("nested call must not run")
			return nil
		})
		if !errors.Is(inner, ErrLocked) {
			t.Fatalf("expected ErrLocked, got %v", inner)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWithPayment_ReleasedAfterRun(t *testing.T) {
	locker, _ := newTestLocker(t)
	ctx := context.Background()

	wantErr := errors.New("inner failure")
	if err := locker.WithPayment(ctx, 9, func(ctx context.Context) error {
		return wantErr
	}); !errors.Is(err, wantErr) {
		t.Fatalf("expected inner error, got %v", err)
	}

	// lock must be free again even though fn failed
	if err := locker.WithPayment(ctx, 9, func(ctx context.Context) error {
		return nil
	}); err != nil {
		t.Fatalf("expected lock to be released, got %v", err)
	}
}

func TestWithExternalID_IndependentKeys(t *testing.T) {
	locker, _ := newTestLocker(t)
	ctx := context.Background()

	err := locker.WithExternalID(ctx, "trakteer_a", func(ctx context.Context) error {
		return locker.WithExternalID(ctx, "trakteer_b", func(ctx context.Context) error {
			return nil
		})
	})
	if err != nil {
		t.Fatalf("locks on distinct keys must not collide: %v", err)
	}
}

func TestLocker_NilRedisDegradesToNoLocking(t *testing.T) {
	locker := NewLocker(nil, testLogger())

	called := false
	if err := locker.WithPayment(context.Background(), 1, func(ctx context.Context) error {
		called = true
		return nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Fatal("expected function to run without redis")
	}
}
