// Package locks provides Redis-backed advisory locks used to serialize
// mutations on a logical key (a payment row, a derived external
// transaction identifier).
package locks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	paymentLockKeyPattern  = "payment:lock:%d"
	externalLockKeyPattern = "trakteer:lock:%s"
	lockTTL                = 30 * time.Second
)

// ErrLocked indicates that a concurrent operation already holds the lock.
var ErrLocked = errors.New("resource is locked, try again later")

// Locker serializes work on payment rows and external identifiers.
type Locker interface {
	WithPayment(ctx context.Context, paymentID int64, fn func(ctx context.Context) error) error
	WithExternalID(ctx context.Context, externalID string, fn func(ctx context.Context) error) error
}

// locker is the concrete Locker backed by Redis SetNX.
type locker struct {
	redisClient *redis.Client
	log         *slog.Logger
}

// NewLocker creates a Locker using the provided redis client. A nil
// client degrades to no locking, which is only acceptable in tests.
func NewLocker(redisClient *redis.Client, log *slog.Logger) Locker {
	if log == nil {
		log = slog.Default()
	}

	return &locker{
		redisClient: redisClient,
		log:         log,
	}
}

// WithPayment runs fn while holding the advisory lock for the payment row.
func (l *locker) WithPayment(ctx context.Context, paymentID int64, fn func(ctx context.Context) error) error {
	return l.withKey(ctx, fmt.Sprintf(paymentLockKeyPattern, paymentID), fn)
}

// WithExternalID runs fn while holding the advisory lock for the
// derived external transaction identifier.
func (l *locker) WithExternalID(ctx context.Context, externalID string, fn func(ctx context.Context) error) error {
	return l.withKey(ctx, fmt.Sprintf(externalLockKeyPattern, externalID), fn)
}

func (l *locker) withKey(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	if fn == nil {
		return nil
	}

	if err := l.lock(ctx, key); err != nil {
		return err
	}
	defer l.unlock(ctx, key)

	return fn(ctx)
}

func (l *locker) lock(ctx context.Context, key string) error {
	if l.redisClient == nil {
		if l.log != nil {
			l.log.Warn("redis client not configured for advisory locks; skipping", "key", key)
		}
		return nil
	}

	acquired, err := l.redisClient.SetNX(ctx, key, 1, lockTTL).Result()
	if err != nil {
		if l.log != nil {
			l.log.Error("failed to acquire advisory lock", "key", key, "error", err)
		}
		return err
	}

	if !acquired {
		if l.log != nil {
			l.log.Warn("advisory lock already held", "key", key)
		}
		return ErrLocked
	}

	return nil
}

func (l *locker) unlock(ctx context.Context, key string) {
	if l.redisClient == nil {
		return
	}

	if err := l.redisClient.Del(ctx, key).Err(); err != nil && l.log != nil {
		l.log.Error("failed to release advisory lock", "key", key, "error", err)
	}
}
