package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
)

const defaultLockTTL = 10 * time.Minute

// Lock coordinates exclusive cron runs across worker replicas.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

type releaser interface {
	Release(ctx context.Context) error
}

type obtainer interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (releaser, error)
}

type redislockObtainer struct {
	client *redislock.Client
}

func (o redislockObtainer) Obtain(ctx context.Context, key string, ttl time.Duration) (releaser, error) {
	lock, err := o.client.Obtain(ctx, key, ttl, nil)
	if err != nil {
		return nil, err
	}
	return lock, nil
}

// RedisLock implements Lock on top of bsm/redislock. The token check on
// release lives in the library's Lua script.
type RedisLock struct {
	locker obtainer
	key    string
	ttl    time.Duration
	held   releaser
}

// NewRedisLock constructs a Redis-backed lock.
func NewRedisLock(client redislock.RedisClient, key string, ttl time.Duration) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	return newRedisLock(redislockObtainer{client: redislock.New(client)}, key, ttl)
}

func newRedisLock(locker obtainer, key string, ttl time.Duration) (*RedisLock, error) {
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{locker: locker, key: key, ttl: ttl}, nil
}

// Acquire reports false without error when another replica holds the lock.
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	held, err := l.locker.Obtain(ctx, l.key, l.ttl)
	if errors.Is(err, redislock.ErrNotObtained) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("obtain lock: %w", err)
	}
	l.held = held
	return true, nil
}

// Release frees the lock if this instance still owns it.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.held == nil {
		return nil
	}
	held := l.held
	l.held = nil
	if err := held.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
