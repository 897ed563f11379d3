package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bsm/redislock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHeld struct {
	released int
	err      error
}

func (f *fakeHeld) Release(context.Context) error {
	f.released++
	return f.err
}

type fakeObtainer struct {
	err     error
	held    *fakeHeld
	lastKey string
	lastTTL time.Duration
}

func (f *fakeObtainer) Obtain(_ context.Context, key string, ttl time.Duration) (releaser, error) {
	f.lastKey = key
	f.lastTTL = ttl
	if f.err != nil {
		return nil, f.err
	}
	return f.held, nil
}

func TestRedisLockAcquireAndRelease(t *testing.T) {
	held := &fakeHeld{}
	obtainer := &fakeObtainer{held: held}
	lock, err := newRedisLock(obtainer, "bo:lock:cron", 0)
	require.NoError(t, err)

	ok, err := lock.Acquire(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "bo:lock:cron", obtainer.lastKey)
	assert.Equal(t, defaultLockTTL, obtainer.lastTTL)

	require.NoError(t, lock.Release(context.Background()))
	require.NoError(t, lock.Release(context.Background()))
	assert.Equal(t, 1, held.released)
}

func TestRedisLockNotObtained(t *testing.T) {
	lock, err := newRedisLock(&fakeObtainer{err: redislock.ErrNotObtained}, "k", time.Minute)
	require.NoError(t, err)

	ok, err := lock.Acquire(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, lock.Release(context.Background()))
}

func TestRedisLockErrors(t *testing.T) {
	lock, err := newRedisLock(&fakeObtainer{err: errors.New("dial tcp: refused")}, "k", time.Minute)
	require.NoError(t, err)
	_, err = lock.Acquire(context.Background())
	assert.Error(t, err)

	expired := &fakeHeld{err: redislock.ErrLockNotHeld}
	lock, err = newRedisLock(&fakeObtainer{held: expired}, "k", time.Minute)
	require.NoError(t, err)
	_, err = lock.Acquire(context.Background())
	require.NoError(t, err)
	assert.NoError(t, lock.Release(context.Background()), "an expired lock is not a release failure")

	_, err = newRedisLock(&fakeObtainer{}, "", time.Minute)
	assert.Error(t, err)
	_, err = NewRedisLock(nil, "k", time.Minute)
	assert.Error(t, err)
}
