package genqueue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newLockClient(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisLockerSingleHolder(t *testing.T) {
	client := newLockClient(t)
	ctx := context.Background()

	first := NewRedisLocker(client, "default", time.Minute)
	second := NewRedisLocker(client, "default", time.Minute)

	ok, err := first.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	require.False(t, ok, "a second session must not take the processor")

	require.NoError(t, first.Release(ctx))

	ok, err = second.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRedisLockerReleaseIgnoresForeignLock(t *testing.T) {
	client := newLockClient(t)
	ctx := context.Background()

	owner := NewRedisLocker(client, "default", time.Minute)
	stranger := NewRedisLocker(client, "default", time.Minute)

	ok, err := owner.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	// A locker that never acquired must not free the owner's lock.
	require.NoError(t, stranger.Release(ctx))

	ok, err = stranger.Acquire(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRedisLockerQueuesAreIndependent(t *testing.T) {
	client := newLockClient(t)
	ctx := context.Background()

	ok, err := NewRedisLocker(client, "default", time.Minute).Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = NewRedisLocker(client, "sandbox", time.Minute).Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRedisLockerRefreshRequiresOwnership(t *testing.T) {
	client := newLockClient(t)
	ctx := context.Background()

	locker := NewRedisLocker(client, "default", time.Minute)
	require.Error(t, locker.Refresh(ctx), "refresh before acquire must fail")

	ok, err := locker.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, locker.Refresh(ctx))
}
