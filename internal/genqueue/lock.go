package genqueue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/meridian-campus/meridian-campus/internal/shared"
)

// releaseScript deletes the lock only when this locker still owns it.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker with a redis advisory lock. The TTL bounds
// how long a crashed processor can wedge the queue; a live processor
// refreshes it on every heartbeat.
type RedisLocker struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration
}

// NewRedisLocker constructs a locker for the named queue.
func NewRedisLocker(client *redis.Client, queue string, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &RedisLocker{
		client: client,
		key:    shared.GenQueueLockKey(queue),
		token:  uuid.NewString(),
		ttl:    ttl,
	}
}

// Acquire attempts to take the lock. false means another holder exists.
func (l *RedisLocker) Acquire(ctx context.Context) (bool, error) {
	return l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
}

// Refresh extends the TTL while this locker owns the lock.
func (l *RedisLocker) Refresh(ctx context.Context) error {
	ok, err := l.client.Expire(ctx, l.key, l.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return shared.ErrNotFound
	}
	return nil
}

// Release drops the lock if still owned; releasing someone else's lock is
// a no-op.
func (l *RedisLocker) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err()
}

var _ Locker = (*RedisLocker)(nil)
