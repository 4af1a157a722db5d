package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLockHeld is returned by Lock when another holder owns the key.
var ErrLockHeld = errors.New("lock held by another process")

// releaseScript deletes the lock only if the caller still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisGuard deduplicates background notifications and serializes sweeps
// across instances.
type RedisGuard struct {
	client *redis.Client
	prefix string
}

func NewRedisGuard(client *redis.Client, prefix string) *RedisGuard {
	return &RedisGuard{client: client, prefix: prefix}
}

func (g *RedisGuard) key(k string) string {
	if g.prefix == "" {
		return k
	}
	return g.prefix + ":" + k
}

// Once reports true the first time key is seen within ttl.
func (g *RedisGuard) Once(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return g.client.SetNX(ctx, g.key(key), 1, ttl).Result()
}

// Lock acquires key for ttl. The returned func releases it.
func (g *RedisGuard) Lock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error) {
	token := uuid.NewString()
	full := g.key(key)
	ok, err := g.client.SetNX(ctx, full, token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLockHeld
	}
	return func(ctx context.Context) error {
		return releaseScript.Run(ctx, g.client, []string{full}, token).Err()
	}, nil
}
