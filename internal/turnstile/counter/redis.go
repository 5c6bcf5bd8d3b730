package counter

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisBackend implements Backend against a Redis server.  INCRBY gives
// the per-key atomicity the counter relies on.
type RedisBackend struct {
	client *redis.Client
}

type RedisConfig struct {
	Addr     string // host:port
	Password string // empty for no auth
}

func NewRedisBackend(cfg RedisConfig) *RedisBackend {
	return &RedisBackend{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
		}),
	}
}

func (b *RedisBackend) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	return b.client.IncrBy(ctx, key, delta).Result()
}

func (b *RedisBackend) Get(ctx context.Context, key string) (int64, error) {
	v, err := b.client.Get(ctx, key).Result()
	if err == redis.Nil {
		// Counters are lazily materialized: an absent key reads as 0.
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(v, 10, 64)
}

func (b *RedisBackend) Set(ctx context.Context, key string, value int64) error {
	return b.client.Set(ctx, key, value, 0).Err()
}

func (b *RedisBackend) Close() error {
	return b.client.Close()
}
