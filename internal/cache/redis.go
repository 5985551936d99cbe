package cache

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisBackend is the fast shared tier.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend connects to Redis. redisURL may be a redis:// URL or a
// bare host:port. The connection is probed once so availability shows up in
// the logs; a failed probe is not an error, later operations just miss.
func NewRedisBackend(redisURL string, logger *slog.Logger) *RedisBackend {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var client *redis.Client
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			logger.Warn("invalid redis url, falling back to address only", "url", redisURL, "error", err)
			opt = &redis.Options{Addr: strings.TrimPrefix(redisURL, "redis://")}
		}
		client = redis.NewClient(opt)
	} else {
		client = redis.NewClient(&redis.Options{Addr: redisURL})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, primary cache tier will miss", "url", redisURL, "error", err)
	} else {
		logger.Debug("redis connected", "url", redisURL)
	}

	return &RedisBackend{client: client}
}

func (b *RedisBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (b *RedisBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return b.client.Set(ctx, key, value, ttl).Err()
}

func (b *RedisBackend) Clear(ctx context.Context) error {
	return b.client.FlushDB(ctx).Err()
}

func (b *RedisBackend) Close() error {
	return b.client.Close()
}
