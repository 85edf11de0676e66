package shared

import (
	"context"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisClient wraps the go-redis client with reconnect keeplive, a snapshot
// cache for symbol lookups and a SetNX lock used to fence overlapping ETL runs.
type RedisClient struct {
	Client           *redis.Client
	url              string
	options          *redis.Options
	retryCount       int
	keepliveInterval time.Duration
	logger           zerolog.Logger
}

const (
	redisSnapshotPrefix = "crypto:symbol:"
	snapshotCacheTTL    = 60 * time.Second
)

func NewRedisClient(cfg *koanf.Koanf, logger zerolog.Logger) *RedisClient {
	url := cfg.String("redis.url")
	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.Panic().Err(err).Msg("invalid redis url")
	}

	return &RedisClient{
		Client:           nil,
		options:          opts,
		logger:           logger,
		url:              url,
		retryCount:       cfg.Int("redis.retry-count"),
		keepliveInterval: cfg.Duration("redis.keeplive-interval"),
	}
}

func (r *RedisClient) keeplive() {
	for {
		for i := 1; i <= r.retryCount; i++ {
			_, err := r.Client.Ping(context.Background()).Result()
			if err == nil || err == redis.Nil {
				break
			}

			if i == r.retryCount {
				r.logger.Warn().Msgf("Failed to reach Redis after %d attempts: %v", i, err)
				break
			}

			r.logger.Warn().Msgf("Failed to reach Redis: %v. Reconnecting (%d)...", err, i)
			r.Client = redis.NewClient(r.options)
		}

		time.Sleep(r.keepliveInterval)
	}
}

func (r *RedisClient) Connect() {
	r.Client = redis.NewClient(r.options)
	go r.keeplive()
}

func (r *RedisClient) Close() error {
	if r.Client == nil {
		return nil
	}
	return r.Client.Close()
}

func (r *RedisClient) AcquireLock(lockKey string, ttl time.Duration) bool {
	ctx := context.Background()
	ok, err := r.Client.SetNX(ctx, lockKey, "locked", ttl).Result()
	if err != nil {
		r.logger.Debug().Msg("failed to acquire lock key " + lockKey)
		return false
	}
	if !ok {
		r.logger.Debug().Msg("lock already held by another instance key:" + lockKey)
		return false
	}
	return true
}

func (r *RedisClient) ReleaseLock(lockKey string) {
	ctx := context.Background()
	r.Client.Del(ctx, lockKey)
}

func (r *RedisClient) SetSnapshotCache(symbol string, data []byte) error {
	cacheKey := redisSnapshotPrefix + symbol
	return r.Client.Set(context.Background(), cacheKey, data, snapshotCacheTTL).Err()
}

func (r *RedisClient) GetSnapshotCache(symbol string) (string, error) {
	cacheKey := redisSnapshotPrefix + symbol
	return r.Client.Get(context.Background(), cacheKey).Result()
}
