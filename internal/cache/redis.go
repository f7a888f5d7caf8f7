package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"chart-advisor/internal/models"
)

// RedisStore caches candles in Redis. Backend failures are logged and
// degrade to cache misses so analysis keeps working without Redis.
type RedisStore struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewRedisStore connects a Redis-backed candle cache.
func NewRedisStore(addr, password string, db int, logger zerolog.Logger) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	return &RedisStore{
		client: client,
		logger: logger.With().Str("component", "redis_cache").Logger(),
	}
}

// Ping verifies connectivity. Callers may treat failure as advisory.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Get returns the cached candles for the key, or a miss on any failure.
func (s *RedisStore) Get(ctx context.Context, key string) ([]models.Candle, bool) {
	payload, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		}
		return nil, false
	}
	var candles []models.Candle
	if err := json.Unmarshal(payload, &candles); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Cache entry corrupt, discarding")
		s.client.Del(ctx, key)
		return nil, false
	}
	return candles, true
}

// Set stores candles under the key for the given TTL. Failures are logged
// and otherwise ignored.
func (s *RedisStore) Set(ctx context.Context, key string, candles []models.Candle, ttl time.Duration) {
	payload, err := json.Marshal(candles)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Cache encode failed")
		return
	}
	if err := s.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
