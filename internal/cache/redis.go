package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/azielinski/notifyme/internal/models"
	"github.com/azielinski/notifyme/internal/observability"
)

const redisExpiry = 48 * time.Hour

// RedisStore implements Store using redis, one JSON document per key.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisStore creates a RedisStore for the given server.
func NewRedisStore(addr, password string, db int, logger *zap.Logger) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{client: client, logger: logger.Named("weather_cache")}
}

// Get implements Store.Get. Misses and backend errors both report
// not-found; only backend errors are logged.
func (s *RedisStore) Get(ctx context.Context, frequency models.Frequency, city, country, date string) (models.Series, bool) {
	raw, err := s.client.Get(ctx, Key(frequency, city, country, date)).Bytes()
	if err != nil {
		if err != redis.Nil {
			observability.CacheErrorsTotal.WithLabelValues("get").Inc()
			s.logger.Error("redis get failed", zap.String("city", city), zap.String("country", country), zap.Error(err))
		}
		return models.Series{}, false
	}
	return decodeRecord(raw, frequency)
}

// Put implements Store.Put. Write failures are logged and swallowed.
func (s *RedisStore) Put(ctx context.Context, frequency models.Frequency, city, country string, series models.Series) {
	raw, err := encodeRecord(frequency, city, country, series)
	if err != nil {
		observability.CacheErrorsTotal.WithLabelValues("put").Inc()
		s.logger.Error("encode cache record", zap.String("city", city), zap.String("country", country), zap.Error(err))
		return
	}
	if err := s.client.Set(ctx, Key(frequency, city, country, Today()), raw, redisExpiry).Err(); err != nil {
		observability.CacheErrorsTotal.WithLabelValues("put").Inc()
		s.logger.Error("redis set failed", zap.String("city", city), zap.String("country", country), zap.Error(err))
	}
}

// Ping checks if redis is reachable. Used for health checks.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the redis client. Call during shutdown.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
