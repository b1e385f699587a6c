package cache

import (
	"context"
	"time"

	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/config"
	"github.com/KarmaCummunity/KC-MVP-server-sub001/internal/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// redisStore backs Store with Redis. Every operation swallows backend
// errors; Redis being down degrades to a permanent cache miss.
type redisStore struct {
	client *redis.Client
	logger *logrus.Logger
}

// NewRedisStore creates a Redis-backed cache store.
func NewRedisStore(cfg config.RedisConfig, logger *logrus.Logger) Store {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &redisStore{client: client, logger: logger}
}

func (s *redisStore) Get(ctx context.Context, key string) (string, bool) {
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		metrics.RecordCacheMiss()
		return "", false
	}
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Debug("cache get failed, treating as miss")
		metrics.RecordCacheError()
		return "", false
	}
	metrics.RecordCacheHit()
	return val, true
}

func (s *redisStore) Set(ctx context.Context, key string, value string, ttl time.Duration) {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		s.logger.WithError(err).WithField("key", key).Debug("cache set failed")
		metrics.RecordCacheError()
	}
}

func (s *redisStore) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		s.logger.WithError(err).WithField("keys", keys).Debug("cache delete failed")
		metrics.RecordCacheError()
	}
}

func (s *redisStore) DeletePattern(ctx context.Context, pattern string) {
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		s.logger.WithError(err).WithField("pattern", pattern).Debug("cache scan failed")
		metrics.RecordCacheError()
		return
	}
	s.Delete(ctx, keys...)
}
