package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheVersionKey = "fincal:cache:version"

// Cache methods are no-ops (or misses) when redis is not configured.

func (s Storage) SetCache(ctx context.Context, key string, value []byte, exp time.Duration) error {
	if s.rds == nil {
		return nil
	}
	return s.rds.Set(ctx, key, value, exp).Err()
}

func (s Storage) GetCache(ctx context.Context, key string) ([]byte, error) {
	if s.rds == nil {
		return nil, ErrCacheMiss
	}
	b, err := s.rds.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache %s. %w", key, err)
	}
	return b, nil
}

func (s Storage) DelCache(ctx context.Context, keys ...string) error {
	if s.rds == nil || len(keys) == 0 {
		return nil
	}
	return s.rds.Del(ctx, keys...).Err()
}

// CacheVersion is part of every calendar cache key; bumping it invalidates them all at once.
func (s Storage) CacheVersion(ctx context.Context) int64 {
	if s.rds == nil {
		return 0
	}
	v, err := s.rds.Get(ctx, cacheVersionKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		s.lg.Warn().Err(err).Msg("Failed to read cache version")
	}
	return v
}

func (s Storage) BumpCacheVersion(ctx context.Context) (int64, error) {
	if s.rds == nil {
		return 0, nil
	}
	v, err := s.rds.Incr(ctx, cacheVersionKey).Result()
	if err != nil {
		return 0, err
	}
	s.lg.Info().Msgf("Bumped cache version to %d", v)
	return v, nil
}
