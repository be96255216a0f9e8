package selection

import (
	"context"
	"time"

	"github.com/wonny/qmomentum/internal/contracts"
	"github.com/wonny/qmomentum/pkg/logger"
	"github.com/wonny/qmomentum/pkg/redis"
)

// Cache is the subset of *redis.Cache the store needs
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// CachedStore serves ranked tables from cache before the backing store
// ⭐ SSOT: 스크리닝 결과 캐시는 여기서만
//
// Cache failures are logged and never fail a call.
type CachedStore struct {
	store  contracts.ScreeningStore
	cache  Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewCachedStore wraps store with cache
func NewCachedStore(store contracts.ScreeningStore, cache Cache, ttl time.Duration, log *logger.Logger) *CachedStore {
	return &CachedStore{store: store, cache: cache, ttl: ttl, logger: log}
}

// SaveScreening writes through and refreshes both cache keys
func (s *CachedStore) SaveScreening(ctx context.Context, result *contracts.ScreeningResult) error {
	if err := s.store.SaveScreening(ctx, result); err != nil {
		return err
	}

	s.put(ctx, redis.ScreeningKey(result.AsOf), result)
	s.put(ctx, redis.LatestScreeningKey, result)
	return nil
}

// LatestScreening returns the most recent ranked table
func (s *CachedStore) LatestScreening(ctx context.Context) (*contracts.ScreeningResult, error) {
	return s.load(ctx, redis.LatestScreeningKey, func() (*contracts.ScreeningResult, error) {
		return s.store.LatestScreening(ctx)
	})
}

// ScreeningByDate returns the ranked table for a date
func (s *CachedStore) ScreeningByDate(ctx context.Context, asOf time.Time) (*contracts.ScreeningResult, error) {
	return s.load(ctx, redis.ScreeningKey(asOf), func() (*contracts.ScreeningResult, error) {
		return s.store.ScreeningByDate(ctx, asOf)
	})
}

func (s *CachedStore) load(ctx context.Context, key string, fetch func() (*contracts.ScreeningResult, error)) (*contracts.ScreeningResult, error) {
	var cached contracts.ScreeningResult
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Screening cache read failed")
	}
	if found {
		return &cached, nil
	}

	result, err := fetch()
	if err != nil {
		return nil, err
	}
	s.put(ctx, key, result)
	return result, nil
}

func (s *CachedStore) put(ctx context.Context, key string, result *contracts.ScreeningResult) {
	if err := s.cache.Set(ctx, key, result, s.ttl); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Screening cache write failed")
	}
}
