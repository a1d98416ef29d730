package services

import (
	"context"
	"fmt"
	"time"

	"socialdeck/internal/core/domain"
	"socialdeck/internal/core/ports"
	"socialdeck/pkg/cache"
)

const listCachePrefix = "analytics:list:"

// CachedAnalyticsRepository wraps an analytics repository with caching.
// Query results are cached per (filter, options) key; any write invalidates
// every cached query, because a new event can appear in any visible slice.
type CachedAnalyticsRepository struct {
	base     ports.AnalyticsRepository
	cache    *cache.CacheWithFallback
	queryTTL time.Duration
}

// NewCachedAnalyticsRepository creates a new cached analytics repository
func NewCachedAnalyticsRepository(base ports.AnalyticsRepository, queryTTL time.Duration) ports.AnalyticsRepository {
	return &CachedAnalyticsRepository{
		base:     base,
		cache:    cache.NewCacheWithFallback(queryTTL),
		queryTTL: queryTTL,
	}
}

// Record stores an event and invalidates cached queries
func (r *CachedAnalyticsRepository) Record(ctx context.Context, event domain.MetricEvent) error {
	if err := r.base.Record(ctx, event); err != nil {
		return err
	}

	r.cache.Invalidate(listCachePrefix)
	return nil
}

// ListVisible queries events with caching
func (r *CachedAnalyticsRepository) ListVisible(ctx context.Context, filter domain.OwnershipFilter, opts ports.MetricQueryOptions) ([]domain.MetricEvent, error) {
	cacheKey := listCacheKey(filter, opts)

	value, err := r.cache.GetOrSet(ctx, cacheKey, func(ctx context.Context) (interface{}, error) {
		return r.base.ListVisible(ctx, filter, opts)
	}, r.queryTTL)

	if err != nil {
		return nil, err
	}

	return value.([]domain.MetricEvent), nil
}

func listCacheKey(filter domain.OwnershipFilter, opts ports.MetricQueryOptions) string {
	return fmt.Sprintf("%s%s:%s:%t:%s:%s:%d:%d",
		listCachePrefix,
		filter.UserID,
		filter.TeamID,
		filter.All,
		opts.Platform,
		opts.SubjectID,
		opts.From.UnixNano(),
		opts.To.UnixNano(),
	)
}
