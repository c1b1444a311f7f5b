package cache

import (
	"context"
	"time"

	"github.com/wonny/insight/internal/contracts"
	"github.com/wonny/insight/pkg/logger"
	"github.com/wonny/insight/pkg/redis"
)

// CatalogCache is a read-through Redis cache in front of the insight type catalog
// ⭐ SSOT: 카탈로그 캐싱은 이 구조체에서만
type CatalogCache struct {
	next   contracts.InsightTypeCatalog
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
}

var _ contracts.InsightTypeCatalog = (*CatalogCache)(nil)

// NewCatalogCache wraps next. A disabled Redis client passes every lookup through.
func NewCatalogCache(next contracts.InsightTypeCatalog, client *redis.Client, ttl time.Duration, log *logger.Logger) *CatalogCache {
	if ttl <= 0 {
		ttl = redis.TTLLong
	}
	return &CatalogCache{
		next:   next,
		cache:  redis.NewCache(client, "insight"),
		ttl:    ttl,
		logger: log,
	}
}

// GetInsightType serves from Redis when possible.
// Cache errors are logged and fall through to the catalog.
func (c *CatalogCache) GetInsightType(ctx context.Context, code contracts.InsightCode) (*contracts.InsightType, error) {
	key := redis.InsightTypeKey(string(code))

	var cached contracts.InsightType
	found, err := c.cache.Get(ctx, key, &cached)
	if err != nil {
		c.logger.WithError(err).WithField("code", code).Warn("Catalog cache read failed")
	}
	if found {
		return &cached, nil
	}

	it, err := c.next.GetInsightType(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, it, c.ttl); err != nil {
		c.logger.WithError(err).WithField("code", code).Warn("Catalog cache write failed")
	}
	return it, nil
}

// Invalidate drops one cached entry
func (c *CatalogCache) Invalidate(ctx context.Context, code contracts.InsightCode) error {
	return c.cache.Delete(ctx, redis.InsightTypeKey(string(code)))
}
