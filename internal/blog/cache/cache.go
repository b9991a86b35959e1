// Package cache provides a Redis-backed read-through cache for published
// article responses. A nil *Cache is safe to use and disables caching, so
// callers never have to branch on whether Redis is configured.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"atelier/internal/blog/models"
	"atelier/internal/platform/metrics"
	"atelier/internal/platform/redis"
)

const (
	keyPrefix   = "blog:"
	articleKey  = keyPrefix + "article:"
	listKey     = keyPrefix + "list:"
	taxonomyKey = keyPrefix + "taxonomy"

	defaultTTL = 5 * time.Minute
)

type Cache struct {
	client  *redis.Client
	logger  *slog.Logger
	metrics *metrics.Metrics
	ttl     time.Duration
}

func New(client *redis.Client, logger *slog.Logger, m *metrics.Metrics) *Cache {
	if client == nil {
		return nil
	}
	return &Cache{client: client, logger: logger, metrics: m, ttl: defaultTTL}
}

// GetArticle returns a cached article by slug, or sentinel miss via ok=false.
func (c *Cache) GetArticle(ctx context.Context, slug string) (*models.Article, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, articleKey+slug).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.logger.Warn("article cache read failed", "slug", slug, "error", err)
		}
		c.metrics.CacheMisses.Inc()
		return nil, false
	}
	var a models.Article
	if err := json.Unmarshal(raw, &a); err != nil {
		c.metrics.CacheMisses.Inc()
		return nil, false
	}
	c.metrics.CacheHits.Inc()
	return &a, true
}

func (c *Cache) SetArticle(ctx context.Context, a *models.Article) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, articleKey+a.Slug, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("article cache write failed", "slug", a.Slug, "error", err)
	}
}

// GetList returns a cached published listing keyed by the normalized filter.
func (c *Cache) GetList(ctx context.Context, filter models.ListFilter) (*models.ArticlePage, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, listCacheKey(filter)).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.logger.Warn("list cache read failed", "error", err)
		}
		c.metrics.CacheMisses.Inc()
		return nil, false
	}
	var page models.ArticlePage
	if err := json.Unmarshal(raw, &page); err != nil {
		c.metrics.CacheMisses.Inc()
		return nil, false
	}
	c.metrics.CacheHits.Inc()
	return &page, true
}

func (c *Cache) SetList(ctx context.Context, filter models.ListFilter, page *models.ArticlePage) {
	if c == nil {
		return
	}
	raw, err := json.Marshal(page)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, listCacheKey(filter), raw, c.ttl).Err(); err != nil {
		c.logger.Warn("list cache write failed", "error", err)
	}
}

// InvalidateArticle drops the slug entry and all listing pages. Listings are
// swept wholesale because any mutation can change ordering and totals.
func (c *Cache) InvalidateArticle(ctx context.Context, slug string) {
	if c == nil {
		return
	}
	keys := []string{articleKey + slug}
	iter := c.client.Scan(ctx, 0, listKey+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("cache scan failed", "error", err)
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("cache invalidation failed", "slug", slug, "error", err)
	}
}

func listCacheKey(f models.ListFilter) string {
	category := ""
	if f.CategoryID != nil {
		category = f.CategoryID.String()
	}
	return fmt.Sprintf("%s%s:%s:%s:%s:%d:%d:%s:%s",
		listKey, f.Status, category, f.TagSlug, f.Search,
		f.Page, f.Limit, f.SortBy, f.Order)
}
