//go:build integration

package cache_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"atelier/internal/blog/cache"
	"atelier/internal/blog/models"
	"atelier/internal/platform/metrics"
	"atelier/internal/platform/redis"
	"atelier/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis   *containers.RedisContainer
	cache   *cache.Cache
	metrics *metrics.Metrics
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.metrics = metrics.New()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.cache = cache.New(&redis.Client{Client: s.redis.Client}, logger, s.metrics)
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func publishedArticle(slug string) *models.Article {
	now := time.Now().UTC().Truncate(time.Second)
	published := now
	return &models.Article{
		ID:          uuid.New(),
		Title:       "Cached " + slug,
		Slug:        slug,
		Content:     "body",
		Status:      models.StatusPublished,
		PublishedAt: &published,
		ReadingTime: 1,
		AuthorID:    uuid.New(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *RedisCacheSuite) TestArticleRoundTrip() {
	ctx := context.Background()
	a := publishedArticle("round-trip")

	_, ok := s.cache.GetArticle(ctx, a.Slug)
	s.False(ok, "cold cache misses")

	s.cache.SetArticle(ctx, a)

	got, ok := s.cache.GetArticle(ctx, a.Slug)
	s.Require().True(ok)
	s.Equal(a.ID, got.ID)
	s.Equal(a.Title, got.Title)
	s.Require().NotNil(got.PublishedAt)
	s.True(a.PublishedAt.Equal(*got.PublishedAt))
}

func (s *RedisCacheSuite) TestListRoundTrip() {
	ctx := context.Background()
	filter := models.ListFilter{Status: models.StatusPublished}
	filter.Normalize()

	page := &models.ArticlePage{
		Data: []*models.Article{publishedArticle("listed")},
		Meta:  models.NewPageMeta(1, filter.Page, filter.Limit),
	}
	s.cache.SetList(ctx, filter, page)

	got, ok := s.cache.GetList(ctx, filter)
	s.Require().True(ok)
	s.Require().Len(got.Data, 1)
	s.Equal("listed", got.Data[0].Slug)
	s.Equal(1, got.Meta.Total)

	other := filter
	other.Page = 2
	_, ok = s.cache.GetList(ctx, other)
	s.False(ok, "a different filter is a different key")
}

func (s *RedisCacheSuite) TestInvalidateArticleSweepsLists() {
	ctx := context.Background()
	a := publishedArticle("stale")
	s.cache.SetArticle(ctx, a)

	filter := models.ListFilter{Status: models.StatusPublished}
	filter.Normalize()
	s.cache.SetList(ctx, filter, &models.ArticlePage{
		Data: []*models.Article{a},
		Meta:  models.NewPageMeta(1, filter.Page, filter.Limit),
	})

	s.cache.InvalidateArticle(ctx, a.Slug)

	_, ok := s.cache.GetArticle(ctx, a.Slug)
	s.False(ok)
	_, ok = s.cache.GetList(ctx, filter)
	s.False(ok, "listings are swept on any article change")
}
