package article

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"atelier/internal/blog/models"
	"atelier/pkg/platform/sentinel"
)

type ArticleStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemoryStore
}

func TestArticleStoreSuite(t *testing.T) {
	suite.Run(t, new(ArticleStoreSuite))
}

func (s *ArticleStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemory()
}

func (s *ArticleStoreSuite) seed(title, slug string, status models.ArticleStatus) *models.Article {
	a := &models.Article{
		ID:        uuid.New(),
		Title:     title,
		Slug:      slug,
		Content:   "body of " + title,
		Status:    status,
		AuthorID:  uuid.New(),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(s.T(), s.store.Save(s.ctx, a))
	return a
}

func (s *ArticleStoreSuite) TestLookup() {
	s.Run("by id and slug", func() {
		a := s.seed("First Post", "first-post", models.StatusPublished)

		byID, err := s.store.FindByID(s.ctx, a.ID)
		s.Require().NoError(err)
		s.Equal(a.Title, byID.Title)

		bySlug, err := s.store.FindBySlug(s.ctx, "first-post")
		s.Require().NoError(err)
		s.Equal(a.ID, bySlug.ID)
	})

	s.Run("missing article", func() {
		_, err := s.store.FindByID(s.ctx, uuid.New())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)

		_, err = s.store.FindBySlug(s.ctx, "nope")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *ArticleStoreSuite) TestSlugUniqueness() {
	s.seed("First", "shared-slug", models.StatusDraft)

	dup := &models.Article{
		ID:       uuid.New(),
		Title:    "Second",
		Slug:     "shared-slug",
		AuthorID: uuid.New(),
	}
	err := s.store.Save(s.ctx, dup)
	s.Require().ErrorIs(err, sentinel.ErrConflict)

	exists, err := s.store.SlugExists(s.ctx, "shared-slug", uuid.New())
	s.Require().NoError(err)
	s.True(exists)

	existing, err := s.store.FindBySlug(s.ctx, "shared-slug")
	s.Require().NoError(err)
	exists, err = s.store.SlugExists(s.ctx, "shared-slug", existing.ID)
	s.Require().NoError(err)
	s.False(exists, "owner of the slug is excluded")
}

func (s *ArticleStoreSuite) TestListFiltering() {
	published := s.seed("Go Concurrency", "go-concurrency", models.StatusPublished)
	s.seed("Draft Notes", "draft-notes", models.StatusDraft)
	s.seed("Rust Ownership", "rust-ownership", models.StatusPublished)

	s.Run("by status", func() {
		items, total, err := s.store.List(s.ctx, models.ListFilter{Status: models.StatusPublished})
		s.Require().NoError(err)
		s.Equal(2, total)
		s.Len(items, 2)
	})

	s.Run("search matches title", func() {
		items, total, err := s.store.List(s.ctx, models.ListFilter{Search: "concurrency"})
		s.Require().NoError(err)
		s.Equal(1, total)
		s.Equal(published.ID, items[0].ID)
	})

	s.Run("by author", func() {
		items, total, err := s.store.List(s.ctx, models.ListFilter{AuthorID: &published.AuthorID})
		s.Require().NoError(err)
		s.Equal(1, total)
		s.Equal(published.ID, items[0].ID)
	})

	s.Run("no matches", func() {
		items, total, err := s.store.List(s.ctx, models.ListFilter{Search: "zig"})
		s.Require().NoError(err)
		s.Zero(total)
		s.Empty(items)
	})
}

func (s *ArticleStoreSuite) TestListPagination() {
	for i := 0; i < 5; i++ {
		a := s.seed("Post "+string(rune('A'+i)), "post-"+string(rune('a'+i)), models.StatusPublished)
		// stagger creation times so ordering is deterministic
		a.CreatedAt = time.Now().UTC().Add(time.Duration(i) * time.Minute)
		s.Require().NoError(s.store.Save(s.ctx, a))
	}

	items, total, err := s.store.List(s.ctx, models.ListFilter{Page: 1, Limit: 2, Order: "ASC"})
	s.Require().NoError(err)
	s.Equal(5, total)
	s.Require().Len(items, 2)
	s.Equal("Post A", items[0].Title)

	items, _, err = s.store.List(s.ctx, models.ListFilter{Page: 3, Limit: 2, Order: "ASC"})
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Equal("Post E", items[0].Title)
}

func (s *ArticleStoreSuite) TestIncrementViews() {
	a := s.seed("Counted", "counted", models.StatusPublished)

	s.Require().NoError(s.store.IncrementViews(s.ctx, a.ID))
	s.Require().NoError(s.store.IncrementViews(s.ctx, a.ID))

	got, err := s.store.FindByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(int64(2), got.Views)

	s.Require().ErrorIs(s.store.IncrementViews(s.ctx, uuid.New()), sentinel.ErrNotFound)
}

func (s *ArticleStoreSuite) TestDelete() {
	a := s.seed("Doomed", "doomed", models.StatusDraft)

	s.Require().NoError(s.store.Delete(s.ctx, a.ID))
	_, err := s.store.FindByID(s.ctx, a.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	s.Require().ErrorIs(s.store.Delete(s.ctx, a.ID), sentinel.ErrNotFound)
}

func (s *ArticleStoreSuite) TestIsolation() {
	a := s.seed("Immutable", "immutable", models.StatusPublished)

	got, err := s.store.FindByID(s.ctx, a.ID)
	s.Require().NoError(err)
	got.Title = "mutated"

	again, err := s.store.FindByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal("Immutable", again.Title)
}
