package tag

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

type TagStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemoryStore
}

func TestTagStoreSuite(t *testing.T) {
	suite.Run(t, new(TagStoreSuite))
}

func (s *TagStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemory()
}

func (s *TagStoreSuite) seed(name, slug string) *models.Tag {
	t := &models.Tag{
		ID:        uuid.New(),
		Name:      name,
		Slug:      slug,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(s.T(), s.store.Save(s.ctx, t))
	return t
}

func (s *TagStoreSuite) TestLookup() {
	t := s.seed("Golang", "golang")

	byID, err := s.store.FindByID(s.ctx, t.ID)
	s.Require().NoError(err)
	s.Equal("Golang", byID.Name)

	bySlug, err := s.store.FindBySlug(s.ctx, "golang")
	s.Require().NoError(err)
	s.Equal(t.ID, bySlug.ID)

	_, err = s.store.FindBySlug(s.ctx, "missing")
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *TagStoreSuite) TestSlugUniqueness() {
	s.seed("Golang", "golang")

	err := s.store.Save(s.ctx, &models.Tag{ID: uuid.New(), Name: "Go", Slug: "golang"})
	s.Require().ErrorIs(err, sentinel.ErrConflict)
}

func (s *TagStoreSuite) TestFindByIDs() {
	a := s.seed("Alpha", "alpha")
	b := s.seed("Beta", "beta")

	got, err := s.store.FindByIDs(s.ctx, []uuid.UUID{a.ID, uuid.New(), b.ID})
	s.Require().NoError(err)
	s.Len(got, 2, "unknown ids are skipped")
}

func (s *TagStoreSuite) TestListOrdering() {
	s.seed("Zig", "zig")
	s.seed("Ada", "ada")

	got, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("Ada", got[0].Name)
	s.Equal("Zig", got[1].Name)
}

func (s *TagStoreSuite) TestDelete() {
	t := s.seed("Temp", "temp")

	s.Require().NoError(s.store.Delete(s.ctx, t.ID))
	s.Require().ErrorIs(s.store.Delete(s.ctx, t.ID), sentinel.ErrNotFound)

	// slug freed after delete
	s.Require().NoError(s.store.Save(s.ctx, &models.Tag{ID: uuid.New(), Name: "Temp2", Slug: "temp"}))
}
