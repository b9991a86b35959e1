package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"atelier/internal/auth/models"
	"atelier/pkg/platform/sentinel"
)

type UserStoreSuite struct {
	suite.Suite
	store *InMemoryStore
}

func (s *UserStoreSuite) SetupTest() {
	s.store = New()
}

func TestUserStoreSuite(t *testing.T) {
	suite.Run(t, new(UserStoreSuite))
}

func newUser(email string) *models.User {
	now := time.Now()
	return &models.User{
		ID:           uuid.New(),
		Email:        email,
		FirstName:    "Jane",
		LastName:     "Doe",
		Role:         models.RoleAdmin,
		IsActive:     true,
		PasswordHash: "$2a$10$fake",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (s *UserStoreSuite) TestLookup() {
	s.Run("finds stored user by id and email", func() {
		user := newUser("jane@example.com")
		s.Require().NoError(s.store.Save(context.Background(), user))

		byID, err := s.store.FindByID(context.Background(), user.ID)
		s.Require().NoError(err)
		s.Equal(user.Email, byID.Email)

		byEmail, err := s.store.FindByEmail(context.Background(), "JANE@example.com")
		s.Require().NoError(err)
		s.Equal(user.ID, byEmail.ID)
	})

	s.Run("returns ErrNotFound for unknown user", func() {
		_, err := s.store.FindByID(context.Background(), uuid.New())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)

		_, err = s.store.FindByEmail(context.Background(), "nobody@example.com")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *UserStoreSuite) TestEmailUniqueness() {
	s.Run("rejects second user with same email", func() {
		s.Require().NoError(s.store.Save(context.Background(), newUser("dup@example.com")))
		err := s.store.Save(context.Background(), newUser("dup@example.com"))
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("reindexes when a user changes email", func() {
		user := newUser("old@example.com")
		s.Require().NoError(s.store.Save(context.Background(), user))

		user.Email = "new@example.com"
		s.Require().NoError(s.store.Save(context.Background(), user))

		_, err := s.store.FindByEmail(context.Background(), "old@example.com")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)

		found, err := s.store.FindByEmail(context.Background(), "new@example.com")
		s.Require().NoError(err)
		s.Equal(user.ID, found.ID)
	})
}

func (s *UserStoreSuite) TestIsolation() {
	s.Run("mutating a returned user does not affect the store", func() {
		user := newUser("iso@example.com")
		s.Require().NoError(s.store.Save(context.Background(), user))

		found, err := s.store.FindByID(context.Background(), user.ID)
		s.Require().NoError(err)
		found.FirstName = "changed"

		again, err := s.store.FindByID(context.Background(), user.ID)
		s.Require().NoError(err)
		s.Equal("Jane", again.FirstName)
	})
}
