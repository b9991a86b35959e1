package user

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"atelier/internal/auth/models"
	"atelier/pkg/platform/sentinel"
)

// InMemoryStore keeps users in a map. It backs unit tests and the
// database-less development mode.
type InMemoryStore struct {
	mu      sync.RWMutex
	users   map[uuid.UUID]*models.User
	byEmail map[string]uuid.UUID
}

func New() *InMemoryStore {
	return &InMemoryStore{
		users:   make(map[uuid.UUID]*models.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (s *InMemoryStore) Save(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if existing, ok := s.byEmail[email]; ok && existing != user.ID {
		return sentinel.ErrConflict
	}

	// Drop a stale email index entry when the address changed.
	if prev, ok := s.users[user.ID]; ok && !strings.EqualFold(prev.Email, user.Email) {
		delete(s.byEmail, strings.ToLower(prev.Email))
	}

	copied := *user
	s.users[user.ID] = &copied
	s.byEmail[email] = user.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if user, ok := s.users[id]; ok {
		copied := *user
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id, ok := s.byEmail[strings.ToLower(email)]; ok {
		copied := *s.users[id]
		return &copied, nil
	}
	return nil, sentinel.ErrNotFound
}
