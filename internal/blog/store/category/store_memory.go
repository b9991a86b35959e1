package category

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"atelier/internal/blog/models"
	"atelier/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu         sync.RWMutex
	categories map[uuid.UUID]*models.Category
	bySlug     map[string]uuid.UUID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		categories: make(map[uuid.UUID]*models.Category),
		bySlug:     make(map[string]uuid.UUID),
	}
}

func (s *InMemoryStore) Save(_ context.Context, c *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slug := strings.ToLower(c.Slug)
	if existing, ok := s.bySlug[slug]; ok && existing != c.ID {
		return sentinel.ErrConflict
	}

	if prev, ok := s.categories[c.ID]; ok && strings.ToLower(prev.Slug) != slug {
		delete(s.bySlug, strings.ToLower(prev.Slug))
	}

	cp := *c
	s.categories[c.ID] = &cp
	s.bySlug[slug] = c.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.categories[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemoryStore) FindBySlug(_ context.Context, slug string) (*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.bySlug[strings.ToLower(slug)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.categories[id]
	return &cp, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Category, 0, len(s.categories))
	for _, c := range s.categories {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.bySlug, strings.ToLower(c.Slug))
	delete(s.categories, id)
	return nil
}
