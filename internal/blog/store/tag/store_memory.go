package tag

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
	mu     sync.RWMutex
	tags   map[uuid.UUID]*models.Tag
	bySlug map[string]uuid.UUID
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		tags:   make(map[uuid.UUID]*models.Tag),
		bySlug: make(map[string]uuid.UUID),
	}
}

func (s *InMemoryStore) Save(_ context.Context, t *models.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slug := strings.ToLower(t.Slug)
	if existing, ok := s.bySlug[slug]; ok && existing != t.ID {
		return sentinel.ErrConflict
	}

	if prev, ok := s.tags[t.ID]; ok && strings.ToLower(prev.Slug) != slug {
		delete(s.bySlug, strings.ToLower(prev.Slug))
	}

	cp := *t
	s.tags[t.ID] = &cp
	s.bySlug[slug] = t.ID
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tags[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *InMemoryStore) FindBySlug(_ context.Context, slug string) (*models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.bySlug[strings.ToLower(slug)]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.tags[id]
	return &cp, nil
}

// FindByIDs returns the tags that exist among ids; unknown ids are skipped.
func (s *InMemoryStore) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Tag, 0, len(ids))
	for _, id := range ids {
		if t, ok := s.tags[id]; ok {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Tag, 0, len(s.tags))
	for _, t := range s.tags {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tags[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.bySlug, strings.ToLower(t.Slug))
	delete(s.tags, id)
	return nil
}
