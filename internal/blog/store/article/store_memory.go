package article

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"atelier/internal/blog/models"
	"atelier/pkg/platform/sentinel"
)

// InMemoryStore keeps articles in a map. It backs unit tests and the
// database-less development mode.
type InMemoryStore struct {
	mu       sync.RWMutex
	articles map[uuid.UUID]*models.Article
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{articles: make(map[uuid.UUID]*models.Article)}
}

func (s *InMemoryStore) Save(_ context.Context, a *models.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, existing := range s.articles {
		if id != a.ID && existing.Slug == a.Slug {
			return sentinel.ErrConflict
		}
	}
	copied := cloneArticle(a)
	s.articles[a.ID] = copied
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, id uuid.UUID) (*models.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.articles[id]; ok {
		return cloneArticle(a), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) FindBySlug(_ context.Context, slug string) (*models.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, a := range s.articles {
		if a.Slug == slug {
			return cloneArticle(a), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) List(_ context.Context, filter models.ListFilter) ([]*models.Article, int, error) {
	filter.Normalize()

	s.mu.RLock()
	var matched []*models.Article
	for _, a := range s.articles {
		if matches(a, filter) {
			matched = append(matched, cloneArticle(a))
		}
	}
	s.mu.RUnlock()

	sortArticles(matched, filter.SortBy, filter.Order)

	total := len(matched)
	start := (filter.Page - 1) * filter.Limit
	if start >= total {
		return []*models.Article{}, total, nil
	}
	end := start + filter.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func (s *InMemoryStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.articles[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.articles, id)
	return nil
}

func (s *InMemoryStore) IncrementViews(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.articles[id]
	if !ok {
		return sentinel.ErrNotFound
	}
	a.Views++
	return nil
}

func (s *InMemoryStore) SlugExists(_ context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for id, a := range s.articles {
		if a.Slug == slug && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *InMemoryStore) CountByCategory(_ context.Context, categoryID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, a := range s.articles {
		if a.CategoryID != nil && *a.CategoryID == categoryID {
			count++
		}
	}
	return count, nil
}

func (s *InMemoryStore) CountByTag(_ context.Context, tagID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, a := range s.articles {
		for _, id := range a.TagIDs {
			if id == tagID {
				count++
				break
			}
		}
	}
	return count, nil
}

func matches(a *models.Article, f models.ListFilter) bool {
	if f.Status != "" && a.Status != f.Status {
		return false
	}
	if f.CategoryID != nil && (a.CategoryID == nil || *a.CategoryID != *f.CategoryID) {
		return false
	}
	if f.AuthorID != nil && a.AuthorID != *f.AuthorID {
		return false
	}
	if f.TagID != nil {
		found := false
		for _, id := range a.TagIDs {
			if id == *f.TagID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(a.Title), needle) &&
			!strings.Contains(strings.ToLower(a.Excerpt), needle) &&
			!strings.Contains(strings.ToLower(a.Content), needle) {
			return false
		}
	}
	return true
}

func sortArticles(list []*models.Article, sortBy, order string) {
	less := func(i, j int) bool {
		a, b := list[i], list[j]
		switch sortBy {
		case "title":
			return a.Title < b.Title
		case "views":
			return a.Views < b.Views
		case "publishedAt":
			switch {
			case a.PublishedAt == nil:
				return b.PublishedAt != nil
			case b.PublishedAt == nil:
				return false
			default:
				return a.PublishedAt.Before(*b.PublishedAt)
			}
		default: // createdAt
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	if order == "DESC" {
		sort.SliceStable(list, func(i, j int) bool { return less(j, i) })
		return
	}
	sort.SliceStable(list, less)
}

func cloneArticle(a *models.Article) *models.Article {
	copied := *a
	copied.MetaKeywords = append([]string(nil), a.MetaKeywords...)
	copied.TagIDs = append([]uuid.UUID(nil), a.TagIDs...)
	if a.CategoryID != nil {
		id := *a.CategoryID
		copied.CategoryID = &id
	}
	if a.PublishedAt != nil {
		t := *a.PublishedAt
		copied.PublishedAt = &t
	}
	// Expanded Author/Category/Tags are view-layer data; stores don't keep them.
	copied.Author = nil
	copied.Category = nil
	copied.Tags = nil
	return &copied
}
