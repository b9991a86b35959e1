// Package service implements the content use cases: article CRUD with slug
// management and publication transitions, plus category and tag taxonomy.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	authmodels "atelier/internal/auth/models"
	"atelier/internal/blog/cache"
	"atelier/internal/blog/models"
	"atelier/internal/platform/metrics"
	"atelier/internal/platform/middleware"
	dErrors "atelier/pkg/domain-errors"
	audit "atelier/pkg/platform/audit"
	"atelier/pkg/platform/sentinel"
)

// ArticleStore is the article persistence dependency.
type ArticleStore interface {
	Save(ctx context.Context, a *models.Article) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Article, error)
	FindBySlug(ctx context.Context, slug string) (*models.Article, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Article, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementViews(ctx context.Context, id uuid.UUID) error
	SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int, error)
	CountByTag(ctx context.Context, tagID uuid.UUID) (int, error)
}

type CategoryStore interface {
	Save(ctx context.Context, c *models.Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	List(ctx context.Context) ([]*models.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type TagStore interface {
	Save(ctx context.Context, t *models.Tag) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Tag, error)
	FindBySlug(ctx context.Context, slug string) (*models.Tag, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Tag, error)
	List(ctx context.Context) ([]*models.Tag, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// UserStore resolves article authors for response expansion.
type UserStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*authmodels.User, error)
}

// AuditPublisher records content events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	articles   ArticleStore
	categories CategoryStore
	tags       TagStore
	users      UserStore
	cache      *cache.Cache
	audit      AuditPublisher
	metrics    *metrics.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(
	articles ArticleStore,
	categories CategoryStore,
	tags TagStore,
	users UserStore,
	c *cache.Cache,
	auditPub AuditPublisher,
	m *metrics.Metrics,
	logger *slog.Logger,
	opts ...Option,
) *Service {
	s := &Service{
		articles:   articles,
		categories: categories,
		tags:       tags,
		users:      users,
		cache:      c,
		audit:      auditPub,
		metrics:    m,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateArticle validates the request, resolves a unique slug, and persists
// a new article owned by actorID. PublishedAt is stamped when the article is
// born PUBLISHED.
func (s *Service) CreateArticle(ctx context.Context, req models.CreateArticleRequest, actorID uuid.UUID) (*models.Article, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "title is required")
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "content is required")
	}
	status := req.Status
	if status == "" {
		status = models.StatusDraft
	}
	if !status.Valid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown status "+string(req.Status))
	}
	if req.CategoryID != nil {
		if _, err := s.categories.FindByID(ctx, *req.CategoryID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeBadRequest, "category does not exist")
			}
			return nil, dErrors.Wrap(dErrors.CodeInternal, "category lookup failed", err)
		}
	}
	if err := s.verifyTags(ctx, req.TagIDs); err != nil {
		return nil, err
	}

	slug, err := s.uniqueSlug(ctx, firstNonEmpty(req.Slug, title), uuid.Nil)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	a := &models.Article{
		ID:              uuid.New(),
		Title:           title,
		Slug:            slug,
		Content:         req.Content,
		Excerpt:         req.Excerpt,
		CoverImage:      req.CoverImage,
		Status:          status,
		ReadingTime:     ReadingTime(req.Content),
		MetaTitle:       req.MetaTitle,
		MetaDescription: req.MetaDescription,
		MetaKeywords:    req.MetaKeywords,
		AuthorID:        actorID,
		CategoryID:      req.CategoryID,
		TagIDs:          req.TagIDs,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if status == models.StatusPublished {
		a.PublishedAt = &now
	}

	if err := s.articles.Save(ctx, a); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "slug already in use")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "save article", err)
	}

	s.metrics.ArticlesCreated.Inc()
	s.emit(ctx, audit.Event{
		Category: audit.CategoryContent,
		ActorID:  actorID.String(),
		Subject:  a.ID.String(),
		Action:   string(audit.EventArticleCreated),
	})
	s.cache.InvalidateArticle(ctx, a.Slug)

	return s.expand(ctx, a)
}

// UpdateArticle applies a partial update. A transition into PUBLISHED stamps
// PublishedAt once; later edits keep the original timestamp.
func (s *Service) UpdateArticle(ctx context.Context, id uuid.UUID, req models.UpdateArticleRequest, actorID uuid.UUID) (*models.Article, error) {
	a, err := s.articles.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "article not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "article lookup failed", err)
	}
	oldSlug := a.Slug

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, dErrors.New(dErrors.CodeBadRequest, "title cannot be empty")
		}
		a.Title = title
	}
	if req.Slug != nil {
		slug, err := s.uniqueSlug(ctx, *req.Slug, a.ID)
		if err != nil {
			return nil, err
		}
		a.Slug = slug
	}
	if req.Content != nil {
		if strings.TrimSpace(*req.Content) == "" {
			return nil, dErrors.New(dErrors.CodeBadRequest, "content cannot be empty")
		}
		a.Content = *req.Content
		a.ReadingTime = ReadingTime(*req.Content)
	}
	if req.Excerpt != nil {
		a.Excerpt = *req.Excerpt
	}
	if req.CoverImage != nil {
		a.CoverImage = *req.CoverImage
	}
	if req.MetaTitle != nil {
		a.MetaTitle = *req.MetaTitle
	}
	if req.MetaDescription != nil {
		a.MetaDescription = *req.MetaDescription
	}
	if req.MetaKeywords != nil {
		a.MetaKeywords = *req.MetaKeywords
	}
	if req.CategoryID != nil {
		if _, err := s.categories.FindByID(ctx, *req.CategoryID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeBadRequest, "category does not exist")
			}
			return nil, dErrors.Wrap(dErrors.CodeInternal, "category lookup failed", err)
		}
		a.CategoryID = req.CategoryID
	}
	if req.TagIDs != nil {
		if err := s.verifyTags(ctx, *req.TagIDs); err != nil {
			return nil, err
		}
		a.TagIDs = *req.TagIDs
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, dErrors.New(dErrors.CodeBadRequest, "unknown status "+string(*req.Status))
		}
		if *req.Status == models.StatusPublished && a.PublishedAt == nil {
			now := s.now().UTC()
			a.PublishedAt = &now
		}
		a.Status = *req.Status
	}
	a.UpdatedAt = s.now().UTC()

	if err := s.articles.Save(ctx, a); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "slug already in use")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "save article", err)
	}

	s.emit(ctx, audit.Event{
		Category: audit.CategoryContent,
		ActorID:  actorID.String(),
		Subject:  a.ID.String(),
		Action:   string(audit.EventArticleUpdated),
	})
	s.cache.InvalidateArticle(ctx, oldSlug)
	if a.Slug != oldSlug {
		s.cache.InvalidateArticle(ctx, a.Slug)
	}

	return s.expand(ctx, a)
}

func (s *Service) DeleteArticle(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error {
	a, err := s.articles.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "article not found")
		}
		return dErrors.Wrap(dErrors.CodeInternal, "article lookup failed", err)
	}
	if err := s.articles.Delete(ctx, id); err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "delete article", err)
	}

	s.metrics.ArticlesDeleted.Inc()
	s.emit(ctx, audit.Event{
		Category: audit.CategoryContent,
		ActorID:  actorID.String(),
		Subject:  id.String(),
		Action:   string(audit.EventArticleDeleted),
	})
	s.cache.InvalidateArticle(ctx, a.Slug)
	return nil
}

// GetArticleBySlug serves the public read path. Published articles are cached
// and get a view bump; drafts are only visible when includeDrafts is set.
func (s *Service) GetArticleBySlug(ctx context.Context, slug string, includeDrafts bool) (*models.Article, error) {
	if !includeDrafts {
		if cached, ok := s.cache.GetArticle(ctx, slug); ok {
			s.bumpViews(ctx, cached.ID)
			cached.Views++
			return cached, nil
		}
	}

	a, err := s.articles.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "article not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "article lookup failed", err)
	}
	if a.Status != models.StatusPublished && !includeDrafts {
		return nil, dErrors.New(dErrors.CodeNotFound, "article not found")
	}

	expanded, err := s.expand(ctx, a)
	if err != nil {
		return nil, err
	}
	if a.Status == models.StatusPublished {
		s.cache.SetArticle(ctx, expanded)
		if !includeDrafts {
			s.bumpViews(ctx, a.ID)
			expanded.Views++
		}
	}
	return expanded, nil
}

func (s *Service) GetArticleByID(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	a, err := s.articles.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "article not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "article lookup failed", err)
	}
	return s.expand(ctx, a)
}

// ListArticles pages and filters articles. The public listing (published-only)
// is served from cache when possible.
func (s *Service) ListArticles(ctx context.Context, filter models.ListFilter) (*models.ArticlePage, error) {
	filter.Normalize()

	if filter.TagSlug != "" && filter.TagID == nil {
		tag, err := s.tags.FindBySlug(ctx, filter.TagSlug)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return &models.ArticlePage{
					Data: []*models.Article{},
					Meta: models.NewPageMeta(0, filter.Page, filter.Limit),
				}, nil
			}
			return nil, dErrors.Wrap(dErrors.CodeInternal, "tag lookup failed", err)
		}
		filter.TagID = &tag.ID
	}

	cacheable := filter.Status == models.StatusPublished && filter.Search == "" && filter.AuthorID == nil
	if cacheable {
		if page, ok := s.cache.GetList(ctx, filter); ok {
			return page, nil
		}
	}

	items, total, err := s.articles.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list articles", err)
	}
	for i, a := range items {
		if items[i], err = s.expand(ctx, a); err != nil {
			return nil, err
		}
	}

	page := &models.ArticlePage{
		Data: items,
		Meta: models.NewPageMeta(total, filter.Page, filter.Limit),
	}
	if cacheable {
		s.cache.SetList(ctx, filter, page)
	}
	return page, nil
}

// CreateCategory adds a taxonomy entry; slug defaults from the name.
func (s *Service) CreateCategory(ctx context.Context, req models.CreateCategoryRequest, actorID uuid.UUID) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "name is required")
	}
	slug := Slugify(firstNonEmpty(req.Slug, name))
	if slug == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "cannot derive slug from name")
	}

	now := s.now().UTC()
	c := &models.Category{
		ID:          uuid.New(),
		Name:        name,
		Slug:        slug,
		Description: req.Description,
		Color:       req.Color,
		Icon:        req.Icon,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.categories.Save(ctx, c); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "category slug already in use")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "save category", err)
	}

	s.emit(ctx, audit.Event{
		Category: audit.CategoryContent,
		ActorID:  actorID.String(),
		Subject:  c.ID.String(),
		Action:   string(audit.EventCategoryCreated),
	})
	return c, nil
}

// ListCategories returns all categories with their article counts.
func (s *Service) ListCategories(ctx context.Context) ([]*models.Category, error) {
	cats, err := s.categories.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list categories", err)
	}
	for _, c := range cats {
		count, err := s.articles.CountByCategory(ctx, c.ID)
		if err != nil {
			return nil, dErrors.Wrap(dErrors.CodeInternal, "count articles", err)
		}
		c.ArticlesCount = count
	}
	return cats, nil
}

// GetCategoryBySlug returns one category with its article count.
func (s *Service) GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error) {
	c, err := s.categories.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "category not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "category lookup failed", err)
	}
	count, err := s.articles.CountByCategory(ctx, c.ID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "count articles", err)
	}
	c.ArticlesCount = count
	return c, nil
}

func (s *Service) CreateTag(ctx context.Context, req models.CreateTagRequest, actorID uuid.UUID) (*models.Tag, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "name is required")
	}
	slug := Slugify(firstNonEmpty(req.Slug, name))
	if slug == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "cannot derive slug from name")
	}

	now := s.now().UTC()
	t := &models.Tag{
		ID:        uuid.New(),
		Name:      name,
		Slug:      slug,
		Color:     req.Color,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.tags.Save(ctx, t); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "tag slug already in use")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "save tag", err)
	}

	s.emit(ctx, audit.Event{
		Category: audit.CategoryContent,
		ActorID:  actorID.String(),
		Subject:  t.ID.String(),
		Action:   string(audit.EventTagCreated),
	})
	return t, nil
}

func (s *Service) ListTags(ctx context.Context) ([]*models.Tag, error) {
	tags, err := s.tags.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list tags", err)
	}
	for _, t := range tags {
		count, err := s.articles.CountByTag(ctx, t.ID)
		if err != nil {
			return nil, dErrors.Wrap(dErrors.CodeInternal, "count articles", err)
		}
		t.ArticlesCount = count
	}
	return tags, nil
}

// GetTagBySlug returns one tag with its article count.
func (s *Service) GetTagBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	t, err := s.tags.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "tag not found")
		}
		return nil, dErrors.Wrap(dErrors.CodeInternal, "tag lookup failed", err)
	}
	count, err := s.articles.CountByTag(ctx, t.ID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "count articles", err)
	}
	t.ArticlesCount = count
	return t, nil
}

// uniqueSlug slugifies raw and appends -2, -3, ... until the result is free.
func (s *Service) uniqueSlug(ctx context.Context, raw string, excludeID uuid.UUID) (string, error) {
	base := Slugify(raw)
	if base == "" {
		return "", dErrors.New(dErrors.CodeBadRequest, "cannot derive slug from title")
	}
	slug := base
	for i := 2; ; i++ {
		taken, err := s.articles.SlugExists(ctx, slug, excludeID)
		if err != nil {
			return "", dErrors.Wrap(dErrors.CodeInternal, "check slug", err)
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

func (s *Service) verifyTags(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := s.tags.FindByIDs(ctx, ids)
	if err != nil {
		return dErrors.Wrap(dErrors.CodeInternal, "tag lookup failed", err)
	}
	if len(found) != len(ids) {
		return dErrors.New(dErrors.CodeBadRequest, "one or more tags do not exist")
	}
	return nil
}

// expand resolves the author, category, and tags referenced by an article.
// Resolution failures degrade to a partial response rather than failing the
// read; a dangling reference is logged, not surfaced.
func (s *Service) expand(ctx context.Context, a *models.Article) (*models.Article, error) {
	if author, err := s.users.FindByID(ctx, a.AuthorID); err == nil {
		a.Author = author
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "author lookup failed", err)
	} else {
		s.logger.WarnContext(ctx, "article author missing", "article_id", a.ID, "author_id", a.AuthorID)
	}

	if a.CategoryID != nil {
		if cat, err := s.categories.FindByID(ctx, *a.CategoryID); err == nil {
			a.Category = cat
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(dErrors.CodeInternal, "category lookup failed", err)
		}
	}

	tags, err := s.tags.FindByIDs(ctx, a.TagIDs)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "tag lookup failed", err)
	}
	a.Tags = tags
	return a, nil
}

func (s *Service) bumpViews(ctx context.Context, id uuid.UUID) {
	if err := s.articles.IncrementViews(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "view increment failed", "article_id", id, "error", err)
	}
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	event.RequestID = middleware.GetRequestID(ctx)
	if err := s.audit.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
