// Package handler exposes the content API: public article and taxonomy
// reads, plus authenticated editorial mutations.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	authmodels "atelier/internal/auth/models"
	"atelier/internal/blog/models"
	"atelier/internal/platform/middleware"
	"atelier/internal/transport/shared"
	dErrors "atelier/pkg/domain-errors"
)

// Service defines the content operations the transport needs.
type Service interface {
	CreateArticle(ctx context.Context, req models.CreateArticleRequest, actorID uuid.UUID) (*models.Article, error)
	UpdateArticle(ctx context.Context, id uuid.UUID, req models.UpdateArticleRequest, actorID uuid.UUID) (*models.Article, error)
	DeleteArticle(ctx context.Context, id uuid.UUID, actorID uuid.UUID) error
	GetArticleBySlug(ctx context.Context, slug string, includeDrafts bool) (*models.Article, error)
	GetArticleByID(ctx context.Context, id uuid.UUID) (*models.Article, error)
	ListArticles(ctx context.Context, filter models.ListFilter) (*models.ArticlePage, error)
	CreateCategory(ctx context.Context, req models.CreateCategoryRequest, actorID uuid.UUID) (*models.Category, error)
	GetCategoryBySlug(ctx context.Context, slug string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]*models.Category, error)
	CreateTag(ctx context.Context, req models.CreateTagRequest, actorID uuid.UUID) (*models.Tag, error)
	GetTagBySlug(ctx context.Context, slug string) (*models.Tag, error)
	ListTags(ctx context.Context) ([]*models.Tag, error)
}

type Handler struct {
	logger       *slog.Logger
	blog         Service
	jwtValidator middleware.JWTValidator
}

func New(blog Service, logger *slog.Logger, jwtValidator middleware.JWTValidator) *Handler {
	return &Handler{
		logger:       logger,
		blog:         blog,
		jwtValidator: jwtValidator,
	}
}

// Register mounts the content routes. Reads are public; mutations require a
// bearer token with an editorial role.
func (h *Handler) Register(r chi.Router) {
	r.Get("/articles", h.handleListArticles)
	r.Get("/articles/{slug}", h.handleGetArticle)
	r.Get("/categories", h.handleListCategories)
	r.Get("/categories/{slug}", h.handleGetCategory)
	r.Get("/tags", h.handleListTags)
	r.Get("/tags/{slug}", h.handleGetTag)

	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RequireAuth(h.jwtValidator, h.logger))
		pr.Use(middleware.RequireRole(h.logger,
			string(authmodels.RoleModerator), string(authmodels.RoleAdmin)))

		pr.Post("/articles", h.handleCreateArticle)
		pr.Patch("/articles/{id}", h.handleUpdateArticle)
		pr.Delete("/articles/{id}", h.handleDeleteArticle)
		pr.Post("/categories", h.handleCreateCategory)
		pr.Post("/tags", h.handleCreateTag)
	})
}

func (h *Handler) handleListArticles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	filter, err := filterFromQuery(r)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	// Unauthenticated listings only ever see published content. An editor
	// token unlocks status filtering for the admin dashboard.
	if !h.isEditor(r) {
		filter.Status = models.StatusPublished
		filter.AuthorID = nil
	}

	page, err := h.blog.ListArticles(ctx, filter)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteData(w, http.StatusOK, page)
}

// handleGetArticle reads by slug, falling back to ID lookup for editors when
// the path segment parses as a UUID.
func (h *Handler) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := chi.URLParam(r, "slug")
	editor := h.isEditor(r)

	if id, err := uuid.Parse(slug); err == nil && editor {
		article, err := h.blog.GetArticleByID(ctx, id)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		shared.WriteData(w, http.StatusOK, article)
		return
	}

	article, err := h.blog.GetArticleBySlug(ctx, slug, editor)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteData(w, http.StatusOK, article)
}

func (h *Handler) handleCreateArticle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.CreateArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	actorID, err := actorFromContext(ctx)
	if err != nil {
		h.contextError(w, r)
		return
	}

	article, err := h.blog.CreateArticle(ctx, req, actorID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteData(w, http.StatusCreated, article)
}

func (h *Handler) handleUpdateArticle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid article id"))
		return
	}
	var req models.UpdateArticleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	actorID, err := actorFromContext(ctx)
	if err != nil {
		h.contextError(w, r)
		return
	}

	article, err := h.blog.UpdateArticle(ctx, id, req, actorID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteData(w, http.StatusOK, article)
}

func (h *Handler) handleDeleteArticle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid article id"))
		return
	}
	actorID, err := actorFromContext(ctx)
	if err != nil {
		h.contextError(w, r)
		return
	}

	if err := h.blog.DeleteArticle(ctx, id, actorID); err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.NoContent(w)
}

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.blog.ListCategories(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteData(w, http.StatusOK, cats)
}

func (h *Handler) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	cat, err := h.blog.GetCategoryBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteData(w, http.StatusOK, cat)
}

func (h *Handler) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	actorID, err := actorFromContext(ctx)
	if err != nil {
		h.contextError(w, r)
		return
	}

	cat, err := h.blog.CreateCategory(ctx, req, actorID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteData(w, http.StatusCreated, cat)
}

func (h *Handler) handleListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.blog.ListTags(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteData(w, http.StatusOK, tags)
}

func (h *Handler) handleGetTag(w http.ResponseWriter, r *http.Request) {
	tag, err := h.blog.GetTagBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteData(w, http.StatusOK, tag)
}

func (h *Handler) handleCreateTag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.CreateTagRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	actorID, err := actorFromContext(ctx)
	if err != nil {
		h.contextError(w, r)
		return
	}

	tag, err := h.blog.CreateTag(ctx, req, actorID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteData(w, http.StatusCreated, tag)
}

// isEditor is a best-effort role check for routes that serve both public and
// admin traffic. Public routes carry no token, so failure just means public.
func (h *Handler) isEditor(r *http.Request) bool {
	claims, err := middleware.ClaimsFromRequest(r, h.jwtValidator)
	if err != nil {
		return false
	}
	return claims.Role == string(authmodels.RoleModerator) || claims.Role == string(authmodels.RoleAdmin)
}

func (h *Handler) contextError(w http.ResponseWriter, r *http.Request) {
	h.logger.ErrorContext(r.Context(), "user id missing from context despite auth middleware",
		"request_id", middleware.GetRequestID(r.Context()),
	)
	shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "authentication context error"))
}

func actorFromContext(ctx context.Context) (uuid.UUID, error) {
	return uuid.Parse(middleware.GetUserID(ctx))
}

func filterFromQuery(r *http.Request) (models.ListFilter, error) {
	q := r.URL.Query()
	filter := models.ListFilter{
		Search:  q.Get("search"),
		TagSlug: q.Get("tag"),
		SortBy:  q.Get("sortBy"),
		Order:   q.Get("order"),
	}

	if status := q.Get("status"); status != "" {
		st := models.ArticleStatus(status)
		if !st.Valid() {
			return filter, dErrors.New(dErrors.CodeBadRequest, "unknown status "+status)
		}
		filter.Status = st
	}
	if raw := q.Get("categoryId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, dErrors.New(dErrors.CodeBadRequest, "invalid categoryId")
		}
		filter.CategoryID = &id
	}
	if raw := q.Get("authorId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, dErrors.New(dErrors.CodeBadRequest, "invalid authorId")
		}
		filter.AuthorID = &id
	}
	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return filter, dErrors.New(dErrors.CodeBadRequest, "invalid page")
		}
		filter.Page = page
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			return filter, dErrors.New(dErrors.CodeBadRequest, "invalid limit")
		}
		filter.Limit = limit
	}
	return filter, nil
}
