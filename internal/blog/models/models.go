package models

import (
	"time"

	"github.com/google/uuid"

	authmodels "atelier/internal/auth/models"
)

// ArticleStatus tracks the editorial lifecycle.
type ArticleStatus string

const (
	StatusDraft     ArticleStatus = "DRAFT"
	StatusPublished ArticleStatus = "PUBLISHED"
	StatusArchived  ArticleStatus = "ARCHIVED"
)

func (s ArticleStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// Article is the central content entity. Author and Category are expanded by
// the service on reads; stores persist only the IDs.
type Article struct {
	ID              uuid.UUID        `json:"id"`
	Title           string           `json:"title"`
	Slug            string           `json:"slug"`
	Content         string           `json:"content"`
	Excerpt         string           `json:"excerpt,omitempty"`
	CoverImage      string           `json:"coverImage,omitempty"`
	Status          ArticleStatus    `json:"status"`
	PublishedAt     *time.Time       `json:"publishedAt,omitempty"`
	Views           int64            `json:"views"`
	ReadingTime     int              `json:"readingTime"`
	MetaTitle       string           `json:"metaTitle,omitempty"`
	MetaDescription string           `json:"metaDescription,omitempty"`
	MetaKeywords    []string         `json:"metaKeywords"`
	AuthorID        uuid.UUID        `json:"authorId"`
	Author          *authmodels.User `json:"author,omitempty"`
	CategoryID      *uuid.UUID       `json:"categoryId,omitempty"`
	Category        *Category        `json:"category,omitempty"`
	TagIDs          []uuid.UUID      `json:"-"`
	Tags            []*Tag           `json:"tags"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// Category groups articles. ArticlesCount is derived on read.
type Category struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Description   string    `json:"description,omitempty"`
	Color         string    `json:"color,omitempty"`
	Icon          string    `json:"icon,omitempty"`
	ArticlesCount int       `json:"articlesCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Tag labels articles. ArticlesCount is derived on read.
type Tag struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"name"`
	Slug          string    `json:"slug"`
	Color         string    `json:"color,omitempty"`
	ArticlesCount int       `json:"articlesCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ListFilter narrows and pages article listings.
type ListFilter struct {
	Search     string
	Status     ArticleStatus
	CategoryID *uuid.UUID
	// TagSlug is what the API accepts; the service resolves it to TagID,
	// which is what stores filter on.
	TagSlug  string
	TagID    *uuid.UUID
	AuthorID *uuid.UUID
	Page     int
	Limit    int
	SortBy   string
	Order    string // ASC or DESC
}

// Normalize applies listing defaults and clamps the page size.
func (f *ListFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if f.SortBy == "" {
		f.SortBy = "createdAt"
	}
	if f.Order != "ASC" {
		f.Order = "DESC"
	}
}

// PageMeta describes a page of results.
type PageMeta struct {
	Total           int  `json:"total"`
	Page            int  `json:"page"`
	Limit           int  `json:"limit"`
	TotalPages      int  `json:"totalPages"`
	HasNextPage     bool `json:"hasNextPage"`
	HasPreviousPage bool `json:"hasPreviousPage"`
}

// NewPageMeta derives paging facts from a total count and the filter used.
func NewPageMeta(total, page, limit int) PageMeta {
	totalPages := (total + limit - 1) / limit
	return PageMeta{
		Total:           total,
		Page:            page,
		Limit:           limit,
		TotalPages:      totalPages,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1 && total > 0,
	}
}

// ArticlePage is a page of articles plus its meta, the listing payload shape.
type ArticlePage struct {
	Data []*Article `json:"data"`
	Meta PageMeta   `json:"meta"`
}
