package models

import "github.com/google/uuid"

// CreateArticleRequest carries a new article. Slug is optional; the service
// derives one from the title when absent.
type CreateArticleRequest struct {
	Title           string        `json:"title"`
	Slug            string        `json:"slug"`
	Content         string        `json:"content"`
	Excerpt         string        `json:"excerpt"`
	CoverImage      string        `json:"coverImage"`
	Status          ArticleStatus `json:"status"`
	MetaTitle       string        `json:"metaTitle"`
	MetaDescription string        `json:"metaDescription"`
	MetaKeywords    []string      `json:"metaKeywords"`
	CategoryID      *uuid.UUID    `json:"categoryId"`
	TagIDs          []uuid.UUID   `json:"tagIds"`
}

// UpdateArticleRequest is a partial update. Nil fields are left untouched.
type UpdateArticleRequest struct {
	Title           *string        `json:"title"`
	Slug            *string        `json:"slug"`
	Content         *string        `json:"content"`
	Excerpt         *string        `json:"excerpt"`
	CoverImage      *string        `json:"coverImage"`
	Status          *ArticleStatus `json:"status"`
	MetaTitle       *string        `json:"metaTitle"`
	MetaDescription *string        `json:"metaDescription"`
	MetaKeywords    *[]string      `json:"metaKeywords"`
	CategoryID      *uuid.UUID     `json:"categoryId"`
	TagIDs          *[]uuid.UUID   `json:"tagIds"`
}

type CreateCategoryRequest struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Icon        string `json:"icon"`
}

type CreateTagRequest struct {
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Color string `json:"color"`
}
