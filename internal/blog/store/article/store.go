// Package article persists blog articles. Implementations return
// pkg/platform/sentinel errors; services translate them into domain errors.
package article

import (
	"context"

	"github.com/google/uuid"

	"atelier/internal/blog/models"
)

type Store interface {
	Save(ctx context.Context, article *models.Article) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Article, error)
	FindBySlug(ctx context.Context, slug string) (*models.Article, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Article, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
	IncrementViews(ctx context.Context, id uuid.UUID) error
	SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error)
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int, error)
	CountByTag(ctx context.Context, tagID uuid.UUID) (int, error)
}
