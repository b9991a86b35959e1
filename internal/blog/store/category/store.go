package category

import (
	"context"

	"github.com/google/uuid"

	"atelier/internal/blog/models"
)

type Store interface {
	Save(ctx context.Context, c *models.Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	FindBySlug(ctx context.Context, slug string) (*models.Category, error)
	List(ctx context.Context) ([]*models.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
