package tag

import (
	"context"

	"github.com/google/uuid"

	"atelier/internal/blog/models"
)

type Store interface {
	Save(ctx context.Context, t *models.Tag) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Tag, error)
	FindBySlug(ctx context.Context, slug string) (*models.Tag, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Tag, error)
	List(ctx context.Context) ([]*models.Tag, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
