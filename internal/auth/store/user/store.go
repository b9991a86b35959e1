// Package user persists identities. Implementations return pkg/platform/sentinel
// errors; services translate those into domain errors.
package user

import (
	"context"

	"github.com/google/uuid"

	"atelier/internal/auth/models"
)

type Store interface {
	Save(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}
