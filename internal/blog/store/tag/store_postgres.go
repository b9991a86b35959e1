package tag

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"atelier/internal/blog/models"
	"atelier/pkg/platform/sentinel"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectTag = `
	SELECT id, name, slug, color, created_at, updated_at
	FROM tags`

func (s *PostgresStore) Save(ctx context.Context, t *models.Tag) error {
	query := `
		INSERT INTO tags (id, name, slug, color, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			slug = EXCLUDED.slug,
			color = EXCLUDED.color,
			updated_at = EXCLUDED.updated_at
	`
	_, err := s.db.ExecContext(ctx, query, t.ID, t.Name, t.Slug, t.Color, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save tag: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Tag, error) {
	return scanTag(s.db.QueryRowContext(ctx, selectTag+` WHERE id = $1`, id))
}

func (s *PostgresStore) FindBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	return scanTag(s.db.QueryRowContext(ctx, selectTag+` WHERE slug = $1`, slug))
}

func (s *PostgresStore) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.Tag, error) {
	if len(ids) == 0 {
		return []*models.Tag{}, nil
	}
	rows, err := s.db.QueryContext(ctx, selectTag+` WHERE id = ANY($1) ORDER BY name`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("find tags: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Tag, error) {
	rows, err := s.db.QueryContext(ctx, selectTag+` ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tags WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete tag: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func collect(rows *sql.Rows) ([]*models.Tag, error) {
	out := []*models.Tag{}
	for rows.Next() {
		t, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanTag(row scannable) (*models.Tag, error) {
	var t models.Tag
	err := row.Scan(&t.ID, &t.Name, &t.Slug, &t.Color, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan tag: %w", err)
	}
	return &t, nil
}
