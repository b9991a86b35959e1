package article

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"atelier/internal/blog/models"
	"atelier/pkg/platform/sentinel"
)

// PostgresStore persists articles in PostgreSQL. Tag links live in the
// article_tags join table and are written in the same transaction as the row.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const selectArticle = `
	SELECT a.id, a.title, a.slug, a.content, a.excerpt, a.cover_image, a.status,
	       a.published_at, a.views, a.reading_time,
	       a.meta_title, a.meta_description, a.meta_keywords,
	       a.author_id, a.category_id, a.created_at, a.updated_at
	FROM articles a`

func (s *PostgresStore) Save(ctx context.Context, a *models.Article) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save article: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO articles (id, title, slug, content, excerpt, cover_image, status,
			published_at, views, reading_time, meta_title, meta_description, meta_keywords,
			author_id, category_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			slug = EXCLUDED.slug,
			content = EXCLUDED.content,
			excerpt = EXCLUDED.excerpt,
			cover_image = EXCLUDED.cover_image,
			status = EXCLUDED.status,
			published_at = EXCLUDED.published_at,
			reading_time = EXCLUDED.reading_time,
			meta_title = EXCLUDED.meta_title,
			meta_description = EXCLUDED.meta_description,
			meta_keywords = EXCLUDED.meta_keywords,
			category_id = EXCLUDED.category_id,
			updated_at = EXCLUDED.updated_at
	`
	_, err = tx.ExecContext(ctx, query,
		a.ID, a.Title, a.Slug, a.Content, a.Excerpt, a.CoverImage, a.Status,
		a.PublishedAt, a.Views, a.ReadingTime,
		a.MetaTitle, a.MetaDescription, pq.Array(a.MetaKeywords),
		a.AuthorID, a.CategoryID, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("save article: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM article_tags WHERE article_id = $1`, a.ID); err != nil {
		return fmt.Errorf("clear article tags: %w", err)
	}
	for _, tagID := range a.TagIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO article_tags (article_id, tag_id) VALUES ($1, $2)`, a.ID, tagID); err != nil {
			return fmt.Errorf("link article tag: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save article: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Article, error) {
	return s.findOne(ctx, selectArticle+` WHERE a.id = $1`, id)
}

func (s *PostgresStore) FindBySlug(ctx context.Context, slug string) (*models.Article, error) {
	return s.findOne(ctx, selectArticle+` WHERE a.slug = $1`, slug)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*models.Article, error) {
	a, err := scanArticle(s.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		return nil, err
	}
	if err := s.loadTags(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *PostgresStore) List(ctx context.Context, filter models.ListFilter) ([]*models.Article, int, error) {
	filter.Normalize()

	where, args := buildWhere(filter)

	var total int
	countQuery := `SELECT count(*) FROM articles a` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	query := selectArticle + where +
		fmt.Sprintf(` ORDER BY %s %s LIMIT %d OFFSET %d`,
			sortColumn(filter.SortBy), sortOrder(filter.Order),
			filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var out []*models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}

	for _, a := range out {
		if err := s.loadTags(ctx, a); err != nil {
			return nil, 0, err
		}
	}
	if out == nil {
		out = []*models.Article{}
	}
	return out, total, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) IncrementViews(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `UPDATE articles SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM articles WHERE slug = $1 AND id <> $2)`,
		slug, excludeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM articles WHERE category_id = $1`, categoryID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count by category: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) CountByTag(ctx context.Context, tagID uuid.UUID) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM article_tags WHERE tag_id = $1`, tagID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count by tag: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) loadTags(ctx context.Context, a *models.Article) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tag_id FROM article_tags WHERE article_id = $1`, a.ID)
	if err != nil {
		return fmt.Errorf("load article tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var tagID uuid.UUID
		if err := rows.Scan(&tagID); err != nil {
			return fmt.Errorf("scan article tag: %w", err)
		}
		a.TagIDs = append(a.TagIDs, tagID)
	}
	return rows.Err()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanArticle(row scannable) (*models.Article, error) {
	var a models.Article
	var keywords pq.StringArray
	err := row.Scan(
		&a.ID, &a.Title, &a.Slug, &a.Content, &a.Excerpt, &a.CoverImage, &a.Status,
		&a.PublishedAt, &a.Views, &a.ReadingTime,
		&a.MetaTitle, &a.MetaDescription, &keywords,
		&a.AuthorID, &a.CategoryID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("scan article: %w", err)
	}
	a.MetaKeywords = []string(keywords)
	return &a, nil
}

func buildWhere(f models.ListFilter) (string, []any) {
	var conds []string
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Status != "" {
		conds = append(conds, "a.status = "+arg(string(f.Status)))
	}
	if f.CategoryID != nil {
		conds = append(conds, "a.category_id = "+arg(*f.CategoryID))
	}
	if f.AuthorID != nil {
		conds = append(conds, "a.author_id = "+arg(*f.AuthorID))
	}
	if f.TagID != nil {
		conds = append(conds, "EXISTS (SELECT 1 FROM article_tags at WHERE at.article_id = a.id AND at.tag_id = "+arg(*f.TagID)+")")
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		p := arg(pattern)
		conds = append(conds, "(a.title ILIKE "+p+" OR a.excerpt ILIKE "+p+" OR a.content ILIKE "+p+")")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// sortColumn whitelists sortable columns; anything unknown falls back to
// created_at to keep ORDER BY injection-safe.
func sortColumn(sortBy string) string {
	switch sortBy {
	case "title":
		return "a.title"
	case "views":
		return "a.views"
	case "publishedAt":
		return "a.published_at"
	default:
		return "a.created_at"
	}
}

func sortOrder(order string) string {
	if order == "ASC" {
		return "ASC"
	}
	return "DESC"
}
