package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/conformio/conformio-engine/pkg/apperrors"
	"github.com/conformio/conformio-engine/pkg/database"
	"github.com/conformio/conformio-engine/pkg/models"
)

// ArticleRepository provides data access for articles of regulatory texts.
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	Update(ctx context.Context, article *models.Article) error
	SoftDelete(ctx context.Context, articleID uuid.UUID) error
	GetByID(ctx context.Context, articleID uuid.UUID) (*models.Article, error)
	ListByText(ctx context.Context, textID uuid.UUID) ([]*models.Article, error)
	Search(ctx context.Context, term string, limit int) ([]*models.Article, error)
}

type articleRepository struct{}

// NewArticleRepository creates a new ArticleRepository.
func NewArticleRepository() ArticleRepository {
	return &articleRepository{}
}

var _ ArticleRepository = (*articleRepository)(nil)

const articleColumns = `
	id, text_id, number, short_title, content, interpretation_note,
	position, created_at, updated_at, deleted_at`

func (r *articleRepository) Create(ctx context.Context, article *models.Article) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	now := time.Now()

	query := `
		INSERT INTO articles (
			text_id, number, short_title, content, interpretation_note,
			position, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		article.TextID,
		article.Number,
		nullString(article.ShortTitle),
		article.Content,
		article.InterpretationNote,
		article.Position,
		now,
		now,
	).Scan(&article.ID, &article.CreatedAt, &article.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create article: %w", err)
	}

	return nil
}

func (r *articleRepository) Update(ctx context.Context, article *models.Article) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		UPDATE articles
		SET number = $2, short_title = $3, content = $4,
		    interpretation_note = $5, position = $6, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		article.ID,
		article.Number,
		nullString(article.ShortTitle),
		article.Content,
		article.InterpretationNote,
		article.Position,
	).Scan(&article.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update article: %w", err)
	}

	return nil
}

func (r *articleRepository) SoftDelete(ctx context.Context, articleID uuid.UUID) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	result, err := scope.Conn.Exec(ctx, `
		UPDATE articles SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, articleID)
	if err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *articleRepository) GetByID(ctx context.Context, articleID uuid.UUID) (*models.Article, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + articleColumns + `
		FROM articles
		WHERE id = $1 AND deleted_at IS NULL`

	article, err := scanArticle(scope.Conn.QueryRow(ctx, query, articleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	return article, nil
}

func (r *articleRepository) ListByText(ctx context.Context, textID uuid.UUID) ([]*models.Article, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + articleColumns + `
		FROM articles
		WHERE text_id = $1 AND deleted_at IS NULL
		ORDER BY position, number`

	rows, err := scope.Conn.Query(ctx, query, textID)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	var articles []*models.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, article)
	}
	return articles, rows.Err()
}

func (r *articleRepository) Search(ctx context.Context, term string, limit int) ([]*models.Article, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	if limit <= 0 {
		limit = 50
	}

	query := `SELECT ` + articleColumns + `
		FROM articles
		WHERE deleted_at IS NULL
		  AND (content ILIKE $1 OR number ILIKE $1 OR short_title ILIKE $1)
		ORDER BY text_id, position
		LIMIT $2`

	rows, err := scope.Conn.Query(ctx, query, "%"+term+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search articles: %w", err)
	}
	defer rows.Close()

	var articles []*models.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		articles = append(articles, article)
	}
	return articles, rows.Err()
}

func scanArticle(row pgx.Row) (*models.Article, error) {
	var article models.Article
	var shortTitle *string

	err := row.Scan(
		&article.ID,
		&article.TextID,
		&article.Number,
		&shortTitle,
		&article.Content,
		&article.InterpretationNote,
		&article.Position,
		&article.CreatedAt,
		&article.UpdatedAt,
		&article.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	if shortTitle != nil {
		article.ShortTitle = *shortTitle
	}
	return &article, nil
}
