package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/conformio/conformio-engine/pkg/apperrors"
	"github.com/conformio/conformio-engine/pkg/database"
	"github.com/conformio/conformio-engine/pkg/models"
)

// VersionRepository provides read access to article version history.
// Versions are only ever written through EffectRepository.Record, which
// keeps the one-active-version invariant inside a transaction.
type VersionRepository interface {
	GetActive(ctx context.Context, articleID uuid.UUID) (*models.ArticleVersion, error)
	GetByID(ctx context.Context, versionID uuid.UUID) (*models.ArticleVersion, error)
	ListByArticle(ctx context.Context, articleID uuid.UUID) ([]*models.ArticleVersion, error)
}

type versionRepository struct{}

// NewVersionRepository creates a new VersionRepository.
func NewVersionRepository() VersionRepository {
	return &versionRepository{}
}

var _ VersionRepository = (*versionRepository)(nil)

const versionColumns = `
	id, article_id, version_number, label, content, effective_from,
	effective_to, is_active, source_text_id, source_text_ref,
	modification_type, change_reason, estimated_impact, document_url,
	created_at`

// GetActive returns the article's active version, or nil when the article
// has no versions yet.
func (r *versionRepository) GetActive(ctx context.Context, articleID uuid.UUID) (*models.ArticleVersion, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + versionColumns + `
		FROM article_versions
		WHERE article_id = $1 AND is_active = TRUE
		ORDER BY version_number DESC
		LIMIT 1`

	version, err := scanVersion(scope.Conn.QueryRow(ctx, query, articleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active version: %w", err)
	}
	return version, nil
}

func (r *versionRepository) GetByID(ctx context.Context, versionID uuid.UUID) (*models.ArticleVersion, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + versionColumns + `
		FROM article_versions
		WHERE id = $1`

	version, err := scanVersion(scope.Conn.QueryRow(ctx, query, versionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get version: %w", err)
	}
	return version, nil
}

func (r *versionRepository) ListByArticle(ctx context.Context, articleID uuid.UUID) ([]*models.ArticleVersion, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + versionColumns + `
		FROM article_versions
		WHERE article_id = $1
		ORDER BY version_number DESC`

	rows, err := scope.Conn.Query(ctx, query, articleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	defer rows.Close()

	var versions []*models.ArticleVersion
	for rows.Next() {
		version, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan version: %w", err)
		}
		versions = append(versions, version)
	}
	return versions, rows.Err()
}

func scanVersion(row pgx.Row) (*models.ArticleVersion, error) {
	var v models.ArticleVersion
	var sourceTextRef, modificationType, changeReason, estimatedImpact *string

	err := row.Scan(
		&v.ID,
		&v.ArticleID,
		&v.VersionNumber,
		&v.Label,
		&v.Content,
		&v.EffectiveFrom,
		&v.EffectiveTo,
		&v.IsActive,
		&v.SourceTextID,
		&sourceTextRef,
		&modificationType,
		&changeReason,
		&estimatedImpact,
		&v.DocumentURL,
		&v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if sourceTextRef != nil {
		v.SourceTextRef = *sourceTextRef
	}
	if modificationType != nil {
		v.ModificationType = *modificationType
	}
	if changeReason != nil {
		v.ChangeReason = *changeReason
	}
	if estimatedImpact != nil {
		v.EstimatedImpact = *estimatedImpact
	}
	return &v, nil
}
