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

// RecordEffectParams carries everything the transactional write needs.
// Version.VersionNumber is computed inside the transaction; the caller's
// value is ignored. ExpectedActiveVersionID, when set, is compared against
// the version that is actually active at commit time so a stale client
// cannot silently clobber a concurrent recording.
type RecordEffectParams struct {
	Effect                  *models.LegalEffect
	Version                 *models.ArticleVersion
	ExpectedActiveVersionID *uuid.UUID
	TargetForceStatus       string
}

// EffectRepository records legal effects and reads effect history.
type EffectRepository interface {
	// Record atomically inserts the new version, deactivates the prior
	// active one, inserts the legal effect and updates the target text's
	// force status. Returns apperrors.ErrVersionConflict when the active
	// version changed under the caller.
	Record(ctx context.Context, params RecordEffectParams) error
	ListByTargetArticle(ctx context.Context, articleID uuid.UUID) ([]*models.LegalEffect, error)
	ListBySourceText(ctx context.Context, textID uuid.UUID) ([]*models.LegalEffect, error)
}

type effectRepository struct{}

// NewEffectRepository creates a new EffectRepository.
func NewEffectRepository() EffectRepository {
	return &effectRepository{}
}

var _ EffectRepository = (*effectRepository)(nil)

const effectColumns = `
	id, source_text_id, source_article_id, target_article_id, target_text_id,
	effect_type, effect_date, scope, scope_detail, notes, new_content,
	created_by, created_at`

func (r *effectRepository) Record(ctx context.Context, params RecordEffectParams) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	effect := params.Effect
	version := params.Version

	tx, err := scope.Conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock the current active version so concurrent recordings serialize.
	var currentID *uuid.UUID
	var currentNumber int
	err = tx.QueryRow(ctx, `
		SELECT id, version_number FROM article_versions
		WHERE article_id = $1 AND is_active = TRUE
		ORDER BY version_number DESC
		LIMIT 1
		FOR UPDATE`, effect.TargetArticleID).Scan(&currentID, &currentNumber)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("failed to lock active version: %w", err)
	}

	if params.ExpectedActiveVersionID != nil {
		if currentID == nil || *currentID != *params.ExpectedActiveVersionID {
			return apperrors.ErrVersionConflict
		}
	}

	version.VersionNumber = currentNumber + 1
	version.IsActive = true

	err = tx.QueryRow(ctx, `
		INSERT INTO article_versions (
			article_id, version_number, label, content, effective_from,
			is_active, source_text_id, source_text_ref, modification_type,
			change_reason, estimated_impact, document_url, created_at
		) VALUES ($1, $2, $3, $4, $5, TRUE, $6, $7, $8, $9, $10, $11, now())
		RETURNING id, created_at`,
		version.ArticleID,
		version.VersionNumber,
		version.Label,
		version.Content,
		version.EffectiveFrom,
		nullUUID(version.SourceTextID),
		nullString(version.SourceTextRef),
		nullString(version.ModificationType),
		nullString(version.ChangeReason),
		nullString(version.EstimatedImpact),
		version.DocumentURL,
	).Scan(&version.ID, &version.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert article version: %w", err)
	}

	if currentID != nil {
		result, err := tx.Exec(ctx, `
			UPDATE article_versions
			SET is_active = FALSE, effective_to = $2
			WHERE id = $1 AND is_active = TRUE`,
			*currentID, effect.EffectDate)
		if err != nil {
			return fmt.Errorf("failed to deactivate prior version: %w", err)
		}
		if result.RowsAffected() == 0 {
			return apperrors.ErrVersionConflict
		}
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO legal_effects (
			source_text_id, source_article_id, target_article_id, target_text_id,
			effect_type, effect_date, scope, scope_detail, notes, new_content,
			created_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, now())
		RETURNING id, created_at`,
		effect.SourceTextID,
		nullUUID(effect.SourceArticleID),
		effect.TargetArticleID,
		effect.TargetTextID,
		effect.EffectType,
		effect.EffectDate,
		effect.Scope,
		effect.ScopeDetail,
		effect.Notes,
		effect.NewContent,
		nullUUID(effect.CreatedBy),
	).Scan(&effect.ID, &effect.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert legal effect: %w", err)
	}

	if params.TargetForceStatus != "" {
		if _, err := tx.Exec(ctx, `
			UPDATE regulatory_texts SET force_status = $2, updated_at = now()
			WHERE id = $1`,
			effect.TargetTextID, params.TargetForceStatus); err != nil {
			return fmt.Errorf("failed to update text force status: %w", err)
		}
	}

	// The article row mirrors the active version's content (for ABROGE that
	// is the repeal notice).
	if _, err := tx.Exec(ctx, `
		UPDATE articles SET content = $2, updated_at = now()
		WHERE id = $1`,
		effect.TargetArticleID, version.Content); err != nil {
		return fmt.Errorf("failed to sync article content: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit effect recording: %w", err)
	}
	return nil
}

func (r *effectRepository) ListByTargetArticle(ctx context.Context, articleID uuid.UUID) ([]*models.LegalEffect, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + effectColumns + `
		FROM legal_effects
		WHERE target_article_id = $1
		ORDER BY effect_date DESC, created_at DESC`

	return r.queryEffects(ctx, scope, query, articleID)
}

func (r *effectRepository) ListBySourceText(ctx context.Context, textID uuid.UUID) ([]*models.LegalEffect, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + effectColumns + `
		FROM legal_effects
		WHERE source_text_id = $1
		ORDER BY effect_date DESC, created_at DESC`

	return r.queryEffects(ctx, scope, query, textID)
}

func (r *effectRepository) queryEffects(ctx context.Context, scope *database.TenantScope, query string, arg any) ([]*models.LegalEffect, error) {
	rows, err := scope.Conn.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list legal effects: %w", err)
	}
	defer rows.Close()

	var effects []*models.LegalEffect
	for rows.Next() {
		var e models.LegalEffect
		err := rows.Scan(
			&e.ID,
			&e.SourceTextID,
			&e.SourceArticleID,
			&e.TargetArticleID,
			&e.TargetTextID,
			&e.EffectType,
			&e.EffectDate,
			&e.Scope,
			&e.ScopeDetail,
			&e.Notes,
			&e.NewContent,
			&e.CreatedBy,
			&e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan legal effect: %w", err)
		}
		effects = append(effects, &e)
	}
	return effects, rows.Err()
}
