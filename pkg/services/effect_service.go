package services

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conformio/conformio-engine/pkg/apperrors"
	"github.com/conformio/conformio-engine/pkg/auth"
	"github.com/conformio/conformio-engine/pkg/cache"
	"github.com/conformio/conformio-engine/pkg/models"
	"github.com/conformio/conformio-engine/pkg/repositories"
	"github.com/conformio/conformio-engine/pkg/storage"
)

// AnnexUpload is an optional supporting document attached to the version
// created by an effect recording.
type AnnexUpload struct {
	Filename    string
	ContentType string
	Reader      io.Reader
	Size        int64
}

// RecordEffectInput carries one effect recording request.
type RecordEffectInput struct {
	SourceTextID    uuid.UUID
	SourceArticleID *uuid.UUID
	TargetArticleID uuid.UUID
	EffectType      string
	EffectDate      time.Time
	Scope           string
	ScopeDetail     *string
	Notes           *string

	// NewContent is the full replacement content. Ignored for ABROGE,
	// required otherwise.
	NewContent string

	VersionLabel    string
	ChangeReason    string
	EstimatedImpact string

	// ExpectedActiveVersionID, when set, must match the version active at
	// commit time or the recording fails with ErrVersionConflict.
	ExpectedActiveVersionID *uuid.UUID

	// RepealsEntireText marks an ABROGE that retires the whole target text,
	// flipping its force status to abroge instead of modifie.
	RepealsEntireText bool

	Annex *AnnexUpload
}

// RecordEffectOutcome is what a successful recording returns. Advisory is
// non-nil when the hierarchy rules produced a non-blocking warning.
type RecordEffectOutcome struct {
	Effect   *models.LegalEffect    `json:"effect"`
	Version  *models.ArticleVersion `json:"version"`
	Advisory *HierarchyAdvisory     `json:"advisory,omitempty"`
}

// EffectService records legal effects and exposes effect history.
type EffectService interface {
	// Preview runs the hierarchy check without writing anything, for the
	// recording form.
	Preview(ctx context.Context, sourceTextID, targetArticleID uuid.UUID, effectType string) (*HierarchyAdvisory, error)
	Record(ctx context.Context, input RecordEffectInput) (*RecordEffectOutcome, error)
	ListByTargetArticle(ctx context.Context, articleID uuid.UUID) ([]*models.LegalEffect, error)
	ListBySourceText(ctx context.Context, textID uuid.UUID) ([]*models.LegalEffect, error)
}

type effectService struct {
	effects  repositories.EffectRepository
	texts    repositories.TextRepository
	articles repositories.ArticleRepository
	store    storage.DocumentStore
	bucket   string
	cache    *cache.Cache
	audit    AuditService
	logger   *zap.Logger
}

// NewEffectService creates a new EffectService. bucket is the annexes
// bucket for supporting documents.
func NewEffectService(
	effects repositories.EffectRepository,
	texts repositories.TextRepository,
	articles repositories.ArticleRepository,
	store storage.DocumentStore,
	bucket string,
	c *cache.Cache,
	audit AuditService,
	logger *zap.Logger,
) EffectService {
	return &effectService{
		effects:  effects,
		texts:    texts,
		articles: articles,
		store:    store,
		bucket:   bucket,
		cache:    c,
		audit:    audit,
		logger:   logger,
	}
}

var _ EffectService = (*effectService)(nil)

func (s *effectService) Preview(ctx context.Context, sourceTextID, targetArticleID uuid.UUID, effectType string) (*HierarchyAdvisory, error) {
	if !models.ValidEffectType(effectType) {
		return nil, fmt.Errorf("%w: unknown effect type %q", apperrors.ErrInvalidInput, effectType)
	}

	source, err := s.texts.GetByID(ctx, sourceTextID)
	if err != nil {
		return nil, err
	}
	article, err := s.articles.GetByID(ctx, targetArticleID)
	if err != nil {
		return nil, err
	}
	target, err := s.texts.GetByID(ctx, article.TextID)
	if err != nil {
		return nil, err
	}

	return ValidateHierarchy(source.ActType, target.ActType, effectType), nil
}

func (s *effectService) Record(ctx context.Context, input RecordEffectInput) (*RecordEffectOutcome, error) {
	if input.SourceTextID == uuid.Nil || input.TargetArticleID == uuid.Nil {
		return nil, fmt.Errorf("%w: source text and target article are required", apperrors.ErrInvalidInput)
	}
	if !models.ValidEffectType(input.EffectType) {
		return nil, fmt.Errorf("%w: unknown effect type %q", apperrors.ErrInvalidInput, input.EffectType)
	}
	if input.Scope == "" {
		input.Scope = models.EffectScopeArticle
	}
	if !models.ValidEffectScope(input.Scope) {
		return nil, fmt.Errorf("%w: unknown effect scope %q", apperrors.ErrInvalidInput, input.Scope)
	}
	if input.EffectDate.IsZero() {
		input.EffectDate = time.Now()
	}

	source, err := s.texts.GetByID(ctx, input.SourceTextID)
	if err != nil {
		return nil, fmt.Errorf("source text: %w", err)
	}
	article, err := s.articles.GetByID(ctx, input.TargetArticleID)
	if err != nil {
		return nil, fmt.Errorf("target article: %w", err)
	}
	target, err := s.texts.GetByID(ctx, article.TextID)
	if err != nil {
		return nil, fmt.Errorf("target text: %w", err)
	}

	advisory := ValidateHierarchy(source.ActType, target.ActType, input.EffectType)
	if advisory.Blocking() {
		return nil, fmt.Errorf("%s: %w", advisory.Message, apperrors.ErrHierarchyViolation)
	}

	content := strings.TrimSpace(input.NewContent)
	var effectContent *string
	switch input.EffectType {
	case models.EffectRepeals:
		// The repealed version carries a notice, the effect row carries no
		// replacement content.
		content = fmt.Sprintf("<p><em>Article abrogé par %s</em></p>", source.OfficialReference)
	default:
		if content == "" {
			return nil, apperrors.ErrEmptyContent
		}
		effectContent = &content
	}

	// Annex upload happens before the transaction. A failed recording may
	// orphan the object; orphans are harmless and swept out of band.
	var documentURL *string
	if input.Annex != nil {
		scope := fmt.Sprintf("article-versions/%s", input.TargetArticleID)
		url, err := s.store.Upload(ctx, s.bucket, scope, input.Annex.Filename,
			input.Annex.Reader, input.Annex.Size, input.Annex.ContentType)
		if err != nil {
			return nil, fmt.Errorf("failed to store annex: %w", err)
		}
		documentURL = &url
	}

	userID := auth.UserIDFromContext(ctx)
	var createdBy *uuid.UUID
	if userID != uuid.Nil {
		createdBy = &userID
	}

	label := input.VersionLabel
	if label == "" {
		label = fmt.Sprintf("%s par %s", effectLabel(input.EffectType), source.OfficialReference)
	}

	effect := &models.LegalEffect{
		SourceTextID:    input.SourceTextID,
		SourceArticleID: input.SourceArticleID,
		TargetArticleID: input.TargetArticleID,
		TargetTextID:    target.ID,
		EffectType:      input.EffectType,
		EffectDate:      input.EffectDate,
		Scope:           input.Scope,
		ScopeDetail:     input.ScopeDetail,
		Notes:           input.Notes,
		NewContent:      effectContent,
		CreatedBy:       createdBy,
	}

	effectiveFrom := input.EffectDate
	version := &models.ArticleVersion{
		ArticleID:        input.TargetArticleID,
		Label:            label,
		Content:          content,
		EffectiveFrom:    &effectiveFrom,
		SourceTextID:     &input.SourceTextID,
		SourceTextRef:    source.OfficialReference,
		ModificationType: input.EffectType,
		ChangeReason:     input.ChangeReason,
		EstimatedImpact:  input.EstimatedImpact,
		DocumentURL:      documentURL,
	}

	forceStatus := models.ForceStatusAmended
	if input.EffectType == models.EffectRepeals && input.RepealsEntireText {
		forceStatus = models.ForceStatusRepealed
	}

	err = s.effects.Record(ctx, repositories.RecordEffectParams{
		Effect:                  effect,
		Version:                 version,
		ExpectedActiveVersionID: input.ExpectedActiveVersionID,
		TargetForceStatus:       forceStatus,
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx,
			fmt.Sprintf("article:%s", input.TargetArticleID),
			fmt.Sprintf("text:%s", target.ID))
	}

	s.audit.Record(ctx, "effect.record", "legal_effect", effect.ID, map[string]any{
		"effect_type":       effect.EffectType,
		"source_text_id":    effect.SourceTextID,
		"target_article_id": effect.TargetArticleID,
		"version_number":    version.VersionNumber,
	})

	s.logger.Info("legal effect recorded",
		zap.String("effect_id", effect.ID.String()),
		zap.String("effect_type", effect.EffectType),
		zap.String("target_article_id", effect.TargetArticleID.String()),
		zap.Int("version_number", version.VersionNumber))

	return &RecordEffectOutcome{
		Effect:   effect,
		Version:  version,
		Advisory: advisory,
	}, nil
}

func (s *effectService) ListByTargetArticle(ctx context.Context, articleID uuid.UUID) ([]*models.LegalEffect, error) {
	return s.effects.ListByTargetArticle(ctx, articleID)
}

func (s *effectService) ListBySourceText(ctx context.Context, textID uuid.UUID) ([]*models.LegalEffect, error) {
	return s.effects.ListBySourceText(ctx, textID)
}

func effectLabel(effectType string) string {
	switch effectType {
	case models.EffectModifies:
		return "Modifié"
	case models.EffectReplaces:
		return "Remplacé"
	case models.EffectRepeals:
		return "Abrogé"
	case models.EffectCompletes:
		return "Complété"
	case models.EffectRenumbers:
		return "Renuméroté"
	}
	return effectType
}
