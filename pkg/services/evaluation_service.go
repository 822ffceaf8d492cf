package services

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conformio/conformio-engine/pkg/apperrors"
	"github.com/conformio/conformio-engine/pkg/auth"
	"github.com/conformio/conformio-engine/pkg/cache"
	"github.com/conformio/conformio-engine/pkg/models"
	"github.com/conformio/conformio-engine/pkg/repositories"
	"github.com/conformio/conformio-engine/pkg/storage"
)

// Defaults of the corrective action opened on a downgrade to non_conforme.
const (
	defaultActionTitle = "Action corrective à définir"
)

// EvaluateInput is one conformity evaluation of a (site, article) status.
type EvaluateInput struct {
	StatusID uuid.UUID
	State    string
	Score    *int
	Comment  *string
}

// BulkApplicabilityResult reports how a bulk update landed: rows classified
// non_concerne are never touched and count as skipped.
type BulkApplicabilityResult struct {
	Requested int `json:"requested"`
	Applied   int `json:"applied"`
	Skipped   int `json:"skipped"`
}

// EvidenceUpload is a file backing a conformity evaluation.
type EvidenceUpload struct {
	Title       string
	Description *string
	Filename    string
	ContentType string
	Reader      io.Reader
	Size        int64
}

// EvaluationService manages the applicability/conformity matrix of a site.
type EvaluationService interface {
	SetApplicability(ctx context.Context, status *models.SiteArticleStatus) error
	BulkSetApplicability(ctx context.Context, clientID, siteID, textID uuid.UUID, articleIDs []uuid.UUID, applicability string) (*BulkApplicabilityResult, error)
	Evaluate(ctx context.Context, input EvaluateInput) (*models.Conformity, error)
	// AddEvidence attaches a file to the status's conformity evaluation.
	AddEvidence(ctx context.Context, statusID uuid.UUID, upload EvidenceUpload) (*models.Evidence, error)
	ListEvidence(ctx context.Context, statusID uuid.UUID) ([]*models.Evidence, error)
	UpdateAction(ctx context.Context, action *models.CorrectiveAction) error
	ListActionsBySite(ctx context.Context, siteID uuid.UUID) ([]*models.CorrectiveAction, error)
	Matrix(ctx context.Context, filters models.MatrixFilters) ([]*models.SiteArticleStatus, error)
	SiteStats(ctx context.Context, siteID uuid.UUID) (*models.SiteStats, error)
}

type evaluationService struct {
	repo     repositories.EvaluationRepository
	articles repositories.ArticleRepository
	texts    repositories.TextRepository
	store    storage.DocumentStore
	bucket   string
	cache    *cache.Cache
	audit    AuditService
	logger   *zap.Logger
}

// NewEvaluationService creates a new EvaluationService. bucket is the
// evidence bucket.
func NewEvaluationService(
	repo repositories.EvaluationRepository,
	articles repositories.ArticleRepository,
	texts repositories.TextRepository,
	store storage.DocumentStore,
	bucket string,
	c *cache.Cache,
	audit AuditService,
	logger *zap.Logger,
) EvaluationService {
	return &evaluationService{
		repo:     repo,
		articles: articles,
		texts:    texts,
		store:    store,
		bucket:   bucket,
		cache:    c,
		audit:    audit,
		logger:   logger,
	}
}

var _ EvaluationService = (*evaluationService)(nil)

func (s *evaluationService) SetApplicability(ctx context.Context, status *models.SiteArticleStatus) error {
	if !models.ValidApplicability(status.Applicability) {
		return fmt.Errorf("%w: unknown applicability %q", apperrors.ErrInvalidInput, status.Applicability)
	}
	if status.SiteID == uuid.Nil || status.ArticleID == uuid.Nil {
		return fmt.Errorf("%w: site and article are required", apperrors.ErrInvalidInput)
	}

	if userID := auth.UserIDFromContext(ctx); userID != uuid.Nil {
		status.UpdatedBy = &userID
	}

	if err := s.repo.UpsertStatus(ctx, status); err != nil {
		return err
	}

	s.cache.InvalidateSite(ctx, status.SiteID)
	s.audit.Record(ctx, "evaluation.set_applicability", "site_article_status", status.ID, status)
	return nil
}

func (s *evaluationService) BulkSetApplicability(ctx context.Context, clientID, siteID, textID uuid.UUID, articleIDs []uuid.UUID, applicability string) (*BulkApplicabilityResult, error) {
	if !models.ValidApplicability(applicability) {
		return nil, fmt.Errorf("%w: unknown applicability %q", apperrors.ErrInvalidInput, applicability)
	}
	if len(articleIDs) == 0 {
		return &BulkApplicabilityResult{}, nil
	}

	var updatedBy *uuid.UUID
	if userID := auth.UserIDFromContext(ctx); userID != uuid.Nil {
		updatedBy = &userID
	}

	applied, err := s.repo.BulkSetApplicability(ctx, clientID, siteID, textID, articleIDs, applicability, updatedBy)
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateSite(ctx, siteID)
	s.audit.Record(ctx, "evaluation.bulk_applicability", "site", siteID, map[string]any{
		"text_id":       textID,
		"applicability": applicability,
		"requested":     len(articleIDs),
		"applied":       applied,
	})

	return &BulkApplicabilityResult{
		Requested: len(articleIDs),
		Applied:   applied,
		Skipped:   len(articleIDs) - applied,
	}, nil
}

func (s *evaluationService) Evaluate(ctx context.Context, input EvaluateInput) (*models.Conformity, error) {
	if !models.ValidConformityState(input.State) {
		return nil, fmt.Errorf("%w: unknown conformity state %q", apperrors.ErrInvalidInput, input.State)
	}
	if input.Score != nil && (*input.Score < 0 || *input.Score > 100) {
		return nil, fmt.Errorf("%w: score must be between 0 and 100", apperrors.ErrInvalidInput)
	}

	status, err := s.repo.GetStatus(ctx, input.StatusID)
	if err != nil {
		return nil, err
	}
	if status.Applicability == models.ApplicabilityNotConcerned {
		return nil, apperrors.ErrNotConcerned
	}

	var evaluatedBy *uuid.UUID
	if userID := auth.UserIDFromContext(ctx); userID != uuid.Nil {
		evaluatedBy = &userID
	}

	conformity := &models.Conformity{
		StatusID:    input.StatusID,
		State:       input.State,
		Score:       input.Score,
		Comment:     input.Comment,
		EvaluatedBy: evaluatedBy,
	}
	if err := s.repo.UpsertConformity(ctx, conformity); err != nil {
		return nil, err
	}

	if input.State == models.ConformityNonCompliant {
		if err := s.ensureOpenAction(ctx, status, conformity); err != nil {
			return nil, err
		}
	}

	s.cache.InvalidateSite(ctx, status.SiteID)
	s.audit.Record(ctx, "evaluation.evaluate", "conformity", conformity.ID, conformity)
	return conformity, nil
}

// ensureOpenAction opens the default corrective action on a downgrade to
// non_conforme. Idempotent: an existing open action is kept untouched so
// repeated evaluations never pile up duplicates.
func (s *evaluationService) ensureOpenAction(ctx context.Context, status *models.SiteArticleStatus, conformity *models.Conformity) error {
	open, err := s.repo.GetOpenAction(ctx, status.ID)
	if err != nil {
		return err
	}
	if open != nil {
		return nil
	}

	finding := "Non-conformité constatée"
	if article, err := s.articles.GetByID(ctx, status.ArticleID); err == nil {
		if text, err := s.texts.GetByID(ctx, article.TextID); err == nil {
			finding = fmt.Sprintf("Non-conformité constatée sur %s, article %s",
				text.OfficialReference, article.Number)
		}
	}

	var createdBy *uuid.UUID
	if userID := auth.UserIDFromContext(ctx); userID != uuid.Nil {
		createdBy = &userID
	}

	action := &models.CorrectiveAction{
		StatusID:     status.ID,
		ConformityID: conformity.ID,
		Title:        defaultActionTitle,
		Finding:      finding,
		Status:       models.ActionStatusTodo,
		Priority:     models.ActionPriorityMedium,
		CreatedBy:    createdBy,
	}
	if err := s.repo.CreateAction(ctx, action); err != nil {
		return err
	}

	s.logger.Info("corrective action opened",
		zap.String("action_id", action.ID.String()),
		zap.String("status_id", status.ID.String()))
	return nil
}

func (s *evaluationService) AddEvidence(ctx context.Context, statusID uuid.UUID, upload EvidenceUpload) (*models.Evidence, error) {
	if upload.Title == "" {
		return nil, fmt.Errorf("%w: evidence title is required", apperrors.ErrInvalidInput)
	}

	// Evidence hangs off an evaluation; the status must have been evaluated.
	conformity, err := s.repo.GetConformityByStatus(ctx, statusID)
	if err != nil {
		return nil, err
	}

	scope := fmt.Sprintf("conformities/%s", conformity.ID)
	url, err := s.store.Upload(ctx, s.bucket, scope, upload.Filename,
		upload.Reader, upload.Size, upload.ContentType)
	if err != nil {
		return nil, fmt.Errorf("failed to store evidence: %w", err)
	}

	var uploadedBy *uuid.UUID
	if userID := auth.UserIDFromContext(ctx); userID != uuid.Nil {
		uploadedBy = &userID
	}

	evidence := &models.Evidence{
		ConformityID: conformity.ID,
		Title:        upload.Title,
		DocumentURL:  url,
		DocumentType: upload.ContentType,
		Description:  upload.Description,
		UploadedBy:   uploadedBy,
	}
	if err := s.repo.AddEvidence(ctx, evidence); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, "evaluation.add_evidence", "evidence", evidence.ID, evidence)
	return evidence, nil
}

func (s *evaluationService) ListEvidence(ctx context.Context, statusID uuid.UUID) ([]*models.Evidence, error) {
	conformity, err := s.repo.GetConformityByStatus(ctx, statusID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListEvidence(ctx, conformity.ID)
}

func (s *evaluationService) UpdateAction(ctx context.Context, action *models.CorrectiveAction) error {
	if action.Status != "" {
		switch action.Status {
		case models.ActionStatusTodo, models.ActionStatusInProgress, models.ActionStatusDone:
		default:
			return fmt.Errorf("%w: unknown action status %q", apperrors.ErrInvalidInput, action.Status)
		}
	}
	if err := s.repo.UpdateAction(ctx, action); err != nil {
		return err
	}
	s.audit.Record(ctx, "evaluation.update_action", "corrective_action", action.ID, action)
	return nil
}

func (s *evaluationService) ListActionsBySite(ctx context.Context, siteID uuid.UUID) ([]*models.CorrectiveAction, error) {
	return s.repo.ListActionsBySite(ctx, siteID)
}

func (s *evaluationService) Matrix(ctx context.Context, filters models.MatrixFilters) ([]*models.SiteArticleStatus, error) {
	// Only the unfiltered matrix is cached; filtered views go to the DB.
	cacheable := filters.TextID == uuid.Nil && filters.Applicability == "" && filters.State == ""

	if cacheable {
		var cached []*models.SiteArticleStatus
		if s.cache.GetJSON(ctx, cache.MatrixKey(filters.SiteID), &cached) {
			return cached, nil
		}
	}

	statuses, err := s.repo.Matrix(ctx, filters)
	if err != nil {
		return nil, err
	}

	if cacheable {
		s.cache.SetJSON(ctx, cache.MatrixKey(filters.SiteID), statuses)
	}
	return statuses, nil
}

func (s *evaluationService) SiteStats(ctx context.Context, siteID uuid.UUID) (*models.SiteStats, error) {
	var cached models.SiteStats
	if s.cache.GetJSON(ctx, cache.StatsKey(siteID), &cached) {
		return &cached, nil
	}

	stats, err := s.repo.SiteStats(ctx, siteID)
	if err != nil {
		return nil, err
	}

	s.cache.SetJSON(ctx, cache.StatsKey(siteID), stats)
	return stats, nil
}
