package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/conformio/conformio-engine/pkg/models"
	"github.com/conformio/conformio-engine/pkg/services"
)

// mockEffectService is a configurable mock for handler tests.
type mockEffectService struct {
	outcome  *services.RecordEffectOutcome
	advisory *services.HierarchyAdvisory
	effects  []*models.LegalEffect
	err      error

	lastInput services.RecordEffectInput
}

var _ services.EffectService = (*mockEffectService)(nil)

func (m *mockEffectService) Preview(ctx context.Context, sourceTextID, targetArticleID uuid.UUID, effectType string) (*services.HierarchyAdvisory, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.advisory, nil
}

func (m *mockEffectService) Record(ctx context.Context, input services.RecordEffectInput) (*services.RecordEffectOutcome, error) {
	m.lastInput = input
	if m.err != nil {
		return nil, m.err
	}
	return m.outcome, nil
}

func (m *mockEffectService) ListByTargetArticle(ctx context.Context, articleID uuid.UUID) ([]*models.LegalEffect, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.effects, nil
}

func (m *mockEffectService) ListBySourceText(ctx context.Context, textID uuid.UUID) ([]*models.LegalEffect, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.effects, nil
}

// mockVersionService is a configurable mock for handler tests.
type mockVersionService struct {
	versions   []*models.ArticleVersion
	active     *models.ArticleVersion
	comparison *services.VersionComparison
	err        error
}

var _ services.VersionService = (*mockVersionService)(nil)

func (m *mockVersionService) ListByArticle(ctx context.Context, articleID uuid.UUID) ([]*models.ArticleVersion, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.versions, nil
}

func (m *mockVersionService) GetActive(ctx context.Context, articleID uuid.UUID) (*models.ArticleVersion, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.active, nil
}

func (m *mockVersionService) Compare(ctx context.Context, articleID, fromVersionID, toVersionID uuid.UUID) (*services.VersionComparison, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.comparison, nil
}

// mockEvaluationService is a configurable mock for handler tests.
type mockEvaluationService struct {
	statuses   []*models.SiteArticleStatus
	stats      *models.SiteStats
	conformity *models.Conformity
	bulkResult *services.BulkApplicabilityResult
	evidence   []*models.Evidence
	actions    []*models.CorrectiveAction
	err        error

	lastFilters models.MatrixFilters
	lastInput   services.EvaluateInput
}

var _ services.EvaluationService = (*mockEvaluationService)(nil)

func (m *mockEvaluationService) SetApplicability(ctx context.Context, status *models.SiteArticleStatus) error {
	return m.err
}

func (m *mockEvaluationService) BulkSetApplicability(ctx context.Context, clientID, siteID, textID uuid.UUID, articleIDs []uuid.UUID, applicability string) (*services.BulkApplicabilityResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.bulkResult, nil
}

func (m *mockEvaluationService) Evaluate(ctx context.Context, input services.EvaluateInput) (*models.Conformity, error) {
	m.lastInput = input
	if m.err != nil {
		return nil, m.err
	}
	return m.conformity, nil
}

func (m *mockEvaluationService) AddEvidence(ctx context.Context, statusID uuid.UUID, upload services.EvidenceUpload) (*models.Evidence, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.Evidence{ID: uuid.New(), Title: upload.Title}, nil
}

func (m *mockEvaluationService) ListEvidence(ctx context.Context, statusID uuid.UUID) ([]*models.Evidence, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.evidence, nil
}

func (m *mockEvaluationService) UpdateAction(ctx context.Context, action *models.CorrectiveAction) error {
	return m.err
}

func (m *mockEvaluationService) ListActionsBySite(ctx context.Context, siteID uuid.UUID) ([]*models.CorrectiveAction, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.actions, nil
}

func (m *mockEvaluationService) Matrix(ctx context.Context, filters models.MatrixFilters) ([]*models.SiteArticleStatus, error) {
	m.lastFilters = filters
	if m.err != nil {
		return nil, m.err
	}
	return m.statuses, nil
}

func (m *mockEvaluationService) SiteStats(ctx context.Context, siteID uuid.UUID) (*models.SiteStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}
