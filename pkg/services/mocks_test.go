package services

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/conformio/conformio-engine/pkg/apperrors"
	"github.com/conformio/conformio-engine/pkg/models"
	"github.com/conformio/conformio-engine/pkg/repositories"
	"github.com/conformio/conformio-engine/pkg/storage"
)

type mockTextRepo struct {
	texts map[uuid.UUID]*models.RegulatoryText
}

func (m *mockTextRepo) Create(ctx context.Context, text *models.RegulatoryText) error { return nil }
func (m *mockTextRepo) Update(ctx context.Context, text *models.RegulatoryText) error { return nil }
func (m *mockTextRepo) SoftDelete(ctx context.Context, textID uuid.UUID) error        { return nil }
func (m *mockTextRepo) GetByID(ctx context.Context, textID uuid.UUID) (*models.RegulatoryText, error) {
	if text, ok := m.texts[textID]; ok {
		return text, nil
	}
	return nil, apperrors.ErrNotFound
}
func (m *mockTextRepo) List(ctx context.Context, filters models.TextFilters) ([]*models.RegulatoryText, error) {
	return nil, nil
}
func (m *mockTextRepo) SetDomains(ctx context.Context, textID uuid.UUID, domainIDs, subDomainIDs []uuid.UUID) error {
	return nil
}

type mockArticleRepo struct {
	articles map[uuid.UUID]*models.Article
}

func (m *mockArticleRepo) Create(ctx context.Context, article *models.Article) error { return nil }
func (m *mockArticleRepo) Update(ctx context.Context, article *models.Article) error { return nil }
func (m *mockArticleRepo) SoftDelete(ctx context.Context, articleID uuid.UUID) error { return nil }
func (m *mockArticleRepo) GetByID(ctx context.Context, articleID uuid.UUID) (*models.Article, error) {
	if article, ok := m.articles[articleID]; ok {
		return article, nil
	}
	return nil, apperrors.ErrNotFound
}
func (m *mockArticleRepo) ListByText(ctx context.Context, textID uuid.UUID) ([]*models.Article, error) {
	return nil, nil
}
func (m *mockArticleRepo) Search(ctx context.Context, term string, limit int) ([]*models.Article, error) {
	return nil, nil
}

type mockEffectRepo struct {
	recordErr error
	recorded  []repositories.RecordEffectParams
}

func (m *mockEffectRepo) Record(ctx context.Context, params repositories.RecordEffectParams) error {
	if m.recordErr != nil {
		return m.recordErr
	}
	params.Version.VersionNumber = len(m.recorded) + 1
	params.Effect.ID = uuid.New()
	params.Version.ID = uuid.New()
	m.recorded = append(m.recorded, params)
	return nil
}
func (m *mockEffectRepo) ListByTargetArticle(ctx context.Context, articleID uuid.UUID) ([]*models.LegalEffect, error) {
	return nil, nil
}
func (m *mockEffectRepo) ListBySourceText(ctx context.Context, textID uuid.UUID) ([]*models.LegalEffect, error) {
	return nil, nil
}

type mockEvaluationRepo struct {
	statuses     map[uuid.UUID]*models.SiteArticleStatus
	openAction   *models.CorrectiveAction
	created      []*models.CorrectiveAction
	conformities []*models.Conformity
	bulkApplied  int
}

func (m *mockEvaluationRepo) UpsertStatus(ctx context.Context, status *models.SiteArticleStatus) error {
	if status.ID == uuid.Nil {
		status.ID = uuid.New()
	}
	if m.statuses == nil {
		m.statuses = map[uuid.UUID]*models.SiteArticleStatus{}
	}
	m.statuses[status.ID] = status
	return nil
}
func (m *mockEvaluationRepo) GetStatus(ctx context.Context, statusID uuid.UUID) (*models.SiteArticleStatus, error) {
	if status, ok := m.statuses[statusID]; ok {
		return status, nil
	}
	return nil, apperrors.ErrNotFound
}
func (m *mockEvaluationRepo) GetStatusBySiteArticle(ctx context.Context, siteID, articleID uuid.UUID) (*models.SiteArticleStatus, error) {
	return nil, apperrors.ErrNotFound
}
func (m *mockEvaluationRepo) BulkSetApplicability(ctx context.Context, clientID, siteID, textID uuid.UUID, articleIDs []uuid.UUID, applicability string, updatedBy *uuid.UUID) (int, error) {
	return m.bulkApplied, nil
}
func (m *mockEvaluationRepo) UpsertConformity(ctx context.Context, conformity *models.Conformity) error {
	conformity.ID = uuid.New()
	conformity.EvaluatedAt = time.Now()
	m.conformities = append(m.conformities, conformity)
	return nil
}
func (m *mockEvaluationRepo) GetConformityByStatus(ctx context.Context, statusID uuid.UUID) (*models.Conformity, error) {
	for _, c := range m.conformities {
		if c.StatusID == statusID {
			return c, nil
		}
	}
	return nil, apperrors.ErrNotFound
}
func (m *mockEvaluationRepo) AddEvidence(ctx context.Context, evidence *models.Evidence) error {
	evidence.ID = uuid.New()
	return nil
}
func (m *mockEvaluationRepo) ListEvidence(ctx context.Context, conformityID uuid.UUID) ([]*models.Evidence, error) {
	return nil, nil
}
func (m *mockEvaluationRepo) GetOpenAction(ctx context.Context, statusID uuid.UUID) (*models.CorrectiveAction, error) {
	return m.openAction, nil
}
func (m *mockEvaluationRepo) CreateAction(ctx context.Context, action *models.CorrectiveAction) error {
	action.ID = uuid.New()
	m.created = append(m.created, action)
	m.openAction = action
	return nil
}
func (m *mockEvaluationRepo) UpdateAction(ctx context.Context, action *models.CorrectiveAction) error {
	return nil
}
func (m *mockEvaluationRepo) ListActionsBySite(ctx context.Context, siteID uuid.UUID) ([]*models.CorrectiveAction, error) {
	return nil, nil
}
func (m *mockEvaluationRepo) Matrix(ctx context.Context, filters models.MatrixFilters) ([]*models.SiteArticleStatus, error) {
	return nil, nil
}
func (m *mockEvaluationRepo) SiteStats(ctx context.Context, siteID uuid.UUID) (*models.SiteStats, error) {
	return &models.SiteStats{}, nil
}

type mockDocumentStore struct {
	uploads []string
}

func (m *mockDocumentStore) Upload(ctx context.Context, bucket, scope, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	url := "http://storage.test/" + bucket + "/" + scope + "/" + filename
	m.uploads = append(m.uploads, url)
	return url, nil
}
func (m *mockDocumentStore) Remove(ctx context.Context, bucket, objectKey string) error { return nil }
func (m *mockDocumentStore) PresignedURL(ctx context.Context, bucket, objectKey string, expiry time.Duration) (string, error) {
	return "", nil
}

type mockAuditService struct {
	actions []string
}

func (m *mockAuditService) Record(ctx context.Context, action, entity string, entityID uuid.UUID, payload any) {
	m.actions = append(m.actions, action)
}
func (m *mockAuditService) ListByEntity(ctx context.Context, entity string, entityID uuid.UUID, limit int) ([]*models.AuditLog, error) {
	return nil, nil
}

var _ storage.DocumentStore = (*mockDocumentStore)(nil)
var _ repositories.TextRepository = (*mockTextRepo)(nil)
var _ repositories.ArticleRepository = (*mockArticleRepo)(nil)
var _ repositories.EffectRepository = (*mockEffectRepo)(nil)
var _ repositories.EvaluationRepository = (*mockEvaluationRepo)(nil)
var _ AuditService = (*mockAuditService)(nil)
