package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/conformio/conformio-engine/pkg/apperrors"
	"github.com/conformio/conformio-engine/pkg/cache"
	"github.com/conformio/conformio-engine/pkg/models"
)

type evaluationFixture struct {
	service   EvaluationService
	repo      *mockEvaluationRepo
	audit     *mockAuditService
	statusID  uuid.UUID
	siteID    uuid.UUID
	articleID uuid.UUID
}

func newEvaluationFixture(t *testing.T, applicability string) *evaluationFixture {
	t.Helper()

	siteID := uuid.New()
	textID := uuid.New()
	articleID := uuid.New()
	statusID := uuid.New()

	repo := &mockEvaluationRepo{statuses: map[uuid.UUID]*models.SiteArticleStatus{
		statusID: {
			ID:            statusID,
			ClientID:      uuid.New(),
			SiteID:        siteID,
			TextID:        textID,
			ArticleID:     articleID,
			Applicability: applicability,
		},
	}}
	texts := &mockTextRepo{texts: map[uuid.UUID]*models.RegulatoryText{
		textID: {ID: textID, ActType: models.ActTypeDecret, OfficialReference: "Décret n° 2020-05"},
	}}
	articles := &mockArticleRepo{articles: map[uuid.UUID]*models.Article{
		articleID: {ID: articleID, TextID: textID, Number: "12"},
	}}
	audit := &mockAuditService{}

	service := NewEvaluationService(repo, articles, texts, &mockDocumentStore{}, "evidence",
		cache.New(nil, zap.NewNop()), audit, zap.NewNop())

	return &evaluationFixture{
		service:   service,
		repo:      repo,
		audit:     audit,
		statusID:  statusID,
		siteID:    siteID,
		articleID: articleID,
	}
}

func TestEvaluate_NotConcernedRejected(t *testing.T) {
	f := newEvaluationFixture(t, models.ApplicabilityNotConcerned)

	_, err := f.service.Evaluate(context.Background(), EvaluateInput{
		StatusID: f.statusID,
		State:    models.ConformityCompliant,
	})

	assert.ErrorIs(t, err, apperrors.ErrNotConcerned)
	assert.Empty(t, f.repo.conformities)
}

func TestEvaluate_UnknownStateRejected(t *testing.T) {
	f := newEvaluationFixture(t, models.ApplicabilityMandatory)

	_, err := f.service.Evaluate(context.Background(), EvaluateInput{
		StatusID: f.statusID,
		State:    "presque_conforme",
	})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestEvaluate_ScoreBounds(t *testing.T) {
	f := newEvaluationFixture(t, models.ApplicabilityMandatory)

	bad := 120
	_, err := f.service.Evaluate(context.Background(), EvaluateInput{
		StatusID: f.statusID,
		State:    models.ConformityCompliant,
		Score:    &bad,
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	good := 85
	conformity, err := f.service.Evaluate(context.Background(), EvaluateInput{
		StatusID: f.statusID,
		State:    models.ConformityCompliant,
		Score:    &good,
	})
	require.NoError(t, err)
	assert.Equal(t, 85, *conformity.Score)
}

func TestEvaluate_NonCompliantOpensDefaultAction(t *testing.T) {
	f := newEvaluationFixture(t, models.ApplicabilityMandatory)

	_, err := f.service.Evaluate(context.Background(), EvaluateInput{
		StatusID: f.statusID,
		State:    models.ConformityNonCompliant,
	})

	require.NoError(t, err)
	require.Len(t, f.repo.created, 1)

	action := f.repo.created[0]
	assert.Equal(t, "Action corrective à définir", action.Title)
	assert.Equal(t, models.ActionStatusTodo, action.Status)
	assert.Equal(t, models.ActionPriorityMedium, action.Priority)
	assert.Contains(t, action.Finding, "Décret n° 2020-05")
	assert.Contains(t, action.Finding, "article 12")
}

func TestEvaluate_NonCompliantIsIdempotentOnOpenAction(t *testing.T) {
	f := newEvaluationFixture(t, models.ApplicabilityMandatory)

	for i := 0; i < 3; i++ {
		_, err := f.service.Evaluate(context.Background(), EvaluateInput{
			StatusID: f.statusID,
			State:    models.ConformityNonCompliant,
		})
		require.NoError(t, err)
	}

	assert.Len(t, f.repo.created, 1, "repeated downgrades must not pile up actions")
}

func TestEvaluate_CompliantOpensNoAction(t *testing.T) {
	f := newEvaluationFixture(t, models.ApplicabilityMandatory)

	_, err := f.service.Evaluate(context.Background(), EvaluateInput{
		StatusID: f.statusID,
		State:    models.ConformityCompliant,
	})

	require.NoError(t, err)
	assert.Empty(t, f.repo.created)
}

func TestSetApplicability_UnknownValueRejected(t *testing.T) {
	f := newEvaluationFixture(t, models.ApplicabilityMandatory)

	err := f.service.SetApplicability(context.Background(), &models.SiteArticleStatus{
		SiteID:        f.siteID,
		ArticleID:     f.articleID,
		Applicability: "peut_etre",
	})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestBulkSetApplicability_ReportsSkipped(t *testing.T) {
	f := newEvaluationFixture(t, models.ApplicabilityMandatory)
	f.repo.bulkApplied = 2

	result, err := f.service.BulkSetApplicability(context.Background(),
		uuid.New(), f.siteID, uuid.New(),
		[]uuid.UUID{uuid.New(), uuid.New(), uuid.New()},
		models.ApplicabilityNotApplicable)

	require.NoError(t, err)
	assert.Equal(t, 3, result.Requested)
	assert.Equal(t, 2, result.Applied)
	assert.Equal(t, 1, result.Skipped)
}

func TestBulkSetApplicability_EmptySelection(t *testing.T) {
	f := newEvaluationFixture(t, models.ApplicabilityMandatory)

	result, err := f.service.BulkSetApplicability(context.Background(),
		uuid.New(), f.siteID, uuid.New(), nil, models.ApplicabilityMandatory)

	require.NoError(t, err)
	assert.Zero(t, result.Requested)
	assert.Zero(t, result.Applied)
}

func TestAddEvidence_RequiresEvaluation(t *testing.T) {
	f := newEvaluationFixture(t, models.ApplicabilityMandatory)

	_, err := f.service.AddEvidence(context.Background(), f.statusID, EvidenceUpload{
		Title:    "Rapport de contrôle",
		Filename: "rapport.pdf",
	})

	assert.ErrorIs(t, err, apperrors.ErrNotFound, "evidence needs an existing evaluation")
}
