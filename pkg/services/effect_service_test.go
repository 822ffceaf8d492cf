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

type effectFixture struct {
	service  EffectService
	effects  *mockEffectRepo
	audit    *mockAuditService
	sourceID uuid.UUID
	targetID uuid.UUID // target article
	textID   uuid.UUID // target text
}

func newEffectFixture(t *testing.T, sourceActType, targetActType string) *effectFixture {
	t.Helper()

	sourceID := uuid.New()
	textID := uuid.New()
	articleID := uuid.New()

	texts := &mockTextRepo{texts: map[uuid.UUID]*models.RegulatoryText{
		sourceID: {
			ID:                sourceID,
			ActType:           sourceActType,
			OfficialReference: "Loi n° 2024-12",
			ForceStatus:       models.ForceStatusInForce,
		},
		textID: {
			ID:                textID,
			ActType:           targetActType,
			OfficialReference: "Décret n° 2020-05",
			ForceStatus:       models.ForceStatusInForce,
		},
	}}
	articles := &mockArticleRepo{articles: map[uuid.UUID]*models.Article{
		articleID: {ID: articleID, TextID: textID, Number: "7", Content: "<p>ancien contenu</p>"},
	}}

	effects := &mockEffectRepo{}
	audit := &mockAuditService{}
	store := &mockDocumentStore{}

	service := NewEffectService(effects, texts, articles, store, "annexes",
		cache.New(nil, zap.NewNop()), audit, zap.NewNop())

	return &effectFixture{
		service:  service,
		effects:  effects,
		audit:    audit,
		sourceID: sourceID,
		targetID: articleID,
		textID:   textID,
	}
}

func TestRecordEffect_HierarchyViolationBlocks(t *testing.T) {
	f := newEffectFixture(t, models.ActTypeCirculaire, models.ActTypeLoi)

	_, err := f.service.Record(context.Background(), RecordEffectInput{
		SourceTextID:    f.sourceID,
		TargetArticleID: f.targetID,
		EffectType:      models.EffectModifies,
		NewContent:      "<p>nouveau</p>",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrHierarchyViolation)
	assert.Contains(t, err.Error(), "Une circulaire ne peut pas")
	assert.Empty(t, f.effects.recorded, "nothing must be written on a blocked effect")
}

func TestRecordEffect_EmptyContentRejected(t *testing.T) {
	f := newEffectFixture(t, models.ActTypeLoi, models.ActTypeDecret)

	_, err := f.service.Record(context.Background(), RecordEffectInput{
		SourceTextID:    f.sourceID,
		TargetArticleID: f.targetID,
		EffectType:      models.EffectModifies,
		NewContent:      "   \n\t  ",
	})

	require.ErrorIs(t, err, apperrors.ErrEmptyContent)
	assert.Empty(t, f.effects.recorded)
}

func TestRecordEffect_RepealWithoutContent(t *testing.T) {
	f := newEffectFixture(t, models.ActTypeLoi, models.ActTypeDecret)

	outcome, err := f.service.Record(context.Background(), RecordEffectInput{
		SourceTextID:    f.sourceID,
		TargetArticleID: f.targetID,
		EffectType:      models.EffectRepeals,
	})

	require.NoError(t, err)
	assert.Equal(t, "<p><em>Article abrogé par Loi n° 2024-12</em></p>", outcome.Version.Content)
	assert.Nil(t, outcome.Effect.NewContent, "ABROGE stores no replacement content on the effect")

	require.Len(t, f.effects.recorded, 1)
	assert.Equal(t, models.ForceStatusAmended, f.effects.recorded[0].TargetForceStatus)
}

func TestRecordEffect_RepealEntireText(t *testing.T) {
	f := newEffectFixture(t, models.ActTypeLoi, models.ActTypeDecret)

	_, err := f.service.Record(context.Background(), RecordEffectInput{
		SourceTextID:      f.sourceID,
		TargetArticleID:   f.targetID,
		EffectType:        models.EffectRepeals,
		RepealsEntireText: true,
	})

	require.NoError(t, err)
	require.Len(t, f.effects.recorded, 1)
	assert.Equal(t, models.ForceStatusRepealed, f.effects.recorded[0].TargetForceStatus)
}

func TestRecordEffect_ModifySucceedsWithWarning(t *testing.T) {
	// decret modifying a loi is allowed but warned about
	f := newEffectFixture(t, models.ActTypeDecret, models.ActTypeLoi)

	outcome, err := f.service.Record(context.Background(), RecordEffectInput{
		SourceTextID:    f.sourceID,
		TargetArticleID: f.targetID,
		EffectType:      models.EffectModifies,
		NewContent:      "  <p>nouveau contenu</p>  ",
	})

	require.NoError(t, err)
	require.NotNil(t, outcome.Advisory)
	assert.Equal(t, SeverityWarning, outcome.Advisory.Severity)

	assert.Equal(t, "<p>nouveau contenu</p>", outcome.Version.Content, "content is trimmed")
	require.NotNil(t, outcome.Effect.NewContent)
	assert.Equal(t, "<p>nouveau contenu</p>", *outcome.Effect.NewContent)
	assert.Equal(t, "Modifié par Loi n° 2024-12", outcome.Version.Label)
	assert.Contains(t, f.audit.actions, "effect.record")
}

func TestRecordEffect_VersionConflictPropagates(t *testing.T) {
	f := newEffectFixture(t, models.ActTypeLoi, models.ActTypeDecret)
	f.effects.recordErr = apperrors.ErrVersionConflict

	_, err := f.service.Record(context.Background(), RecordEffectInput{
		SourceTextID:    f.sourceID,
		TargetArticleID: f.targetID,
		EffectType:      models.EffectModifies,
		NewContent:      "<p>x</p>",
	})

	assert.ErrorIs(t, err, apperrors.ErrVersionConflict)
}

func TestRecordEffect_UnknownEffectType(t *testing.T) {
	f := newEffectFixture(t, models.ActTypeLoi, models.ActTypeDecret)

	_, err := f.service.Record(context.Background(), RecordEffectInput{
		SourceTextID:    f.sourceID,
		TargetArticleID: f.targetID,
		EffectType:      "SUPPRIME",
		NewContent:      "<p>x</p>",
	})

	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestPreview_ReturnsAdvisoryWithoutWriting(t *testing.T) {
	f := newEffectFixture(t, models.ActTypeCirculaire, models.ActTypeLoi)

	advisory, err := f.service.Preview(context.Background(), f.sourceID, f.targetID, models.EffectRepeals)

	require.NoError(t, err)
	require.NotNil(t, advisory)
	assert.True(t, advisory.Blocking())
	assert.Empty(t, f.effects.recorded)
}
