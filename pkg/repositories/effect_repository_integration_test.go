package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conformio/conformio-engine/pkg/apperrors"
	"github.com/conformio/conformio-engine/pkg/database"
	"github.com/conformio/conformio-engine/pkg/models"
	"github.com/conformio/conformio-engine/pkg/testhelpers"
)

// unscopedCtx returns a context carrying an unscoped connection, as the
// back-office middleware would install it.
func unscopedCtx(t *testing.T, db *database.DB) context.Context {
	t.Helper()

	ctx := context.Background()
	scope, err := db.WithoutTenant(ctx)
	require.NoError(t, err)
	t.Cleanup(scope.Close)
	return database.SetTenantScope(ctx, scope)
}

func createTextFixture(t *testing.T, ctx context.Context, actType string) *models.RegulatoryText {
	t.Helper()

	text := &models.RegulatoryText{
		ActType:           actType,
		OfficialReference: "Ref-" + uuid.NewString(),
		Title:             "Texte de test",
		ForceStatus:       models.ForceStatusInForce,
		Year:              2024,
	}
	require.NoError(t, NewTextRepository().Create(ctx, text))
	return text
}

func createArticleFixture(t *testing.T, ctx context.Context, textID uuid.UUID) *models.Article {
	t.Helper()

	article := &models.Article{
		TextID:  textID,
		Number:  "1",
		Content: "<p>Contenu initial</p>",
	}
	require.NoError(t, NewArticleRepository().Create(ctx, article))
	return article
}

func recordEffectFixture(t *testing.T, ctx context.Context, source *models.RegulatoryText, target *models.Article, content string, expected *uuid.UUID) (*models.LegalEffect, *models.ArticleVersion, error) {
	t.Helper()

	effect := &models.LegalEffect{
		SourceTextID:    source.ID,
		TargetArticleID: target.ID,
		TargetTextID:    target.TextID,
		EffectType:      models.EffectModifies,
		EffectDate:      time.Now(),
		Scope:           models.EffectScopeArticle,
		NewContent:      &content,
	}
	version := &models.ArticleVersion{
		ArticleID:     target.ID,
		Label:         "Modifié par " + source.OfficialReference,
		Content:       content,
		SourceTextID:  &source.ID,
		SourceTextRef: source.OfficialReference,
	}
	err := NewEffectRepository().Record(ctx, RecordEffectParams{
		Effect:                  effect,
		Version:                 version,
		ExpectedActiveVersionID: expected,
		TargetForceStatus:       models.ForceStatusAmended,
	})
	return effect, version, err
}

func TestRecordEffect_SwapsActiveVersion(t *testing.T) {
	db := testhelpers.GetTestDB(t).DB
	ctx := unscopedCtx(t, db)

	source := createTextFixture(t, ctx, models.ActTypeLoi)
	target := createTextFixture(t, ctx, models.ActTypeDecret)
	article := createArticleFixture(t, ctx, target.ID)

	_, v1, err := recordEffectFixture(t, ctx, source, article, "<p>v1</p>", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, v1.VersionNumber)
	assert.True(t, v1.IsActive)

	_, v2, err := recordEffectFixture(t, ctx, source, article, "<p>v2</p>", &v1.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, v2.VersionNumber)

	versions := NewVersionRepository()
	active, err := versions.GetActive(ctx, article.ID)
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.Equal(t, v2.ID, active.ID)
	assert.Equal(t, "<p>v2</p>", active.Content)

	history, err := versions.ListByArticle(ctx, article.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	// The article row mirrors the active version.
	got, err := NewArticleRepository().GetByID(ctx, article.ID)
	require.NoError(t, err)
	assert.Equal(t, "<p>v2</p>", got.Content)

	// The target text's force status follows the recording.
	text, err := NewTextRepository().GetByID(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ForceStatusAmended, text.ForceStatus)
}

func TestRecordEffect_StaleExpectedVersionRejected(t *testing.T) {
	db := testhelpers.GetTestDB(t).DB
	ctx := unscopedCtx(t, db)

	source := createTextFixture(t, ctx, models.ActTypeLoi)
	target := createTextFixture(t, ctx, models.ActTypeDecret)
	article := createArticleFixture(t, ctx, target.ID)

	_, v1, err := recordEffectFixture(t, ctx, source, article, "<p>v1</p>", nil)
	require.NoError(t, err)

	_, _, err = recordEffectFixture(t, ctx, source, article, "<p>v2</p>", &v1.ID)
	require.NoError(t, err)

	// v1 is no longer active; recording against it must fail and leave
	// the history untouched.
	_, _, err = recordEffectFixture(t, ctx, source, article, "<p>v3</p>", &v1.ID)
	require.ErrorIs(t, err, apperrors.ErrVersionConflict)

	history, err := NewVersionRepository().ListByArticle(ctx, article.ID)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestRecordEffect_ListByTargetArticle(t *testing.T) {
	db := testhelpers.GetTestDB(t).DB
	ctx := unscopedCtx(t, db)

	source := createTextFixture(t, ctx, models.ActTypeLoi)
	target := createTextFixture(t, ctx, models.ActTypeDecret)
	article := createArticleFixture(t, ctx, target.ID)

	_, _, err := recordEffectFixture(t, ctx, source, article, "<p>v1</p>", nil)
	require.NoError(t, err)

	effects, err := NewEffectRepository().ListByTargetArticle(ctx, article.ID)
	require.NoError(t, err)
	require.Len(t, effects, 1)
	assert.Equal(t, source.ID, effects[0].SourceTextID)
	assert.Equal(t, models.EffectModifies, effects[0].EffectType)
}

func TestBulkSetApplicability_SkipsNotConcerned(t *testing.T) {
	db := testhelpers.GetTestDB(t).DB
	ctx := unscopedCtx(t, db)

	text := createTextFixture(t, ctx, models.ActTypeDecret)
	a1 := createArticleFixture(t, ctx, text.ID)
	a2 := &models.Article{TextID: text.ID, Number: "2", Content: "<p>2</p>"}
	require.NoError(t, NewArticleRepository().Create(ctx, a2))

	client := &models.Client{Name: "Client test"}
	require.NoError(t, NewClientRepository().Create(ctx, client))
	site := &models.Site{ClientID: client.ID, Name: "Site test"}
	require.NoError(t, NewSiteRepository().Create(ctx, site))

	evaluations := NewEvaluationRepository()

	// a1 is excluded by the site; bulk classification must not override it.
	require.NoError(t, evaluations.UpsertStatus(ctx, &models.SiteArticleStatus{
		ClientID:      client.ID,
		SiteID:        site.ID,
		TextID:        text.ID,
		ArticleID:     a1.ID,
		Applicability: models.ApplicabilityNotConcerned,
	}))

	applied, err := evaluations.BulkSetApplicability(ctx, client.ID, site.ID, text.ID,
		[]uuid.UUID{a1.ID, a2.ID}, models.ApplicabilityMandatory, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, applied)

	status, err := evaluations.GetStatusBySiteArticle(ctx, site.ID, a1.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicabilityNotConcerned, status.Applicability)
}
