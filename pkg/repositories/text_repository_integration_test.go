package repositories

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conformio/conformio-engine/pkg/apperrors"
	"github.com/conformio/conformio-engine/pkg/models"
	"github.com/conformio/conformio-engine/pkg/testhelpers"
)

func TestCreateText_DuplicateReferenceConflict(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	ctx := unscopedCtx(t, testDB.DB)

	repo := NewTextRepository()
	first := createTextFixture(t, ctx, models.ActTypeDecret)

	dup := &models.RegulatoryText{
		ActType:           models.ActTypeDecret,
		OfficialReference: first.OfficialReference,
		Title:             "Doublon",
		ForceStatus:       models.ForceStatusInForce,
		Year:              2024,
	}
	err := repo.Create(ctx, dup)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	assert.Contains(t, err.Error(), first.OfficialReference)
}

func TestUpdateText_DuplicateReferenceConflict(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	ctx := unscopedCtx(t, testDB.DB)

	repo := NewTextRepository()
	first := createTextFixture(t, ctx, models.ActTypeDecret)
	second := createTextFixture(t, ctx, models.ActTypeArrete)

	second.OfficialReference = first.OfficialReference
	err := repo.Update(ctx, second)
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestCreateText_TombstonedReferenceIsReusable(t *testing.T) {
	testDB := testhelpers.GetTestDB(t)
	ctx := unscopedCtx(t, testDB.DB)

	repo := NewTextRepository()
	first := createTextFixture(t, ctx, models.ActTypeDecret)
	require.NoError(t, repo.SoftDelete(ctx, first.ID))

	// The unique index only covers live rows.
	reuse := &models.RegulatoryText{
		ActType:           models.ActTypeDecret,
		OfficialReference: first.OfficialReference,
		Title:             "Republication",
		ForceStatus:       models.ForceStatusInForce,
		Year:              2024,
		PublicationDate:   ptrTime(time.Now()),
	}
	assert.NoError(t, repo.Create(ctx, reuse))
}

func ptrTime(t time.Time) *time.Time { return &t }
