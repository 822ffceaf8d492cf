package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/conformio/conformio-engine/pkg/apperrors"
	"github.com/conformio/conformio-engine/pkg/models"
	"github.com/conformio/conformio-engine/pkg/services"
)

func TestEffectHandler_Record_Success(t *testing.T) {
	targetID := uuid.New()
	mockEffects := &mockEffectService{
		outcome: &services.RecordEffectOutcome{
			Effect:  &models.LegalEffect{ID: uuid.New(), TargetArticleID: targetID, EffectType: models.EffectModifies},
			Version: &models.ArticleVersion{ID: uuid.New(), VersionNumber: 2, IsActive: true},
		},
	}
	handler := NewEffectHandler(mockEffects, &mockVersionService{}, zap.NewNop())

	body := map[string]any{
		"source_text_id":    uuid.New().String(),
		"target_article_id": targetID.String(),
		"effect_type":       models.EffectModifies,
		"new_content":       "<p>Nouveau contenu</p>",
	}
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/effects", bytes.NewReader(raw))
	rec := httptest.NewRecorder()

	handler.Record(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, targetID, mockEffects.lastInput.TargetArticleID)
	assert.Equal(t, "<p>Nouveau contenu</p>", mockEffects.lastInput.NewContent)

	var response ApiResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.True(t, response.Success)
}

func TestEffectHandler_Record_HierarchyViolation(t *testing.T) {
	mockEffects := &mockEffectService{
		err: fmt.Errorf("une circulaire ne peut pas modifier une loi: %w", apperrors.ErrHierarchyViolation),
	}
	handler := NewEffectHandler(mockEffects, &mockVersionService{}, zap.NewNop())

	raw, err := json.Marshal(map[string]any{
		"source_text_id":    uuid.New().String(),
		"target_article_id": uuid.New().String(),
		"effect_type":       models.EffectModifies,
		"new_content":       "<p>x</p>",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/effects", bytes.NewReader(raw))
	rec := httptest.NewRecorder()

	handler.Record(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
	assert.Equal(t, "hierarchy_violation", errResp.Error)
	assert.Contains(t, errResp.Message, "circulaire")
}

func TestEffectHandler_Record_VersionConflict(t *testing.T) {
	mockEffects := &mockEffectService{err: apperrors.ErrVersionConflict}
	handler := NewEffectHandler(mockEffects, &mockVersionService{}, zap.NewNop())

	raw, err := json.Marshal(map[string]any{
		"source_text_id":    uuid.New().String(),
		"target_article_id": uuid.New().String(),
		"effect_type":       models.EffectModifies,
		"new_content":       "<p>x</p>",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/effects", bytes.NewReader(raw))
	rec := httptest.NewRecorder()

	handler.Record(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
	assert.Equal(t, "version_conflict", errResp.Error)
}

func TestEffectHandler_Record_MalformedBody(t *testing.T) {
	handler := NewEffectHandler(&mockEffectService{}, &mockVersionService{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/effects", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()

	handler.Record(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEffectHandler_Preview_ReturnsAdvisory(t *testing.T) {
	mockEffects := &mockEffectService{
		advisory: &services.HierarchyAdvisory{
			Severity: services.SeverityWarning,
			Message:  "un décret modifie une loi, vérifier l'habilitation",
		},
	}
	handler := NewEffectHandler(mockEffects, &mockVersionService{}, zap.NewNop())

	raw, err := json.Marshal(map[string]any{
		"source_text_id":    uuid.New().String(),
		"target_article_id": uuid.New().String(),
		"effect_type":       models.EffectModifies,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/effects/preview", bytes.NewReader(raw))
	rec := httptest.NewRecorder()

	handler.Preview(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response ApiResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.True(t, response.Success)

	dataBytes, err := json.Marshal(response.Data)
	require.NoError(t, err)
	var data struct {
		Advisory *services.HierarchyAdvisory `json:"advisory"`
	}
	require.NoError(t, json.Unmarshal(dataBytes, &data))
	require.NotNil(t, data.Advisory)
	assert.Equal(t, services.SeverityWarning, data.Advisory.Severity)
}

func TestEffectHandler_ListByArticle_InvalidID(t *testing.T) {
	handler := NewEffectHandler(&mockEffectService{}, &mockVersionService{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/articles/not-a-uuid/effects", nil)
	req.SetPathValue("articleID", "not-a-uuid")
	rec := httptest.NewRecorder()

	handler.ListByArticle(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEffectHandler_GetActiveVersion_NotFound(t *testing.T) {
	articleID := uuid.New()
	handler := NewEffectHandler(&mockEffectService{}, &mockVersionService{err: apperrors.ErrNotFound}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/articles/"+articleID.String()+"/versions/active", nil)
	req.SetPathValue("articleID", articleID.String())
	rec := httptest.NewRecorder()

	handler.GetActiveVersion(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEffectHandler_CompareVersions_RequiresBothIDs(t *testing.T) {
	articleID := uuid.New()
	handler := NewEffectHandler(&mockEffectService{}, &mockVersionService{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/articles/"+articleID.String()+"/versions/compare?from="+uuid.New().String(), nil)
	req.SetPathValue("articleID", articleID.String())
	rec := httptest.NewRecorder()

	handler.CompareVersions(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEffectHandler_CompareVersions_Success(t *testing.T) {
	articleID := uuid.New()
	mockVersions := &mockVersionService{
		comparison: &services.VersionComparison{
			From: &models.ArticleVersion{ID: uuid.New(), VersionNumber: 1},
			To:   &models.ArticleVersion{ID: uuid.New(), VersionNumber: 2},
		},
	}
	handler := NewEffectHandler(&mockEffectService{}, mockVersions, zap.NewNop())

	url := "/api/articles/" + articleID.String() + "/versions/compare?from=" + uuid.New().String() + "&to=" + uuid.New().String()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	req.SetPathValue("articleID", articleID.String())
	rec := httptest.NewRecorder()

	handler.CompareVersions(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response ApiResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.True(t, response.Success)
}
