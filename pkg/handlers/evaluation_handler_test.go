package handlers

import (
	"bytes"
	"encoding/json"
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

func TestEvaluationHandler_Matrix_PassesFilters(t *testing.T) {
	siteID := uuid.New()
	textID := uuid.New()
	mockEval := &mockEvaluationService{statuses: []*models.SiteArticleStatus{}}
	handler := NewEvaluationHandler(mockEval, zap.NewNop())

	url := "/api/clients/x/sites/" + siteID.String() + "/matrix?text_id=" + textID.String() + "&state=non_conforme"
	req := httptest.NewRequest(http.MethodGet, url, nil)
	req.SetPathValue("siteID", siteID.String())
	rec := httptest.NewRecorder()

	handler.Matrix(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, siteID, mockEval.lastFilters.SiteID)
	assert.Equal(t, textID, mockEval.lastFilters.TextID)
	assert.Equal(t, "non_conforme", mockEval.lastFilters.State)
}

func TestEvaluationHandler_Stats_Success(t *testing.T) {
	siteID := uuid.New()
	mockEval := &mockEvaluationService{
		stats: &models.SiteStats{Total: 10, Mandatory: 7, Compliant: 4, NonCompliant: 1},
	}
	handler := NewEvaluationHandler(mockEval, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/clients/x/sites/"+siteID.String()+"/stats", nil)
	req.SetPathValue("siteID", siteID.String())
	rec := httptest.NewRecorder()

	handler.Stats(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response ApiResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.True(t, response.Success)

	dataBytes, err := json.Marshal(response.Data)
	require.NoError(t, err)
	var stats models.SiteStats
	require.NoError(t, json.Unmarshal(dataBytes, &stats))
	assert.Equal(t, 10, stats.Total)
	assert.Equal(t, 4, stats.Compliant)
}

func TestEvaluationHandler_Evaluate_NotConcerned(t *testing.T) {
	statusID := uuid.New()
	mockEval := &mockEvaluationService{err: apperrors.ErrNotConcerned}
	handler := NewEvaluationHandler(mockEval, zap.NewNop())

	raw, err := json.Marshal(map[string]any{"state": models.ConformityCompliant})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/clients/x/statuses/"+statusID.String()+"/conformity", bytes.NewReader(raw))
	req.SetPathValue("statusID", statusID.String())
	rec := httptest.NewRecorder()

	handler.Evaluate(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
	assert.Equal(t, "not_concerned", errResp.Error)
}

func TestEvaluationHandler_Evaluate_Success(t *testing.T) {
	statusID := uuid.New()
	score := 85
	mockEval := &mockEvaluationService{
		conformity: &models.Conformity{ID: uuid.New(), StatusID: statusID, State: models.ConformityPartial, Score: &score},
	}
	handler := NewEvaluationHandler(mockEval, zap.NewNop())

	raw, err := json.Marshal(map[string]any{"state": models.ConformityPartial, "score": score})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/clients/x/statuses/"+statusID.String()+"/conformity", bytes.NewReader(raw))
	req.SetPathValue("statusID", statusID.String())
	rec := httptest.NewRecorder()

	handler.Evaluate(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, statusID, mockEval.lastInput.StatusID)
	require.NotNil(t, mockEval.lastInput.Score)
	assert.Equal(t, score, *mockEval.lastInput.Score)
}

func TestEvaluationHandler_BulkSetApplicability_ReportsCounts(t *testing.T) {
	clientID := uuid.New()
	siteID := uuid.New()
	mockEval := &mockEvaluationService{
		bulkResult: &services.BulkApplicabilityResult{Requested: 3, Applied: 2, Skipped: 1},
	}
	handler := NewEvaluationHandler(mockEval, zap.NewNop())

	raw, err := json.Marshal(map[string]any{
		"text_id":       uuid.New().String(),
		"article_ids":   []string{uuid.New().String(), uuid.New().String(), uuid.New().String()},
		"applicability": models.ApplicabilityMandatory,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/clients/"+clientID.String()+"/sites/"+siteID.String()+"/statuses/bulk", bytes.NewReader(raw))
	req.SetPathValue("cid", clientID.String())
	req.SetPathValue("siteID", siteID.String())
	rec := httptest.NewRecorder()

	handler.BulkSetApplicability(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var response ApiResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.True(t, response.Success)

	dataBytes, err := json.Marshal(response.Data)
	require.NoError(t, err)
	var result services.BulkApplicabilityResult
	require.NoError(t, json.Unmarshal(dataBytes, &result))
	assert.Equal(t, 2, result.Applied)
	assert.Equal(t, 1, result.Skipped)
}

func TestEvaluationHandler_BulkSetApplicability_BadArticleID(t *testing.T) {
	clientID := uuid.New()
	siteID := uuid.New()
	handler := NewEvaluationHandler(&mockEvaluationService{}, zap.NewNop())

	raw, err := json.Marshal(map[string]any{
		"article_ids":   []string{"nope"},
		"applicability": models.ApplicabilityMandatory,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/clients/"+clientID.String()+"/sites/"+siteID.String()+"/statuses/bulk", bytes.NewReader(raw))
	req.SetPathValue("cid", clientID.String())
	req.SetPathValue("siteID", siteID.String())
	rec := httptest.NewRecorder()

	handler.BulkSetApplicability(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEvaluationHandler_SetApplicability_ForcesPathScope(t *testing.T) {
	clientID := uuid.New()
	siteID := uuid.New()
	handler := NewEvaluationHandler(&mockEvaluationService{}, zap.NewNop())

	raw, err := json.Marshal(map[string]any{
		"client_id":     uuid.New().String(),
		"site_id":       uuid.New().String(),
		"article_id":    uuid.New().String(),
		"applicability": models.ApplicabilityMandatory,
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/api/clients/"+clientID.String()+"/sites/"+siteID.String()+"/statuses", bytes.NewReader(raw))
	req.SetPathValue("cid", clientID.String())
	req.SetPathValue("siteID", siteID.String())
	rec := httptest.NewRecorder()

	handler.SetApplicability(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	// The path, not the body, decides which tenant and site are written.
	var response ApiResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	dataBytes, err := json.Marshal(response.Data)
	require.NoError(t, err)
	var status models.SiteArticleStatus
	require.NoError(t, json.Unmarshal(dataBytes, &status))
	assert.Equal(t, clientID, status.ClientID)
	assert.Equal(t, siteID, status.SiteID)
}

func TestEvaluationHandler_AddEvidence_RequiresFile(t *testing.T) {
	statusID := uuid.New()
	handler := NewEvaluationHandler(&mockEvaluationService{}, zap.NewNop())

	req := httptest.NewRequest(http.MethodPost, "/api/clients/x/statuses/"+statusID.String()+"/evidence", bytes.NewReader(nil))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xxx")
	req.SetPathValue("statusID", statusID.String())
	rec := httptest.NewRecorder()

	handler.AddEvidence(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
