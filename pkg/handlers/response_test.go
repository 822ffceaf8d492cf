package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/conformio/conformio-engine/pkg/apperrors"
)

func TestWriteJSON_WrapsInEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteJSON(rec, 200, map[string]string{"hello": "world"})

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var response ApiResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&response))
	assert.True(t, response.Success)
}

func TestWriteServiceError_MapsSentinels(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", apperrors.ErrNotFound, 404, "not_found"},
		{"wrapped not found", fmt.Errorf("failed to get text: %w", apperrors.ErrNotFound), 404, "not_found"},
		{"invalid input", apperrors.ErrInvalidInput, 400, "invalid_input"},
		{"empty content", apperrors.ErrEmptyContent, 400, "empty_content"},
		{"hierarchy violation", apperrors.ErrHierarchyViolation, 422, "hierarchy_violation"},
		{"not concerned", apperrors.ErrNotConcerned, 422, "not_concerned"},
		{"version conflict", apperrors.ErrVersionConflict, 409, "version_conflict"},
		{"conflict", apperrors.ErrConflict, 409, "conflict"},
		{"unknown", errors.New("boom"), 500, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()

			WriteServiceError(rec, zap.NewNop(), tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var errResp ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
			assert.Equal(t, tt.wantCode, errResp.Error)
		})
	}
}

func TestWriteServiceError_HidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()

	WriteServiceError(rec, zap.NewNop(), errors.New("pq: connection refused"))

	var errResp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
	assert.NotContains(t, errResp.Message, "connection refused")
}
