package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/conformio/conformio-engine/pkg/apperrors"
)

// ApiResponse is the uniform success envelope.
type ApiResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes a success envelope.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ApiResponse{Success: true, Data: data})
}

// WriteError writes an error envelope.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Success: false, Error: code, Message: message})
}

// WriteServiceError maps service-layer errors to HTTP statuses.
func WriteServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		WriteError(w, http.StatusNotFound, "not_found", "Resource not found")
	case errors.Is(err, apperrors.ErrInvalidInput):
		WriteError(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, apperrors.ErrEmptyContent):
		WriteError(w, http.StatusBadRequest, "empty_content", err.Error())
	case errors.Is(err, apperrors.ErrHierarchyViolation):
		WriteError(w, http.StatusUnprocessableEntity, "hierarchy_violation", err.Error())
	case errors.Is(err, apperrors.ErrVersionConflict):
		WriteError(w, http.StatusConflict, "version_conflict", err.Error())
	case errors.Is(err, apperrors.ErrNotConcerned):
		WriteError(w, http.StatusUnprocessableEntity, "not_concerned", err.Error())
	case errors.Is(err, apperrors.ErrConflict):
		WriteError(w, http.StatusConflict, "conflict", err.Error())
	default:
		logger.Error("request failed", zap.Error(err))
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
