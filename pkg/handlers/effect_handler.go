package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conformio/conformio-engine/pkg/auth"
	"github.com/conformio/conformio-engine/pkg/middleware"
	"github.com/conformio/conformio-engine/pkg/services"
)

// EffectHandler serves legal-effect recording and article version history.
type EffectHandler struct {
	effects  services.EffectService
	versions services.VersionService
	logger   *zap.Logger
}

// NewEffectHandler creates a new EffectHandler.
func NewEffectHandler(effects services.EffectService, versions services.VersionService, logger *zap.Logger) *EffectHandler {
	return &EffectHandler{effects: effects, versions: versions, logger: logger}
}

// RegisterRoutes registers effect and version endpoints. All global.
func (h *EffectHandler) RegisterRoutes(mux *http.ServeMux, authMW *auth.Middleware, tenantMW *middleware.TenantMiddleware) {
	read := func(next http.HandlerFunc) http.HandlerFunc {
		return authMW.RequireAuth(tenantMW.WithoutTenant(next))
	}
	write := func(next http.HandlerFunc) http.HandlerFunc {
		return authMW.RequireStaff(tenantMW.WithoutTenant(next))
	}

	mux.HandleFunc("POST /api/effects", write(h.Record))
	mux.HandleFunc("POST /api/effects/preview", write(h.Preview))
	mux.HandleFunc("GET /api/articles/{articleID}/effects", read(h.ListByArticle))
	mux.HandleFunc("GET /api/texts/{textID}/effects", read(h.ListBySourceText))

	mux.HandleFunc("GET /api/articles/{articleID}/versions", read(h.ListVersions))
	mux.HandleFunc("GET /api/articles/{articleID}/versions/active", read(h.GetActiveVersion))
	mux.HandleFunc("GET /api/articles/{articleID}/versions/compare", read(h.CompareVersions))
}

type recordEffectRequest struct {
	SourceTextID            uuid.UUID  `json:"source_text_id"`
	SourceArticleID         *uuid.UUID `json:"source_article_id,omitempty"`
	TargetArticleID         uuid.UUID  `json:"target_article_id"`
	EffectType              string     `json:"effect_type"`
	EffectDate              *time.Time `json:"effect_date,omitempty"`
	Scope                   string     `json:"scope,omitempty"`
	ScopeDetail             *string    `json:"scope_detail,omitempty"`
	Notes                   *string    `json:"notes,omitempty"`
	NewContent              string     `json:"new_content,omitempty"`
	VersionLabel            string     `json:"version_label,omitempty"`
	ChangeReason            string     `json:"change_reason,omitempty"`
	EstimatedImpact         string     `json:"estimated_impact,omitempty"`
	ExpectedActiveVersionID *uuid.UUID `json:"expected_active_version_id,omitempty"`
	RepealsEntireText       bool       `json:"repeals_entire_text,omitempty"`
}

func (h *EffectHandler) Record(w http.ResponseWriter, r *http.Request) {
	var req recordEffectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "Malformed request body")
		return
	}

	input := services.RecordEffectInput{
		SourceTextID:            req.SourceTextID,
		SourceArticleID:         req.SourceArticleID,
		TargetArticleID:         req.TargetArticleID,
		EffectType:              req.EffectType,
		Scope:                   req.Scope,
		ScopeDetail:             req.ScopeDetail,
		Notes:                   req.Notes,
		NewContent:              req.NewContent,
		VersionLabel:            req.VersionLabel,
		ChangeReason:            req.ChangeReason,
		EstimatedImpact:         req.EstimatedImpact,
		ExpectedActiveVersionID: req.ExpectedActiveVersionID,
		RepealsEntireText:       req.RepealsEntireText,
	}
	if req.EffectDate != nil {
		input.EffectDate = *req.EffectDate
	}

	outcome, err := h.effects.Record(r.Context(), input)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, outcome)
}

func (h *EffectHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SourceTextID    uuid.UUID `json:"source_text_id"`
		TargetArticleID uuid.UUID `json:"target_article_id"`
		EffectType      string    `json:"effect_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "Malformed request body")
		return
	}

	advisory, err := h.effects.Preview(r.Context(), req.SourceTextID, req.TargetArticleID, req.EffectType)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"advisory": advisory})
}

func (h *EffectHandler) ListByArticle(w http.ResponseWriter, r *http.Request) {
	articleID, err := PathUUID(r, "articleID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	effects, err := h.effects.ListByTargetArticle(r.Context(), articleID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, effects)
}

func (h *EffectHandler) ListBySourceText(w http.ResponseWriter, r *http.Request) {
	textID, err := PathUUID(r, "textID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	effects, err := h.effects.ListBySourceText(r.Context(), textID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, effects)
}

func (h *EffectHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	articleID, err := PathUUID(r, "articleID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	versions, err := h.versions.ListByArticle(r.Context(), articleID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, versions)
}

func (h *EffectHandler) GetActiveVersion(w http.ResponseWriter, r *http.Request) {
	articleID, err := PathUUID(r, "articleID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	version, err := h.versions.GetActive(r.Context(), articleID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, version)
}

func (h *EffectHandler) CompareVersions(w http.ResponseWriter, r *http.Request) {
	articleID, err := PathUUID(r, "articleID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	from := QueryUUID(r, "from")
	to := QueryUUID(r, "to")
	if from == uuid.Nil || to == uuid.Nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", "from and to version ids are required")
		return
	}

	comparison, err := h.versions.Compare(r.Context(), articleID, from, to)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, comparison)
}
