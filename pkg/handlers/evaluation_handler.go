package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conformio/conformio-engine/pkg/auth"
	"github.com/conformio/conformio-engine/pkg/middleware"
	"github.com/conformio/conformio-engine/pkg/models"
	"github.com/conformio/conformio-engine/pkg/services"
)

// EvaluationHandler serves the applicability/conformity matrix of a
// client's sites. All routes are tenant-scoped.
type EvaluationHandler struct {
	evaluations services.EvaluationService
	logger      *zap.Logger
}

// NewEvaluationHandler creates a new EvaluationHandler.
func NewEvaluationHandler(evaluations services.EvaluationService, logger *zap.Logger) *EvaluationHandler {
	return &EvaluationHandler{evaluations: evaluations, logger: logger}
}

// RegisterRoutes registers the evaluation endpoints under
// /api/clients/{cid}. Writes require the site_manager role.
func (h *EvaluationHandler) RegisterRoutes(mux *http.ServeMux, authMW *auth.Middleware, tenantMW *middleware.TenantMiddleware) {
	scoped := authMW.RequireAuthWithPathValidation("cid")
	read := func(next http.HandlerFunc) http.HandlerFunc {
		return scoped(tenantMW.WithTenant(next))
	}
	write := func(next http.HandlerFunc) http.HandlerFunc {
		return scoped(authMW.RequireRole(auth.RoleClientAdmin, auth.RoleSiteManager)(tenantMW.WithTenant(next)))
	}

	mux.HandleFunc("GET /api/clients/{cid}/sites/{siteID}/matrix", read(h.Matrix))
	mux.HandleFunc("GET /api/clients/{cid}/sites/{siteID}/stats", read(h.Stats))
	mux.HandleFunc("PUT /api/clients/{cid}/sites/{siteID}/statuses", write(h.SetApplicability))
	mux.HandleFunc("POST /api/clients/{cid}/sites/{siteID}/statuses/bulk", write(h.BulkSetApplicability))
	mux.HandleFunc("POST /api/clients/{cid}/statuses/{statusID}/conformity", write(h.Evaluate))
	mux.HandleFunc("GET /api/clients/{cid}/statuses/{statusID}/evidence", read(h.ListEvidence))
	mux.HandleFunc("POST /api/clients/{cid}/statuses/{statusID}/evidence", write(h.AddEvidence))
	mux.HandleFunc("GET /api/clients/{cid}/sites/{siteID}/actions", read(h.ListActions))
	mux.HandleFunc("PUT /api/clients/{cid}/actions/{actionID}", write(h.UpdateAction))
}

func (h *EvaluationHandler) Matrix(w http.ResponseWriter, r *http.Request) {
	siteID, err := PathUUID(r, "siteID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	statuses, err := h.evaluations.Matrix(r.Context(), models.MatrixFilters{
		SiteID:        siteID,
		TextID:        QueryUUID(r, "text_id"),
		Applicability: r.URL.Query().Get("applicability"),
		State:         r.URL.Query().Get("state"),
	})
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, statuses)
}

func (h *EvaluationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	siteID, err := PathUUID(r, "siteID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	stats, err := h.evaluations.SiteStats(r.Context(), siteID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

func (h *EvaluationHandler) SetApplicability(w http.ResponseWriter, r *http.Request) {
	clientID, err := PathUUID(r, "cid")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}
	siteID, err := PathUUID(r, "siteID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	var status models.SiteArticleStatus
	if err := json.NewDecoder(r.Body).Decode(&status); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "Malformed request body")
		return
	}
	status.ClientID = clientID
	status.SiteID = siteID

	if err := h.evaluations.SetApplicability(r.Context(), &status); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}

func (h *EvaluationHandler) BulkSetApplicability(w http.ResponseWriter, r *http.Request) {
	clientID, err := PathUUID(r, "cid")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}
	siteID, err := PathUUID(r, "siteID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	var body struct {
		TextID        uuid.UUID `json:"text_id"`
		ArticleIDs    []string  `json:"article_ids"`
		Applicability string    `json:"applicability"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "Malformed request body")
		return
	}
	articleIDs, err := parseUUIDs(body.ArticleIDs)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	result, err := h.evaluations.BulkSetApplicability(r.Context(), clientID, siteID, body.TextID, articleIDs, body.Applicability)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

func (h *EvaluationHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	statusID, err := PathUUID(r, "statusID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	var body struct {
		State   string  `json:"state"`
		Score   *int    `json:"score,omitempty"`
		Comment *string `json:"comment,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "Malformed request body")
		return
	}

	conformity, err := h.evaluations.Evaluate(r.Context(), services.EvaluateInput{
		StatusID: statusID,
		State:    body.State,
		Score:    body.Score,
		Comment:  body.Comment,
	})
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, conformity)
}

func (h *EvaluationHandler) ListEvidence(w http.ResponseWriter, r *http.Request) {
	statusID, err := PathUUID(r, "statusID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	evidence, err := h.evaluations.ListEvidence(r.Context(), statusID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, evidence)
}

func (h *EvaluationHandler) AddEvidence(w http.ResponseWriter, r *http.Request) {
	statusID, err := PathUUID(r, "statusID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_upload", "Malformed multipart body")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_upload", "Missing file field")
		return
	}
	defer file.Close()

	upload := services.EvidenceUpload{
		Title:       r.FormValue("title"),
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Reader:      file,
		Size:        header.Size,
	}
	if desc := r.FormValue("description"); desc != "" {
		upload.Description = &desc
	}

	evidence, err := h.evaluations.AddEvidence(r.Context(), statusID, upload)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, evidence)
}

func (h *EvaluationHandler) ListActions(w http.ResponseWriter, r *http.Request) {
	siteID, err := PathUUID(r, "siteID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	actions, err := h.evaluations.ListActionsBySite(r.Context(), siteID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, actions)
}

func (h *EvaluationHandler) UpdateAction(w http.ResponseWriter, r *http.Request) {
	actionID, err := PathUUID(r, "actionID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	var action models.CorrectiveAction
	if err := json.NewDecoder(r.Body).Decode(&action); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "Malformed request body")
		return
	}
	action.ID = actionID

	if err := h.evaluations.UpdateAction(r.Context(), &action); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, action)
}
