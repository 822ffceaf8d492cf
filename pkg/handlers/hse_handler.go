package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/conformio/conformio-engine/pkg/auth"
	"github.com/conformio/conformio-engine/pkg/middleware"
	"github.com/conformio/conformio-engine/pkg/models"
	"github.com/conformio/conformio-engine/pkg/services"
)

// HSEHandler serves the client-scoped operational registers: incidents,
// trainings and equipment inspections, plus the tenant's site listing.
type HSEHandler struct {
	sites     services.SiteService
	incidents services.IncidentService
	trainings services.TrainingService
	equipment services.EquipmentService
	logger    *zap.Logger
}

// NewHSEHandler creates a new HSEHandler.
func NewHSEHandler(sites services.SiteService, incidents services.IncidentService, trainings services.TrainingService, equipment services.EquipmentService, logger *zap.Logger) *HSEHandler {
	return &HSEHandler{
		sites:     sites,
		incidents: incidents,
		trainings: trainings,
		equipment: equipment,
		logger:    logger,
	}
}

// RegisterRoutes registers the HSE endpoints under /api/clients/{cid}.
// Writes require the site_manager role.
func (h *HSEHandler) RegisterRoutes(mux *http.ServeMux, authMW *auth.Middleware, tenantMW *middleware.TenantMiddleware) {
	scoped := authMW.RequireAuthWithPathValidation("cid")
	read := func(next http.HandlerFunc) http.HandlerFunc {
		return scoped(tenantMW.WithTenant(next))
	}
	write := func(next http.HandlerFunc) http.HandlerFunc {
		return scoped(authMW.RequireRole(auth.RoleClientAdmin, auth.RoleSiteManager)(tenantMW.WithTenant(next)))
	}

	mux.HandleFunc("GET /api/clients/{cid}/sites", read(h.ListSites))

	mux.HandleFunc("GET /api/clients/{cid}/sites/{siteID}/incidents", read(h.ListIncidents))
	mux.HandleFunc("POST /api/clients/{cid}/sites/{siteID}/incidents", write(h.ReportIncident))
	mux.HandleFunc("GET /api/clients/{cid}/incidents/{incidentID}", read(h.GetIncident))
	mux.HandleFunc("PUT /api/clients/{cid}/incidents/{incidentID}", write(h.UpdateIncident))
	mux.HandleFunc("PUT /api/clients/{cid}/incidents/{incidentID}/action", write(h.LinkIncidentAction))

	mux.HandleFunc("GET /api/clients/{cid}/sites/{siteID}/trainings", read(h.ListTrainings))
	mux.HandleFunc("POST /api/clients/{cid}/sites/{siteID}/trainings", write(h.CreateTraining))
	mux.HandleFunc("PUT /api/clients/{cid}/trainings/{trainingID}", write(h.UpdateTraining))
	mux.HandleFunc("GET /api/clients/{cid}/trainings/{trainingID}/sessions", read(h.ListSessions))
	mux.HandleFunc("POST /api/clients/{cid}/trainings/{trainingID}/sessions", write(h.AddSession))

	mux.HandleFunc("GET /api/clients/{cid}/sites/{siteID}/equipment", read(h.ListEquipment))
	mux.HandleFunc("POST /api/clients/{cid}/sites/{siteID}/equipment", write(h.CreateEquipment))
	mux.HandleFunc("GET /api/clients/{cid}/sites/{siteID}/equipment/due", read(h.ListEquipmentDue))
	mux.HandleFunc("PUT /api/clients/{cid}/equipment/{equipmentID}", write(h.UpdateEquipment))
	mux.HandleFunc("DELETE /api/clients/{cid}/equipment/{equipmentID}", write(h.DeleteEquipment))
	mux.HandleFunc("GET /api/clients/{cid}/equipment/{equipmentID}/inspections", read(h.ListInspections))
	mux.HandleFunc("POST /api/clients/{cid}/equipment/{equipmentID}/inspections", write(h.RecordInspection))
}

func (h *HSEHandler) ListSites(w http.ResponseWriter, r *http.Request) {
	clientID, err := PathUUID(r, "cid")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	sites, err := h.sites.ListByClient(r.Context(), clientID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, sites)
}

func (h *HSEHandler) ListIncidents(w http.ResponseWriter, r *http.Request) {
	siteID, err := PathUUID(r, "siteID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	incidents, err := h.incidents.ListBySite(r.Context(), siteID, r.URL.Query().Get("status"))
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, incidents)
}

func (h *HSEHandler) ReportIncident(w http.ResponseWriter, r *http.Request) {
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

	var incident models.Incident
	if err := json.NewDecoder(r.Body).Decode(&incident); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "Malformed request body")
		return
	}
	incident.ClientID = clientID
	incident.SiteID = siteID

	if err := h.incidents.Report(r.Context(), &incident); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, incident)
}

func (h *HSEHandler) GetIncident(w http.ResponseWriter, r *http.Request) {
	incidentID, err := PathUUID(r, "incidentID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	incident, err := h.incidents.Get(r.Context(), incidentID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, incident)
}

func (h *HSEHandler) UpdateIncident(w http.ResponseWriter, r *http.Request) {
	incidentID, err := PathUUID(r, "incidentID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	var incident models.Incident
	if err := json.NewDecoder(r.Body).Decode(&incident); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "Malformed request body")
		return
	}
	incident.ID = incidentID

	if err := h.incidents.Update(r.Context(), &incident); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, incident)
}

func (h *HSEHandler) LinkIncidentAction(w http.ResponseWriter, r *http.Request) {
	incidentID, err := PathUUID(r, "incidentID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	var body struct {
		ActionID string `json:"action_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "Malformed request body")
		return
	}
	actionIDs, err := parseUUIDs([]string{body.ActionID})
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	if err := h.incidents.LinkCorrectiveAction(r.Context(), incidentID, actionIDs[0]); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HSEHandler) ListTrainings(w http.ResponseWriter, r *http.Request) {
	siteID, err := PathUUID(r, "siteID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	trainings, err := h.trainings.ListBySite(r.Context(), siteID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, trainings)
}

func (h *HSEHandler) CreateTraining(w http.ResponseWriter, r *http.Request) {
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

	var training models.Training
	if err := json.NewDecoder(r.Body).Decode(&training); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "Malformed request body")
		return
	}
	training.ClientID = clientID
	training.SiteID = siteID

	if err := h.trainings.Create(r.Context(), &training); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, training)
}

func (h *HSEHandler) UpdateTraining(w http.ResponseWriter, r *http.Request) {
	trainingID, err := PathUUID(r, "trainingID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	var training models.Training
	if err := json.NewDecoder(r.Body).Decode(&training); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "Malformed request body")
		return
	}
	training.ID = trainingID

	if err := h.trainings.Update(r.Context(), &training); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, training)
}

func (h *HSEHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	trainingID, err := PathUUID(r, "trainingID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	sessions, err := h.trainings.ListSessions(r.Context(), trainingID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, sessions)
}

func (h *HSEHandler) AddSession(w http.ResponseWriter, r *http.Request) {
	trainingID, err := PathUUID(r, "trainingID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	var session models.TrainingSession
	if err := json.NewDecoder(r.Body).Decode(&session); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "Malformed request body")
		return
	}
	session.TrainingID = trainingID

	if err := h.trainings.AddSession(r.Context(), &session); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, session)
}

func (h *HSEHandler) ListEquipment(w http.ResponseWriter, r *http.Request) {
	siteID, err := PathUUID(r, "siteID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	equipment, err := h.equipment.ListBySite(r.Context(), siteID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, equipment)
}

func (h *HSEHandler) ListEquipmentDue(w http.ResponseWriter, r *http.Request) {
	siteID, err := PathUUID(r, "siteID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	deadline := time.Now().AddDate(0, 0, 30)
	if raw := r.URL.Query().Get("before"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_date", "before must be RFC 3339")
			return
		}
		deadline = parsed
	}

	equipment, err := h.equipment.ListDueBefore(r.Context(), siteID, deadline)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, equipment)
}

func (h *HSEHandler) CreateEquipment(w http.ResponseWriter, r *http.Request) {
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

	var equipment models.Equipment
	if err := json.NewDecoder(r.Body).Decode(&equipment); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "Malformed request body")
		return
	}
	equipment.ClientID = clientID
	equipment.SiteID = siteID

	if err := h.equipment.Create(r.Context(), &equipment); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, equipment)
}

func (h *HSEHandler) UpdateEquipment(w http.ResponseWriter, r *http.Request) {
	equipmentID, err := PathUUID(r, "equipmentID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	var equipment models.Equipment
	if err := json.NewDecoder(r.Body).Decode(&equipment); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "Malformed request body")
		return
	}
	equipment.ID = equipmentID

	if err := h.equipment.Update(r.Context(), &equipment); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, equipment)
}

func (h *HSEHandler) DeleteEquipment(w http.ResponseWriter, r *http.Request) {
	equipmentID, err := PathUUID(r, "equipmentID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	if err := h.equipment.Delete(r.Context(), equipmentID); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HSEHandler) ListInspections(w http.ResponseWriter, r *http.Request) {
	equipmentID, err := PathUUID(r, "equipmentID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	inspections, err := h.equipment.ListInspections(r.Context(), equipmentID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, inspections)
}

func (h *HSEHandler) RecordInspection(w http.ResponseWriter, r *http.Request) {
	equipmentID, err := PathUUID(r, "equipmentID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	var inspection models.Inspection
	if err := json.NewDecoder(r.Body).Decode(&inspection); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "Malformed request body")
		return
	}
	inspection.EquipmentID = equipmentID

	if err := h.equipment.RecordInspection(r.Context(), &inspection); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, inspection)
}
