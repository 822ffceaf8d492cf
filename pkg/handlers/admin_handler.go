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

// AdminHandler serves the back-office provisioning surface: client
// organizations, their sites and subscriptions, and the audit trail.
// Staff only.
type AdminHandler struct {
	clients       services.ClientService
	sites         services.SiteService
	subscriptions services.SubscriptionService
	audit         services.AuditService
	logger        *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(clients services.ClientService, sites services.SiteService, subscriptions services.SubscriptionService, audit services.AuditService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		clients:       clients,
		sites:         sites,
		subscriptions: subscriptions,
		audit:         audit,
		logger:        logger,
	}
}

// RegisterRoutes registers the admin endpoints under /api/admin.
func (h *AdminHandler) RegisterRoutes(mux *http.ServeMux, authMW *auth.Middleware, tenantMW *middleware.TenantMiddleware) {
	staff := func(next http.HandlerFunc) http.HandlerFunc {
		return authMW.RequireStaff(tenantMW.WithoutTenant(next))
	}

	mux.HandleFunc("GET /api/admin/clients", staff(h.ListClients))
	mux.HandleFunc("POST /api/admin/clients", staff(h.CreateClient))
	mux.HandleFunc("GET /api/admin/clients/{clientID}", staff(h.GetClient))
	mux.HandleFunc("PUT /api/admin/clients/{clientID}", staff(h.UpdateClient))
	mux.HandleFunc("DELETE /api/admin/clients/{clientID}", staff(h.DeleteClient))
	mux.HandleFunc("PUT /api/admin/clients/{clientID}/active", staff(h.SetClientActive))

	mux.HandleFunc("GET /api/admin/clients/{clientID}/sites", staff(h.ListSites))
	mux.HandleFunc("POST /api/admin/clients/{clientID}/sites", staff(h.CreateSite))
	mux.HandleFunc("PUT /api/admin/sites/{siteID}", staff(h.UpdateSite))
	mux.HandleFunc("DELETE /api/admin/sites/{siteID}", staff(h.DeleteSite))

	mux.HandleFunc("GET /api/admin/clients/{clientID}/subscriptions", staff(h.ListSubscriptions))
	mux.HandleFunc("POST /api/admin/clients/{clientID}/subscriptions", staff(h.CreateSubscription))
	mux.HandleFunc("PUT /api/admin/subscriptions/{subID}/status", staff(h.ChangeSubscriptionStatus))

	mux.HandleFunc("GET /api/admin/audit/{entity}/{entityID}", staff(h.ListAudit))
}

func (h *AdminHandler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clients.List(r.Context())
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, clients)
}

func (h *AdminHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var client models.Client
	if err := json.NewDecoder(r.Body).Decode(&client); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "Malformed request body")
		return
	}

	if err := h.clients.Create(r.Context(), &client); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, client)
}

func (h *AdminHandler) GetClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := PathUUID(r, "clientID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	client, err := h.clients.Get(r.Context(), clientID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, client)
}

func (h *AdminHandler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := PathUUID(r, "clientID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	var client models.Client
	if err := json.NewDecoder(r.Body).Decode(&client); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "Malformed request body")
		return
	}
	client.ID = clientID

	if err := h.clients.Update(r.Context(), &client); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, client)
}

func (h *AdminHandler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := PathUUID(r, "clientID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	if err := h.clients.Delete(r.Context(), clientID); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) SetClientActive(w http.ResponseWriter, r *http.Request) {
	clientID, err := PathUUID(r, "clientID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	var body struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "Malformed request body")
		return
	}

	if err := h.clients.SetActive(r.Context(), clientID, body.Active); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]bool{"active": body.Active})
}

func (h *AdminHandler) ListSites(w http.ResponseWriter, r *http.Request) {
	clientID, err := PathUUID(r, "clientID")
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

func (h *AdminHandler) CreateSite(w http.ResponseWriter, r *http.Request) {
	clientID, err := PathUUID(r, "clientID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	var site models.Site
	if err := json.NewDecoder(r.Body).Decode(&site); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "Malformed request body")
		return
	}
	site.ClientID = clientID

	if err := h.sites.Create(r.Context(), &site); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, site)
}

func (h *AdminHandler) UpdateSite(w http.ResponseWriter, r *http.Request) {
	siteID, err := PathUUID(r, "siteID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	var site models.Site
	if err := json.NewDecoder(r.Body).Decode(&site); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "Malformed request body")
		return
	}
	site.ID = siteID

	if err := h.sites.Update(r.Context(), &site); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, site)
}

func (h *AdminHandler) DeleteSite(w http.ResponseWriter, r *http.Request) {
	siteID, err := PathUUID(r, "siteID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	if err := h.sites.Delete(r.Context(), siteID); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	clientID, err := PathUUID(r, "clientID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	subs, err := h.subscriptions.ListByClient(r.Context(), clientID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, subs)
}

func (h *AdminHandler) CreateSubscription(w http.ResponseWriter, r *http.Request) {
	clientID, err := PathUUID(r, "clientID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	var sub models.Subscription
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "Malformed request body")
		return
	}
	sub.ClientID = clientID

	if err := h.subscriptions.Create(r.Context(), &sub); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, sub)
}

func (h *AdminHandler) ChangeSubscriptionStatus(w http.ResponseWriter, r *http.Request) {
	subID, err := PathUUID(r, "subID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	var body struct {
		Status  string     `json:"status"`
		EndDate *time.Time `json:"end_date,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "Malformed request body")
		return
	}

	if err := h.subscriptions.ChangeStatus(r.Context(), subID, body.Status, body.EndDate); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}

	sub, err := h.subscriptions.Get(r.Context(), subID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, sub)
}

func (h *AdminHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	entity := r.PathValue("entity")
	entityID, err := PathUUID(r, "entityID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	entries, err := h.audit.ListByEntity(r.Context(), entity, entityID, QueryInt(r, "limit"))
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, entries)
}
