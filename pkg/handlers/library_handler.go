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

const maxUploadSize = 32 << 20 // 32 MiB

// LibraryHandler serves the shared regulatory library: texts, articles,
// domains and article search. Reads are open to any authenticated user,
// writes are staff-only.
type LibraryHandler struct {
	texts    services.TextService
	articles services.ArticleService
	domains  services.DomainService
	logger   *zap.Logger
}

// NewLibraryHandler creates a new LibraryHandler.
func NewLibraryHandler(texts services.TextService, articles services.ArticleService, domains services.DomainService, logger *zap.Logger) *LibraryHandler {
	return &LibraryHandler{texts: texts, articles: articles, domains: domains, logger: logger}
}

// RegisterRoutes registers the library endpoints. The library is global, so
// every route runs on an unscoped connection.
func (h *LibraryHandler) RegisterRoutes(mux *http.ServeMux, authMW *auth.Middleware, tenantMW *middleware.TenantMiddleware) {
	read := func(next http.HandlerFunc) http.HandlerFunc {
		return authMW.RequireAuth(tenantMW.WithoutTenant(next))
	}
	write := func(next http.HandlerFunc) http.HandlerFunc {
		return authMW.RequireStaff(tenantMW.WithoutTenant(next))
	}

	mux.HandleFunc("GET /api/texts", read(h.ListTexts))
	mux.HandleFunc("POST /api/texts", write(h.CreateText))
	mux.HandleFunc("GET /api/texts/{textID}", read(h.GetText))
	mux.HandleFunc("PUT /api/texts/{textID}", write(h.UpdateText))
	mux.HandleFunc("DELETE /api/texts/{textID}", write(h.DeleteText))
	mux.HandleFunc("PUT /api/texts/{textID}/domains", write(h.SetTextDomains))
	mux.HandleFunc("POST /api/texts/{textID}/pdf", write(h.AttachPDF))
	mux.HandleFunc("GET /api/texts/{textID}/articles", read(h.ListArticles))

	mux.HandleFunc("POST /api/articles", write(h.CreateArticle))
	mux.HandleFunc("GET /api/articles/search", read(h.SearchArticles))
	mux.HandleFunc("GET /api/articles/{articleID}", read(h.GetArticle))
	mux.HandleFunc("PUT /api/articles/{articleID}", write(h.UpdateArticle))
	mux.HandleFunc("DELETE /api/articles/{articleID}", write(h.DeleteArticle))

	mux.HandleFunc("GET /api/domains", read(h.ListDomains))
	mux.HandleFunc("POST /api/domains", write(h.CreateDomain))
	mux.HandleFunc("GET /api/domains/{domainID}/subdomains", read(h.ListSubDomains))
	mux.HandleFunc("POST /api/domains/{domainID}/subdomains", write(h.CreateSubDomain))
}

func (h *LibraryHandler) ListTexts(w http.ResponseWriter, r *http.Request) {
	filters := models.TextFilters{
		ActType:     r.URL.Query().Get("act_type"),
		ForceStatus: r.URL.Query().Get("force_status"),
		Year:        QueryInt(r, "year"),
		DomainID:    QueryUUID(r, "domain_id"),
		Search:      r.URL.Query().Get("search"),
	}

	texts, err := h.texts.List(r.Context(), filters)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, texts)
}

func (h *LibraryHandler) CreateText(w http.ResponseWriter, r *http.Request) {
	var text models.RegulatoryText
	if err := json.NewDecoder(r.Body).Decode(&text); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "Malformed request body")
		return
	}
	if userID := auth.UserIDFromContext(r.Context()); userID != uuid.Nil {
		text.CreatedBy = &userID
	}

	if err := h.texts.Create(r.Context(), &text); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, text)
}

func (h *LibraryHandler) GetText(w http.ResponseWriter, r *http.Request) {
	textID, err := PathUUID(r, "textID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	text, err := h.texts.Get(r.Context(), textID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, text)
}

func (h *LibraryHandler) UpdateText(w http.ResponseWriter, r *http.Request) {
	textID, err := PathUUID(r, "textID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	var text models.RegulatoryText
	if err := json.NewDecoder(r.Body).Decode(&text); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "Malformed request body")
		return
	}
	text.ID = textID

	if err := h.texts.Update(r.Context(), &text); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, text)
}

func (h *LibraryHandler) DeleteText(w http.ResponseWriter, r *http.Request) {
	textID, err := PathUUID(r, "textID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	if err := h.texts.Delete(r.Context(), textID); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, nil)
}

func (h *LibraryHandler) SetTextDomains(w http.ResponseWriter, r *http.Request) {
	textID, err := PathUUID(r, "textID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	var body struct {
		DomainIDs    []string `json:"domain_ids"`
		SubDomainIDs []string `json:"sub_domain_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "Malformed request body")
		return
	}

	domainIDs, err := parseUUIDs(body.DomainIDs)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}
	subDomainIDs, err := parseUUIDs(body.SubDomainIDs)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	if err := h.texts.SetDomains(r.Context(), textID, domainIDs, subDomainIDs); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, nil)
}

func (h *LibraryHandler) AttachPDF(w http.ResponseWriter, r *http.Request) {
	textID, err := PathUUID(r, "textID")
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

	url, err := h.texts.AttachPDF(r.Context(), textID, header.Filename, file, header.Size)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, map[string]string{"url": url})
}

func (h *LibraryHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	textID, err := PathUUID(r, "textID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	articles, err := h.articles.ListByText(r.Context(), textID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, articles)
}

func (h *LibraryHandler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	var article models.Article
	if err := json.NewDecoder(r.Body).Decode(&article); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "Malformed request body")
		return
	}

	if err := h.articles.Create(r.Context(), &article); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, article)
}

func (h *LibraryHandler) GetArticle(w http.ResponseWriter, r *http.Request) {
	articleID, err := PathUUID(r, "articleID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	article, err := h.articles.Get(r.Context(), articleID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, article)
}

func (h *LibraryHandler) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	articleID, err := PathUUID(r, "articleID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	var article models.Article
	if err := json.NewDecoder(r.Body).Decode(&article); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "Malformed request body")
		return
	}
	article.ID = articleID

	if err := h.articles.Update(r.Context(), &article); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, article)
}

func (h *LibraryHandler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	articleID, err := PathUUID(r, "articleID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	if err := h.articles.Delete(r.Context(), articleID); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, nil)
}

func (h *LibraryHandler) SearchArticles(w http.ResponseWriter, r *http.Request) {
	hits, err := h.articles.Search(r.Context(), r.URL.Query().Get("q"), QueryInt(r, "limit"))
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, hits)
}

func (h *LibraryHandler) ListDomains(w http.ResponseWriter, r *http.Request) {
	domains, err := h.domains.ListDomains(r.Context())
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, domains)
}

func (h *LibraryHandler) CreateDomain(w http.ResponseWriter, r *http.Request) {
	var domain models.Domain
	if err := json.NewDecoder(r.Body).Decode(&domain); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "Malformed request body")
		return
	}

	if err := h.domains.CreateDomain(r.Context(), &domain); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, domain)
}

func (h *LibraryHandler) ListSubDomains(w http.ResponseWriter, r *http.Request) {
	domainID, err := PathUUID(r, "domainID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	subs, err := h.domains.ListSubDomains(r.Context(), domainID)
	if err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, subs)
}

func (h *LibraryHandler) CreateSubDomain(w http.ResponseWriter, r *http.Request) {
	domainID, err := PathUUID(r, "domainID")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_id", err.Error())
		return
	}

	var sub models.SubDomain
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_json", "Malformed request body")
		return
	}
	sub.DomainID = domainID

	if err := h.domains.CreateSubDomain(r.Context(), &sub); err != nil {
		WriteServiceError(w, h.logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, sub)
}
