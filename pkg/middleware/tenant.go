package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conformio/conformio-engine/pkg/auth"
	"github.com/conformio/conformio-engine/pkg/database"
)

// TenantMiddleware acquires a tenant-scoped database connection per request
// and releases it when the handler returns.
type TenantMiddleware struct {
	db     *database.DB
	logger *zap.Logger
}

// NewTenantMiddleware creates a new TenantMiddleware.
func NewTenantMiddleware(db *database.DB, logger *zap.Logger) *TenantMiddleware {
	return &TenantMiddleware{db: db, logger: logger}
}

// WithTenant scopes the connection to the authenticated client. RLS policies
// on client-scoped tables key off this scope; it must wrap every handler
// that touches client data. Requires auth middleware upstream.
func (m *TenantMiddleware) WithTenant(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.GetClaims(r.Context())
		if !ok {
			m.fail(w, http.StatusUnauthorized, "Authentication required")
			return
		}

		clientID, err := uuid.Parse(claims.ClientID)
		if err != nil {
			m.fail(w, http.StatusBadRequest, "Invalid client ID in token")
			return
		}

		scope, err := m.db.WithTenant(r.Context(), clientID)
		if err != nil {
			m.logger.Error("failed to acquire tenant connection", zap.Error(err))
			m.fail(w, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
		defer scope.Close()

		next(w, r.WithContext(database.SetTenantScope(r.Context(), scope)))
	}
}

// WithoutTenant acquires an unscoped connection for staff operations that
// span clients (provisioning, the shared regulatory library).
func (m *TenantMiddleware) WithoutTenant(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := m.db.WithoutTenant(r.Context())
		if err != nil {
			m.logger.Error("failed to acquire connection", zap.Error(err))
			m.fail(w, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
		defer scope.Close()

		next(w, r.WithContext(database.SetTenantScope(r.Context(), scope)))
	}
}

func (m *TenantMiddleware) fail(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
