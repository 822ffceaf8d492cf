// Package auth provides JWT-based authentication for conformio-engine.
// It validates tokens issued by the identity provider using its JWKS
// endpoint.
package auth

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Roles recognized in token claims.
const (
	RoleStaff       = "staff"        // back-office operator, cross-client
	RoleClientAdmin = "client_admin" // administrator of one client org
	RoleSiteManager = "site_manager" // manages evaluations for sites
	RoleReader      = "reader"       // read-only access
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsKey is the context key for storing JWT claims.
	ClaimsKey contextKey = "claims"
	// TokenKey is the context key for storing the raw JWT token string.
	TokenKey contextKey = "token"
)

// Claims is the security context attached to every authenticated request:
// who the user is, which client organization scopes their data access, and
// which roles gate their operations.
type Claims struct {
	jwt.RegisteredClaims
	ClientID string   `json:"cid,omitempty"`   // Client organization UUID
	Email    string   `json:"email,omitempty"` // User email address
	Roles    []string `json:"roles,omitempty"` // User roles within the client
	SiteIDs  []string `json:"sites,omitempty"` // Site UUIDs the user may evaluate
}

// HasRole reports whether the claims carry the given role.
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsStaff reports whether the user is a back-office operator.
func (c *Claims) IsStaff() bool {
	return c.HasRole(RoleStaff)
}

// GetClaims retrieves JWT claims from the request context.
// Returns nil and false if claims are not present.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok
}

// GetToken retrieves the raw JWT token string from the request context.
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}

// ExtractClaimsFromContext extracts client ID and user ID from JWT claims
// in context. Returns an error if not authenticated or claims are invalid.
func ExtractClaimsFromContext(ctx context.Context) (uuid.UUID, string, error) {
	claims, ok := GetClaims(ctx)
	if !ok || claims == nil {
		return uuid.Nil, "", fmt.Errorf("authentication required: no claims in context")
	}

	if claims.ClientID == "" {
		return uuid.Nil, "", fmt.Errorf("missing client ID in JWT claims")
	}

	clientID, err := uuid.Parse(claims.ClientID)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("invalid client ID format: %w", err)
	}

	return clientID, claims.Subject, nil
}

// UserIDFromContext returns the authenticated user's ID, or uuid.Nil when
// the subject is not a UUID (service tokens).
func UserIDFromContext(ctx context.Context) uuid.UUID {
	claims, ok := GetClaims(ctx)
	if !ok || claims == nil {
		return uuid.Nil
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil
	}
	return id
}
