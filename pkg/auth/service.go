package auth

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Common authentication errors.
var (
	ErrMissingAuthorization = errors.New("missing authorization")
	ErrInvalidAuthFormat    = errors.New("invalid authorization header format")
	ErrMissingClientID      = errors.New("missing client ID in token")
	ErrClientIDMismatch     = errors.New("client ID mismatch between token and URL")
)

// AuthService defines the interface for authentication operations.
// This abstraction enables clean separation between HTTP handling and
// authentication logic, making both easier to test.
type AuthService interface {
	// ValidateRequest extracts and validates a JWT from the request's
	// Authorization header ("Bearer" scheme). Returns the validated
	// claims, the raw token string, or an error.
	ValidateRequest(r *http.Request) (*Claims, string, error)

	// RequireClientID validates that the claims contain a client ID.
	RequireClientID(claims *Claims) error

	// ValidateClientIDMatch ensures the URL client ID matches the token
	// client ID. Staff tokens may act on any client. If urlClientID is
	// empty, validation is skipped.
	ValidateClientIDMatch(claims *Claims, urlClientID string) error
}

type authService struct {
	jwksClient JWKSClientInterface
	logger     *zap.Logger
}

// NewAuthService creates a new AuthService with the given JWKS client and logger.
func NewAuthService(jwksClient JWKSClientInterface, logger *zap.Logger) AuthService {
	return &authService{
		jwksClient: jwksClient,
		logger:     logger,
	}
}

func (s *authService) ValidateRequest(r *http.Request) (*Claims, string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		s.logger.Debug("No JWT found in request",
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method))
		return nil, "", ErrMissingAuthorization
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		s.logger.Debug("Invalid Authorization header format",
			zap.String("path", r.URL.Path))
		return nil, "", ErrInvalidAuthFormat
	}

	claims, err := s.jwksClient.ValidateToken(parts[1])
	if err != nil {
		s.logger.Debug("JWT validation failed",
			zap.Error(err),
			zap.String("path", r.URL.Path))
		return nil, "", err
	}

	return claims, parts[1], nil
}

func (s *authService) RequireClientID(claims *Claims) error {
	if claims.ClientID == "" && !claims.IsStaff() {
		return ErrMissingClientID
	}
	return nil
}

func (s *authService) ValidateClientIDMatch(claims *Claims, urlClientID string) error {
	if urlClientID == "" {
		return nil
	}
	if claims.IsStaff() {
		return nil
	}
	if claims.ClientID != urlClientID {
		return ErrClientIDMismatch
	}
	return nil
}
