package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/conformio/conformio-engine/pkg/apperrors"
	"github.com/conformio/conformio-engine/pkg/database"
	"github.com/conformio/conformio-engine/pkg/models"
)

// DomainRepository provides access to the domain reference data.
type DomainRepository interface {
	CreateDomain(ctx context.Context, domain *models.Domain) error
	CreateSubDomain(ctx context.Context, sub *models.SubDomain) error
	GetDomainByCode(ctx context.Context, code string) (*models.Domain, error)
	ListDomains(ctx context.Context) ([]*models.Domain, error)
	ListSubDomains(ctx context.Context, domainID uuid.UUID) ([]*models.SubDomain, error)
}

type domainRepository struct{}

// NewDomainRepository creates a new DomainRepository.
func NewDomainRepository() DomainRepository {
	return &domainRepository{}
}

var _ DomainRepository = (*domainRepository)(nil)

func (r *domainRepository) CreateDomain(ctx context.Context, domain *models.Domain) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	err := scope.Conn.QueryRow(ctx, `
		INSERT INTO domains (code, label, created_at)
		VALUES ($1, $2, now())
		RETURNING id, created_at`,
		domain.Code, domain.Label,
	).Scan(&domain.ID, &domain.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create domain: %w", err)
	}
	return nil
}

func (r *domainRepository) CreateSubDomain(ctx context.Context, sub *models.SubDomain) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	err := scope.Conn.QueryRow(ctx, `
		INSERT INTO sub_domains (domain_id, code, label, created_at)
		VALUES ($1, $2, $3, now())
		RETURNING id, created_at`,
		sub.DomainID, sub.Code, sub.Label,
	).Scan(&sub.ID, &sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create sub-domain: %w", err)
	}
	return nil
}

func (r *domainRepository) GetDomainByCode(ctx context.Context, code string) (*models.Domain, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	var domain models.Domain
	err := scope.Conn.QueryRow(ctx, `
		SELECT id, code, label, created_at FROM domains WHERE code = $1`, code,
	).Scan(&domain.ID, &domain.Code, &domain.Label, &domain.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get domain: %w", err)
	}
	return &domain, nil
}

func (r *domainRepository) ListDomains(ctx context.Context) ([]*models.Domain, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	rows, err := scope.Conn.Query(ctx, `
		SELECT id, code, label, created_at FROM domains ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list domains: %w", err)
	}
	defer rows.Close()

	var domains []*models.Domain
	for rows.Next() {
		var d models.Domain
		if err := rows.Scan(&d.ID, &d.Code, &d.Label, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan domain: %w", err)
		}
		domains = append(domains, &d)
	}
	return domains, rows.Err()
}

func (r *domainRepository) ListSubDomains(ctx context.Context, domainID uuid.UUID) ([]*models.SubDomain, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	rows, err := scope.Conn.Query(ctx, `
		SELECT id, domain_id, code, label, created_at
		FROM sub_domains
		WHERE domain_id = $1
		ORDER BY code`, domainID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sub-domains: %w", err)
	}
	defer rows.Close()

	var subs []*models.SubDomain
	for rows.Next() {
		var s models.SubDomain
		if err := rows.Scan(&s.ID, &s.DomainID, &s.Code, &s.Label, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sub-domain: %w", err)
		}
		subs = append(subs, &s)
	}
	return subs, rows.Err()
}
