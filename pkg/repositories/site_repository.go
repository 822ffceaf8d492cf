package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/conformio/conformio-engine/pkg/apperrors"
	"github.com/conformio/conformio-engine/pkg/database"
	"github.com/conformio/conformio-engine/pkg/models"
)

// SiteRepository provides data access for a client's sites.
type SiteRepository interface {
	Create(ctx context.Context, site *models.Site) error
	Update(ctx context.Context, site *models.Site) error
	SoftDelete(ctx context.Context, siteID uuid.UUID) error
	GetByID(ctx context.Context, siteID uuid.UUID) (*models.Site, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Site, error)
}

type siteRepository struct{}

// NewSiteRepository creates a new SiteRepository.
func NewSiteRepository() SiteRepository {
	return &siteRepository{}
}

var _ SiteRepository = (*siteRepository)(nil)

const siteColumns = `
	id, client_id, name, code, address, activity, created_at, updated_at, deleted_at`

func (r *siteRepository) Create(ctx context.Context, site *models.Site) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	now := time.Now()

	query := `
		INSERT INTO sites (client_id, name, code, address, activity, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		site.ClientID,
		site.Name,
		site.Code,
		nullString(site.Address),
		nullString(site.Activity),
		now,
		now,
	).Scan(&site.ID, &site.CreatedAt, &site.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create site: %w", err)
	}
	return nil
}

func (r *siteRepository) Update(ctx context.Context, site *models.Site) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		UPDATE sites
		SET name = $2, code = $3, address = $4, activity = $5, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		site.ID,
		site.Name,
		site.Code,
		nullString(site.Address),
		nullString(site.Activity),
	).Scan(&site.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update site: %w", err)
	}
	return nil
}

func (r *siteRepository) SoftDelete(ctx context.Context, siteID uuid.UUID) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	result, err := scope.Conn.Exec(ctx, `
		UPDATE sites SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, siteID)
	if err != nil {
		return fmt.Errorf("failed to delete site: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *siteRepository) GetByID(ctx context.Context, siteID uuid.UUID) (*models.Site, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + siteColumns + ` FROM sites WHERE id = $1 AND deleted_at IS NULL`

	site, err := scanSite(scope.Conn.QueryRow(ctx, query, siteID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get site: %w", err)
	}
	return site, nil
}

func (r *siteRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Site, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + siteColumns + `
		FROM sites
		WHERE client_id = $1 AND deleted_at IS NULL
		ORDER BY name`

	rows, err := scope.Conn.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	defer rows.Close()

	var sites []*models.Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		sites = append(sites, site)
	}
	return sites, rows.Err()
}

func scanSite(row pgx.Row) (*models.Site, error) {
	var site models.Site
	var address, activity *string

	err := row.Scan(
		&site.ID,
		&site.ClientID,
		&site.Name,
		&site.Code,
		&address,
		&activity,
		&site.CreatedAt,
		&site.UpdatedAt,
		&site.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	if address != nil {
		site.Address = *address
	}
	if activity != nil {
		site.Activity = *activity
	}
	return &site, nil
}
