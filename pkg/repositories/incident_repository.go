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

// IncidentRepository provides data access for HSE incidents.
type IncidentRepository interface {
	Create(ctx context.Context, incident *models.Incident) error
	Update(ctx context.Context, incident *models.Incident) error
	GetByID(ctx context.Context, incidentID uuid.UUID) (*models.Incident, error)
	ListBySite(ctx context.Context, siteID uuid.UUID, status string) ([]*models.Incident, error)
	LinkCorrectiveAction(ctx context.Context, incidentID, actionID uuid.UUID) error
}

type incidentRepository struct{}

// NewIncidentRepository creates a new IncidentRepository.
func NewIncidentRepository() IncidentRepository {
	return &incidentRepository{}
}

var _ IncidentRepository = (*incidentRepository)(nil)

const incidentColumns = `
	id, client_id, site_id, type, gravity, status, occurred_at, description,
	reported_by, corrective_action_id, created_at, updated_at, closed_at`

func (r *incidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		INSERT INTO incidents (
			client_id, site_id, type, gravity, status, occurred_at,
			description, reported_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING id, created_at, updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		incident.ClientID,
		incident.SiteID,
		incident.Type,
		incident.Gravity,
		incident.Status,
		incident.OccurredAt,
		incident.Description,
		nullUUID(incident.ReportedBy),
	).Scan(&incident.ID, &incident.CreatedAt, &incident.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}
	return nil
}

func (r *incidentRepository) Update(ctx context.Context, incident *models.Incident) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		UPDATE incidents
		SET type = $2, gravity = $3, status = $4, description = $5,
		    closed_at = CASE WHEN $4 = 'cloture' THEN coalesce(closed_at, now()) ELSE NULL END,
		    updated_at = now()
		WHERE id = $1
		RETURNING updated_at, closed_at`

	err := scope.Conn.QueryRow(ctx, query,
		incident.ID,
		incident.Type,
		incident.Gravity,
		incident.Status,
		incident.Description,
	).Scan(&incident.UpdatedAt, &incident.ClosedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update incident: %w", err)
	}
	return nil
}

func (r *incidentRepository) GetByID(ctx context.Context, incidentID uuid.UUID) (*models.Incident, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE id = $1`

	incident, err := scanIncident(scope.Conn.QueryRow(ctx, query, incidentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get incident: %w", err)
	}
	return incident, nil
}

func (r *incidentRepository) ListBySite(ctx context.Context, siteID uuid.UUID, status string) ([]*models.Incident, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + incidentColumns + `
		FROM incidents
		WHERE site_id = $1`
	args := []any{siteID}

	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY occurred_at DESC"

	rows, err := scope.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	defer rows.Close()

	var incidents []*models.Incident
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident: %w", err)
		}
		incidents = append(incidents, incident)
	}
	return incidents, rows.Err()
}

func (r *incidentRepository) LinkCorrectiveAction(ctx context.Context, incidentID, actionID uuid.UUID) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	result, err := scope.Conn.Exec(ctx, `
		UPDATE incidents SET corrective_action_id = $2, updated_at = now()
		WHERE id = $1`, incidentID, actionID)
	if err != nil {
		return fmt.Errorf("failed to link corrective action: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func scanIncident(row pgx.Row) (*models.Incident, error) {
	var i models.Incident
	err := row.Scan(
		&i.ID,
		&i.ClientID,
		&i.SiteID,
		&i.Type,
		&i.Gravity,
		&i.Status,
		&i.OccurredAt,
		&i.Description,
		&i.ReportedBy,
		&i.CorrectiveActionID,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.ClosedAt,
	)
	if err != nil {
		return nil, err
	}
	return &i, nil
}
