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

// EquipmentRepository provides data access for regulated equipment and its
// inspection history.
type EquipmentRepository interface {
	Create(ctx context.Context, equipment *models.Equipment) error
	Update(ctx context.Context, equipment *models.Equipment) error
	SoftDelete(ctx context.Context, equipmentID uuid.UUID) error
	GetByID(ctx context.Context, equipmentID uuid.UUID) (*models.Equipment, error)
	ListBySite(ctx context.Context, siteID uuid.UUID) ([]*models.Equipment, error)
	// ListDueBefore returns equipment whose next inspection falls on or
	// before the deadline, for the planning view.
	ListDueBefore(ctx context.Context, siteID uuid.UUID, deadline time.Time) ([]*models.Equipment, error)
	// RecordInspection inserts the inspection and advances the equipment's
	// last/next inspection dates in one transaction.
	RecordInspection(ctx context.Context, inspection *models.Inspection, nextInspectionAt *time.Time) error
	ListInspections(ctx context.Context, equipmentID uuid.UUID) ([]*models.Inspection, error)
}

type equipmentRepository struct{}

// NewEquipmentRepository creates a new EquipmentRepository.
func NewEquipmentRepository() EquipmentRepository {
	return &equipmentRepository{}
}

var _ EquipmentRepository = (*equipmentRepository)(nil)

const equipmentColumns = `
	id, client_id, site_id, name, reference, category, periodicity_months,
	last_inspection_at, next_inspection_at, created_at, updated_at, deleted_at`

func (r *equipmentRepository) Create(ctx context.Context, equipment *models.Equipment) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		INSERT INTO equipment (
			client_id, site_id, name, reference, category, periodicity_months,
			next_inspection_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING id, created_at, updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		equipment.ClientID,
		equipment.SiteID,
		equipment.Name,
		nullString(equipment.Reference),
		nullString(equipment.Category),
		equipment.PeriodicityMonths,
		equipment.NextInspectionAt,
	).Scan(&equipment.ID, &equipment.CreatedAt, &equipment.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create equipment: %w", err)
	}
	return nil
}

func (r *equipmentRepository) Update(ctx context.Context, equipment *models.Equipment) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		UPDATE equipment
		SET name = $2, reference = $3, category = $4, periodicity_months = $5,
		    next_inspection_at = $6, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		equipment.ID,
		equipment.Name,
		nullString(equipment.Reference),
		nullString(equipment.Category),
		equipment.PeriodicityMonths,
		equipment.NextInspectionAt,
	).Scan(&equipment.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update equipment: %w", err)
	}
	return nil
}

func (r *equipmentRepository) SoftDelete(ctx context.Context, equipmentID uuid.UUID) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	result, err := scope.Conn.Exec(ctx, `
		UPDATE equipment SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, equipmentID)
	if err != nil {
		return fmt.Errorf("failed to delete equipment: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *equipmentRepository) GetByID(ctx context.Context, equipmentID uuid.UUID) (*models.Equipment, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + equipmentColumns + `
		FROM equipment
		WHERE id = $1 AND deleted_at IS NULL`

	equipment, err := scanEquipment(scope.Conn.QueryRow(ctx, query, equipmentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get equipment: %w", err)
	}
	return equipment, nil
}

func (r *equipmentRepository) ListBySite(ctx context.Context, siteID uuid.UUID) ([]*models.Equipment, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + equipmentColumns + `
		FROM equipment
		WHERE site_id = $1 AND deleted_at IS NULL
		ORDER BY name`

	return r.queryEquipment(ctx, scope, query, siteID)
}

func (r *equipmentRepository) ListDueBefore(ctx context.Context, siteID uuid.UUID, deadline time.Time) ([]*models.Equipment, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + equipmentColumns + `
		FROM equipment
		WHERE site_id = $1 AND deleted_at IS NULL
		  AND next_inspection_at IS NOT NULL AND next_inspection_at <= $2
		ORDER BY next_inspection_at`

	return r.queryEquipment(ctx, scope, query, siteID, deadline)
}

func (r *equipmentRepository) RecordInspection(ctx context.Context, inspection *models.Inspection, nextInspectionAt *time.Time) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	tx, err := scope.Conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO inspections (equipment_id, date, result, inspector, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING id, created_at`,
		inspection.EquipmentID,
		inspection.Date,
		inspection.Result,
		nullString(inspection.Inspector),
		nullString(inspection.Notes),
	).Scan(&inspection.ID, &inspection.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert inspection: %w", err)
	}

	result, err := tx.Exec(ctx, `
		UPDATE equipment
		SET last_inspection_at = $2, next_inspection_at = $3, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`,
		inspection.EquipmentID, inspection.Date, nextInspectionAt)
	if err != nil {
		return fmt.Errorf("failed to advance inspection dates: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit inspection: %w", err)
	}
	return nil
}

func (r *equipmentRepository) ListInspections(ctx context.Context, equipmentID uuid.UUID) ([]*models.Inspection, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	rows, err := scope.Conn.Query(ctx, `
		SELECT id, equipment_id, date, result, inspector, notes, created_at
		FROM inspections
		WHERE equipment_id = $1
		ORDER BY date DESC`, equipmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list inspections: %w", err)
	}
	defer rows.Close()

	var inspections []*models.Inspection
	for rows.Next() {
		var i models.Inspection
		var inspector, notes *string
		err := rows.Scan(&i.ID, &i.EquipmentID, &i.Date, &i.Result, &inspector, &notes, &i.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inspection: %w", err)
		}
		if inspector != nil {
			i.Inspector = *inspector
		}
		if notes != nil {
			i.Notes = *notes
		}
		inspections = append(inspections, &i)
	}
	return inspections, rows.Err()
}

func (r *equipmentRepository) queryEquipment(ctx context.Context, scope *database.TenantScope, query string, args ...any) ([]*models.Equipment, error) {
	rows, err := scope.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list equipment: %w", err)
	}
	defer rows.Close()

	var items []*models.Equipment
	for rows.Next() {
		equipment, err := scanEquipment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan equipment: %w", err)
		}
		items = append(items, equipment)
	}
	return items, rows.Err()
}

func scanEquipment(row pgx.Row) (*models.Equipment, error) {
	var e models.Equipment
	var reference, category *string

	err := row.Scan(
		&e.ID,
		&e.ClientID,
		&e.SiteID,
		&e.Name,
		&reference,
		&category,
		&e.PeriodicityMonths,
		&e.LastInspectionAt,
		&e.NextInspectionAt,
		&e.CreatedAt,
		&e.UpdatedAt,
		&e.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	if reference != nil {
		e.Reference = *reference
	}
	if category != nil {
		e.Category = *category
	}
	return &e, nil
}
