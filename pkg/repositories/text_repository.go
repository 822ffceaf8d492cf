package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/conformio/conformio-engine/pkg/apperrors"
	"github.com/conformio/conformio-engine/pkg/database"
	"github.com/conformio/conformio-engine/pkg/models"
)

// TextRepository provides data access for the shared regulatory library.
type TextRepository interface {
	Create(ctx context.Context, text *models.RegulatoryText) error
	Update(ctx context.Context, text *models.RegulatoryText) error
	SoftDelete(ctx context.Context, textID uuid.UUID) error
	GetByID(ctx context.Context, textID uuid.UUID) (*models.RegulatoryText, error)
	List(ctx context.Context, filters models.TextFilters) ([]*models.RegulatoryText, error)
	SetDomains(ctx context.Context, textID uuid.UUID, domainIDs, subDomainIDs []uuid.UUID) error
}

type textRepository struct{}

// NewTextRepository creates a new TextRepository.
func NewTextRepository() TextRepository {
	return &textRepository{}
}

var _ TextRepository = (*textRepository)(nil)

const textColumns = `
	id, act_type, official_reference, title, authority, publication_date,
	force_status, year, pdf_url, created_by, created_at, updated_at, deleted_at`

func (r *textRepository) Create(ctx context.Context, text *models.RegulatoryText) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	now := time.Now()

	query := `
		INSERT INTO regulatory_texts (
			act_type, official_reference, title, authority, publication_date,
			force_status, year, pdf_url, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		text.ActType,
		text.OfficialReference,
		text.Title,
		nullString(text.Authority),
		text.PublicationDate,
		text.ForceStatus,
		text.Year,
		text.PDFURL,
		nullUUID(text.CreatedBy),
		now,
		now,
	).Scan(&text.ID, &text.CreatedAt, &text.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("official reference %q already exists: %w", text.OfficialReference, apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to create regulatory text: %w", err)
	}

	return nil
}

// isUniqueViolation reports a PostgreSQL unique constraint violation
// (error code 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *textRepository) Update(ctx context.Context, text *models.RegulatoryText) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		UPDATE regulatory_texts
		SET act_type = $2, official_reference = $3, title = $4, authority = $5,
		    publication_date = $6, force_status = $7, year = $8, pdf_url = $9,
		    updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		text.ID,
		text.ActType,
		text.OfficialReference,
		text.Title,
		nullString(text.Authority),
		text.PublicationDate,
		text.ForceStatus,
		text.Year,
		text.PDFURL,
	).Scan(&text.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("official reference %q already exists: %w", text.OfficialReference, apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to update regulatory text: %w", err)
	}

	return nil
}

func (r *textRepository) SoftDelete(ctx context.Context, textID uuid.UUID) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		UPDATE regulatory_texts
		SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`

	result, err := scope.Conn.Exec(ctx, query, textID)
	if err != nil {
		return fmt.Errorf("failed to delete regulatory text: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}

	return nil
}

func (r *textRepository) GetByID(ctx context.Context, textID uuid.UUID) (*models.RegulatoryText, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + textColumns + `
		FROM regulatory_texts
		WHERE id = $1 AND deleted_at IS NULL`

	text, err := scanText(scope.Conn.QueryRow(ctx, query, textID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get regulatory text: %w", err)
	}

	if err := r.loadDomains(ctx, text); err != nil {
		return nil, err
	}

	return text, nil
}

func (r *textRepository) List(ctx context.Context, filters models.TextFilters) ([]*models.RegulatoryText, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + textColumns + `
		FROM regulatory_texts
		WHERE deleted_at IS NULL`
	args := []any{}

	if filters.ActType != "" {
		args = append(args, filters.ActType)
		query += fmt.Sprintf(" AND act_type = $%d", len(args))
	}
	if filters.ForceStatus != "" {
		args = append(args, filters.ForceStatus)
		query += fmt.Sprintf(" AND force_status = $%d", len(args))
	}
	if filters.Year != 0 {
		args = append(args, filters.Year)
		query += fmt.Sprintf(" AND year = $%d", len(args))
	}
	if filters.DomainID != uuid.Nil {
		args = append(args, filters.DomainID)
		query += fmt.Sprintf(" AND id IN (SELECT text_id FROM text_domains WHERE domain_id = $%d)", len(args))
	}
	if filters.Search != "" {
		args = append(args, "%"+filters.Search+"%")
		query += fmt.Sprintf(" AND (title ILIKE $%d OR official_reference ILIKE $%d)", len(args), len(args))
	}

	query += " ORDER BY publication_date DESC NULLS LAST, official_reference"

	rows, err := scope.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list regulatory texts: %w", err)
	}
	defer rows.Close()

	var texts []*models.RegulatoryText
	for rows.Next() {
		text, err := scanText(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan regulatory text: %w", err)
		}
		texts = append(texts, text)
	}
	return texts, rows.Err()
}

func (r *textRepository) SetDomains(ctx context.Context, textID uuid.UUID, domainIDs, subDomainIDs []uuid.UUID) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	tx, err := scope.Conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM text_domains WHERE text_id = $1`, textID); err != nil {
		return fmt.Errorf("failed to clear text domains: %w", err)
	}
	for _, domainID := range domainIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO text_domains (text_id, domain_id) VALUES ($1, $2)`, textID, domainID); err != nil {
			return fmt.Errorf("failed to link domain: %w", err)
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM text_sub_domains WHERE text_id = $1`, textID); err != nil {
		return fmt.Errorf("failed to clear text sub-domains: %w", err)
	}
	for _, subDomainID := range subDomainIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO text_sub_domains (text_id, sub_domain_id) VALUES ($1, $2)`, textID, subDomainID); err != nil {
			return fmt.Errorf("failed to link sub-domain: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit domain links: %w", err)
	}
	return nil
}

func (r *textRepository) loadDomains(ctx context.Context, text *models.RegulatoryText) error {
	scope, _ := database.GetTenantScope(ctx)

	rows, err := scope.Conn.Query(ctx, `SELECT domain_id FROM text_domains WHERE text_id = $1`, text.ID)
	if err != nil {
		return fmt.Errorf("failed to load text domains: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return err
		}
		text.DomainIDs = append(text.DomainIDs, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	subRows, err := scope.Conn.Query(ctx, `SELECT sub_domain_id FROM text_sub_domains WHERE text_id = $1`, text.ID)
	if err != nil {
		return fmt.Errorf("failed to load text sub-domains: %w", err)
	}
	defer subRows.Close()
	for subRows.Next() {
		var id uuid.UUID
		if err := subRows.Scan(&id); err != nil {
			return err
		}
		text.SubDomainIDs = append(text.SubDomainIDs, id)
	}
	return subRows.Err()
}

func scanText(row pgx.Row) (*models.RegulatoryText, error) {
	var text models.RegulatoryText
	var authority *string

	err := row.Scan(
		&text.ID,
		&text.ActType,
		&text.OfficialReference,
		&text.Title,
		&authority,
		&text.PublicationDate,
		&text.ForceStatus,
		&text.Year,
		&text.PDFURL,
		&text.CreatedBy,
		&text.CreatedAt,
		&text.UpdatedAt,
		&text.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	if authority != nil {
		text.Authority = *authority
	}
	return &text, nil
}
