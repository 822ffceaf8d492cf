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

// ClientRepository provides data access for tenant organizations. These
// operations run on staff connections without tenant context.
type ClientRepository interface {
	Create(ctx context.Context, client *models.Client) error
	Update(ctx context.Context, client *models.Client) error
	SetActive(ctx context.Context, clientID uuid.UUID, active bool) error
	SoftDelete(ctx context.Context, clientID uuid.UUID) error
	GetByID(ctx context.Context, clientID uuid.UUID) (*models.Client, error)
	List(ctx context.Context) ([]*models.Client, error)
}

type clientRepository struct{}

// NewClientRepository creates a new ClientRepository.
func NewClientRepository() ClientRepository {
	return &clientRepository{}
}

var _ ClientRepository = (*clientRepository)(nil)

const clientColumns = `
	id, name, contact_email, active, created_at, updated_at, deleted_at`

func (r *clientRepository) Create(ctx context.Context, client *models.Client) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	now := time.Now()

	query := `
		INSERT INTO clients (name, contact_email, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		client.Name,
		nullString(client.ContactEmail),
		client.Active,
		now,
		now,
	).Scan(&client.ID, &client.CreatedAt, &client.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

func (r *clientRepository) Update(ctx context.Context, client *models.Client) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		UPDATE clients
		SET name = $2, contact_email = $3, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		client.ID,
		client.Name,
		nullString(client.ContactEmail),
	).Scan(&client.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update client: %w", err)
	}
	return nil
}

func (r *clientRepository) SetActive(ctx context.Context, clientID uuid.UUID, active bool) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	result, err := scope.Conn.Exec(ctx, `
		UPDATE clients SET active = $2, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, clientID, active)
	if err != nil {
		return fmt.Errorf("failed to set client active: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *clientRepository) SoftDelete(ctx context.Context, clientID uuid.UUID) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	result, err := scope.Conn.Exec(ctx, `
		UPDATE clients SET deleted_at = now(), active = FALSE, updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL`, clientID)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *clientRepository) GetByID(ctx context.Context, clientID uuid.UUID) (*models.Client, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + clientColumns + ` FROM clients WHERE id = $1 AND deleted_at IS NULL`

	client, err := scanClient(scope.Conn.QueryRow(ctx, query, clientID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return client, nil
}

func (r *clientRepository) List(ctx context.Context) ([]*models.Client, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + clientColumns + `
		FROM clients
		WHERE deleted_at IS NULL
		ORDER BY name`

	rows, err := scope.Conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []*models.Client
	for rows.Next() {
		client, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, client)
	}
	return clients, rows.Err()
}

func scanClient(row pgx.Row) (*models.Client, error) {
	var client models.Client
	var contactEmail *string

	err := row.Scan(
		&client.ID,
		&client.Name,
		&contactEmail,
		&client.Active,
		&client.CreatedAt,
		&client.UpdatedAt,
		&client.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	if contactEmail != nil {
		client.ContactEmail = *contactEmail
	}
	return &client, nil
}
