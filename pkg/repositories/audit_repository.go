package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/conformio/conformio-engine/pkg/database"
	"github.com/conformio/conformio-engine/pkg/models"
)

// AuditRepository appends and reads the audit trail.
type AuditRepository interface {
	Append(ctx context.Context, entry *models.AuditLog) error
	ListByEntity(ctx context.Context, entity string, entityID uuid.UUID, limit int) ([]*models.AuditLog, error)
}

type auditRepository struct{}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository() AuditRepository {
	return &auditRepository{}
}

var _ AuditRepository = (*auditRepository)(nil)

func (r *auditRepository) Append(ctx context.Context, entry *models.AuditLog) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		INSERT INTO audit_logs (client_id, actor_id, action, entity, entity_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING id, created_at`

	err := scope.Conn.QueryRow(ctx, query,
		nullUUID(entry.ClientID),
		nullUUID(entry.ActorID),
		entry.Action,
		entry.Entity,
		nullUUID(entry.EntityID),
		entry.Payload,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append audit log: %w", err)
	}
	return nil
}

func (r *auditRepository) ListByEntity(ctx context.Context, entity string, entityID uuid.UUID, limit int) ([]*models.AuditLog, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	if limit <= 0 {
		limit = 100
	}

	rows, err := scope.Conn.Query(ctx, `
		SELECT id, client_id, actor_id, action, entity, entity_id, payload, created_at
		FROM audit_logs
		WHERE entity = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3`, entity, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditLog
	for rows.Next() {
		var e models.AuditLog
		err := rows.Scan(&e.ID, &e.ClientID, &e.ActorID, &e.Action, &e.Entity,
			&e.EntityID, &e.Payload, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit log: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
