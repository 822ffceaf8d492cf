package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conformio/conformio-engine/pkg/auth"
	"github.com/conformio/conformio-engine/pkg/models"
	"github.com/conformio/conformio-engine/pkg/repositories"
)

// AuditService appends audit events. Recording is best-effort: a failed
// append is logged and never fails the business operation it describes.
type AuditService interface {
	Record(ctx context.Context, action, entity string, entityID uuid.UUID, payload any)
	ListByEntity(ctx context.Context, entity string, entityID uuid.UUID, limit int) ([]*models.AuditLog, error)
}

type auditService struct {
	repo   repositories.AuditRepository
	logger *zap.Logger
}

// NewAuditService creates a new AuditService.
func NewAuditService(repo repositories.AuditRepository, logger *zap.Logger) AuditService {
	return &auditService{repo: repo, logger: logger}
}

var _ AuditService = (*auditService)(nil)

func (s *auditService) Record(ctx context.Context, action, entity string, entityID uuid.UUID, payload any) {
	entry := &models.AuditLog{
		Action: action,
		Entity: entity,
	}
	if entityID != uuid.Nil {
		entry.EntityID = &entityID
	}

	if claims, ok := auth.GetClaims(ctx); ok && claims != nil {
		if clientID, err := uuid.Parse(claims.ClientID); err == nil {
			entry.ClientID = &clientID
		}
		if actorID, err := uuid.Parse(claims.Subject); err == nil {
			entry.ActorID = &actorID
		}
	}

	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			s.logger.Warn("audit payload not serializable",
				zap.String("action", action), zap.Error(err))
		} else {
			entry.Payload = raw
		}
	}

	if err := s.repo.Append(ctx, entry); err != nil {
		s.logger.Error("failed to record audit event",
			zap.String("action", action),
			zap.String("entity", entity),
			zap.Error(err))
	}
}

func (s *auditService) ListByEntity(ctx context.Context, entity string, entityID uuid.UUID, limit int) ([]*models.AuditLog, error) {
	return s.repo.ListByEntity(ctx, entity, entityID, limit)
}
