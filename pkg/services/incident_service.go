package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conformio/conformio-engine/pkg/apperrors"
	"github.com/conformio/conformio-engine/pkg/auth"
	"github.com/conformio/conformio-engine/pkg/models"
	"github.com/conformio/conformio-engine/pkg/repositories"
)

// IncidentService manages HSE incident reports.
type IncidentService interface {
	Report(ctx context.Context, incident *models.Incident) error
	Update(ctx context.Context, incident *models.Incident) error
	Get(ctx context.Context, incidentID uuid.UUID) (*models.Incident, error)
	ListBySite(ctx context.Context, siteID uuid.UUID, status string) ([]*models.Incident, error)
	LinkCorrectiveAction(ctx context.Context, incidentID, actionID uuid.UUID) error
}

type incidentService struct {
	repo   repositories.IncidentRepository
	audit  AuditService
	logger *zap.Logger
}

// NewIncidentService creates a new IncidentService.
func NewIncidentService(repo repositories.IncidentRepository, audit AuditService, logger *zap.Logger) IncidentService {
	return &incidentService{repo: repo, audit: audit, logger: logger}
}

var _ IncidentService = (*incidentService)(nil)

func (s *incidentService) Report(ctx context.Context, incident *models.Incident) error {
	if strings.TrimSpace(incident.Description) == "" {
		return fmt.Errorf("%w: incident description is required", apperrors.ErrInvalidInput)
	}
	if !models.ValidIncidentGravity(incident.Gravity) {
		return fmt.Errorf("%w: unknown gravity %q", apperrors.ErrInvalidInput, incident.Gravity)
	}
	if incident.Status == "" {
		incident.Status = models.IncidentOpen
	}
	if !models.ValidIncidentStatus(incident.Status) {
		return fmt.Errorf("%w: unknown incident status %q", apperrors.ErrInvalidInput, incident.Status)
	}
	if incident.OccurredAt.IsZero() {
		incident.OccurredAt = time.Now()
	}
	if userID := auth.UserIDFromContext(ctx); userID != uuid.Nil {
		incident.ReportedBy = &userID
	}

	if err := s.repo.Create(ctx, incident); err != nil {
		return err
	}
	s.audit.Record(ctx, "incident.report", "incident", incident.ID, incident)
	s.logger.Info("incident reported",
		zap.String("incident_id", incident.ID.String()),
		zap.String("site_id", incident.SiteID.String()),
		zap.String("gravity", incident.Gravity))
	return nil
}

func (s *incidentService) Update(ctx context.Context, incident *models.Incident) error {
	if !models.ValidIncidentGravity(incident.Gravity) {
		return fmt.Errorf("%w: unknown gravity %q", apperrors.ErrInvalidInput, incident.Gravity)
	}
	if !models.ValidIncidentStatus(incident.Status) {
		return fmt.Errorf("%w: unknown incident status %q", apperrors.ErrInvalidInput, incident.Status)
	}
	if err := s.repo.Update(ctx, incident); err != nil {
		return err
	}
	s.audit.Record(ctx, "incident.update", "incident", incident.ID, incident)
	return nil
}

func (s *incidentService) Get(ctx context.Context, incidentID uuid.UUID) (*models.Incident, error) {
	return s.repo.GetByID(ctx, incidentID)
}

func (s *incidentService) ListBySite(ctx context.Context, siteID uuid.UUID, status string) ([]*models.Incident, error) {
	if status != "" && !models.ValidIncidentStatus(status) {
		return nil, fmt.Errorf("%w: unknown incident status %q", apperrors.ErrInvalidInput, status)
	}
	return s.repo.ListBySite(ctx, siteID, status)
}

func (s *incidentService) LinkCorrectiveAction(ctx context.Context, incidentID, actionID uuid.UUID) error {
	if err := s.repo.LinkCorrectiveAction(ctx, incidentID, actionID); err != nil {
		return err
	}
	s.audit.Record(ctx, "incident.link_action", "incident", incidentID, map[string]any{"action_id": actionID})
	return nil
}
