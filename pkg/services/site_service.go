package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conformio/conformio-engine/pkg/apperrors"
	"github.com/conformio/conformio-engine/pkg/models"
	"github.com/conformio/conformio-engine/pkg/repositories"
)

// SiteService manages a client's sites.
type SiteService interface {
	Create(ctx context.Context, site *models.Site) error
	Update(ctx context.Context, site *models.Site) error
	Delete(ctx context.Context, siteID uuid.UUID) error
	Get(ctx context.Context, siteID uuid.UUID) (*models.Site, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Site, error)
}

type siteService struct {
	repo   repositories.SiteRepository
	audit  AuditService
	logger *zap.Logger
}

// NewSiteService creates a new SiteService.
func NewSiteService(repo repositories.SiteRepository, audit AuditService, logger *zap.Logger) SiteService {
	return &siteService{repo: repo, audit: audit, logger: logger}
}

var _ SiteService = (*siteService)(nil)

func (s *siteService) Create(ctx context.Context, site *models.Site) error {
	if strings.TrimSpace(site.Name) == "" || strings.TrimSpace(site.Code) == "" {
		return fmt.Errorf("%w: site name and code are required", apperrors.ErrInvalidInput)
	}
	if site.ClientID == uuid.Nil {
		return fmt.Errorf("%w: client is required", apperrors.ErrInvalidInput)
	}
	if err := s.repo.Create(ctx, site); err != nil {
		return err
	}
	s.audit.Record(ctx, "site.create", "site", site.ID, site)
	s.logger.Info("site created",
		zap.String("site_id", site.ID.String()),
		zap.String("client_id", site.ClientID.String()))
	return nil
}

func (s *siteService) Update(ctx context.Context, site *models.Site) error {
	if strings.TrimSpace(site.Name) == "" || strings.TrimSpace(site.Code) == "" {
		return fmt.Errorf("%w: site name and code are required", apperrors.ErrInvalidInput)
	}
	if err := s.repo.Update(ctx, site); err != nil {
		return err
	}
	s.audit.Record(ctx, "site.update", "site", site.ID, site)
	return nil
}

func (s *siteService) Delete(ctx context.Context, siteID uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, siteID); err != nil {
		return err
	}
	s.audit.Record(ctx, "site.delete", "site", siteID, nil)
	return nil
}

func (s *siteService) Get(ctx context.Context, siteID uuid.UUID) (*models.Site, error) {
	return s.repo.GetByID(ctx, siteID)
}

func (s *siteService) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Site, error) {
	return s.repo.ListByClient(ctx, clientID)
}
