package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/conformio/conformio-engine/pkg/apperrors"
	"github.com/conformio/conformio-engine/pkg/models"
	"github.com/conformio/conformio-engine/pkg/repositories"
)

// DomainService manages the domain reference data. Staff-only writes.
type DomainService interface {
	CreateDomain(ctx context.Context, domain *models.Domain) error
	CreateSubDomain(ctx context.Context, sub *models.SubDomain) error
	ListDomains(ctx context.Context) ([]*models.Domain, error)
	ListSubDomains(ctx context.Context, domainID uuid.UUID) ([]*models.SubDomain, error)
}

type domainService struct {
	repo  repositories.DomainRepository
	audit AuditService
}

// NewDomainService creates a new DomainService.
func NewDomainService(repo repositories.DomainRepository, audit AuditService) DomainService {
	return &domainService{repo: repo, audit: audit}
}

var _ DomainService = (*domainService)(nil)

func (s *domainService) CreateDomain(ctx context.Context, domain *models.Domain) error {
	if strings.TrimSpace(domain.Code) == "" || strings.TrimSpace(domain.Label) == "" {
		return fmt.Errorf("%w: domain code and label are required", apperrors.ErrInvalidInput)
	}
	domain.Code = strings.ToUpper(strings.TrimSpace(domain.Code))
	if err := s.repo.CreateDomain(ctx, domain); err != nil {
		return err
	}
	s.audit.Record(ctx, "domain.create", "domain", domain.ID, domain)
	return nil
}

func (s *domainService) CreateSubDomain(ctx context.Context, sub *models.SubDomain) error {
	if strings.TrimSpace(sub.Code) == "" || strings.TrimSpace(sub.Label) == "" {
		return fmt.Errorf("%w: sub-domain code and label are required", apperrors.ErrInvalidInput)
	}
	sub.Code = strings.ToUpper(strings.TrimSpace(sub.Code))
	if err := s.repo.CreateSubDomain(ctx, sub); err != nil {
		return err
	}
	s.audit.Record(ctx, "domain.create_sub", "sub_domain", sub.ID, sub)
	return nil
}

func (s *domainService) ListDomains(ctx context.Context) ([]*models.Domain, error) {
	return s.repo.ListDomains(ctx)
}

func (s *domainService) ListSubDomains(ctx context.Context, domainID uuid.UUID) ([]*models.SubDomain, error) {
	return s.repo.ListSubDomains(ctx, domainID)
}
