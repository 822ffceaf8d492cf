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

// ClientService manages tenant organizations. Staff-only.
type ClientService interface {
	Create(ctx context.Context, client *models.Client) error
	Update(ctx context.Context, client *models.Client) error
	SetActive(ctx context.Context, clientID uuid.UUID, active bool) error
	Delete(ctx context.Context, clientID uuid.UUID) error
	Get(ctx context.Context, clientID uuid.UUID) (*models.Client, error)
	List(ctx context.Context) ([]*models.Client, error)
}

type clientService struct {
	repo   repositories.ClientRepository
	audit  AuditService
	logger *zap.Logger
}

// NewClientService creates a new ClientService.
func NewClientService(repo repositories.ClientRepository, audit AuditService, logger *zap.Logger) ClientService {
	return &clientService{repo: repo, audit: audit, logger: logger}
}

var _ ClientService = (*clientService)(nil)

func (s *clientService) Create(ctx context.Context, client *models.Client) error {
	if strings.TrimSpace(client.Name) == "" {
		return fmt.Errorf("%w: client name is required", apperrors.ErrInvalidInput)
	}
	client.Active = true
	if err := s.repo.Create(ctx, client); err != nil {
		return err
	}
	s.audit.Record(ctx, "client.create", "client", client.ID, client)
	s.logger.Info("client created", zap.String("client_id", client.ID.String()))
	return nil
}

func (s *clientService) Update(ctx context.Context, client *models.Client) error {
	if strings.TrimSpace(client.Name) == "" {
		return fmt.Errorf("%w: client name is required", apperrors.ErrInvalidInput)
	}
	if err := s.repo.Update(ctx, client); err != nil {
		return err
	}
	s.audit.Record(ctx, "client.update", "client", client.ID, client)
	return nil
}

func (s *clientService) SetActive(ctx context.Context, clientID uuid.UUID, active bool) error {
	if err := s.repo.SetActive(ctx, clientID, active); err != nil {
		return err
	}
	s.audit.Record(ctx, "client.set_active", "client", clientID, map[string]bool{"active": active})
	return nil
}

func (s *clientService) Delete(ctx context.Context, clientID uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, clientID); err != nil {
		return err
	}
	s.audit.Record(ctx, "client.delete", "client", clientID, nil)
	return nil
}

func (s *clientService) Get(ctx context.Context, clientID uuid.UUID) (*models.Client, error) {
	return s.repo.GetByID(ctx, clientID)
}

func (s *clientService) List(ctx context.Context) ([]*models.Client, error) {
	return s.repo.List(ctx)
}
