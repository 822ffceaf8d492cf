package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conformio/conformio-engine/pkg/apperrors"
	"github.com/conformio/conformio-engine/pkg/models"
	"github.com/conformio/conformio-engine/pkg/repositories"
	"github.com/conformio/conformio-engine/pkg/storage"
)

// TextService manages the shared regulatory library.
type TextService interface {
	Create(ctx context.Context, text *models.RegulatoryText) error
	Update(ctx context.Context, text *models.RegulatoryText) error
	Delete(ctx context.Context, textID uuid.UUID) error
	Get(ctx context.Context, textID uuid.UUID) (*models.RegulatoryText, error)
	List(ctx context.Context, filters models.TextFilters) ([]*models.RegulatoryText, error)
	SetDomains(ctx context.Context, textID uuid.UUID, domainIDs, subDomainIDs []uuid.UUID) error
	// AttachPDF stores the official PDF and records its URL on the text.
	AttachPDF(ctx context.Context, textID uuid.UUID, filename string, reader io.Reader, size int64) (string, error)
}

type textService struct {
	repo   repositories.TextRepository
	store  storage.DocumentStore
	bucket string
	audit  AuditService
	logger *zap.Logger
}

// NewTextService creates a new TextService. bucket is the documents bucket
// for official PDFs.
func NewTextService(repo repositories.TextRepository, store storage.DocumentStore, bucket string, audit AuditService, logger *zap.Logger) TextService {
	return &textService{repo: repo, store: store, bucket: bucket, audit: audit, logger: logger}
}

var _ TextService = (*textService)(nil)

func (s *textService) validate(text *models.RegulatoryText) error {
	if strings.TrimSpace(text.Title) == "" || strings.TrimSpace(text.OfficialReference) == "" {
		return fmt.Errorf("%w: title and official reference are required", apperrors.ErrInvalidInput)
	}
	if !models.ValidActType(text.ActType) {
		return fmt.Errorf("%w: unknown act type %q", apperrors.ErrInvalidInput, text.ActType)
	}
	if !models.ValidForceStatus(text.ForceStatus) {
		return fmt.Errorf("%w: unknown force status %q", apperrors.ErrInvalidInput, text.ForceStatus)
	}
	return nil
}

func (s *textService) Create(ctx context.Context, text *models.RegulatoryText) error {
	if text.ForceStatus == "" {
		text.ForceStatus = models.ForceStatusInForce
	}
	if err := s.validate(text); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, text); err != nil {
		return err
	}
	if len(text.DomainIDs) > 0 || len(text.SubDomainIDs) > 0 {
		if err := s.repo.SetDomains(ctx, text.ID, text.DomainIDs, text.SubDomainIDs); err != nil {
			return err
		}
	}

	s.audit.Record(ctx, "text.create", "regulatory_text", text.ID, text)
	s.logger.Info("regulatory text created",
		zap.String("text_id", text.ID.String()),
		zap.String("reference", text.OfficialReference))
	return nil
}

func (s *textService) Update(ctx context.Context, text *models.RegulatoryText) error {
	if err := s.validate(text); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, text); err != nil {
		return err
	}
	s.audit.Record(ctx, "text.update", "regulatory_text", text.ID, text)
	return nil
}

func (s *textService) Delete(ctx context.Context, textID uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, textID); err != nil {
		return err
	}
	s.audit.Record(ctx, "text.delete", "regulatory_text", textID, nil)
	return nil
}

func (s *textService) Get(ctx context.Context, textID uuid.UUID) (*models.RegulatoryText, error) {
	return s.repo.GetByID(ctx, textID)
}

func (s *textService) List(ctx context.Context, filters models.TextFilters) ([]*models.RegulatoryText, error) {
	return s.repo.List(ctx, filters)
}

func (s *textService) SetDomains(ctx context.Context, textID uuid.UUID, domainIDs, subDomainIDs []uuid.UUID) error {
	if err := s.repo.SetDomains(ctx, textID, domainIDs, subDomainIDs); err != nil {
		return err
	}
	s.audit.Record(ctx, "text.set_domains", "regulatory_text", textID, map[string]any{
		"domain_ids":     domainIDs,
		"sub_domain_ids": subDomainIDs,
	})
	return nil
}

func (s *textService) AttachPDF(ctx context.Context, textID uuid.UUID, filename string, reader io.Reader, size int64) (string, error) {
	text, err := s.repo.GetByID(ctx, textID)
	if err != nil {
		return "", err
	}

	scope := fmt.Sprintf("texts/%s", textID)
	url, err := s.store.Upload(ctx, s.bucket, scope, filename, reader, size, "application/pdf")
	if err != nil {
		return "", fmt.Errorf("failed to store pdf: %w", err)
	}

	text.PDFURL = &url
	if err := s.repo.Update(ctx, text); err != nil {
		return "", err
	}

	s.audit.Record(ctx, "text.attach_pdf", "regulatory_text", textID, map[string]string{"url": url})
	return url, nil
}
