package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conformio/conformio-engine/pkg/apperrors"
	"github.com/conformio/conformio-engine/pkg/models"
	"github.com/conformio/conformio-engine/pkg/repositories"
)

// EquipmentService manages the equipment register and inspection planning.
type EquipmentService interface {
	Create(ctx context.Context, equipment *models.Equipment) error
	Update(ctx context.Context, equipment *models.Equipment) error
	Delete(ctx context.Context, equipmentID uuid.UUID) error
	Get(ctx context.Context, equipmentID uuid.UUID) (*models.Equipment, error)
	ListBySite(ctx context.Context, siteID uuid.UUID) ([]*models.Equipment, error)
	ListDueBefore(ctx context.Context, siteID uuid.UUID, deadline time.Time) ([]*models.Equipment, error)
	// RecordInspection stores the result and advances next_inspection_at by
	// the equipment's periodicity.
	RecordInspection(ctx context.Context, inspection *models.Inspection) error
	ListInspections(ctx context.Context, equipmentID uuid.UUID) ([]*models.Inspection, error)
}

type equipmentService struct {
	repo   repositories.EquipmentRepository
	audit  AuditService
	logger *zap.Logger
}

// NewEquipmentService creates a new EquipmentService.
func NewEquipmentService(repo repositories.EquipmentRepository, audit AuditService, logger *zap.Logger) EquipmentService {
	return &equipmentService{repo: repo, audit: audit, logger: logger}
}

var _ EquipmentService = (*equipmentService)(nil)

func (s *equipmentService) validate(equipment *models.Equipment) error {
	if strings.TrimSpace(equipment.Name) == "" {
		return fmt.Errorf("%w: equipment name is required", apperrors.ErrInvalidInput)
	}
	if equipment.PeriodicityMonths < 0 {
		return fmt.Errorf("%w: periodicity cannot be negative", apperrors.ErrInvalidInput)
	}
	return nil
}

func (s *equipmentService) Create(ctx context.Context, equipment *models.Equipment) error {
	if err := s.validate(equipment); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, equipment); err != nil {
		return err
	}
	s.audit.Record(ctx, "equipment.create", "equipment", equipment.ID, equipment)
	return nil
}

func (s *equipmentService) Update(ctx context.Context, equipment *models.Equipment) error {
	if err := s.validate(equipment); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, equipment); err != nil {
		return err
	}
	s.audit.Record(ctx, "equipment.update", "equipment", equipment.ID, equipment)
	return nil
}

func (s *equipmentService) Delete(ctx context.Context, equipmentID uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, equipmentID); err != nil {
		return err
	}
	s.audit.Record(ctx, "equipment.delete", "equipment", equipmentID, nil)
	return nil
}

func (s *equipmentService) Get(ctx context.Context, equipmentID uuid.UUID) (*models.Equipment, error) {
	return s.repo.GetByID(ctx, equipmentID)
}

func (s *equipmentService) ListBySite(ctx context.Context, siteID uuid.UUID) ([]*models.Equipment, error) {
	return s.repo.ListBySite(ctx, siteID)
}

func (s *equipmentService) ListDueBefore(ctx context.Context, siteID uuid.UUID, deadline time.Time) ([]*models.Equipment, error) {
	return s.repo.ListDueBefore(ctx, siteID, deadline)
}

func (s *equipmentService) RecordInspection(ctx context.Context, inspection *models.Inspection) error {
	if !models.ValidInspectionResult(inspection.Result) {
		return fmt.Errorf("%w: unknown inspection result %q", apperrors.ErrInvalidInput, inspection.Result)
	}
	if inspection.Date.IsZero() {
		inspection.Date = time.Now()
	}

	equipment, err := s.repo.GetByID(ctx, inspection.EquipmentID)
	if err != nil {
		return err
	}
	next := equipment.NextInspection(inspection.Date)

	if err := s.repo.RecordInspection(ctx, inspection, next); err != nil {
		return err
	}

	s.audit.Record(ctx, "equipment.record_inspection", "inspection", inspection.ID, inspection)
	s.logger.Info("inspection recorded",
		zap.String("equipment_id", inspection.EquipmentID.String()),
		zap.String("result", inspection.Result))
	return nil
}

func (s *equipmentService) ListInspections(ctx context.Context, equipmentID uuid.UUID) ([]*models.Inspection, error) {
	return s.repo.ListInspections(ctx, equipmentID)
}
