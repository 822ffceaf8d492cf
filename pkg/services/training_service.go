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

// TrainingStatus is a training with its latest session and computed expiry.
type TrainingStatus struct {
	Training      *models.Training        `json:"training"`
	LatestSession *models.TrainingSession `json:"latest_session,omitempty"`
	ExpiresAt     *time.Time              `json:"expires_at,omitempty"`
	Expired       bool                    `json:"expired"`
}

// TrainingService manages recurring trainings and their sessions.
type TrainingService interface {
	Create(ctx context.Context, training *models.Training) error
	Update(ctx context.Context, training *models.Training) error
	Get(ctx context.Context, trainingID uuid.UUID) (*models.Training, error)
	ListBySite(ctx context.Context, siteID uuid.UUID) ([]*TrainingStatus, error)
	AddSession(ctx context.Context, session *models.TrainingSession) error
	ListSessions(ctx context.Context, trainingID uuid.UUID) ([]*models.TrainingSession, error)
}

type trainingService struct {
	repo   repositories.TrainingRepository
	audit  AuditService
	logger *zap.Logger
}

// NewTrainingService creates a new TrainingService.
func NewTrainingService(repo repositories.TrainingRepository, audit AuditService, logger *zap.Logger) TrainingService {
	return &trainingService{repo: repo, audit: audit, logger: logger}
}

var _ TrainingService = (*trainingService)(nil)

func (s *trainingService) validate(training *models.Training) error {
	if strings.TrimSpace(training.Title) == "" {
		return fmt.Errorf("%w: training title is required", apperrors.ErrInvalidInput)
	}
	switch training.Category {
	case models.TrainingMandatory, models.TrainingRecommended:
	default:
		return fmt.Errorf("%w: unknown training category %q", apperrors.ErrInvalidInput, training.Category)
	}
	if training.ValidityMonths < 0 {
		return fmt.Errorf("%w: validity months cannot be negative", apperrors.ErrInvalidInput)
	}
	return nil
}

func (s *trainingService) Create(ctx context.Context, training *models.Training) error {
	if err := s.validate(training); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, training); err != nil {
		return err
	}
	s.audit.Record(ctx, "training.create", "training", training.ID, training)
	return nil
}

func (s *trainingService) Update(ctx context.Context, training *models.Training) error {
	if err := s.validate(training); err != nil {
		return err
	}
	if err := s.repo.Update(ctx, training); err != nil {
		return err
	}
	s.audit.Record(ctx, "training.update", "training", training.ID, training)
	return nil
}

func (s *trainingService) Get(ctx context.Context, trainingID uuid.UUID) (*models.Training, error) {
	return s.repo.GetByID(ctx, trainingID)
}

func (s *trainingService) ListBySite(ctx context.Context, siteID uuid.UUID) ([]*TrainingStatus, error) {
	trainings, err := s.repo.ListBySite(ctx, siteID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	statuses := make([]*TrainingStatus, 0, len(trainings))
	for _, training := range trainings {
		latest, err := s.repo.LatestSession(ctx, training.ID)
		if err != nil {
			return nil, err
		}
		expiresAt := training.ExpiresAt(latest)
		statuses = append(statuses, &TrainingStatus{
			Training:      training,
			LatestSession: latest,
			ExpiresAt:     expiresAt,
			Expired:       expiresAt != nil && expiresAt.Before(now),
		})
	}
	return statuses, nil
}

func (s *trainingService) AddSession(ctx context.Context, session *models.TrainingSession) error {
	if session.Date.IsZero() {
		return fmt.Errorf("%w: session date is required", apperrors.ErrInvalidInput)
	}
	if session.Attendees < 0 {
		return fmt.Errorf("%w: attendees cannot be negative", apperrors.ErrInvalidInput)
	}
	if _, err := s.repo.GetByID(ctx, session.TrainingID); err != nil {
		return err
	}
	if err := s.repo.AddSession(ctx, session); err != nil {
		return err
	}
	s.audit.Record(ctx, "training.add_session", "training_session", session.ID, session)
	return nil
}

func (s *trainingService) ListSessions(ctx context.Context, trainingID uuid.UUID) ([]*models.TrainingSession, error) {
	return s.repo.ListSessions(ctx, trainingID)
}
