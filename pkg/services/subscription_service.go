package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/conformio/conformio-engine/pkg/apperrors"
	"github.com/conformio/conformio-engine/pkg/models"
	"github.com/conformio/conformio-engine/pkg/repositories"
)

// SubscriptionService manages plan subscriptions.
type SubscriptionService interface {
	Create(ctx context.Context, sub *models.Subscription) error
	ChangeStatus(ctx context.Context, subID uuid.UUID, status string, endDate *time.Time) error
	Get(ctx context.Context, subID uuid.UUID) (*models.Subscription, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Subscription, error)
	HasActive(ctx context.Context, clientID uuid.UUID, siteID *uuid.UUID) (bool, error)
	// ExpireOverdue is run periodically by the maintenance loop.
	ExpireOverdue(ctx context.Context) (int, error)
}

type subscriptionService struct {
	repo   repositories.SubscriptionRepository
	sites  repositories.SiteRepository
	audit  AuditService
	logger *zap.Logger
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(repo repositories.SubscriptionRepository, sites repositories.SiteRepository, audit AuditService, logger *zap.Logger) SubscriptionService {
	return &subscriptionService{repo: repo, sites: sites, audit: audit, logger: logger}
}

var _ SubscriptionService = (*subscriptionService)(nil)

func (s *subscriptionService) Create(ctx context.Context, sub *models.Subscription) error {
	switch sub.Scope {
	case models.SubscriptionScopeClient:
		sub.SiteID = nil
	case models.SubscriptionScopeSite:
		if sub.SiteID == nil || *sub.SiteID == uuid.Nil {
			return fmt.Errorf("%w: site-scoped subscription requires a site", apperrors.ErrInvalidInput)
		}
		if _, err := s.sites.GetByID(ctx, *sub.SiteID); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown subscription scope %q", apperrors.ErrInvalidInput, sub.Scope)
	}
	if sub.Status == "" {
		sub.Status = models.SubscriptionActive
	}
	if !models.ValidSubscriptionStatus(sub.Status) {
		return fmt.Errorf("%w: unknown subscription status %q", apperrors.ErrInvalidInput, sub.Status)
	}
	if sub.StartDate.IsZero() {
		sub.StartDate = time.Now()
	}
	if sub.EndDate != nil && sub.EndDate.Before(sub.StartDate) {
		return fmt.Errorf("%w: end date precedes start date", apperrors.ErrInvalidInput)
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		return err
	}
	s.audit.Record(ctx, "subscription.create", "subscription", sub.ID, sub)
	s.logger.Info("subscription created",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("client_id", sub.ClientID.String()),
		zap.String("scope", sub.Scope))
	return nil
}

func (s *subscriptionService) ChangeStatus(ctx context.Context, subID uuid.UUID, status string, endDate *time.Time) error {
	if !models.ValidSubscriptionStatus(status) {
		return fmt.Errorf("%w: unknown subscription status %q", apperrors.ErrInvalidInput, status)
	}
	if err := s.repo.UpdateStatus(ctx, subID, status, endDate); err != nil {
		return err
	}
	s.audit.Record(ctx, "subscription.change_status", "subscription", subID, map[string]string{"status": status})
	return nil
}

func (s *subscriptionService) Get(ctx context.Context, subID uuid.UUID) (*models.Subscription, error) {
	return s.repo.GetByID(ctx, subID)
}

func (s *subscriptionService) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Subscription, error) {
	return s.repo.ListByClient(ctx, clientID)
}

func (s *subscriptionService) HasActive(ctx context.Context, clientID uuid.UUID, siteID *uuid.UUID) (bool, error) {
	return s.repo.HasActive(ctx, clientID, siteID)
}

func (s *subscriptionService) ExpireOverdue(ctx context.Context) (int, error) {
	expired, err := s.repo.ExpireOverdue(ctx)
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		s.logger.Info("subscriptions expired", zap.Int("count", expired))
	}
	return expired, nil
}
