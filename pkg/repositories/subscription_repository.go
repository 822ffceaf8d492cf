package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/conformio/conformio-engine/pkg/apperrors"
	"github.com/conformio/conformio-engine/pkg/database"
	"github.com/conformio/conformio-engine/pkg/models"
)

// SubscriptionRepository provides data access for plan subscriptions.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *models.Subscription) error
	UpdateStatus(ctx context.Context, subID uuid.UUID, status string, endDate *time.Time) error
	GetByID(ctx context.Context, subID uuid.UUID) (*models.Subscription, error)
	ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Subscription, error)
	// HasActive reports whether the client holds an active subscription
	// covering the site, either site-scoped or client-wide.
	HasActive(ctx context.Context, clientID uuid.UUID, siteID *uuid.UUID) (bool, error)
	// ExpireOverdue flips active subscriptions past their end date to
	// expiree and returns how many rows changed.
	ExpireOverdue(ctx context.Context) (int, error)
}

type subscriptionRepository struct{}

// NewSubscriptionRepository creates a new SubscriptionRepository.
func NewSubscriptionRepository() SubscriptionRepository {
	return &subscriptionRepository{}
}

var _ SubscriptionRepository = (*subscriptionRepository)(nil)

const subscriptionColumns = `
	id, client_id, site_id, scope, plan, status, start_date, end_date,
	amount, currency, created_at, updated_at`

func (r *subscriptionRepository) Create(ctx context.Context, sub *models.Subscription) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		INSERT INTO subscriptions (
			client_id, site_id, scope, plan, status, start_date, end_date,
			amount, currency, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING id, created_at, updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		sub.ClientID,
		nullUUID(sub.SiteID),
		sub.Scope,
		sub.Plan,
		sub.Status,
		sub.StartDate,
		sub.EndDate,
		sub.Amount,
		sub.Currency,
	).Scan(&sub.ID, &sub.CreatedAt, &sub.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}
	return nil
}

func (r *subscriptionRepository) UpdateStatus(ctx context.Context, subID uuid.UUID, status string, endDate *time.Time) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	result, err := scope.Conn.Exec(ctx, `
		UPDATE subscriptions
		SET status = $2, end_date = coalesce($3, end_date), updated_at = now()
		WHERE id = $1`, subID, status, endDate)
	if err != nil {
		return fmt.Errorf("failed to update subscription status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *subscriptionRepository) GetByID(ctx context.Context, subID uuid.UUID) (*models.Subscription, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`

	sub, err := scanSubscription(scope.Conn.QueryRow(ctx, query, subID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}
	return sub, nil
}

func (r *subscriptionRepository) ListByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Subscription, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE client_id = $1
		ORDER BY start_date DESC`

	rows, err := scope.Conn.Query(ctx, query, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

func (r *subscriptionRepository) HasActive(ctx context.Context, clientID uuid.UUID, siteID *uuid.UUID) (bool, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return false, fmt.Errorf("no tenant scope in context")
	}

	query := `
		SELECT EXISTS (
			SELECT 1 FROM subscriptions
			WHERE client_id = $1
			  AND status = 'active'
			  AND (scope = 'client' OR site_id = $2)
			  AND (end_date IS NULL OR end_date >= now())
		)`

	var exists bool
	if err := scope.Conn.QueryRow(ctx, query, clientID, nullUUID(siteID)).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check active subscription: %w", err)
	}
	return exists, nil
}

func (r *subscriptionRepository) ExpireOverdue(ctx context.Context) (int, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no tenant scope in context")
	}

	result, err := scope.Conn.Exec(ctx, `
		UPDATE subscriptions
		SET status = 'expiree', updated_at = now()
		WHERE status = 'active' AND end_date IS NOT NULL AND end_date < now()`)
	if err != nil {
		return 0, fmt.Errorf("failed to expire subscriptions: %w", err)
	}
	return int(result.RowsAffected()), nil
}

func scanSubscription(row pgx.Row) (*models.Subscription, error) {
	var sub models.Subscription
	err := row.Scan(
		&sub.ID,
		&sub.ClientID,
		&sub.SiteID,
		&sub.Scope,
		&sub.Plan,
		&sub.Status,
		&sub.StartDate,
		&sub.EndDate,
		&sub.Amount,
		&sub.Currency,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sub, nil
}
