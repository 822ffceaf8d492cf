package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/conformio/conformio-engine/pkg/apperrors"
	"github.com/conformio/conformio-engine/pkg/database"
	"github.com/conformio/conformio-engine/pkg/models"
)

// TrainingRepository provides data access for trainings and their sessions.
type TrainingRepository interface {
	Create(ctx context.Context, training *models.Training) error
	Update(ctx context.Context, training *models.Training) error
	GetByID(ctx context.Context, trainingID uuid.UUID) (*models.Training, error)
	ListBySite(ctx context.Context, siteID uuid.UUID) ([]*models.Training, error)
	AddSession(ctx context.Context, session *models.TrainingSession) error
	ListSessions(ctx context.Context, trainingID uuid.UUID) ([]*models.TrainingSession, error)
	LatestSession(ctx context.Context, trainingID uuid.UUID) (*models.TrainingSession, error)
}

type trainingRepository struct{}

// NewTrainingRepository creates a new TrainingRepository.
func NewTrainingRepository() TrainingRepository {
	return &trainingRepository{}
}

var _ TrainingRepository = (*trainingRepository)(nil)

const trainingColumns = `
	id, client_id, site_id, title, category, validity_months, created_at, updated_at`

const sessionColumns = `
	id, training_id, date, attendees, trainer, notes, created_at`

func (r *trainingRepository) Create(ctx context.Context, training *models.Training) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		INSERT INTO trainings (
			client_id, site_id, title, category, validity_months, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, now(), now())
		RETURNING id, created_at, updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		training.ClientID,
		training.SiteID,
		training.Title,
		training.Category,
		training.ValidityMonths,
	).Scan(&training.ID, &training.CreatedAt, &training.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create training: %w", err)
	}
	return nil
}

func (r *trainingRepository) Update(ctx context.Context, training *models.Training) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		UPDATE trainings
		SET title = $2, category = $3, validity_months = $4, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		training.ID,
		training.Title,
		training.Category,
		training.ValidityMonths,
	).Scan(&training.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update training: %w", err)
	}
	return nil
}

func (r *trainingRepository) GetByID(ctx context.Context, trainingID uuid.UUID) (*models.Training, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + trainingColumns + ` FROM trainings WHERE id = $1`

	training, err := scanTraining(scope.Conn.QueryRow(ctx, query, trainingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get training: %w", err)
	}
	return training, nil
}

func (r *trainingRepository) ListBySite(ctx context.Context, siteID uuid.UUID) ([]*models.Training, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + trainingColumns + `
		FROM trainings
		WHERE site_id = $1
		ORDER BY title`

	rows, err := scope.Conn.Query(ctx, query, siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trainings: %w", err)
	}
	defer rows.Close()

	var trainings []*models.Training
	for rows.Next() {
		training, err := scanTraining(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan training: %w", err)
		}
		trainings = append(trainings, training)
	}
	return trainings, rows.Err()
}

func (r *trainingRepository) AddSession(ctx context.Context, session *models.TrainingSession) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		INSERT INTO training_sessions (training_id, date, attendees, trainer, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING id, created_at`

	err := scope.Conn.QueryRow(ctx, query,
		session.TrainingID,
		session.Date,
		session.Attendees,
		nullString(session.Trainer),
		nullString(session.Notes),
	).Scan(&session.ID, &session.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add training session: %w", err)
	}
	return nil
}

func (r *trainingRepository) ListSessions(ctx context.Context, trainingID uuid.UUID) ([]*models.TrainingSession, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + sessionColumns + `
		FROM training_sessions
		WHERE training_id = $1
		ORDER BY date DESC`

	rows, err := scope.Conn.Query(ctx, query, trainingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list training sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.TrainingSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan training session: %w", err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func (r *trainingRepository) LatestSession(ctx context.Context, trainingID uuid.UUID) (*models.TrainingSession, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + sessionColumns + `
		FROM training_sessions
		WHERE training_id = $1
		ORDER BY date DESC
		LIMIT 1`

	session, err := scanSession(scope.Conn.QueryRow(ctx, query, trainingID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest session: %w", err)
	}
	return session, nil
}

func scanTraining(row pgx.Row) (*models.Training, error) {
	var t models.Training
	err := row.Scan(
		&t.ID,
		&t.ClientID,
		&t.SiteID,
		&t.Title,
		&t.Category,
		&t.ValidityMonths,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanSession(row pgx.Row) (*models.TrainingSession, error) {
	var s models.TrainingSession
	var trainer, notes *string
	err := row.Scan(
		&s.ID,
		&s.TrainingID,
		&s.Date,
		&s.Attendees,
		&trainer,
		&notes,
		&s.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if trainer != nil {
		s.Trainer = *trainer
	}
	if notes != nil {
		s.Notes = *notes
	}
	return &s, nil
}
