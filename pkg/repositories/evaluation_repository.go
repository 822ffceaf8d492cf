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

// EvaluationRepository persists site applicability classifications,
// conformity evaluations, evidence and corrective actions. All rows here
// are client-scoped and filtered by RLS.
type EvaluationRepository interface {
	UpsertStatus(ctx context.Context, status *models.SiteArticleStatus) error
	GetStatus(ctx context.Context, statusID uuid.UUID) (*models.SiteArticleStatus, error)
	GetStatusBySiteArticle(ctx context.Context, siteID, articleID uuid.UUID) (*models.SiteArticleStatus, error)
	// BulkSetApplicability applies one classification to many articles of a
	// text for a site. Rows already classified non_concerne are left
	// untouched; the return value is the number of rows actually written.
	BulkSetApplicability(ctx context.Context, clientID, siteID, textID uuid.UUID, articleIDs []uuid.UUID, applicability string, updatedBy *uuid.UUID) (int, error)

	UpsertConformity(ctx context.Context, conformity *models.Conformity) error
	GetConformityByStatus(ctx context.Context, statusID uuid.UUID) (*models.Conformity, error)

	AddEvidence(ctx context.Context, evidence *models.Evidence) error
	ListEvidence(ctx context.Context, conformityID uuid.UUID) ([]*models.Evidence, error)

	// GetOpenAction returns the status's open corrective action, or nil
	// when every action is closed or done.
	GetOpenAction(ctx context.Context, statusID uuid.UUID) (*models.CorrectiveAction, error)
	CreateAction(ctx context.Context, action *models.CorrectiveAction) error
	UpdateAction(ctx context.Context, action *models.CorrectiveAction) error
	ListActionsBySite(ctx context.Context, siteID uuid.UUID) ([]*models.CorrectiveAction, error)

	Matrix(ctx context.Context, filters models.MatrixFilters) ([]*models.SiteArticleStatus, error)
	SiteStats(ctx context.Context, siteID uuid.UUID) (*models.SiteStats, error)
}

type evaluationRepository struct{}

// NewEvaluationRepository creates a new EvaluationRepository.
func NewEvaluationRepository() EvaluationRepository {
	return &evaluationRepository{}
}

var _ EvaluationRepository = (*evaluationRepository)(nil)

const statusColumns = `
	id, client_id, site_id, text_id, article_id, applicability, reason,
	comment, updated_by, created_at, updated_at`

const actionColumns = `
	id, status_id, conformity_id, title, finding, status, priority, due_date,
	assigned_to, created_by, created_at, updated_at, closed_at`

func (r *evaluationRepository) UpsertStatus(ctx context.Context, status *models.SiteArticleStatus) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		INSERT INTO site_article_statuses (
			client_id, site_id, text_id, article_id, applicability, reason,
			comment, updated_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		ON CONFLICT (site_id, article_id) DO UPDATE
		SET applicability = EXCLUDED.applicability,
		    reason = EXCLUDED.reason,
		    comment = EXCLUDED.comment,
		    updated_by = EXCLUDED.updated_by,
		    updated_at = now()
		RETURNING id, created_at, updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		status.ClientID,
		status.SiteID,
		status.TextID,
		status.ArticleID,
		status.Applicability,
		status.Reason,
		status.Comment,
		nullUUID(status.UpdatedBy),
	).Scan(&status.ID, &status.CreatedAt, &status.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert article status: %w", err)
	}
	return nil
}

func (r *evaluationRepository) GetStatus(ctx context.Context, statusID uuid.UUID) (*models.SiteArticleStatus, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + statusColumns + ` FROM site_article_statuses WHERE id = $1`

	status, err := scanStatus(scope.Conn.QueryRow(ctx, query, statusID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get article status: %w", err)
	}
	return status, nil
}

func (r *evaluationRepository) GetStatusBySiteArticle(ctx context.Context, siteID, articleID uuid.UUID) (*models.SiteArticleStatus, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + statusColumns + `
		FROM site_article_statuses
		WHERE site_id = $1 AND article_id = $2`

	status, err := scanStatus(scope.Conn.QueryRow(ctx, query, siteID, articleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get article status: %w", err)
	}
	return status, nil
}

func (r *evaluationRepository) BulkSetApplicability(ctx context.Context, clientID, siteID, textID uuid.UUID, articleIDs []uuid.UUID, applicability string, updatedBy *uuid.UUID) (int, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return 0, fmt.Errorf("no tenant scope in context")
	}
	if len(articleIDs) == 0 {
		return 0, nil
	}

	// The WHERE on the conflict arm is what protects non_concerne rows:
	// they conflict but are not updated, so they never appear in RETURNING.
	query := `
		INSERT INTO site_article_statuses (
			client_id, site_id, text_id, article_id, applicability,
			updated_by, created_at, updated_at
		)
		SELECT $1, $2, $3, a.id, $4, $5, now(), now()
		FROM articles a
		WHERE a.id = ANY($6) AND a.deleted_at IS NULL
		ON CONFLICT (site_id, article_id) DO UPDATE
		SET applicability = EXCLUDED.applicability,
		    updated_by = EXCLUDED.updated_by,
		    updated_at = now()
		WHERE site_article_statuses.applicability <> 'non_concerne'
		RETURNING id`

	rows, err := scope.Conn.Query(ctx, query,
		clientID, siteID, textID, applicability, nullUUID(updatedBy), articleIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk update applicability: %w", err)
	}
	defer rows.Close()

	applied := 0
	for rows.Next() {
		applied++
	}
	return applied, rows.Err()
}

func (r *evaluationRepository) UpsertConformity(ctx context.Context, conformity *models.Conformity) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		INSERT INTO conformities (
			status_id, state, score, comment, evaluated_by, evaluated_at, created_at
		) VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (status_id) DO UPDATE
		SET state = EXCLUDED.state,
		    score = EXCLUDED.score,
		    comment = EXCLUDED.comment,
		    evaluated_by = EXCLUDED.evaluated_by,
		    evaluated_at = now()
		RETURNING id, evaluated_at, created_at`

	err := scope.Conn.QueryRow(ctx, query,
		conformity.StatusID,
		conformity.State,
		conformity.Score,
		conformity.Comment,
		nullUUID(conformity.EvaluatedBy),
	).Scan(&conformity.ID, &conformity.EvaluatedAt, &conformity.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert conformity: %w", err)
	}
	return nil
}

func (r *evaluationRepository) GetConformityByStatus(ctx context.Context, statusID uuid.UUID) (*models.Conformity, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `
		SELECT id, status_id, state, score, comment, evaluated_by, evaluated_at, created_at
		FROM conformities
		WHERE status_id = $1`

	var c models.Conformity
	err := scope.Conn.QueryRow(ctx, query, statusID).Scan(
		&c.ID, &c.StatusID, &c.State, &c.Score, &c.Comment,
		&c.EvaluatedBy, &c.EvaluatedAt, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get conformity: %w", err)
	}
	return &c, nil
}

func (r *evaluationRepository) AddEvidence(ctx context.Context, evidence *models.Evidence) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		INSERT INTO conformity_evidence (
			conformity_id, title, document_url, document_type, description,
			uploaded_by, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING id, created_at`

	err := scope.Conn.QueryRow(ctx, query,
		evidence.ConformityID,
		evidence.Title,
		evidence.DocumentURL,
		nullString(evidence.DocumentType),
		evidence.Description,
		nullUUID(evidence.UploadedBy),
	).Scan(&evidence.ID, &evidence.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add evidence: %w", err)
	}
	return nil
}

func (r *evaluationRepository) ListEvidence(ctx context.Context, conformityID uuid.UUID) ([]*models.Evidence, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `
		SELECT id, conformity_id, title, document_url, document_type,
		       description, uploaded_by, created_at
		FROM conformity_evidence
		WHERE conformity_id = $1
		ORDER BY created_at DESC`

	rows, err := scope.Conn.Query(ctx, query, conformityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list evidence: %w", err)
	}
	defer rows.Close()

	var items []*models.Evidence
	for rows.Next() {
		var e models.Evidence
		var docType *string
		err := rows.Scan(&e.ID, &e.ConformityID, &e.Title, &e.DocumentURL,
			&docType, &e.Description, &e.UploadedBy, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan evidence: %w", err)
		}
		if docType != nil {
			e.DocumentType = *docType
		}
		items = append(items, &e)
	}
	return items, rows.Err()
}

func (r *evaluationRepository) GetOpenAction(ctx context.Context, statusID uuid.UUID) (*models.CorrectiveAction, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `SELECT ` + actionColumns + `
		FROM corrective_actions
		WHERE status_id = $1 AND status <> 'terminee' AND closed_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1`

	action, err := scanAction(scope.Conn.QueryRow(ctx, query, statusID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get open action: %w", err)
	}
	return action, nil
}

func (r *evaluationRepository) CreateAction(ctx context.Context, action *models.CorrectiveAction) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		INSERT INTO corrective_actions (
			status_id, conformity_id, title, finding, status, priority,
			due_date, assigned_to, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING id, created_at, updated_at`

	err := scope.Conn.QueryRow(ctx, query,
		action.StatusID,
		action.ConformityID,
		action.Title,
		action.Finding,
		action.Status,
		action.Priority,
		action.DueDate,
		nullUUID(action.AssignedTo),
		nullUUID(action.CreatedBy),
	).Scan(&action.ID, &action.CreatedAt, &action.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create corrective action: %w", err)
	}
	return nil
}

func (r *evaluationRepository) UpdateAction(ctx context.Context, action *models.CorrectiveAction) error {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return fmt.Errorf("no tenant scope in context")
	}

	query := `
		UPDATE corrective_actions
		SET title = $2, finding = $3, status = $4, priority = $5,
		    due_date = $6, assigned_to = $7,
		    closed_at = CASE WHEN $4 = 'terminee' THEN coalesce(closed_at, now()) ELSE NULL END,
		    updated_at = now()
		WHERE id = $1
		RETURNING updated_at, closed_at`

	err := scope.Conn.QueryRow(ctx, query,
		action.ID,
		action.Title,
		action.Finding,
		action.Status,
		action.Priority,
		action.DueDate,
		nullUUID(action.AssignedTo),
	).Scan(&action.UpdatedAt, &action.ClosedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update corrective action: %w", err)
	}
	return nil
}

func (r *evaluationRepository) ListActionsBySite(ctx context.Context, siteID uuid.UUID) ([]*models.CorrectiveAction, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `
		SELECT ca.id, ca.status_id, ca.conformity_id, ca.title, ca.finding,
		       ca.status, ca.priority, ca.due_date, ca.assigned_to,
		       ca.created_by, ca.created_at, ca.updated_at, ca.closed_at
		FROM corrective_actions ca
		JOIN site_article_statuses s ON s.id = ca.status_id
		WHERE s.site_id = $1
		ORDER BY ca.created_at DESC`

	rows, err := scope.Conn.Query(ctx, query, siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to list corrective actions: %w", err)
	}
	defer rows.Close()

	var actions []*models.CorrectiveAction
	for rows.Next() {
		action, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan corrective action: %w", err)
		}
		actions = append(actions, action)
	}
	return actions, rows.Err()
}

func (r *evaluationRepository) Matrix(ctx context.Context, filters models.MatrixFilters) ([]*models.SiteArticleStatus, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `
		SELECT s.id, s.client_id, s.site_id, s.text_id, s.article_id,
		       s.applicability, s.reason, s.comment, s.updated_by,
		       s.created_at, s.updated_at,
		       c.id, c.state, c.score, c.comment, c.evaluated_by, c.evaluated_at, c.created_at
		FROM site_article_statuses s
		LEFT JOIN conformities c ON c.status_id = s.id
		WHERE s.site_id = $1`
	args := []any{filters.SiteID}

	if filters.TextID != uuid.Nil {
		args = append(args, filters.TextID)
		query += fmt.Sprintf(" AND s.text_id = $%d", len(args))
	}
	if filters.Applicability != "" {
		args = append(args, filters.Applicability)
		query += fmt.Sprintf(" AND s.applicability = $%d", len(args))
	}
	if filters.State != "" {
		args = append(args, filters.State)
		query += fmt.Sprintf(" AND c.state = $%d", len(args))
	}

	query += " ORDER BY s.text_id, s.article_id"

	rows, err := scope.Conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query conformity matrix: %w", err)
	}
	defer rows.Close()

	var statuses []*models.SiteArticleStatus
	for rows.Next() {
		var s models.SiteArticleStatus
		var cID *uuid.UUID
		var cState *string
		var cScore *int
		var cComment *string
		var cBy *uuid.UUID
		var cEvaluatedAt, cCreatedAt *time.Time

		err := rows.Scan(
			&s.ID, &s.ClientID, &s.SiteID, &s.TextID, &s.ArticleID,
			&s.Applicability, &s.Reason, &s.Comment, &s.UpdatedBy,
			&s.CreatedAt, &s.UpdatedAt,
			&cID, &cState, &cScore, &cComment, &cBy, &cEvaluatedAt, &cCreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan matrix row: %w", err)
		}
		if cID != nil {
			s.Conformity = &models.Conformity{
				ID:          *cID,
				StatusID:    s.ID,
				State:       *cState,
				Score:       cScore,
				Comment:     cComment,
				EvaluatedBy: cBy,
				EvaluatedAt: *cEvaluatedAt,
				CreatedAt:   *cCreatedAt,
			}
		}
		statuses = append(statuses, &s)
	}
	return statuses, rows.Err()
}

func (r *evaluationRepository) SiteStats(ctx context.Context, siteID uuid.UUID) (*models.SiteStats, error) {
	scope, ok := database.GetTenantScope(ctx)
	if !ok {
		return nil, fmt.Errorf("no tenant scope in context")
	}

	query := `
		SELECT count(*),
		       count(*) FILTER (WHERE s.applicability = 'obligatoire'),
		       count(*) FILTER (WHERE s.applicability = 'non_applicable'),
		       count(*) FILTER (WHERE s.applicability = 'non_concerne'),
		       count(c.id) FILTER (WHERE c.state <> 'non_evalue'),
		       count(c.id) FILTER (WHERE c.state = 'conforme'),
		       count(c.id) FILTER (WHERE c.state = 'partiellement_conforme'),
		       count(c.id) FILTER (WHERE c.state = 'non_conforme')
		FROM site_article_statuses s
		LEFT JOIN conformities c ON c.status_id = s.id
		WHERE s.site_id = $1`

	var stats models.SiteStats
	err := scope.Conn.QueryRow(ctx, query, siteID).Scan(
		&stats.Total,
		&stats.Mandatory,
		&stats.NotApplicable,
		&stats.NotConcerned,
		&stats.Evaluated,
		&stats.Compliant,
		&stats.Partial,
		&stats.NonCompliant,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to compute site stats: %w", err)
	}
	return &stats, nil
}

func scanStatus(row pgx.Row) (*models.SiteArticleStatus, error) {
	var s models.SiteArticleStatus
	err := row.Scan(
		&s.ID, &s.ClientID, &s.SiteID, &s.TextID, &s.ArticleID,
		&s.Applicability, &s.Reason, &s.Comment, &s.UpdatedBy,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scanAction(row pgx.Row) (*models.CorrectiveAction, error) {
	var a models.CorrectiveAction
	err := row.Scan(
		&a.ID, &a.StatusID, &a.ConformityID, &a.Title, &a.Finding,
		&a.Status, &a.Priority, &a.DueDate, &a.AssignedTo, &a.CreatedBy,
		&a.CreatedAt, &a.UpdatedAt, &a.ClosedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
