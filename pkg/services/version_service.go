package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/conformio/conformio-engine/pkg/apperrors"
	"github.com/conformio/conformio-engine/pkg/models"
	"github.com/conformio/conformio-engine/pkg/repositories"
	"github.com/conformio/conformio-engine/pkg/textdiff"
)

// VersionComparison is the payload of the version comparison endpoint:
// positional word segments, size statistics and a semantic HTML rendering.
type VersionComparison struct {
	From     *models.ArticleVersion `json:"from"`
	To       *models.ArticleVersion `json:"to"`
	Segments []textdiff.Segment     `json:"segments"`
	Stats    textdiff.Stats         `json:"stats"`
	Pretty   string                 `json:"pretty_html"`
}

// VersionService reads article version history.
type VersionService interface {
	ListByArticle(ctx context.Context, articleID uuid.UUID) ([]*models.ArticleVersion, error)
	GetActive(ctx context.Context, articleID uuid.UUID) (*models.ArticleVersion, error)
	Compare(ctx context.Context, articleID, fromVersionID, toVersionID uuid.UUID) (*VersionComparison, error)
}

type versionService struct {
	repo repositories.VersionRepository
}

// NewVersionService creates a new VersionService.
func NewVersionService(repo repositories.VersionRepository) VersionService {
	return &versionService{repo: repo}
}

var _ VersionService = (*versionService)(nil)

func (s *versionService) ListByArticle(ctx context.Context, articleID uuid.UUID) ([]*models.ArticleVersion, error) {
	return s.repo.ListByArticle(ctx, articleID)
}

func (s *versionService) GetActive(ctx context.Context, articleID uuid.UUID) (*models.ArticleVersion, error) {
	version, err := s.repo.GetActive(ctx, articleID)
	if err != nil {
		return nil, err
	}
	if version == nil {
		return nil, apperrors.ErrNotFound
	}
	return version, nil
}

func (s *versionService) Compare(ctx context.Context, articleID, fromVersionID, toVersionID uuid.UUID) (*VersionComparison, error) {
	from, err := s.repo.GetByID(ctx, fromVersionID)
	if err != nil {
		return nil, err
	}
	to, err := s.repo.GetByID(ctx, toVersionID)
	if err != nil {
		return nil, err
	}
	if from.ArticleID != articleID || to.ArticleID != articleID {
		return nil, fmt.Errorf("%w: versions belong to another article", apperrors.ErrInvalidInput)
	}

	return &VersionComparison{
		From:     from,
		To:       to,
		Segments: textdiff.DiffWords(from.Content, to.Content),
		Stats:    textdiff.Compare(from.Content, to.Content),
		Pretty:   textdiff.Pretty(from.Content, to.Content),
	}, nil
}
