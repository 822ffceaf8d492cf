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
	"github.com/conformio/conformio-engine/pkg/search"
)

// ArticleSearchHit is one article matched by full-text search, with the
// preview window and highlight spans for the UI.
type ArticleSearchHit struct {
	Article *models.Article `json:"article"`
	Preview string          `json:"preview"`
	Spans   []search.Span   `json:"spans"`
}

// ArticleService manages articles of regulatory texts.
type ArticleService interface {
	Create(ctx context.Context, article *models.Article) error
	Update(ctx context.Context, article *models.Article) error
	Delete(ctx context.Context, articleID uuid.UUID) error
	Get(ctx context.Context, articleID uuid.UUID) (*models.Article, error)
	ListByText(ctx context.Context, textID uuid.UUID) ([]*models.Article, error)
	Search(ctx context.Context, term string, limit int) ([]*ArticleSearchHit, error)
}

type articleService struct {
	repo   repositories.ArticleRepository
	texts  repositories.TextRepository
	audit  AuditService
	logger *zap.Logger
}

// NewArticleService creates a new ArticleService.
func NewArticleService(repo repositories.ArticleRepository, texts repositories.TextRepository, audit AuditService, logger *zap.Logger) ArticleService {
	return &articleService{repo: repo, texts: texts, audit: audit, logger: logger}
}

var _ ArticleService = (*articleService)(nil)

func (s *articleService) Create(ctx context.Context, article *models.Article) error {
	if strings.TrimSpace(article.Number) == "" || strings.TrimSpace(article.Content) == "" {
		return fmt.Errorf("%w: article number and content are required", apperrors.ErrInvalidInput)
	}
	// The parent text must exist and not be tombstoned.
	if _, err := s.texts.GetByID(ctx, article.TextID); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, article); err != nil {
		return err
	}
	s.audit.Record(ctx, "article.create", "article", article.ID, article)
	return nil
}

func (s *articleService) Update(ctx context.Context, article *models.Article) error {
	if strings.TrimSpace(article.Number) == "" || strings.TrimSpace(article.Content) == "" {
		return fmt.Errorf("%w: article number and content are required", apperrors.ErrInvalidInput)
	}
	if err := s.repo.Update(ctx, article); err != nil {
		return err
	}
	s.audit.Record(ctx, "article.update", "article", article.ID, article)
	return nil
}

func (s *articleService) Delete(ctx context.Context, articleID uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, articleID); err != nil {
		return err
	}
	s.audit.Record(ctx, "article.delete", "article", articleID, nil)
	return nil
}

func (s *articleService) Get(ctx context.Context, articleID uuid.UUID) (*models.Article, error) {
	return s.repo.GetByID(ctx, articleID)
}

func (s *articleService) ListByText(ctx context.Context, textID uuid.UUID) ([]*models.Article, error) {
	return s.repo.ListByText(ctx, textID)
}

func (s *articleService) Search(ctx context.Context, term string, limit int) ([]*ArticleSearchHit, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, fmt.Errorf("%w: search term is required", apperrors.ErrInvalidInput)
	}

	articles, err := s.repo.Search(ctx, term, limit)
	if err != nil {
		return nil, err
	}

	hits := make([]*ArticleSearchHit, 0, len(articles))
	for _, article := range articles {
		result := search.HighlightAndPreview(article.Content, term)
		hits = append(hits, &ArticleSearchHit{
			Article: article,
			Preview: result.Preview,
			Spans:   result.Spans,
		})
	}
	return hits, nil
}
