package models

import (
	"time"

	"github.com/google/uuid"
)

// Article belongs to exactly one RegulatoryText and cascades logically with
// it. Content is rich text (HTML).
type Article struct {
	ID                 uuid.UUID  `json:"id"`
	TextID             uuid.UUID  `json:"text_id"`
	Number             string     `json:"number"`
	ShortTitle         string     `json:"short_title,omitempty"`
	Content            string     `json:"content"`
	InterpretationNote *string    `json:"interpretation_note,omitempty"`
	Position           int        `json:"position"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	DeletedAt          *time.Time `json:"deleted_at,omitempty"`
}

// ArticleVersion is a snapshot of an article's content, immutable once
// superseded. Exactly one version per article is active at a time; versions
// are never deleted, only deactivated when a legal effect supersedes them.
type ArticleVersion struct {
	ID               uuid.UUID  `json:"id"`
	ArticleID        uuid.UUID  `json:"article_id"`
	VersionNumber    int        `json:"version_number"`
	Label            string     `json:"label"`
	Content          string     `json:"content"`
	EffectiveFrom    *time.Time `json:"effective_from,omitempty"`
	EffectiveTo      *time.Time `json:"effective_to,omitempty"`
	IsActive         bool       `json:"is_active"`
	SourceTextID     *uuid.UUID `json:"source_text_id,omitempty"`
	SourceTextRef    string     `json:"source_text_ref,omitempty"`
	ModificationType string     `json:"modification_type,omitempty"`
	ChangeReason     string     `json:"change_reason,omitempty"`
	EstimatedImpact  string     `json:"estimated_impact,omitempty"`
	DocumentURL      *string    `json:"document_url,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}
