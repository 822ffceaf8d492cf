package models

import (
	"time"

	"github.com/google/uuid"
)

// Effects a source text can produce on a target article.
const (
	EffectModifies   = "MODIFIE"
	EffectReplaces   = "REMPLACE"
	EffectRepeals    = "ABROGE"
	EffectCompletes  = "COMPLETE"
	EffectRenumbers  = "RENUMEROTE"
)

// Scope of a legal effect.
const (
	EffectScopeArticle   = "article"
	EffectScopeParagraph = "paragraphe"
	EffectScopePoint     = "point"
)

// LegalEffect records that a source text (and optionally a specific source
// article) produces an effect on exactly one target article. NewContent is
// nil when the effect is ABROGE.
type LegalEffect struct {
	ID              uuid.UUID  `json:"id"`
	SourceTextID    uuid.UUID  `json:"source_text_id"`
	SourceArticleID *uuid.UUID `json:"source_article_id,omitempty"`
	TargetArticleID uuid.UUID  `json:"target_article_id"`
	TargetTextID    uuid.UUID  `json:"target_text_id"`
	EffectType      string     `json:"effect_type"`
	EffectDate      time.Time  `json:"effect_date"`
	Scope           string     `json:"scope"`
	ScopeDetail     *string    `json:"scope_detail,omitempty"`
	Notes           *string    `json:"notes,omitempty"`
	NewContent      *string    `json:"new_content,omitempty"`
	CreatedBy       *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ValidEffectType reports whether t is a recognized effect type.
func ValidEffectType(t string) bool {
	switch t {
	case EffectModifies, EffectReplaces, EffectRepeals, EffectCompletes, EffectRenumbers:
		return true
	}
	return false
}

// ValidEffectScope reports whether s is a recognized effect scope.
func ValidEffectScope(s string) bool {
	switch s {
	case EffectScopeArticle, EffectScopeParagraph, EffectScopePoint:
		return true
	}
	return false
}
