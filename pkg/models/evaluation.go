package models

import (
	"time"

	"github.com/google/uuid"
)

// Applicability classification of an article for a site.
const (
	ApplicabilityMandatory     = "obligatoire"
	ApplicabilityNotApplicable = "non_applicable"
	ApplicabilityNotConcerned  = "non_concerne"
)

// Conformity evaluation states.
const (
	ConformityCompliant    = "conforme"
	ConformityPartial      = "partiellement_conforme"
	ConformityNonCompliant = "non_conforme"
	ConformityUnevaluated  = "non_evalue"
)

// Corrective action workflow.
const (
	ActionStatusTodo       = "a_faire"
	ActionStatusInProgress = "en_cours"
	ActionStatusDone       = "terminee"

	ActionPriorityLow    = "basse"
	ActionPriorityMedium = "moyenne"
	ActionPriorityHigh   = "haute"
)

// SiteArticleStatus classifies one article's applicability for one site.
// A non_concerne status cannot carry a conformity evaluation.
type SiteArticleStatus struct {
	ID            uuid.UUID  `json:"id"`
	ClientID      uuid.UUID  `json:"client_id"`
	SiteID        uuid.UUID  `json:"site_id"`
	TextID        uuid.UUID  `json:"text_id"`
	ArticleID     uuid.UUID  `json:"article_id"`
	Applicability string     `json:"applicability"`
	Reason        *string    `json:"reason,omitempty"`
	Comment       *string    `json:"comment,omitempty"`
	UpdatedBy     *uuid.UUID `json:"updated_by,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`

	// Populated by matrix queries.
	Conformity *Conformity `json:"conformity,omitempty"`
}

// Conformity is the evaluation attached to a SiteArticleStatus: at most one
// record per status, upserted on each evaluation.
type Conformity struct {
	ID          uuid.UUID  `json:"id"`
	StatusID    uuid.UUID  `json:"status_id"`
	State       string     `json:"state"`
	Score       *int       `json:"score,omitempty"`
	Comment     *string    `json:"comment,omitempty"`
	EvaluatedBy *uuid.UUID `json:"evaluated_by,omitempty"`
	EvaluatedAt time.Time  `json:"evaluated_at"`
	CreatedAt   time.Time  `json:"created_at"`

	Evidence []*Evidence `json:"evidence,omitempty"`
}

// Evidence is a file attachment backing a conformity evaluation.
type Evidence struct {
	ID           uuid.UUID  `json:"id"`
	ConformityID uuid.UUID  `json:"conformity_id"`
	Title        string     `json:"title"`
	DocumentURL  string     `json:"document_url"`
	DocumentType string     `json:"document_type,omitempty"`
	Description  *string    `json:"description,omitempty"`
	UploadedBy   *uuid.UUID `json:"uploaded_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// CorrectiveAction tracks remediation of a non-compliant evaluation. One
// open action exists per status at a time; closing it allows a new one on
// the next downgrade.
type CorrectiveAction struct {
	ID           uuid.UUID  `json:"id"`
	StatusID     uuid.UUID  `json:"status_id"`
	ConformityID uuid.UUID  `json:"conformity_id"`
	Title        string     `json:"title"`
	Finding      string     `json:"finding"`
	Status       string     `json:"status"`
	Priority     string     `json:"priority"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	AssignedTo   *uuid.UUID `json:"assigned_to,omitempty"`
	CreatedBy    *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
}

// ValidApplicability reports whether a is a recognized classification.
func ValidApplicability(a string) bool {
	switch a {
	case ApplicabilityMandatory, ApplicabilityNotApplicable, ApplicabilityNotConcerned:
		return true
	}
	return false
}

// ValidConformityState reports whether s is a recognized evaluation state.
func ValidConformityState(s string) bool {
	switch s {
	case ConformityCompliant, ConformityPartial, ConformityNonCompliant, ConformityUnevaluated:
		return true
	}
	return false
}

// SiteStats aggregates a site's evaluation position.
type SiteStats struct {
	Total         int `json:"total"`
	Mandatory     int `json:"mandatory"`
	NotApplicable int `json:"not_applicable"`
	NotConcerned  int `json:"not_concerned"`
	Evaluated     int `json:"evaluated"`
	Compliant     int `json:"compliant"`
	Partial       int `json:"partial"`
	NonCompliant  int `json:"non_compliant"`
}

// MatrixFilters narrows conformity matrix queries.
type MatrixFilters struct {
	SiteID        uuid.UUID
	TextID        uuid.UUID
	Applicability string
	State         string
}
