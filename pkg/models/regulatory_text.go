package models

import (
	"time"

	"github.com/google/uuid"
)

// Act types, ordered by legal precedence (loi highest).
const (
	ActTypeLoi        = "loi"
	ActTypeDecret     = "decret"
	ActTypeArrete     = "arrete"
	ActTypeCirculaire = "circulaire"
)

// Force status of a regulatory text.
const (
	ForceStatusInForce   = "en_vigueur"
	ForceStatusAmended   = "modifie"
	ForceStatusRepealed  = "abroge"
	ForceStatusSuspended = "suspendu"
)

// RegulatoryText is a legal instrument (law, decree, order, circular) in the
// shared regulatory library. Texts are staff-managed and visible to every
// client; what varies per client is applicability (see SiteArticleStatus).
// Texts are never hard-deleted, only tombstoned.
type RegulatoryText struct {
	ID                uuid.UUID  `json:"id"`
	ActType           string     `json:"act_type"`
	OfficialReference string     `json:"official_reference"`
	Title             string     `json:"title"`
	Authority         string     `json:"authority,omitempty"`
	PublicationDate   *time.Time `json:"publication_date,omitempty"`
	ForceStatus       string     `json:"force_status"`
	Year              int        `json:"year,omitempty"`
	PDFURL            *string    `json:"pdf_url,omitempty"`
	DomainIDs         []uuid.UUID `json:"domain_ids,omitempty"`
	SubDomainIDs      []uuid.UUID `json:"sub_domain_ids,omitempty"`
	CreatedBy         *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	DeletedAt         *time.Time `json:"deleted_at,omitempty"`
}

// ValidActType reports whether t is a recognized act type.
func ValidActType(t string) bool {
	switch t {
	case ActTypeLoi, ActTypeDecret, ActTypeArrete, ActTypeCirculaire:
		return true
	}
	return false
}

// ValidForceStatus reports whether s is a recognized force status.
func ValidForceStatus(s string) bool {
	switch s {
	case ForceStatusInForce, ForceStatusAmended, ForceStatusRepealed, ForceStatusSuspended:
		return true
	}
	return false
}

// TextFilters narrows library listings.
type TextFilters struct {
	ActType     string
	ForceStatus string
	DomainID    uuid.UUID
	Year        int
	Search      string
}
