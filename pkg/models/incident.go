package models

import (
	"time"

	"github.com/google/uuid"
)

// Incident gravity.
const (
	IncidentGravityMinor    = "mineure"
	IncidentGravityMajor    = "majeure"
	IncidentGravityCritical = "critique"
)

// Incident lifecycle.
const (
	IncidentOpen          = "ouvert"
	IncidentInvestigating = "en_cours"
	IncidentClosed        = "cloture"
)

// Incident is an HSE event reported on a site.
type Incident struct {
	ID                 uuid.UUID  `json:"id"`
	ClientID           uuid.UUID  `json:"client_id"`
	SiteID             uuid.UUID  `json:"site_id"`
	Type               string     `json:"type"`
	Gravity            string     `json:"gravity"`
	Status             string     `json:"status"`
	OccurredAt         time.Time  `json:"occurred_at"`
	Description        string     `json:"description"`
	ReportedBy         *uuid.UUID `json:"reported_by,omitempty"`
	CorrectiveActionID *uuid.UUID `json:"corrective_action_id,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	ClosedAt           *time.Time `json:"closed_at,omitempty"`
}

// ValidIncidentStatus reports whether s is a recognized lifecycle state.
func ValidIncidentStatus(s string) bool {
	switch s {
	case IncidentOpen, IncidentInvestigating, IncidentClosed:
		return true
	}
	return false
}

// ValidIncidentGravity reports whether g is a recognized gravity.
func ValidIncidentGravity(g string) bool {
	switch g {
	case IncidentGravityMinor, IncidentGravityMajor, IncidentGravityCritical:
		return true
	}
	return false
}
