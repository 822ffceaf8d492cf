package models

import (
	"time"

	"github.com/google/uuid"
)

// Inspection results.
const (
	InspectionCompliant    = "conforme"
	InspectionNonCompliant = "non_conforme"
	InspectionReserve      = "reserve"
)

// Equipment is a piece of regulated equipment on a site subject to periodic
// inspection. NextInspectionAt drives the inspection planning view.
type Equipment struct {
	ID                uuid.UUID  `json:"id"`
	ClientID          uuid.UUID  `json:"client_id"`
	SiteID            uuid.UUID  `json:"site_id"`
	Name              string     `json:"name"`
	Reference         string     `json:"reference,omitempty"`
	Category          string     `json:"category,omitempty"`
	PeriodicityMonths int        `json:"periodicity_months"`
	LastInspectionAt  *time.Time `json:"last_inspection_at,omitempty"`
	NextInspectionAt  *time.Time `json:"next_inspection_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
	DeletedAt         *time.Time `json:"deleted_at,omitempty"`
}

// Inspection records one inspection of an equipment.
type Inspection struct {
	ID          uuid.UUID `json:"id"`
	EquipmentID uuid.UUID `json:"equipment_id"`
	Date        time.Time `json:"date"`
	Result      string    `json:"result"`
	Inspector   string    `json:"inspector,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NextInspection computes the due date following an inspection on date.
func (e *Equipment) NextInspection(date time.Time) *time.Time {
	if e.PeriodicityMonths <= 0 {
		return nil
	}
	next := date.AddDate(0, e.PeriodicityMonths, 0)
	return &next
}

// ValidInspectionResult reports whether r is a recognized result.
func ValidInspectionResult(r string) bool {
	switch r {
	case InspectionCompliant, InspectionNonCompliant, InspectionReserve:
		return true
	}
	return false
}
