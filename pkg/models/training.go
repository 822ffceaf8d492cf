package models

import (
	"time"

	"github.com/google/uuid"
)

// Training categories.
const (
	TrainingMandatory   = "obligatoire"
	TrainingRecommended = "recommande"
)

// Training is a recurring training requirement for a site's personnel.
// ValidityMonths bounds how long a completed session stays valid.
type Training struct {
	ID             uuid.UUID `json:"id"`
	ClientID       uuid.UUID `json:"client_id"`
	SiteID         uuid.UUID `json:"site_id"`
	Title          string    `json:"title"`
	Category       string    `json:"category"`
	ValidityMonths int       `json:"validity_months"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TrainingSession is one delivery of a training.
type TrainingSession struct {
	ID         uuid.UUID `json:"id"`
	TrainingID uuid.UUID `json:"training_id"`
	Date       time.Time `json:"date"`
	Attendees  int       `json:"attendees"`
	Trainer    string    `json:"trainer,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ExpiresAt returns when a session's validity lapses, or nil for trainings
// without a validity window.
func (t *Training) ExpiresAt(session *TrainingSession) *time.Time {
	if t.ValidityMonths <= 0 || session == nil {
		return nil
	}
	exp := session.Date.AddDate(0, t.ValidityMonths, 0)
	return &exp
}
