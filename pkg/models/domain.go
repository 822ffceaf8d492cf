package models

import (
	"time"

	"github.com/google/uuid"
)

// Domain classifies regulatory texts (e.g. "SECU" workplace safety,
// "ENV" environment). Reference data, staff-managed.
type Domain struct {
	ID        uuid.UUID `json:"id"`
	Code      string    `json:"code"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
}

// SubDomain refines a Domain.
type SubDomain struct {
	ID        uuid.UUID `json:"id"`
	DomainID  uuid.UUID `json:"domain_id"`
	Code      string    `json:"code"`
	Label     string    `json:"label"`
	CreatedAt time.Time `json:"created_at"`
}
