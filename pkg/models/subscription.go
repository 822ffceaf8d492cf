package models

import (
	"time"

	"github.com/google/uuid"
)

// Subscription scope.
const (
	SubscriptionScopeClient = "client"
	SubscriptionScopeSite   = "site"
)

// Subscription status.
const (
	SubscriptionActive    = "active"
	SubscriptionSuspended = "suspendue"
	SubscriptionCancelled = "annulee"
	SubscriptionExpired   = "expiree"
)

// Subscription is a client's plan subscription, scoped either to the whole
// client or to one site. Site-scoped subscriptions require SiteID.
type Subscription struct {
	ID        uuid.UUID  `json:"id"`
	ClientID  uuid.UUID  `json:"client_id"`
	SiteID    *uuid.UUID `json:"site_id,omitempty"`
	Scope     string     `json:"scope"`
	Plan      string     `json:"plan"`
	Status    string     `json:"status"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Amount    float64    `json:"amount"`
	Currency  string     `json:"currency"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// ValidSubscriptionStatus reports whether s is a recognized status.
func ValidSubscriptionStatus(s string) bool {
	switch s {
	case SubscriptionActive, SubscriptionSuspended, SubscriptionCancelled, SubscriptionExpired:
		return true
	}
	return false
}
