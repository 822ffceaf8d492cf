package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog records one mutation: who did what to which entity, with the
// request payload for forensics. Append-only.
type AuditLog struct {
	ID        uuid.UUID       `json:"id"`
	ClientID  *uuid.UUID      `json:"client_id,omitempty"`
	ActorID   *uuid.UUID      `json:"actor_id,omitempty"`
	Action    string          `json:"action"`
	Entity    string          `json:"entity"`
	EntityID  *uuid.UUID      `json:"entity_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
