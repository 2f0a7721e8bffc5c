// FILE: internal/entity/webhook_event_entity.go
package entity

import (
	"time"

	"github.com/google/uuid"
)

// WebhookEvent is the audit trail of inbound provider notifications,
// deduplicated by (provider, provider event id). Rows are kept so operators
// can tell a bad signature apart from our own metadata bugs.
type WebhookEvent struct {
	Id              uuid.UUID
	Provider        string
	ProviderEventID string
	EventType       string
	PayloadJSON     string
	SignatureValid  bool
	ProcessedAt     *time.Time
	ProcessingError string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
