// FILE: internal/repository/contract/webhook_event_repository.go
package contract

import (
	"context"
	"time"

	"vip-gatekeeper-be/internal/entity"
)

type WebhookEventRepository interface {
	// Record stores the raw notification for audit. Redelivery of the same
	// provider event id is not an error; the existing row is returned with
	// duplicate=true so callers can tell a replay from a first delivery.
	Record(ctx context.Context, event *entity.WebhookEvent) (duplicate bool, err error)

	MarkProcessed(ctx context.Context, provider, providerEventID string, at time.Time, processingError string) error

	FindRecent(ctx context.Context, limit, offset int) ([]*entity.WebhookEvent, error)
}
