// FILE: internal/repository/memory/webhook_event_repository.go
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"vip-gatekeeper-be/internal/entity"

	"github.com/google/uuid"
)

type WebhookEventRepository struct {
	mu   sync.Mutex
	rows map[string]entity.WebhookEvent // keyed by provider + "/" + event id
}

func NewWebhookEventRepository() *WebhookEventRepository {
	return &WebhookEventRepository{
		rows: make(map[string]entity.WebhookEvent),
	}
}

func (r *WebhookEventRepository) key(provider, eventID string) string {
	return provider + "/" + eventID
}

func (r *WebhookEventRepository) Record(_ context.Context, event *entity.WebhookEvent) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := r.key(event.Provider, event.ProviderEventID)
	if existing, ok := r.rows[k]; ok {
		*event = existing
		return true, nil
	}
	if event.Id == uuid.Nil {
		event.Id = uuid.New()
	}
	event.CreatedAt = time.Now().UTC()
	event.UpdatedAt = event.CreatedAt
	r.rows[k] = *event
	return false, nil
}

func (r *WebhookEventRepository) MarkProcessed(_ context.Context, provider, providerEventID string, at time.Time, processingError string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := r.key(provider, providerEventID)
	row, ok := r.rows[k]
	if !ok {
		return nil
	}
	processed := at
	row.ProcessedAt = &processed
	row.ProcessingError = processingError
	row.UpdatedAt = time.Now().UTC()
	r.rows[k] = row
	return nil
}

func (r *WebhookEventRepository) FindRecent(_ context.Context, limit, offset int) ([]*entity.WebhookEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.WebhookEvent, 0, len(r.rows))
	for k := range r.rows {
		row := r.rows[k]
		out = append(out, &row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
