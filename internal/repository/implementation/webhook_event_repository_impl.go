// FILE: internal/repository/implementation/webhook_event_repository_impl.go
package implementation

import (
	"context"
	"errors"
	"time"

	"vip-gatekeeper-be/internal/entity"
	"vip-gatekeeper-be/internal/mapper"
	"vip-gatekeeper-be/internal/model"
	"vip-gatekeeper-be/internal/repository/contract"
	"vip-gatekeeper-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type WebhookEventRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.WebhookEventMapper
}

func NewWebhookEventRepository(db *gorm.DB) contract.WebhookEventRepository {
	return &WebhookEventRepositoryImpl{
		db:     db,
		mapper: mapper.NewWebhookEventMapper(),
	}
}

func (r *WebhookEventRepositoryImpl) Record(ctx context.Context, event *entity.WebhookEvent) (bool, error) {
	if event.Id == uuid.Nil {
		event.Id = uuid.New()
	}
	m := r.mapper.ToModel(event)
	err := r.db.WithContext(ctx).Create(m).Error
	if err == nil {
		*event = *r.mapper.ToEntity(m)
		return false, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return false, err
	}

	// Provider redelivery. Hand back the stored row.
	var existing model.WebhookEvent
	findErr := r.db.WithContext(ctx).
		Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&existing).Error
	if findErr != nil {
		return false, findErr
	}
	*event = *r.mapper.ToEntity(&existing)
	return true, nil
}

func (r *WebhookEventRepositoryImpl) MarkProcessed(ctx context.Context, provider, providerEventID string, at time.Time, processingError string) error {
	return r.db.WithContext(ctx).Model(&model.WebhookEvent{}).
		Where("provider = ? AND provider_event_id = ?", provider, providerEventID).
		Updates(map[string]interface{}{
			"processed_at":     at,
			"processing_error": processingError,
		}).Error
}

func (r *WebhookEventRepositoryImpl) FindRecent(ctx context.Context, limit, offset int) ([]*entity.WebhookEvent, error) {
	var models []*model.WebhookEvent
	query := r.db.WithContext(ctx)
	for _, spec := range []specification.Specification{
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: offset},
	} {
		query = spec.Apply(query)
	}
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.WebhookEvent, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}
