// FILE: internal/mapper/webhook_event_mapper.go
package mapper

import (
	"vip-gatekeeper-be/internal/entity"
	"vip-gatekeeper-be/internal/model"
)

type WebhookEventMapper struct{}

func NewWebhookEventMapper() *WebhookEventMapper {
	return &WebhookEventMapper{}
}

func (m *WebhookEventMapper) ToEntity(e *model.WebhookEvent) *entity.WebhookEvent {
	if e == nil {
		return nil
	}
	return &entity.WebhookEvent{
		Id:              e.Id,
		Provider:        e.Provider,
		ProviderEventID: e.ProviderEventId,
		EventType:       e.EventType,
		PayloadJSON:     e.PayloadJson,
		SignatureValid:  e.SignatureValid,
		ProcessedAt:     e.ProcessedAt,
		ProcessingError: e.ProcessingError,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

func (m *WebhookEventMapper) ToModel(e *entity.WebhookEvent) *model.WebhookEvent {
	if e == nil {
		return nil
	}
	return &model.WebhookEvent{
		Id:              e.Id,
		Provider:        e.Provider,
		ProviderEventId: e.ProviderEventID,
		EventType:       e.EventType,
		PayloadJson:     e.PayloadJSON,
		SignatureValid:  e.SignatureValid,
		ProcessedAt:     e.ProcessedAt,
		ProcessingError: e.ProcessingError,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}
