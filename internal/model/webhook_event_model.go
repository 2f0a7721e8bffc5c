// FILE: internal/model/webhook_event_model.go
package model

import (
	"time"

	"github.com/google/uuid"
)

type WebhookEvent struct {
	Id              uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Provider        string     `gorm:"type:varchar(20);not null;index:ux_webhook_events_provider_event,unique,priority:1"`
	ProviderEventId string     `gorm:"type:varchar(191);not null;default:'';index:ux_webhook_events_provider_event,unique,priority:2"`
	EventType       string     `gorm:"type:varchar(100);not null;index"`
	PayloadJson     string     `gorm:"type:text;not null"`
	SignatureValid  bool       `gorm:"not null;default:false;index"`
	ProcessedAt     *time.Time `gorm:"default:null"`
	ProcessingError string     `gorm:"type:text"`
	CreatedAt       time.Time  `gorm:"autoCreateTime;index"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}
