// FILE: internal/service/publisher_service.go
package service

import (
	"context"
	"encoding/json"
	"time"

	"vip-gatekeeper-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// IPublisherService puts lifecycle events on the in-process bus. The engine
// publishes fire-and-forget: a slow or broken notifier must never block a
// state transition.
type IPublisherService interface {
	PublishEvent(ctx context.Context, event events.Event) error
}

type publisherService struct {
	topicName string
	publisher message.Publisher
}

func NewPublisherService(topicName string, publisher message.Publisher) IPublisherService {
	return &publisherService{
		topicName: topicName,
		publisher: publisher,
	}
}

type eventEnvelope struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func (s *publisherService) PublishEvent(_ context.Context, event events.Event) error {
	payload, err := json.Marshal(eventEnvelope{
		Type:       event.EventType(),
		Data:       event.Payload(),
		OccurredAt: event.Timestamp(),
	})
	if err != nil {
		return err
	}

	msg := message.NewMessage(uuid.New().String(), payload)
	return s.publisher.Publish(s.topicName, msg)
}
