// FILE: internal/service/notifier_service.go
package service

import (
	"context"
	"encoding/json"
	"fmt"

	"vip-gatekeeper-be/internal/pkg/logger"
	"vip-gatekeeper-be/pkg/events"
	natspub "vip-gatekeeper-be/pkg/nats"
	"vip-gatekeeper-be/pkg/telegram"

	"github.com/ThreeDotsLabs/watermill/message"
)

// INotifierService drains the in-process lifecycle bus: it DMs the affected
// user where the lifecycle calls for it and mirrors every event onto NATS
// for external consumers. It runs beside the engine, never inside it.
type INotifierService interface {
	Start(ctx context.Context) error
}

type notifierService struct {
	topicName  string
	subscriber message.Subscriber
	gateway    telegram.GroupGateway
	bus        *natspub.Publisher
	log        logger.ILogger
}

func NewNotifierService(
	topicName string,
	subscriber message.Subscriber,
	gateway telegram.GroupGateway,
	bus *natspub.Publisher,
	log logger.ILogger,
) INotifierService {
	return &notifierService{
		topicName:  topicName,
		subscriber: subscriber,
		gateway:    gateway,
		bus:        bus,
		log:        log,
	}
}

func (s *notifierService) Start(ctx context.Context) error {
	messages, err := s.subscriber.Subscribe(ctx, s.topicName)
	if err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", s.topicName, err)
	}

	go func() {
		for msg := range messages {
			s.handle(ctx, msg)
			msg.Ack()
		}
	}()

	s.log.Info("notifier", "lifecycle consumer started", map[string]interface{}{
		"topic": s.topicName,
	})
	return nil
}

func (s *notifierService) handle(ctx context.Context, msg *message.Message) {
	var envelope eventEnvelope
	if err := json.Unmarshal(msg.Payload, &envelope); err != nil {
		s.log.Error("notifier", "dropping malformed lifecycle event", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		return
	}

	if s.bus != nil {
		evt := events.BaseEvent{
			Type:       envelope.Type,
			Data:       envelope.Data,
			OccurredAt: envelope.OccurredAt,
		}
		if err := s.bus.Publish(ctx, evt); err != nil {
			s.log.Warn("notifier", "failed to mirror event to NATS", map[string]interface{}{
				"type":  envelope.Type,
				"error": err.Error(),
			})
		}
	}

	text := messageFor(envelope)
	if text == "" {
		return
	}
	userID, _ := envelope.Data["user_id"].(string)
	if userID == "" {
		return
	}

	if err := s.gateway.Notify(ctx, userID, text); err != nil {
		// DMs are best effort; group membership already converged.
		s.log.Warn("notifier", "failed to notify user", map[string]interface{}{
			"user_id": userID,
			"type":    envelope.Type,
			"error":   err.Error(),
		})
	}
}

// messageFor maps a lifecycle event to the DM text the user receives.
// Activation has no entry here: the grant flow already delivers the invite
// link, and a second message would be noise.
func messageFor(envelope eventEnvelope) string {
	switch envelope.Type {
	case events.TypeSubscriptionRenewed:
		return "✅ Your VIP subscription has been renewed. Thanks for staying with us!"
	case events.TypeSubscriptionExpired:
		return "⌛ Your VIP subscription has expired and group access was removed. Renew any time to come back!"
	case events.TypeSubscriptionCancelled:
		return "❌ Your payment did not go through, so the subscription was cancelled. You can start a new checkout whenever you like."
	default:
		return ""
	}
}
