// FILE: internal/entity/payment_event_entity.go
package entity

import "time"

type PaymentEventKind string

const (
	PaymentCompleted PaymentEventKind = "PAYMENT_COMPLETED"
	PaymentFailed    PaymentEventKind = "PAYMENT_FAILED"
)

// PaymentEvent is the normalized form of a provider notification. Only the
// normalizer produces these; the engine never sees raw gateway payloads.
type PaymentEvent struct {
	// EventID is stable across provider redeliveries of the same
	// notification and drives the idempotency guard.
	EventID    string
	UserID     string
	Kind       PaymentEventKind
	PaymentRef string
	OccurredAt time.Time
	Payload    map[string]interface{}
}
