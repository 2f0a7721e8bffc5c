// FILE: pkg/events/event.go
package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "SUBSCRIPTION_EXPIRED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Lifecycle event codes emitted by the reconciliation engine.
const (
	TypeSubscriptionActivated   = "SUBSCRIPTION_ACTIVATED"
	TypeSubscriptionRenewed     = "SUBSCRIPTION_RENEWED"
	TypeSubscriptionExpired     = "SUBSCRIPTION_EXPIRED"
	TypeSubscriptionCancelled   = "SUBSCRIPTION_CANCELLED"
	TypeMembershipSyncFailed    = "MEMBERSHIP_SYNC_FAILED"
	TypeSubscriptionCheckoutNew = "SUBSCRIPTION_CHECKOUT_CREATED"
)

// BaseEvent is the plain implementation the services publish.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}
