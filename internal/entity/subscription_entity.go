// FILE: internal/entity/subscription_entity.go
package entity

import (
	"time"
)

type SubscriptionState string

const (
	SubscriptionStateNone      SubscriptionState = "none"
	SubscriptionStatePending   SubscriptionState = "pending"
	SubscriptionStateActive    SubscriptionState = "active"
	SubscriptionStateExpired   SubscriptionState = "expired"
	SubscriptionStateCancelled SubscriptionState = "cancelled"
)

// Subscription is the single source-of-truth record for one user's paid
// access. One record per user: a new payment cycle updates the existing
// record, it never creates a second. Terminal records (expired, cancelled)
// are kept so stale provider replays can be rejected.
type Subscription struct {
	UserID             string
	State              SubscriptionState
	ExternalPaymentRef string
	ExpiresAt          time.Time
	LastEventID        string
	// GroupMembershipSynced reports whether the last successful group action
	// matches State. While false, a compensating grant/revoke is owed.
	GroupMembershipSynced bool
	// MembershipSyncError holds the reason a compensation was abandoned as
	// permanent (bot blocked, chat gone). Nil while retries are still useful.
	MembershipSyncError *string
	Version             int64
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// IsTerminal reports whether the record has left the paying lifecycle.
// Terminal records only come back via a completion with a new payment ref.
func (s *Subscription) IsTerminal() bool {
	return s.State == SubscriptionStateExpired || s.State == SubscriptionStateCancelled
}

// DesiredMembership is the group action State implies: active subscribers
// belong in the group, everyone else does not.
func (s *Subscription) DesiredMembership() MembershipAction {
	if s.State == SubscriptionStateActive {
		return MembershipGrant
	}
	return MembershipRevoke
}

// AcceptsCompletion decides whether a PAYMENT_COMPLETED event may touch this
// record. A terminal record ignores completions that reference the payment
// cycle it already closed, or that predate its last mutation; a completion
// carrying a genuinely new payment ref starts a new cycle.
func (s *Subscription) AcceptsCompletion(paymentRef string, occurredAt time.Time) bool {
	if !s.IsTerminal() {
		return true
	}
	if paymentRef == "" || paymentRef == s.ExternalPaymentRef {
		return false
	}
	return !occurredAt.Before(s.UpdatedAt)
}

type MembershipAction string

const (
	MembershipGrant  MembershipAction = "grant"
	MembershipRevoke MembershipAction = "revoke"
)
