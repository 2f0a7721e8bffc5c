// FILE: internal/entity/subscription_entity_test.go
package entity

import (
	"testing"
	"time"
)

func TestAcceptsCompletion(t *testing.T) {
	closedAt := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		state      SubscriptionState
		storedRef  string
		paymentRef string
		occurredAt time.Time
		want       bool
	}{
		{
			name:       "active always accepts",
			state:      SubscriptionStateActive,
			storedRef:  "order-1",
			paymentRef: "order-1",
			occurredAt: closedAt.Add(-time.Hour),
			want:       true,
		},
		{
			name:       "pending always accepts",
			state:      SubscriptionStatePending,
			storedRef:  "order-1",
			paymentRef: "order-2",
			occurredAt: closedAt,
			want:       true,
		},
		{
			name:       "expired rejects same ref",
			state:      SubscriptionStateExpired,
			storedRef:  "order-1",
			paymentRef: "order-1",
			occurredAt: closedAt.Add(time.Hour),
			want:       false,
		},
		{
			name:       "expired rejects empty ref",
			state:      SubscriptionStateExpired,
			storedRef:  "order-1",
			paymentRef: "",
			occurredAt: closedAt.Add(time.Hour),
			want:       false,
		},
		{
			name:       "expired rejects new ref that predates closing",
			state:      SubscriptionStateExpired,
			storedRef:  "order-1",
			paymentRef: "order-2",
			occurredAt: closedAt.Add(-time.Hour),
			want:       false,
		},
		{
			name:       "expired accepts genuinely new payment",
			state:      SubscriptionStateExpired,
			storedRef:  "order-1",
			paymentRef: "order-2",
			occurredAt: closedAt.Add(time.Hour),
			want:       true,
		},
		{
			name:       "cancelled accepts genuinely new payment",
			state:      SubscriptionStateCancelled,
			storedRef:  "order-1",
			paymentRef: "order-2",
			occurredAt: closedAt,
			want:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &Subscription{
				State:              tt.state,
				ExternalPaymentRef: tt.storedRef,
				UpdatedAt:          closedAt,
			}
			if got := sub.AcceptsCompletion(tt.paymentRef, tt.occurredAt); got != tt.want {
				t.Errorf("AcceptsCompletion(%q, %v) = %v, want %v", tt.paymentRef, tt.occurredAt, got, tt.want)
			}
		})
	}
}

func TestDesiredMembership(t *testing.T) {
	tests := []struct {
		state SubscriptionState
		want  MembershipAction
	}{
		{SubscriptionStateActive, MembershipGrant},
		{SubscriptionStatePending, MembershipRevoke},
		{SubscriptionStateExpired, MembershipRevoke},
		{SubscriptionStateCancelled, MembershipRevoke},
		{SubscriptionStateNone, MembershipRevoke},
	}

	for _, tt := range tests {
		sub := &Subscription{State: tt.state}
		if got := sub.DesiredMembership(); got != tt.want {
			t.Errorf("DesiredMembership() for %s = %s, want %s", tt.state, got, tt.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	terminal := map[SubscriptionState]bool{
		SubscriptionStateNone:      false,
		SubscriptionStatePending:   false,
		SubscriptionStateActive:    false,
		SubscriptionStateExpired:   true,
		SubscriptionStateCancelled: true,
	}

	for state, want := range terminal {
		sub := &Subscription{State: state}
		if got := sub.IsTerminal(); got != want {
			t.Errorf("IsTerminal() for %s = %v, want %v", state, got, want)
		}
	}
}
