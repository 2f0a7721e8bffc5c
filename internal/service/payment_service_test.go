// FILE: internal/service/payment_service_test.go
package service

import (
	"context"
	"testing"
	"time"

	"vip-gatekeeper-be/internal/config"
	"vip-gatekeeper-be/internal/entity"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newCheckoutRecorder builds a paymentService around the fixture's store,
// skipping the snap client so recordPendingCheckout can be exercised
// without the gateway.
func newCheckoutRecorder(f *engineFixture) *paymentService {
	return &paymentService{
		uowFactory:  f.factory,
		statusCache: cache.New(statusCacheTTL, 2*statusCacheTTL),
		cfg: &config.Config{
			Retry: config.RetryConfig{StoreConflictRetries: 3},
		},
		log: nopLogger{},
	}
}

func TestRecordPendingCheckout_CreatesSyncedPendingRecord(t *testing.T) {
	f := newEngineFixture()
	ps := newCheckoutRecorder(f)

	require.NoError(t, ps.recordPendingCheckout(context.Background(), "1001", "order-1"))

	sub := f.mustFind(t, "1001")
	assert.Equal(t, entity.SubscriptionStatePending, sub.State)
	assert.Equal(t, "order-1", sub.ExternalPaymentRef)
	assert.True(t, sub.GroupMembershipSynced, "a never-granted user owes no group action")
}

func TestRecordPendingCheckout_DoesNotDowngradeActive(t *testing.T) {
	f := newEngineFixture()
	ps := newCheckoutRecorder(f)

	_, err := f.engine.ApplyEvent(context.Background(), completedEvent("1001", "tx-1:settlement", "order-1", time.Now().UTC()))
	require.NoError(t, err)

	require.NoError(t, ps.recordPendingCheckout(context.Background(), "1001", "order-2"))

	sub := f.mustFind(t, "1001")
	assert.Equal(t, entity.SubscriptionStateActive, sub.State)
	assert.Equal(t, "order-1", sub.ExternalPaymentRef, "renewal checkout must not touch the live cycle")
}

func TestRecordPendingCheckout_PreservesOwedRevoke(t *testing.T) {
	f := newEngineFixture()
	ps := newCheckoutRecorder(f)

	// User was granted, then expired while the platform was down, so the
	// revoke is still owed.
	paidAt := time.Now().UTC().Add(-40 * 24 * time.Hour)
	_, err := f.engine.ApplyEvent(context.Background(), completedEvent("1001", "tx-1:settlement", "order-1", paidAt))
	require.NoError(t, err)

	f.membership.revokeErr = transientFailure()
	report, err := f.engine.RunSweep(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, 1, report.Processed, "the expiry itself lands even though the revoke did not")
	require.False(t, f.mustFind(t, "1001").GroupMembershipSynced)

	// User starts a new checkout before the compensation lands.
	require.NoError(t, ps.recordPendingCheckout(context.Background(), "1001", "order-2"))

	sub := f.mustFind(t, "1001")
	assert.Equal(t, entity.SubscriptionStatePending, sub.State)
	assert.Equal(t, "order-2", sub.ExternalPaymentRef)
	assert.False(t, sub.GroupMembershipSynced, "checkout must not erase the owed revoke")

	// Platform recovered: the next sweep still performs the revoke.
	f.membership.revokeErr = nil
	report, err = f.engine.RunSweep(context.Background(), time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)

	sub = f.mustFind(t, "1001")
	assert.True(t, sub.GroupMembershipSynced)
	assert.Equal(t, 2, f.membership.revokeCount())
}
