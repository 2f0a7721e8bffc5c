// FILE: internal/service/membership_service_test.go
package service

import (
	"context"
	"testing"
	"time"

	"vip-gatekeeper-be/pkg/telegram"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedGateway returns the queued errors in order, then succeeds.
type scriptedGateway struct {
	grantErrs   []error
	revokeErrs  []error
	grantCalls  int
	revokeCalls int
}

func (g *scriptedGateway) Grant(_ context.Context, _ string) error {
	g.grantCalls++
	if len(g.grantErrs) > 0 {
		err := g.grantErrs[0]
		g.grantErrs = g.grantErrs[1:]
		return err
	}
	return nil
}

func (g *scriptedGateway) Revoke(_ context.Context, _ string) error {
	g.revokeCalls++
	if len(g.revokeErrs) > 0 {
		err := g.revokeErrs[0]
		g.revokeErrs = g.revokeErrs[1:]
		return err
	}
	return nil
}

func (g *scriptedGateway) Notify(_ context.Context, _ string, _ string) error {
	return nil
}

func fastPolicy(maxAttempts int) MembershipRetryPolicy {
	return MembershipRetryPolicy{
		MaxAttempts: maxAttempts,
		BaseDelay:   time.Millisecond,
		CallTimeout: time.Second,
	}
}

func TestMembership_RetriesTransientThenSucceeds(t *testing.T) {
	gw := &scriptedGateway{
		grantErrs: []error{transientFailure(), transientFailure()},
	}
	svc := NewMembershipService(gw, fastPolicy(5), nopLogger{})

	err := svc.Grant(context.Background(), "1001")
	require.NoError(t, err)
	assert.Equal(t, 3, gw.grantCalls)
}

func TestMembership_GivesUpAfterMaxAttempts(t *testing.T) {
	gw := &scriptedGateway{
		grantErrs: []error{
			transientFailure(), transientFailure(), transientFailure(),
			transientFailure(), transientFailure(), transientFailure(),
		},
	}
	svc := NewMembershipService(gw, fastPolicy(3), nopLogger{})

	err := svc.Grant(context.Background(), "1001")
	require.Error(t, err)
	assert.False(t, telegram.IsPermanent(err))
	assert.Equal(t, 3, gw.grantCalls)
}

func TestMembership_PermanentFailureStopsImmediately(t *testing.T) {
	gw := &scriptedGateway{
		revokeErrs: []error{permanentFailure()},
	}
	svc := NewMembershipService(gw, fastPolicy(5), nopLogger{})

	err := svc.Revoke(context.Background(), "1001")
	require.Error(t, err)
	assert.True(t, telegram.IsPermanent(err))
	assert.Equal(t, 1, gw.revokeCalls, "permanent failures must not burn retries")
}

func TestMembership_CancelledContextStopsRetrying(t *testing.T) {
	gw := &scriptedGateway{
		grantErrs: []error{transientFailure(), transientFailure(), transientFailure()},
	}
	svc := NewMembershipService(gw, MembershipRetryPolicy{
		MaxAttempts: 10,
		BaseDelay:   50 * time.Millisecond,
		CallTimeout: time.Second,
	}, nopLogger{})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := svc.Grant(ctx, "1001")
	require.Error(t, err)
	assert.Less(t, gw.grantCalls, 10)
}
