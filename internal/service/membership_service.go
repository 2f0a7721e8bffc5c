// FILE: internal/service/membership_service.go
package service

import (
	"context"
	"time"

	"vip-gatekeeper-be/internal/pkg/logger"
	"vip-gatekeeper-be/pkg/telegram"

	"github.com/cenkalti/backoff/v5"
)

// MembershipRetryPolicy bounds how hard a single grant/revoke call tries
// before giving up and leaving the record unsynced for the sweep.
type MembershipRetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	CallTimeout time.Duration
}

// IMembershipService is the engine's view of group membership: idempotent
// grant/revoke with bounded retry on transient platform failures. Permanent
// failures come back immediately, unwrapped, so callers can surface them.
type IMembershipService interface {
	Grant(ctx context.Context, userID string) error
	Revoke(ctx context.Context, userID string) error
}

type membershipService struct {
	gateway telegram.GroupGateway
	policy  MembershipRetryPolicy
	log     logger.ILogger
}

func NewMembershipService(gateway telegram.GroupGateway, policy MembershipRetryPolicy, log logger.ILogger) IMembershipService {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 5
	}
	if policy.BaseDelay <= 0 {
		policy.BaseDelay = 500 * time.Millisecond
	}
	if policy.CallTimeout <= 0 {
		policy.CallTimeout = 15 * time.Second
	}
	return &membershipService{gateway: gateway, policy: policy, log: log}
}

func (s *membershipService) Grant(ctx context.Context, userID string) error {
	return s.withRetry(ctx, "grant", userID, s.gateway.Grant)
}

func (s *membershipService) Revoke(ctx context.Context, userID string) error {
	return s.withRetry(ctx, "revoke", userID, s.gateway.Revoke)
}

func (s *membershipService) withRetry(ctx context.Context, op, userID string, fn func(context.Context, string) error) error {
	attempt := 0
	operation := func() (struct{}, error) {
		attempt++
		callCtx, cancel := context.WithTimeout(ctx, s.policy.CallTimeout)
		defer cancel()

		err := fn(callCtx, userID)
		if err == nil {
			return struct{}{}, nil
		}
		if telegram.IsPermanent(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		s.log.Warn("membership", "transient failure, will retry", map[string]interface{}{
			"op":      op,
			"user_id": userID,
			"attempt": attempt,
			"error":   err.Error(),
		})
		return struct{}{}, err
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = s.policy.BaseDelay

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(uint(s.policy.MaxAttempts)),
	)
	return err
}
