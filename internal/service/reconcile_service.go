// FILE: internal/service/reconcile_service.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"vip-gatekeeper-be/internal/dto"
	"vip-gatekeeper-be/internal/entity"
	"vip-gatekeeper-be/internal/pkg/logger"
	"vip-gatekeeper-be/internal/repository/contract"
	"vip-gatekeeper-be/internal/repository/unitofwork"
	"vip-gatekeeper-be/pkg/events"
	"vip-gatekeeper-be/pkg/telegram"
)

type NotificationOutcome string

const (
	NotificationAccepted          NotificationOutcome = "accepted"
	NotificationRejectedSignature NotificationOutcome = "rejected_signature"
	NotificationRejectedMalformed NotificationOutcome = "rejected_malformed"
)

type ApplyOutcome string

const (
	ApplyTransitioned ApplyOutcome = "transitioned"
	ApplyDuplicate    ApplyOutcome = "duplicate"
	ApplyStale        ApplyOutcome = "stale"
	ApplyNoop         ApplyOutcome = "noop"
)

type SweepReport struct {
	Processed int
	Failed    int
}

// IReconcileService keeps the payment gateway, the subscription store and
// the group membership converging on one view of who has paid access. All
// writes go through the store's versioned put; a conflict means another
// actor won the race, so we re-read and recompute against what prevailed.
type IReconcileService interface {
	// HandlePaymentNotification verifies and applies one inbound gateway
	// notification. A non-nil error means a transient downstream failure:
	// the transport should answer 5xx so the gateway redelivers.
	HandlePaymentNotification(ctx context.Context, req *dto.MidtransWebhookRequest, now time.Time) (NotificationOutcome, error)

	// ApplyEvent runs the event-path state machine for one normalized event.
	ApplyEvent(ctx context.Context, ev *entity.PaymentEvent) (ApplyOutcome, error)

	// RunSweep expires overdue ACTIVE records and retries owed membership
	// actions. It is driven by an external timer; the engine itself never
	// consults the wall clock.
	RunSweep(ctx context.Context, now time.Time) (*SweepReport, error)

	// Stats reports how many records sit in each lifecycle state.
	Stats(ctx context.Context) (map[string]int64, error)

	// RecentWebhookEvents pages through the inbound notification audit
	// trail, newest first.
	RecentWebhookEvents(ctx context.Context, limit, offset int) ([]*entity.WebhookEvent, error)
}

type reconcileService struct {
	uowFactory      unitofwork.RepositoryFactory
	normalizer      INotificationNormalizer
	membership      IMembershipService
	publisher       IPublisherService
	log             logger.ILogger
	period          time.Duration
	sweepBatch      int
	conflictRetries int
}

func NewReconcileService(
	uowFactory unitofwork.RepositoryFactory,
	normalizer INotificationNormalizer,
	membership IMembershipService,
	publisher IPublisherService,
	log logger.ILogger,
	period time.Duration,
	sweepBatch int,
	conflictRetries int,
) IReconcileService {
	if sweepBatch <= 0 {
		sweepBatch = 200
	}
	if conflictRetries <= 0 {
		conflictRetries = 3
	}
	return &reconcileService{
		uowFactory:      uowFactory,
		normalizer:      normalizer,
		membership:      membership,
		publisher:       publisher,
		log:             log,
		period:          period,
		sweepBatch:      sweepBatch,
		conflictRetries: conflictRetries,
	}
}

// --- Event path ---

func (s *reconcileService) HandlePaymentNotification(ctx context.Context, req *dto.MidtransWebhookRequest, now time.Time) (NotificationOutcome, error) {
	ev, nerr := s.normalizer.Normalize(req, now)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	auditRepo := uow.WebhookEventRepository()

	payloadJSON, _ := json.Marshal(req)
	audit := &entity.WebhookEvent{
		Provider:        "midtrans",
		ProviderEventID: providerEventID(req),
		EventType:       req.TransactionStatus,
		PayloadJSON:     string(payloadJSON),
		SignatureValid:  !errors.Is(nerr, ErrInvalidSignature),
	}

	if errors.Is(nerr, ErrInvalidSignature) {
		audit.ProcessingError = nerr.Error()
		if _, err := auditRepo.Record(ctx, audit); err != nil {
			s.log.Error("reconcile", "failed to record rejected webhook", map[string]interface{}{"error": err.Error()})
		}
		s.log.Warn("reconcile", "webhook rejected: bad signature", map[string]interface{}{
			"order_id": req.OrderId,
		})
		return NotificationRejectedSignature, nil
	}

	duplicate, err := auditRepo.Record(ctx, audit)
	if err != nil {
		return "", err
	}
	if duplicate && audit.ProcessedAt != nil && audit.ProcessingError == "" {
		// Gateway redelivery of a notification we already finished.
		s.log.Info("reconcile", "webhook replay acknowledged", map[string]interface{}{
			"provider_event_id": audit.ProviderEventID,
		})
		return NotificationAccepted, nil
	}

	if errors.Is(nerr, ErrUnresolvableUser) {
		if err := auditRepo.MarkProcessed(ctx, audit.Provider, audit.ProviderEventID, now, nerr.Error()); err != nil {
			s.log.Error("reconcile", "failed to mark malformed webhook", map[string]interface{}{"error": err.Error()})
		}
		s.log.Error("reconcile", "webhook rejected: authenticated but uncorrelatable", map[string]interface{}{
			"order_id":           req.OrderId,
			"transaction_status": req.TransactionStatus,
		})
		return NotificationRejectedMalformed, nil
	}
	if nerr != nil {
		return "", nerr
	}

	if ev == nil {
		// Genuine but non-actionable (pending etc.).
		if err := auditRepo.MarkProcessed(ctx, audit.Provider, audit.ProviderEventID, now, ""); err != nil {
			return "", err
		}
		return NotificationAccepted, nil
	}

	outcome, err := s.ApplyEvent(ctx, ev)
	if err != nil {
		// Leave the audit row unprocessed; redelivery will retry.
		return "", err
	}

	if err := auditRepo.MarkProcessed(ctx, audit.Provider, audit.ProviderEventID, now, ""); err != nil {
		s.log.Error("reconcile", "failed to mark webhook processed", map[string]interface{}{"error": err.Error()})
	}

	s.log.Info("reconcile", "webhook applied", map[string]interface{}{
		"user_id":  ev.UserID,
		"kind":     string(ev.Kind),
		"event_id": ev.EventID,
		"outcome":  string(outcome),
	})
	return NotificationAccepted, nil
}

func providerEventID(req *dto.MidtransWebhookRequest) string {
	key := req.TransactionId
	if key == "" {
		key = req.OrderId
	}
	return key + ":" + req.TransactionStatus
}

func (s *reconcileService) ApplyEvent(ctx context.Context, ev *entity.PaymentEvent) (ApplyOutcome, error) {
	for attempt := 0; attempt <= s.conflictRetries; attempt++ {
		uow := s.uowFactory.NewUnitOfWork(ctx)
		repo := uow.SubscriptionRepository()

		sub, err := repo.FindByUserID(ctx, ev.UserID)
		if err != nil {
			return "", err
		}

		next, outcome := s.decide(sub, ev)
		if next == nil {
			if outcome == ApplyStale {
				s.log.Warn("reconcile", "stale event discarded", map[string]interface{}{
					"user_id":     ev.UserID,
					"event_id":    ev.EventID,
					"payment_ref": ev.PaymentRef,
					"state":       string(sub.State),
				})
			}
			return outcome, nil
		}

		if sub == nil {
			err = repo.Create(ctx, next)
		} else {
			err = repo.Update(ctx, next)
		}
		if errors.Is(err, contract.ErrConflict) {
			// Lost the race against the sweep or another delivery.
			// Re-read and recompute against the prevailing record.
			continue
		}
		if err != nil {
			return "", err
		}

		s.publishTransition(ctx, sub, next, ev.EventID)
		s.syncMembership(ctx, repo, next)
		return ApplyTransitioned, nil
	}
	return "", contract.ErrConflict
}

// decide computes the successor record for an event, or nil when the event
// must not produce effects. Pure function of (current record, event).
func (s *reconcileService) decide(sub *entity.Subscription, ev *entity.PaymentEvent) (*entity.Subscription, ApplyOutcome) {
	if sub != nil && sub.LastEventID == ev.EventID {
		return nil, ApplyDuplicate
	}

	switch ev.Kind {
	case entity.PaymentCompleted:
		if sub != nil && !sub.AcceptsCompletion(ev.PaymentRef, ev.OccurredAt) {
			return nil, ApplyStale
		}
		next := successor(sub, ev)
		next.State = entity.SubscriptionStateActive
		if sub != nil && sub.State == entity.SubscriptionStateActive && ev.PaymentRef == sub.ExternalPaymentRef {
			// Second confirmation of the cycle already paid for (the
			// gateway sends capture and settlement for one card payment).
			// Record the event id and let the grant re-run, but the
			// customer bought one period, not two.
			next.ExpiresAt = sub.ExpiresAt
			return next, ApplyTransitioned
		}
		next.ExpiresAt = completionExpiry(sub, ev, s.period)
		next.ExternalPaymentRef = ev.PaymentRef
		return next, ApplyTransitioned

	case entity.PaymentFailed:
		if sub != nil && sub.IsTerminal() {
			// Already out of the group; nothing left to fail.
			return nil, ApplyNoop
		}
		if sub != nil && ev.PaymentRef != "" && ev.PaymentRef != sub.ExternalPaymentRef && ev.OccurredAt.Before(sub.UpdatedAt) {
			// Failure of a payment cycle the record has since moved past.
			return nil, ApplyStale
		}
		next := successor(sub, ev)
		if sub != nil && sub.State == entity.SubscriptionStateActive {
			// Renewal failure on a live subscription.
			next.State = entity.SubscriptionStateExpired
		} else {
			// Failure before first activation.
			next.State = entity.SubscriptionStateCancelled
		}
		if ev.PaymentRef != "" {
			next.ExternalPaymentRef = ev.PaymentRef
		}
		return next, ApplyTransitioned

	default:
		return nil, ApplyNoop
	}
}

func successor(sub *entity.Subscription, ev *entity.PaymentEvent) *entity.Subscription {
	var next entity.Subscription
	if sub != nil {
		next = *sub
	} else {
		next.UserID = ev.UserID
	}
	next.LastEventID = ev.EventID
	next.GroupMembershipSynced = false
	next.MembershipSyncError = nil
	return &next
}

// completionExpiry extends a still-running subscription from its current
// expiry (a renewal buys a full extra period) and restarts everything else
// from the payment time.
func completionExpiry(sub *entity.Subscription, ev *entity.PaymentEvent, period time.Duration) time.Time {
	base := ev.OccurredAt
	if sub != nil && sub.State == entity.SubscriptionStateActive && sub.ExpiresAt.After(base) {
		base = sub.ExpiresAt
	}
	return base.Add(period)
}

// --- Sweep path ---

func (s *reconcileService) RunSweep(ctx context.Context, now time.Time) (*SweepReport, error) {
	report := &SweepReport{}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.SubscriptionRepository()

	// Records already given a membership attempt this tick; the
	// compensation pass must not retry them a second time.
	attempted := make(map[string]struct{})

	// Phase 1: time-based expiry. The scan returns every ACTIVE record;
	// the cutoff comparison lives here, not in the store.
	cursor := ""
	for {
		batch, err := repo.FindActiveBatch(ctx, cursor, s.sweepBatch)
		if err != nil {
			return report, err
		}
		if len(batch) == 0 {
			break
		}
		for _, sub := range batch {
			cursor = sub.UserID
			if sub.ExpiresAt.After(now) {
				continue
			}
			attempted[sub.UserID] = struct{}{}
			if err := s.expireRecord(ctx, repo, sub, now); err != nil {
				report.Failed++
				s.log.Error("reconcile", "sweep failed to expire record", map[string]interface{}{
					"user_id": sub.UserID,
					"error":   err.Error(),
				})
				continue
			}
			report.Processed++
		}
		if len(batch) < s.sweepBatch {
			break
		}
	}

	// Phase 2: compensation for records still owing a grant/revoke.
	cursor = ""
	for {
		batch, err := repo.FindUnsyncedBatch(ctx, cursor, s.sweepBatch)
		if err != nil {
			return report, err
		}
		if len(batch) == 0 {
			break
		}
		for _, sub := range batch {
			cursor = sub.UserID
			if _, done := attempted[sub.UserID]; done {
				continue
			}
			if s.syncMembership(ctx, repo, sub) {
				report.Processed++
			} else {
				report.Failed++
			}
		}
		if len(batch) < s.sweepBatch {
			break
		}
	}

	s.log.Info("reconcile", "sweep finished", map[string]interface{}{
		"processed": report.Processed,
		"failed":    report.Failed,
	})
	return report, nil
}

func (s *reconcileService) expireRecord(ctx context.Context, repo contract.SubscriptionRepository, sub *entity.Subscription, now time.Time) error {
	for attempt := 0; attempt <= s.conflictRetries; attempt++ {
		next := *sub
		next.State = entity.SubscriptionStateExpired
		next.GroupMembershipSynced = false
		next.MembershipSyncError = nil

		err := repo.Update(ctx, &next)
		if errors.Is(err, contract.ErrConflict) {
			fresh, ferr := repo.FindByUserID(ctx, sub.UserID)
			if ferr != nil {
				return ferr
			}
			if fresh == nil || fresh.State != entity.SubscriptionStateActive || fresh.ExpiresAt.After(now) {
				// An event prevailed (renewal or failure); the sweep
				// observes the winning state and moves on.
				return nil
			}
			sub = fresh
			continue
		}
		if err != nil {
			return err
		}

		s.publishTransition(ctx, sub, &next, "")
		s.syncMembership(ctx, repo, &next)
		return nil
	}
	return contract.ErrConflict
}

func (s *reconcileService) Stats(ctx context.Context) (map[string]int64, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.SubscriptionRepository()

	out := make(map[string]int64)
	for _, state := range []entity.SubscriptionState{
		entity.SubscriptionStatePending,
		entity.SubscriptionStateActive,
		entity.SubscriptionStateExpired,
		entity.SubscriptionStateCancelled,
	} {
		n, err := repo.CountByState(ctx, state)
		if err != nil {
			return nil, err
		}
		out[string(state)] = n
	}
	return out, nil
}

func (s *reconcileService) RecentWebhookEvents(ctx context.Context, limit, offset int) ([]*entity.WebhookEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.WebhookEventRepository().FindRecent(ctx, limit, offset)
}

// --- Membership compensation ---

// syncMembership performs the group action sub.State implies and flips the
// synced flag on success. Returns false when the record is still unsynced.
func (s *reconcileService) syncMembership(ctx context.Context, repo contract.SubscriptionRepository, sub *entity.Subscription) bool {
	var err error
	action := sub.DesiredMembership()
	if action == entity.MembershipGrant {
		err = s.membership.Grant(ctx, sub.UserID)
	} else {
		err = s.membership.Revoke(ctx, sub.UserID)
	}

	if err == nil {
		s.finishSync(ctx, repo, sub, nil)
		return true
	}

	if telegram.IsPermanent(err) {
		reason := err.Error()
		s.finishSync(ctx, repo, sub, &reason)
		s.log.Error("reconcile", "membership action failed permanently", map[string]interface{}{
			"user_id": sub.UserID,
			"action":  string(action),
			"error":   reason,
		})
		s.publishEvent(ctx, events.TypeMembershipSyncFailed, map[string]interface{}{
			"user_id": sub.UserID,
			"action":  string(action),
			"reason":  reason,
		})
		return false
	}

	// Transient: the flag stays false and the next sweep retries.
	s.log.Warn("reconcile", "membership action left unsynced", map[string]interface{}{
		"user_id": sub.UserID,
		"action":  string(action),
		"error":   err.Error(),
	})
	return false
}

// finishSync records the outcome of a membership attempt. It only touches
// records that still look like the one the attempt was made for: if a
// concurrent transition changed the state, that transition owns the flag.
func (s *reconcileService) finishSync(ctx context.Context, repo contract.SubscriptionRepository, sub *entity.Subscription, permanentReason *string) {
	for attempt := 0; attempt <= s.conflictRetries; attempt++ {
		fresh, err := repo.FindByUserID(ctx, sub.UserID)
		if err != nil || fresh == nil {
			return
		}
		if fresh.State != sub.State || fresh.LastEventID != sub.LastEventID || fresh.GroupMembershipSynced {
			return
		}
		if permanentReason == nil {
			fresh.GroupMembershipSynced = true
			fresh.MembershipSyncError = nil
		} else {
			fresh.MembershipSyncError = permanentReason
		}
		err = repo.Update(ctx, fresh)
		if errors.Is(err, contract.ErrConflict) {
			continue
		}
		if err != nil {
			s.log.Error("reconcile", "failed to persist membership sync result", map[string]interface{}{
				"user_id": sub.UserID,
				"error":   err.Error(),
			})
		}
		return
	}
}

// --- Event fan-out ---

func (s *reconcileService) publishTransition(ctx context.Context, prev, next *entity.Subscription, eventID string) {
	var eventType string
	switch next.State {
	case entity.SubscriptionStateActive:
		if prev != nil && prev.State == entity.SubscriptionStateActive {
			if prev.ExpiresAt.Equal(next.ExpiresAt) {
				// Same-cycle confirmation, nothing changed for the user.
				return
			}
			eventType = events.TypeSubscriptionRenewed
		} else {
			eventType = events.TypeSubscriptionActivated
		}
	case entity.SubscriptionStateExpired:
		eventType = events.TypeSubscriptionExpired
	case entity.SubscriptionStateCancelled:
		eventType = events.TypeSubscriptionCancelled
	default:
		return
	}

	data := map[string]interface{}{
		"user_id":     next.UserID,
		"state":       string(next.State),
		"payment_ref": next.ExternalPaymentRef,
		"expires_at":  next.ExpiresAt,
	}
	if eventID != "" {
		data["event_id"] = eventID
	}
	s.publishEvent(ctx, eventType, data)
}

func (s *reconcileService) publishEvent(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	evt := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.PublishEvent(ctx, evt); err != nil {
		s.log.Warn("reconcile", "failed to publish lifecycle event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}
