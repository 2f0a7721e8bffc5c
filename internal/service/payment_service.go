// FILE: internal/service/payment_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"vip-gatekeeper-be/internal/config"
	"vip-gatekeeper-be/internal/dto"
	"vip-gatekeeper-be/internal/entity"
	"vip-gatekeeper-be/internal/pkg/logger"
	"vip-gatekeeper-be/internal/repository/contract"
	"vip-gatekeeper-be/internal/repository/unitofwork"
	"vip-gatekeeper-be/pkg/events"

	"github.com/google/uuid"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/patrickmn/go-cache"
)

const statusCacheTTL = 30 * time.Second

// IPaymentService is the user-facing half of the payment flow: starting a
// checkout and reading the resulting subscription status. The webhook half
// lives in IReconcileService.
type IPaymentService interface {
	Checkout(ctx context.Context, userID string, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
	Status(ctx context.Context, userID string) (*dto.SubscriptionStatusResponse, error)
}

type paymentService struct {
	uowFactory  unitofwork.RepositoryFactory
	snapClient  snap.Client
	publisher   IPublisherService
	statusCache *cache.Cache
	cfg         *config.Config
	log         logger.ILogger
}

func NewPaymentService(uowFactory unitofwork.RepositoryFactory, publisher IPublisherService, cfg *config.Config, log logger.ILogger) IPaymentService {
	env := midtrans.Sandbox
	if cfg.Midtrans.IsProduction {
		env = midtrans.Production
	}

	var client snap.Client
	client.New(cfg.Midtrans.ServerKey, env)

	return &paymentService{
		uowFactory:  uowFactory,
		snapClient:  client,
		publisher:   publisher,
		statusCache: cache.New(statusCacheTTL, 2*statusCacheTTL),
		cfg:         cfg,
		log:         log,
	}
}

func (s *paymentService) Checkout(ctx context.Context, userID string, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	orderID := fmt.Sprintf("vip-%s", uuid.New().String())

	snapReq := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: s.cfg.Subscription.Price,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: req.FirstName,
			LName: req.LastName,
			Email: req.Email,
		},
		Items: &[]midtrans.ItemDetails{
			{
				ID:    "vip-membership",
				Name:  "VIP Group Membership",
				Price: s.cfg.Subscription.Price,
				Qty:   1,
			},
		},
		// The webhook has nothing but this field to tie the payment back
		// to a user, so it is stamped on every transaction we create.
		CustomField1: userID,
	}

	snapResp, snapErr := s.snapClient.CreateTransaction(snapReq)
	if snapErr != nil {
		s.log.Error("payment", "snap transaction creation failed", map[string]interface{}{
			"user_id": userID,
			"error":   snapErr.Error(),
		})
		return nil, fmt.Errorf("failed to create payment transaction: %w", snapErr)
	}

	if err := s.recordPendingCheckout(ctx, userID, orderID); err != nil {
		// The snap token is already minted; the webhook path can still
		// correlate the payment through custom_field1, so the token is
		// returned despite the bookkeeping failure.
		s.log.Error("payment", "failed to record pending checkout", map[string]interface{}{
			"user_id":  userID,
			"order_id": orderID,
			"error":    err.Error(),
		})
	}

	s.statusCache.Delete(userID)

	if s.publisher != nil {
		_ = s.publisher.PublishEvent(ctx, events.BaseEvent{
			Type: events.TypeSubscriptionCheckoutNew,
			Data: map[string]interface{}{
				"user_id":  userID,
				"order_id": orderID,
				"amount":   s.cfg.Subscription.Price,
				"currency": s.cfg.Subscription.Currency,
			},
			OccurredAt: time.Now().UTC(),
		})
	}

	s.log.Info("payment", "checkout created", map[string]interface{}{
		"user_id":  userID,
		"order_id": orderID,
	})

	return &dto.CheckoutResponse{
		OrderId:         orderID,
		SnapToken:       snapResp.Token,
		SnapRedirectUrl: snapResp.RedirectURL,
	}, nil
}

// recordPendingCheckout moves the record to PENDING unless the user is
// already ACTIVE. A renewal checkout on a live subscription must not
// downgrade it; the completion webhook alone extends it.
func (s *paymentService) recordPendingCheckout(ctx context.Context, userID, orderID string) error {
	for attempt := 0; attempt <= s.cfg.Retry.StoreConflictRetries; attempt++ {
		uow := s.uowFactory.NewUnitOfWork(ctx)
		repo := uow.SubscriptionRepository()

		sub, err := repo.FindByUserID(ctx, userID)
		if err != nil {
			return err
		}

		if sub == nil {
			pending := &entity.Subscription{
				UserID:             userID,
				State:              entity.SubscriptionStatePending,
				ExternalPaymentRef: orderID,
				// Pending users were never granted, so no group action is owed.
				GroupMembershipSynced: true,
			}
			err = repo.Create(ctx, pending)
		} else {
			if sub.State == entity.SubscriptionStateActive {
				return nil
			}
			// Only the state and payment ref move. The synced flag is the
			// engine's: an owed revoke from the previous cycle must survive
			// the checkout so the sweep still performs it.
			sub.State = entity.SubscriptionStatePending
			sub.ExternalPaymentRef = orderID
			err = repo.Update(ctx, sub)
		}
		if errors.Is(err, contract.ErrConflict) {
			continue
		}
		return err
	}
	return contract.ErrConflict
}

func (s *paymentService) Status(ctx context.Context, userID string) (*dto.SubscriptionStatusResponse, error) {
	if cached, found := s.statusCache.Get(userID); found {
		return cached.(*dto.SubscriptionStatusResponse), nil
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	sub, err := uow.SubscriptionRepository().FindByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := &dto.SubscriptionStatusResponse{State: string(entity.SubscriptionStateNone)}
	if sub != nil {
		resp.State = string(sub.State)
		resp.IsActive = sub.State == entity.SubscriptionStateActive
		if sub.State == entity.SubscriptionStateActive {
			expiresAt := sub.ExpiresAt
			resp.ExpiresAt = &expiresAt
			remaining := time.Until(sub.ExpiresAt)
			if remaining > 0 {
				resp.DaysRemaining = int(remaining.Hours() / 24)
			}
		}
	}

	s.statusCache.Set(userID, resp, cache.DefaultExpiration)
	return resp, nil
}
