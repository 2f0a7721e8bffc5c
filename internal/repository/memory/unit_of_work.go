// FILE: internal/repository/memory/unit_of_work.go
package memory

import (
	"context"

	"vip-gatekeeper-be/internal/repository/contract"
	"vip-gatekeeper-be/internal/repository/unitofwork"
)

// RepositoryFactory satisfies unitofwork.RepositoryFactory over the in-memory
// stores. Begin/Commit/Rollback are no-ops: the memory store applies each
// write atomically, which is all the engine's contract requires.
type RepositoryFactory struct {
	Subscriptions *SubscriptionRepository
	WebhookEvents *WebhookEventRepository
}

func NewRepositoryFactory() *RepositoryFactory {
	return &RepositoryFactory{
		Subscriptions: NewSubscriptionRepository(),
		WebhookEvents: NewWebhookEventRepository(),
	}
}

func (f *RepositoryFactory) NewUnitOfWork(_ context.Context) unitofwork.UnitOfWork {
	return &unitOfWork{factory: f}
}

type unitOfWork struct {
	factory *RepositoryFactory
}

func (u *unitOfWork) Begin(_ context.Context) error { return nil }
func (u *unitOfWork) Commit() error                 { return nil }
func (u *unitOfWork) Rollback() error               { return nil }

func (u *unitOfWork) SubscriptionRepository() contract.SubscriptionRepository {
	return u.factory.Subscriptions
}

func (u *unitOfWork) WebhookEventRepository() contract.WebhookEventRepository {
	return u.factory.WebhookEvents
}
