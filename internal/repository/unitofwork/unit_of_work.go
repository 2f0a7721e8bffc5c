// FILE: internal/repository/unitofwork/unit_of_work.go
package unitofwork

import (
	"context"

	"vip-gatekeeper-be/internal/repository/contract"
)

// UnitOfWork groups repository access with an optional transaction scope.
// The reconciliation engine works outside transactions: the versioned write
// carries all the consistency it needs. Begin/Commit exist for callers that
// do want to group writes, such as data backfills.
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	SubscriptionRepository() contract.SubscriptionRepository
	WebhookEventRepository() contract.WebhookEventRepository
}
