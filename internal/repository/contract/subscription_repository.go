// FILE: internal/repository/contract/subscription_repository.go
package contract

import (
	"context"
	"errors"

	"vip-gatekeeper-be/internal/entity"
)

// ErrConflict is returned when a versioned write loses a race: either the
// stored version no longer matches what the caller read, or a concurrent
// create claimed the same user. Callers must re-read and recompute.
var ErrConflict = errors.New("subscription version conflict")

type SubscriptionRepository interface {
	// FindByUserID returns (nil, nil) when the user has no record yet.
	FindByUserID(ctx context.Context, userID string) (*entity.Subscription, error)

	// Create inserts a fresh record at version 1. A concurrent insert for
	// the same user surfaces as ErrConflict.
	Create(ctx context.Context, sub *entity.Subscription) error

	// Update persists sub only if the stored version equals sub.Version,
	// bumping the version on success (and reflecting it back into sub).
	// ErrConflict otherwise. This is the single consistency primitive the
	// engine relies on; there is no separate locking layer.
	Update(ctx context.Context, sub *entity.Subscription) error

	// FindActiveBatch returns up to limit ACTIVE records with
	// user_id > afterUserID, ordered by user_id. No expiry filter is applied
	// here: the sweep owns the cutoff comparison.
	FindActiveBatch(ctx context.Context, afterUserID string, limit int) ([]*entity.Subscription, error)

	// FindUnsyncedBatch returns records owing a compensating membership
	// action, skipping ones already marked permanently failed.
	FindUnsyncedBatch(ctx context.Context, afterUserID string, limit int) ([]*entity.Subscription, error)

	CountByState(ctx context.Context, state entity.SubscriptionState) (int64, error)
}
