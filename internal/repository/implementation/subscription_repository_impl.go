// FILE: internal/repository/implementation/subscription_repository_impl.go
package implementation

import (
	"context"
	"errors"
	"time"

	"vip-gatekeeper-be/internal/entity"
	"vip-gatekeeper-be/internal/mapper"
	"vip-gatekeeper-be/internal/model"
	"vip-gatekeeper-be/internal/repository/contract"
	"vip-gatekeeper-be/internal/repository/specification"

	"gorm.io/gorm"
)

type SubscriptionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.SubscriptionMapper
}

func NewSubscriptionRepository(db *gorm.DB) contract.SubscriptionRepository {
	return &SubscriptionRepositoryImpl{
		db:     db,
		mapper: mapper.NewSubscriptionMapper(),
	}
}

func (r *SubscriptionRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *SubscriptionRepositoryImpl) FindByUserID(ctx context.Context, userID string) (*entity.Subscription, error) {
	var m model.Subscription
	query := r.applySpecifications(r.db.WithContext(ctx), specification.ByUserID{UserID: userID})
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *SubscriptionRepositoryImpl) Create(ctx context.Context, sub *entity.Subscription) error {
	sub.Version = 1
	m := r.mapper.ToModel(sub)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return contract.ErrConflict
		}
		return err
	}
	*sub = *r.mapper.ToEntity(m)
	return nil
}

// Update is the optimistic-concurrency write: the row is touched only when
// the stored version still matches the one the caller read. Zero affected
// rows means somebody else won the race.
func (r *SubscriptionRepositoryImpl) Update(ctx context.Context, sub *entity.Subscription) error {
	expectedVersion := sub.Version
	now := time.Now().UTC()

	res := r.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("user_id = ? AND version = ?", sub.UserID, expectedVersion).
		Updates(map[string]interface{}{
			"state":                   string(sub.State),
			"external_payment_ref":    sub.ExternalPaymentRef,
			"expires_at":              sub.ExpiresAt,
			"last_event_id":           sub.LastEventID,
			"group_membership_synced": sub.GroupMembershipSynced,
			"membership_sync_error":   sub.MembershipSyncError,
			"version":                 expectedVersion + 1,
			"updated_at":              now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return contract.ErrConflict
	}
	sub.Version = expectedVersion + 1
	sub.UpdatedAt = now
	return nil
}

func (r *SubscriptionRepositoryImpl) FindActiveBatch(ctx context.Context, afterUserID string, limit int) ([]*entity.Subscription, error) {
	return r.findBatch(ctx, afterUserID, limit, specification.ByState{State: entity.SubscriptionStateActive})
}

func (r *SubscriptionRepositoryImpl) FindUnsyncedBatch(ctx context.Context, afterUserID string, limit int) ([]*entity.Subscription, error) {
	return r.findBatch(ctx, afterUserID, limit, specification.Unsynced{})
}

func (r *SubscriptionRepositoryImpl) findBatch(ctx context.Context, afterUserID string, limit int, spec specification.Specification) ([]*entity.Subscription, error) {
	var models []*model.Subscription
	query := r.applySpecifications(r.db.WithContext(ctx),
		spec,
		specification.AfterUserID{UserID: afterUserID},
		specification.OrderBy{Field: "user_id"},
	).Limit(limit)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Subscription, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ToEntity(m)
	}
	return entities, nil
}

func (r *SubscriptionRepositoryImpl) CountByState(ctx context.Context, state entity.SubscriptionState) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("state = ?", string(state)).
		Count(&count).Error
	return count, err
}
