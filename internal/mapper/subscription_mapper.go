// FILE: internal/mapper/subscription_mapper.go
package mapper

import (
	"vip-gatekeeper-be/internal/entity"
	"vip-gatekeeper-be/internal/model"
)

type SubscriptionMapper struct{}

func NewSubscriptionMapper() *SubscriptionMapper {
	return &SubscriptionMapper{}
}

func (m *SubscriptionMapper) ToEntity(s *model.Subscription) *entity.Subscription {
	if s == nil {
		return nil
	}
	return &entity.Subscription{
		UserID:                s.UserId,
		State:                 entity.SubscriptionState(s.State),
		ExternalPaymentRef:    s.ExternalPaymentRef,
		ExpiresAt:             s.ExpiresAt,
		LastEventID:           s.LastEventId,
		GroupMembershipSynced: s.GroupMembershipSynced,
		MembershipSyncError:   s.MembershipSyncError,
		Version:               s.Version,
		CreatedAt:             s.CreatedAt,
		UpdatedAt:             s.UpdatedAt,
	}
}

func (m *SubscriptionMapper) ToModel(s *entity.Subscription) *model.Subscription {
	if s == nil {
		return nil
	}
	return &model.Subscription{
		UserId:                s.UserID,
		State:                 string(s.State),
		ExternalPaymentRef:    s.ExternalPaymentRef,
		ExpiresAt:             s.ExpiresAt,
		LastEventId:           s.LastEventID,
		GroupMembershipSynced: s.GroupMembershipSynced,
		MembershipSyncError:   s.MembershipSyncError,
		Version:               s.Version,
		CreatedAt:             s.CreatedAt,
		UpdatedAt:             s.UpdatedAt,
	}
}
