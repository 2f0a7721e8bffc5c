// FILE: internal/repository/memory/subscription_repository.go
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"vip-gatekeeper-be/internal/entity"
	"vip-gatekeeper-be/internal/repository/contract"
)

// SubscriptionRepository is an in-memory store with the same optimistic
// concurrency contract as the GORM implementation. It backs the engine's
// unit tests and lets interleavings be driven deterministically.
type SubscriptionRepository struct {
	mu   sync.Mutex
	rows map[string]entity.Subscription

	// FailNextUpdate, when > 0, makes that many Update calls return
	// ErrConflict regardless of version. Tests use it to simulate losing a
	// race without a second goroutine.
	FailNextUpdate int
}

func NewSubscriptionRepository() *SubscriptionRepository {
	return &SubscriptionRepository{
		rows: make(map[string]entity.Subscription),
	}
}

func (r *SubscriptionRepository) FindByUserID(_ context.Context, userID string) (*entity.Subscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[userID]
	if !ok {
		return nil, nil
	}
	return cloneSub(&row), nil
}

func (r *SubscriptionRepository) Create(_ context.Context, sub *entity.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.rows[sub.UserID]; exists {
		return contract.ErrConflict
	}
	now := time.Now().UTC()
	sub.Version = 1
	sub.CreatedAt = now
	sub.UpdatedAt = now
	r.rows[sub.UserID] = *cloneSub(sub)
	return nil
}

func (r *SubscriptionRepository) Update(_ context.Context, sub *entity.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailNextUpdate > 0 {
		r.FailNextUpdate--
		return contract.ErrConflict
	}
	stored, ok := r.rows[sub.UserID]
	if !ok || stored.Version != sub.Version {
		return contract.ErrConflict
	}
	sub.Version++
	sub.UpdatedAt = time.Now().UTC()
	sub.CreatedAt = stored.CreatedAt
	r.rows[sub.UserID] = *cloneSub(sub)
	return nil
}

func (r *SubscriptionRepository) FindActiveBatch(_ context.Context, afterUserID string, limit int) ([]*entity.Subscription, error) {
	return r.scan(afterUserID, limit, func(s *entity.Subscription) bool {
		return s.State == entity.SubscriptionStateActive
	}), nil
}

func (r *SubscriptionRepository) FindUnsyncedBatch(_ context.Context, afterUserID string, limit int) ([]*entity.Subscription, error) {
	return r.scan(afterUserID, limit, func(s *entity.Subscription) bool {
		return !s.GroupMembershipSynced && s.MembershipSyncError == nil
	}), nil
}

func (r *SubscriptionRepository) CountByState(_ context.Context, state entity.SubscriptionState) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, row := range r.rows {
		if row.State == state {
			n++
		}
	}
	return n, nil
}

func (r *SubscriptionRepository) scan(afterUserID string, limit int, keep func(*entity.Subscription) bool) []*entity.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Subscription
	for id := range r.rows {
		if id <= afterUserID {
			continue
		}
		row := r.rows[id]
		if keep(&row) {
			out = append(out, cloneSub(&row))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func cloneSub(s *entity.Subscription) *entity.Subscription {
	c := *s
	if s.MembershipSyncError != nil {
		v := *s.MembershipSyncError
		c.MembershipSyncError = &v
	}
	return &c
}
