// FILE: internal/repository/specification/subscription_specifications.go
package specification

import (
	"vip-gatekeeper-be/internal/entity"

	"gorm.io/gorm"
)

// ByUserID filters subscriptions by their owning user.
type ByUserID struct {
	UserID string
}

func (s ByUserID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

// ByState filters subscriptions by lifecycle state.
type ByState struct {
	State entity.SubscriptionState
}

func (s ByState) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("state = ?", string(s.State))
}

// AfterUserID is the keyset-pagination cursor for restartable scans. The
// sweep walks active records in user_id order so a crashed pass can resume
// from the last key it saw instead of re-reading from offset zero.
type AfterUserID struct {
	UserID string
}

func (s AfterUserID) Apply(db *gorm.DB) *gorm.DB {
	if s.UserID == "" {
		return db
	}
	return db.Where("user_id > ?", s.UserID)
}

// Unsynced selects records still owing a compensating membership action,
// excluding those already surfaced as permanently failed.
type Unsynced struct{}

func (s Unsynced) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("group_membership_synced = ? AND membership_sync_error IS NULL", false)
}
