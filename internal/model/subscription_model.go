// FILE: internal/model/subscription_model.go
package model

import (
	"time"
)

type Subscription struct {
	UserId             string    `gorm:"type:varchar(64);primaryKey"`
	State              string    `gorm:"type:varchar(20);not null;index"`
	ExternalPaymentRef string    `gorm:"type:varchar(191);not null;default:''"`
	ExpiresAt          time.Time `gorm:"index"`
	LastEventId        string    `gorm:"type:varchar(191);not null;default:''"`
	// Index lets the compensation sweep find unsynced rows without a table scan.
	GroupMembershipSynced bool      `gorm:"not null;default:false;index"`
	MembershipSyncError   *string   `gorm:"type:text"`
	Version               int64     `gorm:"not null;default:1"`
	CreatedAt             time.Time `gorm:"autoCreateTime"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
