package models

import (
	"time"

	"gorm.io/datatypes"
)

// RecentAddress is one row of the most-recently-viewed address list.
type RecentAddress struct {
	Address string `gorm:"primaryKey;type:varchar(42)"`

	// Last known summary figures, null until a lookup has completed.
	Summary datatypes.JSON `gorm:"type:jsonb"`

	ViewedAt  time.Time `gorm:"type:timestamptz;not null;index"`
	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (RecentAddress) TableName() string {
	return "recent_addresses"
}
