package models

import (
	"time"
)

// Bank is the protected balance of a user. Funds parked here cannot be bet,
// robbed or spent until withdrawn back to the wallet. Cap of zero means the
// tenant imposed no limit.
type Bank struct {
	ID        uint   `gorm:"primarykey"`
	UserID    uint   `gorm:"uniqueIndex;not null"`
	TenantID  string `gorm:"not null;index"`
	Balance   int64  `gorm:"not null;default:0"`
	Cap       int64  `gorm:"not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
