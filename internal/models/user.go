package models

import (
	"time"
)

// Credit score bounds. New users start at the middle of the scale.
const (
	CreditScoreMin     = 300
	CreditScoreMax     = 900
	CreditScoreDefault = 600
)

// User is a player identity scoped to a tenant. The same platform account
// joining two tenants gets two independent User rows, each with its own
// wallet, bank and credit history.
type User struct {
	ID          uint   `gorm:"primarykey"`
	PlatformID  string `gorm:"uniqueIndex:idx_users_platform_tenant;not null"`
	TenantID    string `gorm:"uniqueIndex:idx_users_platform_tenant;not null;index"`
	DisplayName string
	CreditScore int     `gorm:"default:600"`
	Wallet      *Wallet `gorm:"foreignKey:UserID"`
	Bank        *Bank   `gorm:"foreignKey:UserID"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ClampCreditScore bounds a score to the valid range.
func ClampCreditScore(score int) int {
	if score < CreditScoreMin {
		return CreditScoreMin
	}
	if score > CreditScoreMax {
		return CreditScoreMax
	}
	return score
}
