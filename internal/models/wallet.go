package models

import (
	"time"
)

// Wallet is the spendable balance of a user. Balances are integer coins and
// are never allowed to go negative; every mutation pairs with a Transaction
// row so that balance == initial grant + sum of wallet transaction amounts.
type Wallet struct {
	ID           uint   `gorm:"primarykey"`
	UserID       uint   `gorm:"uniqueIndex;not null"`
	TenantID     string `gorm:"not null;index"`
	Balance      int64  `gorm:"not null;default:0"`
	InitialGrant int64  `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
