package models

import (
	"time"
)

// MarketListing is an escrowed sale offer. The listed quantity is removed
// from the seller's inventory when the listing is created and lives only
// here until the listing is bought or cancelled.
type MarketListing struct {
	ID         string `gorm:"primarykey"`
	TenantID   string `gorm:"not null;index"`
	SellerID   uint   `gorm:"not null;index"`
	ShopItemID string `gorm:"not null"`
	Amount     int64  `gorm:"not null"`
	TotalPrice int64  `gorm:"not null"`
	CreatedAt  time.Time
}

// InventorySlot holds a user's quantity of one shop item.
type InventorySlot struct {
	ID         uint   `gorm:"primarykey"`
	UserID     uint   `gorm:"uniqueIndex:idx_inventory_user_item;not null"`
	ShopItemID string `gorm:"uniqueIndex:idx_inventory_user_item;not null"`
	TenantID   string `gorm:"not null;index"`
	Amount     int64  `gorm:"not null;default:0"`
	Metadata   JSON   `gorm:"type:jsonb"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
