package repositories

import (
	"context"
	"errors"
	"fmt"

	"casino/internal/models"

	"gorm.io/gorm"
)

// MarketRepository persists listings and inventory. Listing removal is a
// conditional delete so two concurrent buyers cannot both claim one listing.
type MarketRepository interface {
	// CreateListingEscrow removes the listed quantity from the seller's
	// inventory and creates the listing as one unit.
	CreateListingEscrow(ctx context.Context, listing *models.MarketListing) error
	GetListing(ctx context.Context, id string) (*models.MarketListing, error)
	ListingsByTenant(ctx context.Context, tenantID string, limit, offset int) ([]models.MarketListing, error)
	// ClaimListing deletes the listing; reports whether this call won.
	ClaimListing(ctx context.Context, id string) (bool, error)
	RestoreListing(ctx context.Context, listing *models.MarketListing) error

	GetInventory(ctx context.Context, userID uint, itemID string) (*models.InventorySlot, error)
	AddInventory(ctx context.Context, tenantID string, userID uint, itemID string, amount int64) error
}

type marketRepository struct {
	db *gorm.DB
}

func NewMarketRepository(db *gorm.DB) MarketRepository {
	return &marketRepository{db: db}
}

func (r *marketRepository) CreateListingEscrow(ctx context.Context, listing *models.MarketListing) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.InventorySlot{}).
			Where("user_id = ? AND shop_item_id = ? AND amount >= ?",
				listing.SellerID, listing.ShopItemID, listing.Amount).
			Update("amount", gorm.Expr("amount - ?", listing.Amount))
		if res.Error != nil {
			return fmt.Errorf("failed to escrow inventory: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrInventoryShort
		}
		if err := tx.Create(listing).Error; err != nil {
			return fmt.Errorf("failed to create listing: %w", err)
		}
		return nil
	})
}

func (r *marketRepository) GetListing(ctx context.Context, id string) (*models.MarketListing, error) {
	var listing models.MarketListing
	err := r.db.WithContext(ctx).First(&listing, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return &listing, nil
}

func (r *marketRepository) ListingsByTenant(ctx context.Context, tenantID string, limit, offset int) ([]models.MarketListing, error) {
	var listings []models.MarketListing
	err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&listings).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	return listings, nil
}

func (r *marketRepository) ClaimListing(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.MarketListing{}, "id = ?", id)
	if res.Error != nil {
		return false, fmt.Errorf("failed to claim listing: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *marketRepository) RestoreListing(ctx context.Context, listing *models.MarketListing) error {
	if err := r.db.WithContext(ctx).Create(listing).Error; err != nil {
		return fmt.Errorf("failed to restore listing: %w", err)
	}
	return nil
}

func (r *marketRepository) GetInventory(ctx context.Context, userID uint, itemID string) (*models.InventorySlot, error) {
	var slot models.InventorySlot
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND shop_item_id = ?", userID, itemID).
		First(&slot).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInventoryShort
		}
		return nil, fmt.Errorf("failed to get inventory: %w", err)
	}
	return &slot, nil
}

func (r *marketRepository) AddInventory(ctx context.Context, tenantID string, userID uint, itemID string, amount int64) error {
	res := r.db.WithContext(ctx).
		Model(&models.InventorySlot{}).
		Where("user_id = ? AND shop_item_id = ?", userID, itemID).
		Update("amount", gorm.Expr("amount + ?", amount))
	if res.Error != nil {
		return fmt.Errorf("failed to add inventory: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}
	slot := models.InventorySlot{
		UserID:     userID,
		TenantID:   tenantID,
		ShopItemID: itemID,
		Amount:     amount,
	}
	if err := r.db.WithContext(ctx).Create(&slot).Error; err != nil {
		return fmt.Errorf("failed to create inventory slot: %w", err)
	}
	return nil
}
