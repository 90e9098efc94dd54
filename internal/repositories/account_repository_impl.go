package repositories

import (
	"context"
	"errors"
	"fmt"

	"casino/internal/models"

	"gorm.io/gorm"
)

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) GetOrCreateUser(ctx context.Context, tenantID, platformID, displayName string, initialGrant int64) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("Wallet").
		Where("tenant_id = ? AND platform_id = ?", tenantID, platformID).
		First(&user).Error
	if err == nil {
		if displayName != "" && user.DisplayName != displayName {
			r.db.WithContext(ctx).Model(&user).Update("display_name", displayName)
		}
		return &user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user = models.User{
		PlatformID:  platformID,
		TenantID:    tenantID,
		DisplayName: displayName,
		CreditScore: models.CreditScoreDefault,
	}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		wallet := models.Wallet{
			UserID:       user.ID,
			TenantID:     tenantID,
			Balance:      initialGrant,
			InitialGrant: initialGrant,
		}
		if err := tx.Create(&wallet).Error; err != nil {
			return err
		}
		user.Wallet = &wallet
		return nil
	})
	if err != nil {
		// A concurrent first interaction may have won the unique index race.
		var existing models.User
		if ferr := r.db.WithContext(ctx).
			Preload("Wallet").
			Where("tenant_id = ? AND platform_id = ?", tenantID, platformID).
			First(&existing).Error; ferr == nil {
			return &existing, nil
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return &user, nil
}

func (r *accountRepository) GetUser(ctx context.Context, tenantID, platformID string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("Wallet").
		Where("tenant_id = ? AND platform_id = ?", tenantID, platformID).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *accountRepository) GetWalletByUser(ctx context.Context, userID uint) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func (r *accountRepository) GetOrCreateBank(ctx context.Context, userID uint, tenantID string, cap int64) (*models.Bank, error) {
	var bank models.Bank
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&bank).Error
	if err == nil {
		return &bank, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get bank: %w", err)
	}

	bank = models.Bank{UserID: userID, TenantID: tenantID, Cap: cap}
	if err := r.db.WithContext(ctx).Create(&bank).Error; err != nil {
		var existing models.Bank
		if ferr := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&existing).Error; ferr == nil {
			return &existing, nil
		}
		return nil, fmt.Errorf("failed to create bank: %w", err)
	}
	return &bank, nil
}

func (r *accountRepository) AdjustCreditScore(ctx context.Context, userID uint, delta int) (int, error) {
	var user models.User
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Set("gorm:for_update", true).First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		user.CreditScore = models.ClampCreditScore(user.CreditScore + delta)
		return tx.Model(&user).Update("credit_score", user.CreditScore).Error
	})
	if err != nil {
		return 0, fmt.Errorf("failed to adjust credit score: %w", err)
	}
	return user.CreditScore, nil
}

func (r *accountRepository) GetTransactionHistory(ctx context.Context, walletID uint, limit, offset int) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&txns).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction history: %w", err)
	}
	return txns, nil
}

func (r *accountRepository) LedgerSum(ctx context.Context, walletID uint) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("wallet_id = ? AND account = ?", walletID, models.AccountWallet).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, fmt.Errorf("failed to sum ledger: %w", err)
	}
	return total, nil
}
