package repositories

import (
	"context"
	"fmt"
	"time"

	"casino/internal/models"

	"gorm.io/gorm"
)

// InvestmentRepository persists time-locked deposits. Claim deletes the row
// conditionally; whoever wins the delete owns the payout, which keeps
// collection idempotent under sweeps racing live commands.
type InvestmentRepository interface {
	Create(ctx context.Context, inv *models.Investment) error
	ByUser(ctx context.Context, userID uint) ([]models.Investment, error)
	MaturedForUser(ctx context.Context, userID uint, now time.Time) ([]models.Investment, error)
	Matured(ctx context.Context, now time.Time, limit int) ([]models.Investment, error)
	// Claim removes the row; reports whether this call won the removal.
	Claim(ctx context.Context, invID uint) (bool, error)
}

type investmentRepository struct {
	db *gorm.DB
}

func NewInvestmentRepository(db *gorm.DB) InvestmentRepository {
	return &investmentRepository{db: db}
}

func (r *investmentRepository) Create(ctx context.Context, inv *models.Investment) error {
	if err := r.db.WithContext(ctx).Create(inv).Error; err != nil {
		return fmt.Errorf("failed to create investment: %w", err)
	}
	return nil
}

func (r *investmentRepository) ByUser(ctx context.Context, userID uint) ([]models.Investment, error) {
	var invs []models.Investment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("maturity_date ASC").
		Find(&invs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list investments: %w", err)
	}
	return invs, nil
}

func (r *investmentRepository) MaturedForUser(ctx context.Context, userID uint, now time.Time) ([]models.Investment, error) {
	var invs []models.Investment
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND maturity_date <= ?", userID, now).
		Find(&invs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list matured investments: %w", err)
	}
	return invs, nil
}

func (r *investmentRepository) Matured(ctx context.Context, now time.Time, limit int) ([]models.Investment, error) {
	var invs []models.Investment
	err := r.db.WithContext(ctx).
		Where("maturity_date <= ?", now).
		Order("maturity_date ASC").
		Limit(limit).
		Find(&invs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list matured investments: %w", err)
	}
	return invs, nil
}

func (r *investmentRepository) Claim(ctx context.Context, invID uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Investment{}, invID)
	if res.Error != nil {
		return false, fmt.Errorf("failed to claim investment: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
