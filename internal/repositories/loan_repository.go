package repositories

import (
	"context"
	"fmt"
	"time"

	"casino/internal/models"

	"gorm.io/gorm"
)

// LoanRepository persists loans. Status transitions are conditional updates
// so a sweep and a live repayment racing on the same row can never both win.
type LoanRepository interface {
	Create(ctx context.Context, loan *models.Loan) error
	ActiveLoans(ctx context.Context, userID uint) ([]models.Loan, error)
	CountActive(ctx context.Context, userID uint) (int64, error)
	ReduceRemaining(ctx context.Context, loanID uint, amount int64) error
	// MarkRepaid flips ACTIVE -> REPAID; reports whether this call won the flip.
	MarkRepaid(ctx context.Context, loanID uint) (bool, error)
	// MarkDefaulted flips ACTIVE -> DEFAULTED; reports whether this call won.
	MarkDefaulted(ctx context.Context, loanID uint) (bool, error)
	Overdue(ctx context.Context, now time.Time, limit int) ([]models.Loan, error)
}

type loanRepository struct {
	db *gorm.DB
}

func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *models.Loan) error {
	if err := r.db.WithContext(ctx).Create(loan).Error; err != nil {
		return fmt.Errorf("failed to create loan: %w", err)
	}
	return nil
}

func (r *loanRepository) ActiveLoans(ctx context.Context, userID uint) ([]models.Loan, error) {
	var loans []models.Loan
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, models.LoanStatusActive).
		Order("created_at ASC").
		Find(&loans).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active loans: %w", err)
	}
	return loans, nil
}

func (r *loanRepository) CountActive(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("user_id = ? AND status = ?", userID, models.LoanStatusActive).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count active loans: %w", err)
	}
	return count, nil
}

func (r *loanRepository) ReduceRemaining(ctx context.Context, loanID uint, amount int64) error {
	res := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("id = ? AND status = ? AND remaining_amount >= ?", loanID, models.LoanStatusActive, amount).
		Update("remaining_amount", gorm.Expr("remaining_amount - ?", amount))
	if res.Error != nil {
		return fmt.Errorf("failed to reduce loan balance: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrLoanNotFound
	}
	return nil
}

func (r *loanRepository) MarkRepaid(ctx context.Context, loanID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("id = ? AND status = ?", loanID, models.LoanStatusActive).
		Updates(map[string]interface{}{"status": models.LoanStatusRepaid, "remaining_amount": 0})
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark loan repaid: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *loanRepository) MarkDefaulted(ctx context.Context, loanID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Loan{}).
		Where("id = ? AND status = ?", loanID, models.LoanStatusActive).
		Update("status", models.LoanStatusDefaulted)
	if res.Error != nil {
		return false, fmt.Errorf("failed to mark loan defaulted: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *loanRepository) Overdue(ctx context.Context, now time.Time, limit int) ([]models.Loan, error) {
	var loans []models.Loan
	err := r.db.WithContext(ctx).
		Where("status = ? AND due_date < ?", models.LoanStatusActive, now).
		Order("due_date ASC").
		Limit(limit).
		Find(&loans).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list overdue loans: %w", err)
	}
	return loans, nil
}
