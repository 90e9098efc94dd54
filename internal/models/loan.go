package models

import (
	"time"
)

// Loan statuses
const (
	LoanStatusActive    = "ACTIVE"
	LoanStatusRepaid    = "REPAID"
	LoanStatusDefaulted = "DEFAULTED"
)

// Loan records borrowed principal and the fixed total owed back.
// TotalRepayment is set at issuance and never recomputed; RemainingAmount
// tracks what is still outstanding as partial repayments land.
type Loan struct {
	ID              uint   `gorm:"primarykey"`
	UserID          uint   `gorm:"not null;index"`
	TenantID        string `gorm:"not null;index"`
	Principal       int64  `gorm:"not null"`
	TotalRepayment  int64  `gorm:"not null"`
	RemainingAmount int64  `gorm:"not null"`
	DueDate         time.Time
	Status          string `gorm:"not null;default:'ACTIVE';index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
