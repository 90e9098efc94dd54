package models

import (
	"time"
)

// Investment types
const (
	InvestmentTypeFD = "FD"
	InvestmentTypeRD = "RD"
)

// Investment is a time-locked deposit. Payout is fixed at creation; the row
// is deleted when collected, which is what makes collection idempotent.
type Investment struct {
	ID           uint      `gorm:"primarykey"`
	UserID       uint      `gorm:"not null;index"`
	TenantID     string    `gorm:"not null;index"`
	Type         string    `gorm:"not null"`
	Principal    int64     `gorm:"not null"`
	Payout       int64     `gorm:"not null"`
	MaturityDate time.Time `gorm:"index"`
	CreatedAt    time.Time
}
