package models

import (
	"time"
)

// AuditLog is a best-effort record of a settlement or lifecycle event.
// It is not a ledger of record; rows may be dropped under load.
type AuditLog struct {
	ID         uint   `gorm:"primarykey"`
	TenantID   string `gorm:"index"`
	EntityType string `gorm:"not null"`
	EntityID   string
	Action     string `gorm:"not null"`
	Details    JSON   `gorm:"type:jsonb"`
	CreatedAt  time.Time
}
