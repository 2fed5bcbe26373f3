package models

import "time"

// AuditLog records destructive actions. Kept append-only, outside the
// gorm.Model soft-delete machinery.
type AuditLog struct {
	ID         uint `gorm:"primarykey"`
	AccountID  *uint
	Action     string
	EntityName string
	EntityID   uint
	Details    string
	Timestamp  time.Time
}
