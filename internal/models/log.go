package models

import "time"

// AuditLog records important operations for auditing.
type AuditLog struct {
	ID         uint      `gorm:"primaryKey"`
	ActorID    uint      `gorm:"index;not null"`
	Action     string    `gorm:"size:120;not null"`
	TargetType string    `gorm:"size:50"`
	TargetID   string    `gorm:"size:50"`
	Details    string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"index"`
}
