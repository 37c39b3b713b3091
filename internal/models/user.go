package models

import "time"

// User represents a household member.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"size:64;uniqueIndex;not null"`
	Email        string `gorm:"size:120;uniqueIndex"`
	PasswordHash string `gorm:"size:255;not null"`
	IsAdmin      bool   `gorm:"not null;default:false"`
	CreatedAt    time.Time

	DeletedAt *time.Time `gorm:"index"` // soft delete, members are never purged here
}
