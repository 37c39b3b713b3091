package models

import "time"

// Transfer moves funds between two accounts. Immutable once created.
type Transfer struct {
	ID            uint      `gorm:"primaryKey"`
	FromAccountID uint      `gorm:"index;not null"`
	ToAccountID   uint      `gorm:"index;not null"`
	AmountCent    int64     `gorm:"not null"` // always positive
	Description   string    `gorm:"size:200"`
	CreatedAt     time.Time `gorm:"index"`
	ActorID       uint      `gorm:"not null"`
}
