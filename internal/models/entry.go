package models

import "time"

// Entry is a single dated income or expense record, optionally tied to
// an account. AmountCent is always positive; Kind decides the sign the
// amount applies to the account balance with.
type Entry struct {
	ID            uint      `gorm:"primaryKey"`
	AmountCent    int64     `gorm:"not null"`
	Kind          string    `gorm:"size:20;index;not null;default:expense"` // income / expense
	Description   string    `gorm:"size:120;not null"`
	Category      string    `gorm:"size:64;not null"` // denormalized name, survives category deletion
	CategoryID    *uint     `gorm:"index"`
	Date          time.Time `gorm:"index;not null"` // calendar date, midnight UTC
	OwnerID       uint      `gorm:"index;not null"`
	AccountID     *uint     `gorm:"index"`
	PaymentMethod string    `gorm:"size:30"`
	Notes         string    `gorm:"type:text"`
	CreatedAt     time.Time
}
