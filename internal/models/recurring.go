package models

import "time"

// RecurringRule is a template that should produce one ledger entry per
// cycle. LastGeneratedDate is the watermark: the latest due date already
// turned into a concrete entry. Only the materializer advances it.
type RecurringRule struct {
	ID                uint      `gorm:"primaryKey"`
	OwnerID           uint      `gorm:"index;not null"`
	Description       string    `gorm:"size:120;not null"`
	AmountCent        int64     `gorm:"not null"`
	Kind              string    `gorm:"size:20;not null;default:expense"` // income / expense
	Category          string    `gorm:"size:64;not null"`
	CategoryID        *uint     `gorm:"index"`
	StartDate         time.Time `gorm:"not null"`
	Frequency         string    `gorm:"size:20;not null"` // weekly / monthly / yearly
	LastGeneratedDate *time.Time
	Active            bool  `gorm:"index;not null;default:true"`
	AccountID         *uint `gorm:"index"`
	CreatedAt         time.Time
}
