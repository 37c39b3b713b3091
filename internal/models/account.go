package models

import "time"

// Account is a named money pot with a running balance.
// BalanceCent always equals the signed sum of every entry and transfer
// effect ever applied to it.
type Account struct {
	ID            uint      `gorm:"primaryKey"`
	Name          string    `gorm:"size:80;uniqueIndex;not null"`
	AccountType   string    `gorm:"size:50;not null;default:checking"` // checking, savings, credit card, ...
	BalanceCent   int64     `gorm:"not null;default:0"`                // store in cents to avoid float
	OwnerID       *uint     `gorm:"index"`                             // nil = shared family account
	AllowNegative bool      `gorm:"index;not null;default:false"`
	CreatedAt     time.Time `gorm:"index"`
}
