package models

import "time"

// Category represents an income/expense category. MonthlyBudgetCent is a
// reporting ceiling only and never enforced as a hard limit.
type Category struct {
	ID                uint   `gorm:"primaryKey"`
	Name              string `gorm:"size:64;index;not null"`
	Color             string `gorm:"size:20"`
	MonthlyBudgetCent *int64
	OwnerID           *uint  `gorm:"index"`                         // nil = shared
	CategoryType      string `gorm:"size:10;index;default:expense"` // expense / income
	CreatedAt         time.Time
}
