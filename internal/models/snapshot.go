package models

import "time"

// BalanceSnapshot records an account's balance as of one calendar day,
// used for historical charting without replaying the full ledger.
// At most one row exists per (account, day); writers upsert.
type BalanceSnapshot struct {
	ID          uint      `gorm:"primaryKey"`
	AccountID   uint      `gorm:"uniqueIndex:uq_snapshot_account_day;not null"`
	Day         time.Time `gorm:"uniqueIndex:uq_snapshot_account_day;not null"`
	BalanceCent int64     `gorm:"not null"`
	CreatedAt   time.Time
}
