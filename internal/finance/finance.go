// Package finance implements the household ledger core: accounts,
// income and expense entries, transfers between accounts, recurring-rule
// materialization, daily balance snapshots and the read-only reports
// built on top of them.
//
// Every operation takes an explicit Actor; the package never reads the
// authenticated user from ambient state. Mutating operations run inside
// a single database transaction so balance adjustments, entry rows,
// audit records and snapshots commit or roll back together.
package finance

import (
	"sync"
	"time"

	"gorm.io/gorm"
)

// Config tunes the ledger core. All amounts are integer cents.
type Config struct {
	MaxTransactionCent int64  // largest single entry amount
	RecurrenceCap      int    // materializer loop bound per rule
	DefaultPageSize    int    // list page size when the caller sends none
	Currency           string // display symbol for reports
}

type Service struct {
	db  *gorm.DB
	cfg Config
	now func() time.Time

	ruleLocks sync.Map // rule id -> *sync.Mutex, serializes materialization per rule
}

func NewService(db *gorm.DB, cfg Config) *Service {
	if cfg.MaxTransactionCent <= 0 {
		cfg.MaxTransactionCent = 1_000_000_000 // 10,000,000.00
	}
	if cfg.RecurrenceCap <= 0 {
		cfg.RecurrenceCap = 60
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = 50
	}
	return &Service{db: db, cfg: cfg, now: time.Now}
}

// Currency returns the configured display currency symbol.
func (s *Service) Currency() string {
	return s.cfg.Currency
}

func (s *Service) today() time.Time {
	return dateOnly(s.now())
}

func (s *Service) ruleLock(id uint) *sync.Mutex {
	v, _ := s.ruleLocks.LoadOrStore(id, &sync.Mutex{})
	return v.(*sync.Mutex)
}
