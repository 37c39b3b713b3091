package finance

import (
	"testing"
	"time"

	"family-portal/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testClock is the fixed "today" most tests run under.
var testClock = time.Date(2025, 6, 15, 10, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// a single connection keeps the in-memory database alive and
	// serializes writers the way a file-backed sqlite would
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Account{},
		&models.Entry{},
		&models.Category{},
		&models.RecurringRule{},
		&models.Transfer{},
		&models.BalanceSnapshot{},
		&models.AuditLog{},
	))

	svc := NewService(db, Config{Currency: "€"})
	svc.now = func() time.Time { return testClock }
	return svc
}

func seedAccount(t *testing.T, svc *Service, name string, owner *uint, balanceCent int64, allowNegative bool) *models.Account {
	t.Helper()
	acc := &models.Account{
		Name:          name,
		AccountType:   "checking",
		BalanceCent:   balanceCent,
		OwnerID:       owner,
		AllowNegative: allowNegative,
	}
	require.NoError(t, svc.db.Create(acc).Error)
	return acc
}

func accountBalance(t *testing.T, svc *Service, id uint) int64 {
	t.Helper()
	var acc models.Account
	require.NoError(t, svc.db.First(&acc, id).Error)
	return acc.BalanceCent
}

func countEntries(t *testing.T, svc *Service) int64 {
	t.Helper()
	var n int64
	require.NoError(t, svc.db.Model(&models.Entry{}).Count(&n).Error)
	return n
}

func uintPtr(v uint) *uint {
	return &v
}

func floatPtr(v float64) *float64 {
	return &v
}

func strPtr(v string) *string {
	return &v
}
