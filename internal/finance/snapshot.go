package finance

import (
	"family-portal/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// recordSnapshots upserts today's balance snapshot for the given
// accounts, inside the mutating transaction. Nil and duplicate ids are
// tolerated so callers can pass old/new account references verbatim.
func (s *Service) recordSnapshots(tx *gorm.DB, accountIDs []*uint) error {
	day := s.today()
	seen := make(map[uint]bool, len(accountIDs))
	for _, idp := range accountIDs {
		if idp == nil || seen[*idp] {
			continue
		}
		seen[*idp] = true

		var acc models.Account
		if err := tx.First(&acc, *idp).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				continue
			}
			return err
		}
		snap := models.BalanceSnapshot{
			AccountID:   acc.ID,
			Day:         day,
			BalanceCent: acc.BalanceCent,
		}
		// one row per account per day; re-recording overwrites the balance
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}, {Name: "day"}},
			DoUpdates: clause.AssignmentColumns([]string{"balance_cent"}),
		}).Create(&snap).Error; err != nil {
			return err
		}
	}
	return nil
}

// SnapshotAll records today's snapshot for every account the actor can
// see. Used by scheduled jobs and the overview read path.
func (s *Service) SnapshotAll(actor Actor) error {
	accounts, err := s.visibleAccounts(actor)
	if err != nil {
		return err
	}
	ids := make([]*uint, 0, len(accounts))
	for i := range accounts {
		ids = append(ids, &accounts[i].ID)
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.recordSnapshots(tx, ids)
	})
}
