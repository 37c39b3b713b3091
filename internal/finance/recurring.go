package finance

import (
	"errors"
	"log"
	"strconv"
	"time"

	"family-portal/internal/models"

	"gorm.io/gorm"
)

// nextDueDate advances a date by one period. Monthly advancement clamps
// to days every month has: 28 for February targets, 30 for the four
// short months. Yearly maps Feb 29 starts onto Feb 28.
func nextDueDate(last time.Time, frequency string) time.Time {
	switch frequency {
	case FreqWeekly:
		return last.AddDate(0, 0, 7)
	case FreqYearly:
		year := last.Year() + 1
		day := last.Day()
		if last.Month() == time.February && day == 29 {
			day = 28
		}
		return time.Date(year, last.Month(), day, 0, 0, 0, 0, time.UTC)
	default: // monthly
		year, month := last.Year(), int(last.Month())+1
		if month > 12 {
			month = 1
			year++
		}
		day := last.Day()
		if month == 2 && day > 28 {
			day = 28
		} else if (month == 4 || month == 6 || month == 9 || month == 11) && day > 30 {
			day = 30
		}
		return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	}
}

// MaterializeDue brings every rule the actor can see up to date,
// generating the entries whose due dates have passed. Failures in one
// rule are logged and do not stop the others. Returns the number of
// entries created.
func (s *Service) MaterializeDue(actor Actor) int {
	q := s.db.Where("active = ?", true)
	if !actor.IsAdmin {
		q = q.Where("owner_id = ?", actor.UserID)
	}
	var rules []models.RecurringRule
	if err := q.Find(&rules).Error; err != nil {
		log.Printf("recurring: load rules: %v", err)
		return 0
	}

	created := 0
	for i := range rules {
		n, err := s.materializeRule(rules[i].ID)
		if err != nil {
			log.Printf("recurring: rule %d: %v", rules[i].ID, err)
			continue
		}
		created += n
	}
	return created
}

// materializeRule walks a single rule's due dates from its watermark up
// to today, creating one entry per period. A per-rule mutex plus a
// fresh in-transaction read keeps concurrent callers from double
// generating.
func (s *Service) materializeRule(ruleID uint) (int, error) {
	mu := s.ruleLock(ruleID)
	mu.Lock()
	defer mu.Unlock()

	created := 0
	today := s.today()
	for i := 0; i < s.cfg.RecurrenceCap; i++ {
		more, madeEntry, err := s.materializeOnce(ruleID, today)
		if err != nil {
			return created, err
		}
		if madeEntry {
			created++
		}
		if !more {
			return created, nil
		}
	}
	log.Printf("recurring: rule %d hit generation cap (%d), resuming next pass", ruleID, s.cfg.RecurrenceCap)
	return created, nil
}

// materializeOnce advances the rule by one period inside its own
// transaction. Reports whether another period may still be due and
// whether a new entry row was written (a duplicate advances the
// watermark without writing).
func (s *Service) materializeOnce(ruleID uint, today time.Time) (more, madeEntry bool, err error) {
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var rule models.RecurringRule
		if err := tx.First(&rule, ruleID).Error; err != nil {
			return notFoundOr(err)
		}
		if !rule.Active {
			return nil
		}
		last := dateOnly(rule.StartDate)
		if rule.LastGeneratedDate != nil {
			last = dateOnly(*rule.LastGeneratedDate)
		}
		due := nextDueDate(last, rule.Frequency)
		if due.After(today) {
			return nil
		}

		// idempotence: an identical entry on the due date means this
		// period was already materialized
		var n int64
		if err := tx.Model(&models.Entry{}).
			Where("owner_id = ? AND date = ? AND amount_cent = ? AND description = ? AND kind = ?",
				rule.OwnerID, due, rule.AmountCent, rule.Description, rule.Kind).
			Where(accountMatch(rule.AccountID), accountArgs(rule.AccountID)...).
			Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			entry := models.Entry{
				AmountCent:  rule.AmountCent,
				Kind:        rule.Kind,
				Description: rule.Description,
				Category:    rule.Category,
				CategoryID:  rule.CategoryID,
				Date:        due,
				OwnerID:     rule.OwnerID,
				AccountID:   rule.AccountID,
			}
			if rule.AccountID != nil {
				acc, err := loadAccount(tx, *rule.AccountID)
				if errors.Is(err, ErrNotFound) {
					entry.AccountID = nil
				} else if err != nil {
					return err
				} else {
					// recurring entries may overdraw; bills fall due
					// whether or not the balance covers them
					applyEffect(acc, rule.Kind, rule.AmountCent, 1)
					if err := tx.Save(acc).Error; err != nil {
						return err
					}
				}
			}
			if err := tx.Create(&entry).Error; err != nil {
				return err
			}
			if err := s.recordSnapshots(tx, []*uint{entry.AccountID}); err != nil {
				return err
			}
			madeEntry = true
		}

		rule.LastGeneratedDate = &due
		if err := tx.Save(&rule).Error; err != nil {
			return err
		}
		more = !nextDueDate(due, rule.Frequency).After(today)
		return nil
	})
	return more, madeEntry, err
}

func accountMatch(id *uint) string {
	if id == nil {
		return "account_id IS NULL"
	}
	return "account_id = ?"
}

func accountArgs(id *uint) []any {
	if id == nil {
		return nil
	}
	return []any{*id}
}

// RuleInput carries a new recurring rule.
type RuleInput struct {
	Description string
	Amount      float64
	Kind        string
	Category    string
	CategoryID  *uint
	StartDate   string
	Frequency   string
	AccountID   *uint
}

// CreateRule installs a rule. The watermark starts at the start date,
// so the first generated entry lands one period after it.
func (s *Service) CreateRule(actor Actor, in RuleInput) (uint, error) {
	cents := Cents(in.Amount)
	if err := s.validateAmount(cents); err != nil {
		return 0, err
	}
	kind := in.Kind
	if kind == "" {
		kind = KindExpense
	}
	if !validKind(kind) {
		return 0, validationf("invalid kind %q", in.Kind)
	}
	if !validFrequency(in.Frequency) {
		return 0, validationf("invalid frequency %q", in.Frequency)
	}
	desc := cleanText(in.Description, "", 120)
	if desc == "" {
		return 0, validationf("description required")
	}
	start := s.today()
	if in.StartDate != "" {
		d, err := ParseDate(in.StartDate)
		if err != nil {
			return 0, err
		}
		start = d
	}

	rule := models.RecurringRule{
		OwnerID:     actor.UserID,
		Description: desc,
		AmountCent:  cents,
		Kind:        kind,
		Category:    cleanText(in.Category, defaultCategory, 64),
		CategoryID:  in.CategoryID,
		StartDate:   start,
		Frequency:   in.Frequency,
		Active:      true,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if in.AccountID != nil {
			acc, err := loadAccount(tx, *in.AccountID)
			if err != nil {
				return err
			}
			if !actor.canUseAccount(acc) {
				return ErrPermissionDenied
			}
			rule.AccountID = &acc.ID
		}
		if err := tx.Create(&rule).Error; err != nil {
			return err
		}
		return audit(tx, actor.UserID, "recurring_create", "recurring_rule",
			strconv.Itoa(int(rule.ID)), "description="+desc)
	})
	if err != nil {
		return 0, err
	}
	return rule.ID, nil
}

// UpdateRuleInput holds a partial rule update; nil means unchanged.
type UpdateRuleInput struct {
	Description *string
	Amount      *float64
	Kind        *string
	Category    *string
	CategoryID  OptionalID
	StartDate   *string
	Frequency   *string
	Active      *bool
	AccountID   OptionalID
}

func (s *Service) UpdateRule(actor Actor, id uint, in UpdateRuleInput) error {
	var newCents *int64
	if in.Amount != nil {
		c := Cents(*in.Amount)
		if err := s.validateAmount(c); err != nil {
			return err
		}
		newCents = &c
	}
	if in.Kind != nil && !validKind(*in.Kind) {
		return validationf("invalid kind %q", *in.Kind)
	}
	if in.Frequency != nil && !validFrequency(*in.Frequency) {
		return validationf("invalid frequency %q", *in.Frequency)
	}
	var newStart *time.Time
	if in.StartDate != nil {
		d, err := ParseDate(*in.StartDate)
		if err != nil {
			return err
		}
		newStart = &d
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var rule models.RecurringRule
		if err := tx.First(&rule, id).Error; err != nil {
			return notFoundOr(err)
		}
		if !actor.canEditOwned(rule.OwnerID) {
			return ErrPermissionDenied
		}

		if in.Description != nil {
			if d := cleanText(*in.Description, "", 120); d != "" {
				rule.Description = d
			}
		}
		if newCents != nil {
			rule.AmountCent = *newCents
		}
		if in.Kind != nil {
			rule.Kind = *in.Kind
		}
		if in.Category != nil {
			rule.Category = cleanText(*in.Category, defaultCategory, 64)
		}
		if in.CategoryID.Set {
			rule.CategoryID = in.CategoryID.Value
		}
		if newStart != nil {
			rule.StartDate = *newStart
		}
		if in.Frequency != nil {
			rule.Frequency = *in.Frequency
		}
		if in.Active != nil {
			rule.Active = *in.Active
		}
		if in.AccountID.Set {
			if in.AccountID.Value != nil {
				acc, err := loadAccount(tx, *in.AccountID.Value)
				if err != nil {
					return err
				}
				if !actor.canUseAccount(acc) {
					return ErrPermissionDenied
				}
			}
			rule.AccountID = in.AccountID.Value
		}

		if err := tx.Save(&rule).Error; err != nil {
			return err
		}
		return audit(tx, actor.UserID, "recurring_update", "recurring_rule",
			strconv.Itoa(int(rule.ID)), "active="+strconv.FormatBool(rule.Active))
	})
}

// DeleteRule removes a rule. Entries it generated stay in the ledger.
func (s *Service) DeleteRule(actor Actor, id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var rule models.RecurringRule
		if err := tx.First(&rule, id).Error; err != nil {
			return notFoundOr(err)
		}
		if !actor.canEditOwned(rule.OwnerID) {
			return ErrPermissionDenied
		}
		if err := tx.Delete(&rule).Error; err != nil {
			return err
		}
		return audit(tx, actor.UserID, "recurring_delete", "recurring_rule",
			strconv.Itoa(int(rule.ID)), "description="+rule.Description)
	})
}

// RuleView is the listing read model.
type RuleView struct {
	ID            uint    `json:"id"`
	Description   string  `json:"description"`
	Amount        float64 `json:"amount"`
	Kind          string  `json:"kind"`
	Category      string  `json:"category"`
	CategoryID    *uint   `json:"categoryId"`
	StartDate     string  `json:"startDate"`
	Frequency     string  `json:"frequency"`
	LastGenerated *string `json:"lastGenerated"`
	Active        bool    `json:"active"`
	AccountID     *uint   `json:"accountId"`
	OwnerID       uint    `json:"userId"`
}

// ListRules lists the actor's rules; admins see all and may narrow to
// one owner.
func (s *Service) ListRules(actor Actor, userFilter *uint) ([]RuleView, error) {
	q := s.db.Order("id ASC")
	if actor.IsAdmin {
		if userFilter != nil {
			q = q.Where("owner_id = ?", *userFilter)
		}
	} else {
		q = q.Where("owner_id = ?", actor.UserID)
	}
	var rules []models.RecurringRule
	if err := q.Find(&rules).Error; err != nil {
		return nil, err
	}
	views := make([]RuleView, 0, len(rules))
	for i := range rules {
		r := &rules[i]
		view := RuleView{
			ID:          r.ID,
			Description: r.Description,
			Amount:      AmountOf(r.AmountCent),
			Kind:        r.Kind,
			Category:    r.Category,
			CategoryID:  r.CategoryID,
			StartDate:   r.StartDate.Format(dateLayout),
			Frequency:   r.Frequency,
			Active:      r.Active,
			AccountID:   r.AccountID,
			OwnerID:     r.OwnerID,
		}
		if r.LastGeneratedDate != nil {
			lg := r.LastGeneratedDate.Format(dateLayout)
			view.LastGenerated = &lg
		}
		views = append(views, view)
	}
	return views, nil
}
