package finance

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"family-portal/internal/models"

	"gorm.io/gorm"
)

const (
	defaultCategory    = "Allgemein"
	defaultDescription = "—"
	maxPageSize        = 200
)

// applyEffect adjusts an account balance by the signed effect of an
// entry: income adds, expense subtracts. direction -1 reverses it.
func applyEffect(acc *models.Account, kind string, cents int64, direction int64) {
	if kind == KindIncome {
		acc.BalanceCent += cents * direction
	} else {
		acc.BalanceCent -= cents * direction
	}
}

func loadAccount(tx *gorm.DB, id uint) (*models.Account, error) {
	var acc models.Account
	if err := tx.First(&acc, id).Error; err != nil {
		return nil, notFoundOr(err)
	}
	return &acc, nil
}

// CreateEntryInput carries a new ledger entry. Amount is in currency
// units as sent over the wire; it is converted to cents immediately.
type CreateEntryInput struct {
	Amount        float64
	Kind          string
	Date          string
	Description   string
	Category      string
	CategoryID    *uint
	AccountID     *uint
	PaymentMethod string
	Notes         string
	MakeRecurring bool
	RecFrequency  string
}

type CreateEntryResult struct {
	ID        uint
	Recurring bool
}

// CreateEntry records an entry, applies its effect to the linked
// account, optionally installs a recurring rule seeded with the entry's
// date as watermark, and snapshots the touched account.
func (s *Service) CreateEntry(actor Actor, in CreateEntryInput) (*CreateEntryResult, error) {
	cents := Cents(in.Amount)
	if err := s.validateAmount(cents); err != nil {
		return nil, err
	}
	kind := in.Kind
	if kind == "" {
		kind = KindExpense
	}
	if !validKind(kind) {
		return nil, validationf("invalid kind %q", in.Kind)
	}
	day, err := ParseDate(in.Date)
	if err != nil {
		return nil, err
	}
	if in.MakeRecurring && !validFrequency(in.RecFrequency) {
		return nil, validationf("invalid frequency %q", in.RecFrequency)
	}

	res := &CreateEntryResult{Recurring: in.MakeRecurring}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		entry := models.Entry{
			AmountCent:    cents,
			Kind:          kind,
			Description:   cleanText(in.Description, defaultDescription, 120),
			Category:      cleanText(in.Category, defaultCategory, 64),
			CategoryID:    in.CategoryID,
			Date:          day,
			OwnerID:       actor.UserID,
			PaymentMethod: truncate(strings.TrimSpace(in.PaymentMethod), 30),
			Notes:         strings.TrimSpace(in.Notes),
		}
		if in.AccountID != nil {
			acc, err := loadAccount(tx, *in.AccountID)
			if err != nil {
				return err
			}
			if !actor.canUseAccount(acc) {
				return ErrPermissionDenied
			}
			if kind == KindExpense && !acc.AllowNegative && acc.BalanceCent < cents {
				return ErrInsufficientFunds
			}
			applyEffect(acc, kind, cents, 1)
			if err := tx.Save(acc).Error; err != nil {
				return err
			}
			entry.AccountID = &acc.ID
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		if in.MakeRecurring {
			// watermark preset to the entry's own date so the next
			// materialization pass does not duplicate it
			watermark := day
			rule := models.RecurringRule{
				OwnerID:           actor.UserID,
				Description:       entry.Description,
				AmountCent:        cents,
				Kind:              kind,
				Category:          entry.Category,
				CategoryID:        entry.CategoryID,
				StartDate:         day,
				Frequency:         in.RecFrequency,
				LastGeneratedDate: &watermark,
				Active:            true,
				AccountID:         entry.AccountID,
			}
			if err := tx.Create(&rule).Error; err != nil {
				return err
			}
		}

		if err := audit(tx, actor.UserID, "finance_create", "entry", strconv.Itoa(int(entry.ID)),
			fmt.Sprintf("amount=%s kind=%s", FormatAmount(cents), kind)); err != nil {
			return err
		}
		res.ID = entry.ID
		return s.recordSnapshots(tx, []*uint{entry.AccountID})
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// OptionalID distinguishes "field absent" from "explicit null" from an
// id, for partial updates of nullable references.
type OptionalID struct {
	Set   bool
	Value *uint
}

// UpdateEntryInput holds a partial update; nil pointers mean "leave
// unchanged".
type UpdateEntryInput struct {
	Amount        *float64
	Kind          *string
	Date          *string
	Description   *string
	Category      *string
	CategoryID    OptionalID
	AccountID     OptionalID
	PaymentMethod *string
	Notes         *string
}

// UpdateEntry applies a partial update. When amount, kind or account
// change, the old signed effect is reversed on the old account and the
// new one applied to the new account as two independent adjustments.
func (s *Service) UpdateEntry(actor Actor, id uint, in UpdateEntryInput) error {
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
	var newDay *time.Time
	if in.Date != nil {
		d, err := ParseDate(*in.Date)
		if err != nil {
			return err
		}
		newDay = &d
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var entry models.Entry
		if err := tx.First(&entry, id).Error; err != nil {
			return notFoundOr(err)
		}
		if !actor.canEditOwned(entry.OwnerID) {
			return ErrPermissionDenied
		}

		oldCents, oldKind, oldAccountID := entry.AmountCent, entry.Kind, entry.AccountID

		if newCents != nil {
			entry.AmountCent = *newCents
		}
		if in.Kind != nil {
			entry.Kind = *in.Kind
		}
		if newDay != nil {
			entry.Date = *newDay
		}
		if in.Description != nil {
			entry.Description = cleanText(*in.Description, defaultDescription, 120)
		}
		if in.Category != nil {
			entry.Category = cleanText(*in.Category, defaultCategory, 64)
		}
		if in.CategoryID.Set {
			entry.CategoryID = in.CategoryID.Value
		}
		if in.PaymentMethod != nil {
			entry.PaymentMethod = truncate(strings.TrimSpace(*in.PaymentMethod), 30)
		}
		if in.Notes != nil {
			entry.Notes = strings.TrimSpace(*in.Notes)
		}
		if in.AccountID.Set {
			entry.AccountID = in.AccountID.Value
		}

		coupled := entry.AmountCent != oldCents || entry.Kind != oldKind ||
			!uintPtrEqual(entry.AccountID, oldAccountID)
		if coupled {
			if oldAccountID != nil {
				acc, err := loadAccount(tx, *oldAccountID)
				if err == nil {
					applyEffect(acc, oldKind, oldCents, -1)
					if err := tx.Save(acc).Error; err != nil {
						return err
					}
				} else if !errors.Is(err, ErrNotFound) {
					return err
				}
			}
			if entry.AccountID != nil {
				acc, err := loadAccount(tx, *entry.AccountID)
				if err != nil {
					return err
				}
				if !actor.canUseAccount(acc) {
					return ErrPermissionDenied
				}
				if entry.Kind == KindExpense && !acc.AllowNegative && acc.BalanceCent < entry.AmountCent {
					// aborts the transaction, undoing the reversal above
					return ErrInsufficientFunds
				}
				applyEffect(acc, entry.Kind, entry.AmountCent, 1)
				if err := tx.Save(acc).Error; err != nil {
					return err
				}
			}
		}

		if err := tx.Save(&entry).Error; err != nil {
			return err
		}
		if err := audit(tx, actor.UserID, "finance_update", "entry", strconv.Itoa(int(entry.ID)),
			fmt.Sprintf("amount=%s kind=%s", FormatAmount(entry.AmountCent), entry.Kind)); err != nil {
			return err
		}
		if coupled {
			return s.recordSnapshots(tx, []*uint{oldAccountID, entry.AccountID})
		}
		return nil
	})
}

// DeleteEntry removes an entry and reverses its effect on the linked
// account. A dangling account reference is tolerated.
func (s *Service) DeleteEntry(actor Actor, id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var entry models.Entry
		if err := tx.First(&entry, id).Error; err != nil {
			return notFoundOr(err)
		}
		if !actor.canEditOwned(entry.OwnerID) {
			return ErrPermissionDenied
		}
		if entry.AccountID != nil {
			acc, err := loadAccount(tx, *entry.AccountID)
			if err == nil {
				applyEffect(acc, entry.Kind, entry.AmountCent, -1)
				if err := tx.Save(acc).Error; err != nil {
					return err
				}
			} else if !errors.Is(err, ErrNotFound) {
				return err
			}
		}
		if err := audit(tx, actor.UserID, "finance_delete", "entry", strconv.Itoa(int(entry.ID)),
			fmt.Sprintf("amount=%s kind=%s", FormatAmount(entry.AmountCent), entry.Kind)); err != nil {
			return err
		}
		if err := tx.Delete(&entry).Error; err != nil {
			return err
		}
		return s.recordSnapshots(tx, []*uint{entry.AccountID})
	})
}

// EntryDetail is the single-entry read model.
type EntryDetail struct {
	ID            uint    `json:"id"`
	Date          string  `json:"date"`
	Kind          string  `json:"kind"`
	Category      string  `json:"category"`
	CategoryID    *uint   `json:"categoryId"`
	Amount        float64 `json:"amount"`
	Description   string  `json:"description"`
	PaymentMethod string  `json:"paymentMethod"`
	Notes         string  `json:"notes"`
	AccountID     *uint   `json:"accountId"`
	AccountName   *string `json:"accountName"`
}

func (s *Service) GetEntry(actor Actor, id uint) (*EntryDetail, error) {
	var entry models.Entry
	if err := s.db.First(&entry, id).Error; err != nil {
		return nil, notFoundOr(err)
	}
	if !actor.canEditOwned(entry.OwnerID) {
		return nil, ErrPermissionDenied
	}
	detail := &EntryDetail{
		ID:            entry.ID,
		Date:          entry.Date.Format(dateLayout),
		Kind:          entry.Kind,
		Category:      entry.Category,
		CategoryID:    entry.CategoryID,
		Amount:        AmountOf(entry.AmountCent),
		Description:   entry.Description,
		PaymentMethod: entry.PaymentMethod,
		Notes:         entry.Notes,
		AccountID:     entry.AccountID,
	}
	if entry.AccountID != nil {
		var acc models.Account
		if err := s.db.First(&acc, *entry.AccountID).Error; err == nil {
			detail.AccountName = &acc.Name
		}
	}
	return detail, nil
}

// ListFilter narrows the entry listing. UserID is honored for admins
// only; non-admins always see just their own entries.
type ListFilter struct {
	Kind     string
	Query    string
	Start    string
	End      string
	Year     int
	Month    int
	Page     int
	PageSize int
	UserID   *uint
}

// EntryView is one row of the paginated listing. RawAmount is always
// positive; Kind carries the sign.
type EntryView struct {
	ID            uint    `json:"id"`
	Date          string  `json:"date"`
	Kind          string  `json:"kind"`
	Category      string  `json:"category"`
	CategoryID    *uint   `json:"categoryId"`
	RawAmount     float64 `json:"rawAmount"`
	Description   string  `json:"description"`
	PaymentMethod string  `json:"paymentMethod"`
	Notes         string  `json:"notes"`
	AccountID     *uint   `json:"accountId"`
	AccountName   *string `json:"accountName"`
	OwnerID       uint    `json:"userId"`
}

type EntryPage struct {
	Items          []EntryView
	Page           int
	Pages          int
	Total          int64
	FilteredUserID *uint
}

// ListEntries returns a filtered, paginated view ordered by date then
// id, newest first.
func (s *Service) ListEntries(actor Actor, f ListFilter) (*EntryPage, error) {
	page := f.Page
	if page < 1 {
		page = 1
	}
	size := f.PageSize
	if size <= 0 {
		size = s.cfg.DefaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}

	q := s.db.Model(&models.Entry{})
	var filteredUser *uint
	if actor.IsAdmin {
		if f.UserID != nil {
			filteredUser = f.UserID
			q = q.Where("owner_id = ?", *f.UserID)
		}
	} else {
		q = q.Where("owner_id = ?", actor.UserID)
	}
	if f.Kind == KindIncome || f.Kind == KindExpense {
		q = q.Where("kind = ?", f.Kind)
	}
	if f.Year > 0 {
		q = q.Where("CAST(strftime('%Y', date) AS INTEGER) = ?", f.Year)
	}
	if f.Month >= 1 && f.Month <= 12 {
		q = q.Where("CAST(strftime('%m', date) AS INTEGER) = ?", f.Month)
	}
	if f.Start != "" {
		if d, err := ParseDate(f.Start); err == nil {
			q = q.Where("date >= ?", d)
		}
	}
	if f.End != "" {
		if d, err := ParseDate(f.End); err == nil {
			q = q.Where("date <= ?", d)
		}
	}
	if f.Query != "" {
		like := "%" + f.Query + "%"
		q = q.Where("description LIKE ? OR category LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, err
	}
	pages := 1
	if total > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}

	var entries []models.Entry
	if err := q.Order("date DESC, id DESC").
		Limit(size).Offset((page - 1) * size).
		Find(&entries).Error; err != nil {
		return nil, err
	}

	names, err := s.accountNames(entries)
	if err != nil {
		return nil, err
	}
	items := make([]EntryView, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		view := EntryView{
			ID:            e.ID,
			Date:          e.Date.Format(dateLayout),
			Kind:          e.Kind,
			Category:      e.Category,
			CategoryID:    e.CategoryID,
			RawAmount:     AmountOf(e.AmountCent),
			Description:   e.Description,
			PaymentMethod: e.PaymentMethod,
			Notes:         e.Notes,
			AccountID:     e.AccountID,
			OwnerID:       e.OwnerID,
		}
		if e.AccountID != nil {
			if name, ok := names[*e.AccountID]; ok {
				n := name
				view.AccountName = &n
			}
		}
		items = append(items, view)
	}
	return &EntryPage{
		Items:          items,
		Page:           page,
		Pages:          pages,
		Total:          total,
		FilteredUserID: filteredUser,
	}, nil
}

func (s *Service) accountNames(entries []models.Entry) (map[uint]string, error) {
	ids := make([]uint, 0, len(entries))
	seen := make(map[uint]bool)
	for i := range entries {
		if id := entries[i].AccountID; id != nil && !seen[*id] {
			seen[*id] = true
			ids = append(ids, *id)
		}
	}
	names := make(map[uint]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var accounts []models.Account
	if err := s.db.Where("id IN ?", ids).Find(&accounts).Error; err != nil {
		return nil, err
	}
	for i := range accounts {
		names[accounts[i].ID] = accounts[i].Name
	}
	return names, nil
}

func uintPtrEqual(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
