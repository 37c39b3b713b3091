package finance

import (
	"strconv"
	"strings"

	"family-portal/internal/models"

	"gorm.io/gorm"
)

// AccountView is the listing read model.
type AccountView struct {
	ID      uint    `json:"id"`
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
	OwnerID *uint   `json:"ownerId"`
}

// visibleAccounts applies the three-way visibility rule: admins see
// everything, others see their own accounts plus shared ones.
func (s *Service) visibleAccounts(actor Actor) ([]models.Account, error) {
	q := s.db.Order("name ASC")
	if !actor.IsAdmin {
		q = q.Where("owner_id = ? OR owner_id IS NULL", actor.UserID)
	}
	var accounts []models.Account
	if err := q.Find(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (s *Service) ListAccounts(actor Actor) ([]AccountView, error) {
	accounts, err := s.visibleAccounts(actor)
	if err != nil {
		return nil, err
	}
	views := make([]AccountView, 0, len(accounts))
	for i := range accounts {
		a := &accounts[i]
		views = append(views, AccountView{
			ID:      a.ID,
			Name:    a.Name,
			Balance: AmountOf(a.BalanceCent),
			OwnerID: a.OwnerID,
		})
	}
	return views, nil
}

type CreateAccountInput struct {
	Name          string
	AccountType   string
	OwnerID       *uint // honored for admins only; nil means shared
	AllowNegative bool
}

// CreateAccount creates an account with zero balance. Non-admins always
// own the accounts they create; admins may create shared accounts or
// assign an owner.
func (s *Service) CreateAccount(actor Actor, in CreateAccountInput) (uint, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return 0, validationf("account name required")
	}
	name = truncate(name, 80)

	owner := in.OwnerID
	if !actor.IsAdmin {
		uid := actor.UserID
		owner = &uid
	}
	accType := strings.TrimSpace(in.AccountType)
	if accType == "" {
		accType = "checking"
	}

	acc := models.Account{
		Name:          name,
		AccountType:   accType,
		OwnerID:       owner,
		AllowNegative: in.AllowNegative,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.Account{}).Where("name = ?", name).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return validationf("account %q already exists", name)
		}
		if err := tx.Create(&acc).Error; err != nil {
			return err
		}
		return audit(tx, actor.UserID, "account_create", "account",
			strconv.Itoa(int(acc.ID)), "name="+name)
	})
	if err != nil {
		return 0, err
	}
	return acc.ID, nil
}
