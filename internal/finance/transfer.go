package finance

import (
	"strconv"
	"strings"

	"family-portal/internal/models"

	"gorm.io/gorm"
)

type TransferInput struct {
	FromAccountID uint
	ToAccountID   uint
	Amount        float64
	Description   string
}

type TransferResult struct {
	TxID        uint
	FromBalance float64
	ToBalance   float64
}

// Transfer moves money between two accounts the actor may use. Both
// balance adjustments, the transfer row, the audit record and the
// snapshots commit in one transaction; money is conserved across the
// pair.
func (s *Service) Transfer(actor Actor, in TransferInput) (*TransferResult, error) {
	cents := Cents(in.Amount)
	if err := s.validateAmount(cents); err != nil {
		return nil, err
	}
	if in.FromAccountID == in.ToAccountID {
		return nil, validationf("source and target account are identical")
	}

	res := &TransferResult{}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		from, err := loadAccount(tx, in.FromAccountID)
		if err != nil {
			return err
		}
		to, err := loadAccount(tx, in.ToAccountID)
		if err != nil {
			return err
		}
		if !actor.canUseAccount(from) || !actor.canUseAccount(to) {
			return ErrPermissionDenied
		}
		if !from.AllowNegative && from.BalanceCent < cents {
			return ErrInsufficientFunds
		}

		from.BalanceCent -= cents
		to.BalanceCent += cents
		if err := tx.Save(from).Error; err != nil {
			return err
		}
		if err := tx.Save(to).Error; err != nil {
			return err
		}

		transfer := models.Transfer{
			FromAccountID: from.ID,
			ToAccountID:   to.ID,
			AmountCent:    cents,
			Description:   truncate(strings.TrimSpace(in.Description), 200),
			ActorID:       actor.UserID,
		}
		if err := tx.Create(&transfer).Error; err != nil {
			return err
		}
		if err := audit(tx, actor.UserID, "account_transfer", "transfer", strconv.Itoa(int(transfer.ID)),
			"amount="+FormatAmount(cents)+" from="+from.Name+" to="+to.Name); err != nil {
			return err
		}

		res.TxID = transfer.ID
		res.FromBalance = AmountOf(from.BalanceCent)
		res.ToBalance = AmountOf(to.BalanceCent)
		return s.recordSnapshots(tx, []*uint{&from.ID, &to.ID})
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
