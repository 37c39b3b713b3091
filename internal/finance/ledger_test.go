package finance

import (
	"testing"

	"family-portal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateEntryAdjustsBalance(t *testing.T) {
	svc := newTestService(t)
	actor := Actor{UserID: 1}
	acc := seedAccount(t, svc, "Haushalt", uintPtr(1), 10_000, false)

	_, err := svc.CreateEntry(actor, CreateEntryInput{
		Amount: 25.50, Kind: KindExpense, Date: "2025-06-10",
		Description: "Groceries", AccountID: &acc.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10_000-2_550), accountBalance(t, svc, acc.ID))

	_, err = svc.CreateEntry(actor, CreateEntryInput{
		Amount: 100, Kind: KindIncome, Date: "2025-06-11",
		Description: "Refund", AccountID: &acc.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10_000-2_550+10_000), accountBalance(t, svc, acc.ID))
}

func TestCreateEntryDefaultsAndValidation(t *testing.T) {
	svc := newTestService(t)
	actor := Actor{UserID: 1}

	res, err := svc.CreateEntry(actor, CreateEntryInput{Amount: 5, Date: "2025-06-01"})
	require.NoError(t, err)

	var entry models.Entry
	require.NoError(t, svc.db.First(&entry, res.ID).Error)
	assert.Equal(t, KindExpense, entry.Kind)
	assert.Equal(t, "—", entry.Description)
	assert.Equal(t, "Allgemein", entry.Category)

	_, err = svc.CreateEntry(actor, CreateEntryInput{Amount: 0, Date: "2025-06-01"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = svc.CreateEntry(actor, CreateEntryInput{Amount: 10_000_001, Date: "2025-06-01"})
	require.ErrorAs(t, err, &verr)

	_, err = svc.CreateEntry(actor, CreateEntryInput{Amount: 5, Date: "not-a-date"})
	require.ErrorAs(t, err, &verr)

	_, err = svc.CreateEntry(actor, CreateEntryInput{Amount: 5, Date: "2025-06-01", Kind: "loan"})
	require.ErrorAs(t, err, &verr)
}

func TestCreateExpenseInsufficientFunds(t *testing.T) {
	svc := newTestService(t)
	actor := Actor{UserID: 1}
	acc := seedAccount(t, svc, "Sparen", uintPtr(1), 1_000, false)

	_, err := svc.CreateEntry(actor, CreateEntryInput{
		Amount: 50, Kind: KindExpense, Date: "2025-06-10", AccountID: &acc.ID,
	})
	require.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, int64(1_000), accountBalance(t, svc, acc.ID))
	assert.Zero(t, countEntries(t, svc))
}

func TestCreateExpenseOverdraftAllowed(t *testing.T) {
	svc := newTestService(t)
	actor := Actor{UserID: 1}
	acc := seedAccount(t, svc, "Kreditkarte", uintPtr(1), 1_000, true)

	_, err := svc.CreateEntry(actor, CreateEntryInput{
		Amount: 50, Kind: KindExpense, Date: "2025-06-10", AccountID: &acc.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1_000-5_000), accountBalance(t, svc, acc.ID))
}

func TestCreateEntryOnSharedAccount(t *testing.T) {
	svc := newTestService(t)
	shared := seedAccount(t, svc, "Familienkasse", nil, 50_000, false)

	_, err := svc.CreateEntry(Actor{UserID: 7}, CreateEntryInput{
		Amount: 10, Kind: KindExpense, Date: "2025-06-10", AccountID: &shared.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(49_000), accountBalance(t, svc, shared.ID))
}

func TestCreateEntryForeignAccountDenied(t *testing.T) {
	svc := newTestService(t)
	acc := seedAccount(t, svc, "Privat", uintPtr(2), 50_000, false)

	_, err := svc.CreateEntry(Actor{UserID: 1}, CreateEntryInput{
		Amount: 10, Kind: KindExpense, Date: "2025-06-10", AccountID: &acc.ID,
	})
	require.ErrorIs(t, err, ErrPermissionDenied)

	// admins may book on anyone's account
	_, err = svc.CreateEntry(Actor{UserID: 3, IsAdmin: true}, CreateEntryInput{
		Amount: 10, Kind: KindExpense, Date: "2025-06-10", AccountID: &acc.ID,
	})
	require.NoError(t, err)
}

func TestDeleteEntryReversesEffect(t *testing.T) {
	svc := newTestService(t)
	actor := Actor{UserID: 1}
	acc := seedAccount(t, svc, "Haushalt", uintPtr(1), 10_000, false)

	res, err := svc.CreateEntry(actor, CreateEntryInput{
		Amount: 30, Kind: KindExpense, Date: "2025-06-10", AccountID: &acc.ID,
	})
	require.NoError(t, err)
	require.Equal(t, int64(7_000), accountBalance(t, svc, acc.ID))

	require.NoError(t, svc.DeleteEntry(actor, res.ID))
	assert.Equal(t, int64(10_000), accountBalance(t, svc, acc.ID))
	assert.Zero(t, countEntries(t, svc))
}

func TestUpdateEntryRebalancesAcrossAccounts(t *testing.T) {
	svc := newTestService(t)
	actor := Actor{UserID: 1}
	a := seedAccount(t, svc, "Konto A", uintPtr(1), 10_000, false)
	b := seedAccount(t, svc, "Konto B", uintPtr(1), 10_000, false)

	res, err := svc.CreateEntry(actor, CreateEntryInput{
		Amount: 40, Kind: KindExpense, Date: "2025-06-10", AccountID: &a.ID,
	})
	require.NoError(t, err)
	require.Equal(t, int64(6_000), accountBalance(t, svc, a.ID))

	// move the entry to account B and change the amount
	err = svc.UpdateEntry(actor, res.ID, UpdateEntryInput{
		Amount:    floatPtr(25),
		AccountID: OptionalID{Set: true, Value: &b.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10_000), accountBalance(t, svc, a.ID))
	assert.Equal(t, int64(7_500), accountBalance(t, svc, b.ID))
}

func TestUpdateEntryKindFlip(t *testing.T) {
	svc := newTestService(t)
	actor := Actor{UserID: 1}
	acc := seedAccount(t, svc, "Haushalt", uintPtr(1), 10_000, false)

	res, err := svc.CreateEntry(actor, CreateEntryInput{
		Amount: 20, Kind: KindExpense, Date: "2025-06-10", AccountID: &acc.ID,
	})
	require.NoError(t, err)
	require.Equal(t, int64(8_000), accountBalance(t, svc, acc.ID))

	err = svc.UpdateEntry(actor, res.ID, UpdateEntryInput{Kind: strPtr(KindIncome)})
	require.NoError(t, err)
	assert.Equal(t, int64(12_000), accountBalance(t, svc, acc.ID))
}

func TestUpdateEntryDetachAccount(t *testing.T) {
	svc := newTestService(t)
	actor := Actor{UserID: 1}
	acc := seedAccount(t, svc, "Haushalt", uintPtr(1), 10_000, false)

	res, err := svc.CreateEntry(actor, CreateEntryInput{
		Amount: 20, Kind: KindExpense, Date: "2025-06-10", AccountID: &acc.ID,
	})
	require.NoError(t, err)

	// explicit null accountId detaches and restores the balance
	err = svc.UpdateEntry(actor, res.ID, UpdateEntryInput{
		AccountID: OptionalID{Set: true, Value: nil},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10_000), accountBalance(t, svc, acc.ID))

	var entry models.Entry
	require.NoError(t, svc.db.First(&entry, res.ID).Error)
	assert.Nil(t, entry.AccountID)
}

func TestUpdateEntryInsufficientFundsRollsBack(t *testing.T) {
	svc := newTestService(t)
	actor := Actor{UserID: 1}
	acc := seedAccount(t, svc, "Haushalt", uintPtr(1), 5_000, false)

	res, err := svc.CreateEntry(actor, CreateEntryInput{
		Amount: 10, Kind: KindExpense, Date: "2025-06-10", AccountID: &acc.ID,
	})
	require.NoError(t, err)
	require.Equal(t, int64(4_000), accountBalance(t, svc, acc.ID))

	err = svc.UpdateEntry(actor, res.ID, UpdateEntryInput{Amount: floatPtr(60)})
	require.ErrorIs(t, err, ErrInsufficientFunds)

	assert.Equal(t, int64(4_000), accountBalance(t, svc, acc.ID))
	var entry models.Entry
	require.NoError(t, svc.db.First(&entry, res.ID).Error)
	assert.Equal(t, int64(1_000), entry.AmountCent)
}

func TestEntryOwnerScope(t *testing.T) {
	svc := newTestService(t)
	owner := Actor{UserID: 1}
	other := Actor{UserID: 2}
	admin := Actor{UserID: 3, IsAdmin: true}

	res, err := svc.CreateEntry(owner, CreateEntryInput{Amount: 5, Date: "2025-06-01"})
	require.NoError(t, err)

	_, err = svc.GetEntry(other, res.ID)
	require.ErrorIs(t, err, ErrPermissionDenied)
	require.ErrorIs(t, svc.DeleteEntry(other, res.ID), ErrPermissionDenied)
	require.ErrorIs(t, svc.UpdateEntry(other, res.ID, UpdateEntryInput{Amount: floatPtr(9)}), ErrPermissionDenied)

	_, err = svc.GetEntry(admin, res.ID)
	require.NoError(t, err)

	_, err = svc.GetEntry(owner, 9999)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListEntriesScopeAndPaging(t *testing.T) {
	svc := newTestService(t)
	alice := Actor{UserID: 1}
	bob := Actor{UserID: 2}
	admin := Actor{UserID: 3, IsAdmin: true}

	for i := 0; i < 3; i++ {
		_, err := svc.CreateEntry(alice, CreateEntryInput{Amount: 10, Date: "2025-06-01", Description: "alice"})
		require.NoError(t, err)
	}
	_, err := svc.CreateEntry(bob, CreateEntryInput{Amount: 20, Kind: KindIncome, Date: "2025-05-01", Description: "bob"})
	require.NoError(t, err)

	page, err := svc.ListEntries(alice, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)

	page, err = svc.ListEntries(admin, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), page.Total)

	// admin narrowing to one member
	page, err = svc.ListEntries(admin, ListFilter{UserID: uintPtr(2)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
	require.NotNil(t, page.FilteredUserID)
	assert.Equal(t, uint(2), *page.FilteredUserID)

	// non-admins cannot widen their scope
	page, err = svc.ListEntries(alice, ListFilter{UserID: uintPtr(2)})
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)

	page, err = svc.ListEntries(alice, ListFilter{PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 2, page.Pages)

	page, err = svc.ListEntries(admin, ListFilter{Kind: KindIncome})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	page, err = svc.ListEntries(admin, ListFilter{Month: 5})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}

func TestListEntriesSearch(t *testing.T) {
	svc := newTestService(t)
	actor := Actor{UserID: 1}

	_, err := svc.CreateEntry(actor, CreateEntryInput{Amount: 10, Date: "2025-06-01", Description: "Miete Juni"})
	require.NoError(t, err)
	_, err = svc.CreateEntry(actor, CreateEntryInput{Amount: 10, Date: "2025-06-02", Description: "Einkauf", Category: "Lebensmittel"})
	require.NoError(t, err)

	page, err := svc.ListEntries(actor, ListFilter{Query: "Miete"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	page, err = svc.ListEntries(actor, ListFilter{Query: "Lebensmittel"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}

func TestSnapshotUpsertOncePerDay(t *testing.T) {
	svc := newTestService(t)
	actor := Actor{UserID: 1}
	acc := seedAccount(t, svc, "Haushalt", uintPtr(1), 10_000, false)

	_, err := svc.CreateEntry(actor, CreateEntryInput{Amount: 10, Kind: KindExpense, Date: "2025-06-10", AccountID: &acc.ID})
	require.NoError(t, err)
	_, err = svc.CreateEntry(actor, CreateEntryInput{Amount: 5, Kind: KindExpense, Date: "2025-06-11", AccountID: &acc.ID})
	require.NoError(t, err)

	var snaps []models.BalanceSnapshot
	require.NoError(t, svc.db.Where("account_id = ?", acc.ID).Find(&snaps).Error)
	require.Len(t, snaps, 1)
	assert.True(t, snaps[0].Day.UTC().Equal(svc.today()))
	assert.Equal(t, int64(10_000-1_000-500), snaps[0].BalanceCent)
}
