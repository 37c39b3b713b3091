package finance

import (
	"testing"
	"time"

	"family-portal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextDueDate(t *testing.T) {
	cases := []struct {
		name string
		last time.Time
		freq string
		want time.Time
	}{
		{"weekly", day(2025, 6, 1), FreqWeekly, day(2025, 6, 8)},
		{"weekly across month", day(2025, 6, 28), FreqWeekly, day(2025, 7, 5)},
		{"monthly plain", day(2025, 1, 15), FreqMonthly, day(2025, 2, 15)},
		{"monthly 31st into february", day(2025, 1, 31), FreqMonthly, day(2025, 2, 28)},
		{"monthly 31st into april", day(2025, 3, 31), FreqMonthly, day(2025, 4, 30)},
		{"monthly 30th into february", day(2025, 1, 30), FreqMonthly, day(2025, 2, 28)},
		{"monthly 28th keeps day", day(2025, 2, 28), FreqMonthly, day(2025, 3, 28)},
		{"monthly december wraps", day(2025, 12, 15), FreqMonthly, day(2026, 1, 15)},
		{"yearly", day(2025, 3, 10), FreqYearly, day(2026, 3, 10)},
		{"yearly leap day", day(2024, 2, 29), FreqYearly, day(2025, 2, 28)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, nextDueDate(tc.last, tc.freq))
		})
	}
}

func TestMaterializeGeneratesMissedPeriods(t *testing.T) {
	svc := newTestService(t)
	actor := Actor{UserID: 1}

	// weekly from June 1st, today is June 15th: due on the 8th and 15th
	id, err := svc.CreateRule(actor, RuleInput{
		Description: "Pocket money", Amount: 10, Kind: KindExpense,
		StartDate: "2025-06-01", Frequency: FreqWeekly,
	})
	require.NoError(t, err)

	created := svc.MaterializeDue(actor)
	assert.Equal(t, 2, created)

	var entries []models.Entry
	require.NoError(t, svc.db.Order("date ASC").Find(&entries).Error)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Date.UTC().Equal(day(2025, 6, 8)))
	assert.True(t, entries[1].Date.UTC().Equal(day(2025, 6, 15)))

	var rule models.RecurringRule
	require.NoError(t, svc.db.First(&rule, id).Error)
	require.NotNil(t, rule.LastGeneratedDate)
	assert.True(t, rule.LastGeneratedDate.UTC().Equal(day(2025, 6, 15)))
}

func TestMaterializeIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	actor := Actor{UserID: 1}

	_, err := svc.CreateRule(actor, RuleInput{
		Description: "Rent", Amount: 800, Kind: KindExpense,
		StartDate: "2025-03-01", Frequency: FreqMonthly,
	})
	require.NoError(t, err)

	first := svc.MaterializeDue(actor)
	assert.Equal(t, 3, first) // April, May, June
	second := svc.MaterializeDue(actor)
	assert.Zero(t, second)
	assert.Equal(t, int64(3), countEntries(t, svc))
}

func TestMaterializeSkipsManualDuplicate(t *testing.T) {
	svc := newTestService(t)
	actor := Actor{UserID: 1}

	id, err := svc.CreateRule(actor, RuleInput{
		Description: "Netflix", Amount: 12.99, Kind: KindExpense,
		StartDate: "2025-06-01", Frequency: FreqWeekly,
	})
	require.NoError(t, err)

	// the member already booked the June 8th charge by hand
	require.NoError(t, svc.db.Create(&models.Entry{
		AmountCent: 1_299, Kind: KindExpense, Description: "Netflix",
		Category: "Allgemein", Date: day(2025, 6, 8), OwnerID: 1,
	}).Error)

	created := svc.MaterializeDue(actor)
	assert.Equal(t, 1, created) // only June 15th is new
	assert.Equal(t, int64(2), countEntries(t, svc))

	var rule models.RecurringRule
	require.NoError(t, svc.db.First(&rule, id).Error)
	require.NotNil(t, rule.LastGeneratedDate)
	assert.True(t, rule.LastGeneratedDate.UTC().Equal(day(2025, 6, 15)))
}

func TestMaterializeAllowsOverdraft(t *testing.T) {
	svc := newTestService(t)
	actor := Actor{UserID: 1}
	acc := seedAccount(t, svc, "Giro", uintPtr(1), 500, false)

	_, err := svc.CreateRule(actor, RuleInput{
		Description: "Insurance", Amount: 90, Kind: KindExpense,
		StartDate: "2025-06-08", Frequency: FreqWeekly, AccountID: &acc.ID,
	})
	require.NoError(t, err)

	created := svc.MaterializeDue(actor)
	assert.Equal(t, 1, created)
	// bills fall due regardless of cover
	assert.Equal(t, int64(500-9_000), accountBalance(t, svc, acc.ID))
}

func TestMaterializeHonorsCap(t *testing.T) {
	svc := newTestService(t)
	svc.cfg.RecurrenceCap = 3
	actor := Actor{UserID: 1}

	_, err := svc.CreateRule(actor, RuleInput{
		Description: "Allowance", Amount: 5, Kind: KindExpense,
		StartDate: "2025-01-01", Frequency: FreqWeekly,
	})
	require.NoError(t, err)

	created := svc.MaterializeDue(actor)
	assert.Equal(t, 3, created)

	// the next pass resumes from the watermark
	created = svc.MaterializeDue(actor)
	assert.Equal(t, 3, created)
	assert.Equal(t, int64(6), countEntries(t, svc))
}

func TestMaterializeSkipsInactiveRules(t *testing.T) {
	svc := newTestService(t)
	actor := Actor{UserID: 1}

	id, err := svc.CreateRule(actor, RuleInput{
		Description: "Gym", Amount: 30, Kind: KindExpense,
		StartDate: "2025-06-01", Frequency: FreqWeekly,
	})
	require.NoError(t, err)
	require.NoError(t, svc.UpdateRule(actor, id, UpdateRuleInput{Active: boolPtr(false)}))

	assert.Zero(t, svc.MaterializeDue(actor))
	assert.Zero(t, countEntries(t, svc))
}

func TestMakeRecurringSeedsWatermark(t *testing.T) {
	svc := newTestService(t)
	actor := Actor{UserID: 1}

	// booking on June 8th with makeRecurring: the rule's watermark is
	// the entry date, so only June 15th is generated afterwards
	_, err := svc.CreateEntry(actor, CreateEntryInput{
		Amount: 15, Kind: KindExpense, Date: "2025-06-08",
		Description: "Cleaning", MakeRecurring: true, RecFrequency: FreqWeekly,
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), countEntries(t, svc))

	created := svc.MaterializeDue(actor)
	assert.Equal(t, 1, created)

	var entries []models.Entry
	require.NoError(t, svc.db.Order("date ASC").Find(&entries).Error)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Date.UTC().Equal(day(2025, 6, 8)))
	assert.True(t, entries[1].Date.UTC().Equal(day(2025, 6, 15)))
}

func TestRuleCRUDAndScope(t *testing.T) {
	svc := newTestService(t)
	alice := Actor{UserID: 1}
	bob := Actor{UserID: 2}
	admin := Actor{UserID: 3, IsAdmin: true}

	id, err := svc.CreateRule(alice, RuleInput{
		Description: "Rent", Amount: 800, StartDate: "2025-05-01", Frequency: FreqMonthly,
	})
	require.NoError(t, err)

	var verr *ValidationError
	_, err = svc.CreateRule(alice, RuleInput{Description: "x", Amount: 5, Frequency: "daily"})
	require.ErrorAs(t, err, &verr)
	_, err = svc.CreateRule(alice, RuleInput{Description: "  ", Amount: 5, Frequency: FreqWeekly})
	require.ErrorAs(t, err, &verr)

	require.ErrorIs(t, svc.UpdateRule(bob, id, UpdateRuleInput{Amount: floatPtr(900)}), ErrPermissionDenied)
	require.ErrorIs(t, svc.DeleteRule(bob, id), ErrPermissionDenied)
	require.ErrorIs(t, svc.DeleteRule(alice, 9999), ErrNotFound)

	rules, err := svc.ListRules(bob, nil)
	require.NoError(t, err)
	assert.Empty(t, rules)

	rules, err = svc.ListRules(admin, nil)
	require.NoError(t, err)
	assert.Len(t, rules, 1)

	require.NoError(t, svc.UpdateRule(alice, id, UpdateRuleInput{Amount: floatPtr(850)}))
	rules, err = svc.ListRules(alice, nil)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, 850.0, rules[0].Amount)

	// deleting the rule keeps already generated entries
	created := svc.MaterializeDue(alice)
	require.Positive(t, created)
	require.NoError(t, svc.DeleteRule(alice, id))
	assert.Equal(t, int64(created), countEntries(t, svc))
}

func boolPtr(v bool) *bool {
	return &v
}
