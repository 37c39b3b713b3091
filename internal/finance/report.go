package finance

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"family-portal/internal/models"

	"github.com/xuri/excelize/v2"
)

// MonthTotal aggregates one calendar month of a year.
type MonthTotal struct {
	Month   int     `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

type Summary struct {
	Year           int
	Months         []MonthTotal
	FilteredUserID *uint
}

// GetSummary returns per-month income and expense totals for one year.
// Months without entries are omitted.
func (s *Service) GetSummary(actor Actor, year int, userFilter *uint) (*Summary, error) {
	if year <= 0 {
		year = s.today().Year()
	}
	q := s.db.Where("CAST(strftime('%Y', date) AS INTEGER) = ?", year)
	var filtered *uint
	if actor.IsAdmin {
		if userFilter != nil {
			filtered = userFilter
			q = q.Where("owner_id = ?", *userFilter)
		}
	} else {
		q = q.Where("owner_id = ?", actor.UserID)
	}
	var entries []models.Entry
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}

	type total struct{ income, expense int64 }
	byMonth := make(map[int]*total)
	for i := range entries {
		m := int(entries[i].Date.Month())
		t := byMonth[m]
		if t == nil {
			t = &total{}
			byMonth[m] = t
		}
		if entries[i].Kind == KindIncome {
			t.income += entries[i].AmountCent
		} else {
			t.expense += entries[i].AmountCent
		}
	}
	months := make([]MonthTotal, 0, len(byMonth))
	for m := 1; m <= 12; m++ {
		if t, ok := byMonth[m]; ok {
			months = append(months, MonthTotal{
				Month:   m,
				Income:  AmountOf(t.income),
				Expense: AmountOf(t.expense),
			})
		}
	}
	return &Summary{Year: year, Months: months, FilteredUserID: filtered}, nil
}

// BudgetLine reports one category's current-month spend against its
// monthly budget. Budget and Percent are nil when no budget is set.
type BudgetLine struct {
	ID           uint     `json:"id"`
	Name         string   `json:"name"`
	Color        string   `json:"color"`
	Budget       *float64 `json:"budget"`
	Spent        float64  `json:"spent"`
	Percent      *float64 `json:"percent"`
	CategoryType string   `json:"category_type"`
}

func (s *Service) GetBudgets(actor Actor, userFilter *uint) ([]BudgetLine, error) {
	categories, err := s.visibleCategories(actor)
	if err != nil {
		return nil, err
	}

	today := s.today()
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	q := s.db.Where("kind = ? AND date >= ? AND date <= ? AND category_id IS NOT NULL",
		KindExpense, monthStart, today)
	if actor.IsAdmin {
		if userFilter != nil {
			q = q.Where("owner_id = ?", *userFilter)
		}
	} else {
		q = q.Where("owner_id = ?", actor.UserID)
	}
	var entries []models.Entry
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	spent := make(map[uint]int64)
	for i := range entries {
		spent[*entries[i].CategoryID] += entries[i].AmountCent
	}

	lines := make([]BudgetLine, 0, len(categories))
	for i := range categories {
		c := &categories[i]
		line := BudgetLine{
			ID:           c.ID,
			Name:         c.Name,
			Color:        c.Color,
			Spent:        AmountOf(spent[c.ID]),
			CategoryType: c.CategoryType,
		}
		if c.MonthlyBudgetCent != nil && *c.MonthlyBudgetCent > 0 {
			b := AmountOf(*c.MonthlyBudgetCent)
			p := line.Spent / b * 100
			line.Budget = &b
			line.Percent = &p
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// AccountFlow is one account's balance plus its month-to-date flows.
type AccountFlow struct {
	ID      uint    `json:"id"`
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

type CategorySpend struct {
	Category string  `json:"category"`
	Spent    float64 `json:"spent"`
}

type Overview struct {
	TotalBalance  float64         `json:"totalBalance"`
	MonthIncome   float64         `json:"monthIncome"`
	MonthExpense  float64         `json:"monthExpense"`
	MonthNet      float64         `json:"monthNet"`
	Accounts      []AccountFlow   `json:"accounts"`
	TopCategories []CategorySpend `json:"topCategories"`
	Currency      string          `json:"currency"`
}

// GetOverview builds the dashboard: total visible balance, month-to-date
// flows overall and per account, and the five biggest expense
// categories of the month.
func (s *Service) GetOverview(actor Actor) (*Overview, error) {
	accounts, err := s.visibleAccounts(actor)
	if err != nil {
		return nil, err
	}
	today := s.today()
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)

	q := s.db.Where("date >= ? AND date <= ?", monthStart, today)
	if !actor.IsAdmin {
		q = q.Where("owner_id = ?", actor.UserID)
	}
	var entries []models.Entry
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}

	var totalBalance, monthIncome, monthExpense int64
	accIncome := make(map[uint]int64)
	accExpense := make(map[uint]int64)
	catSpend := make(map[string]int64)
	for i := range entries {
		e := &entries[i]
		if e.Kind == KindIncome {
			monthIncome += e.AmountCent
			if e.AccountID != nil {
				accIncome[*e.AccountID] += e.AmountCent
			}
		} else {
			monthExpense += e.AmountCent
			catSpend[e.Category] += e.AmountCent
			if e.AccountID != nil {
				accExpense[*e.AccountID] += e.AmountCent
			}
		}
	}

	flows := make([]AccountFlow, 0, len(accounts))
	for i := range accounts {
		a := &accounts[i]
		totalBalance += a.BalanceCent
		flows = append(flows, AccountFlow{
			ID:      a.ID,
			Name:    a.Name,
			Balance: AmountOf(a.BalanceCent),
			Income:  AmountOf(accIncome[a.ID]),
			Expense: AmountOf(accExpense[a.ID]),
		})
	}

	top := make([]CategorySpend, 0, len(catSpend))
	for name, cents := range catSpend {
		top = append(top, CategorySpend{Category: name, Spent: AmountOf(cents)})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Spent != top[j].Spent {
			return top[i].Spent > top[j].Spent
		}
		return top[i].Category < top[j].Category
	})
	if len(top) > 5 {
		top = top[:5]
	}

	return &Overview{
		TotalBalance:  AmountOf(totalBalance),
		MonthIncome:   AmountOf(monthIncome),
		MonthExpense:  AmountOf(monthExpense),
		MonthNet:      AmountOf(monthIncome - monthExpense),
		Accounts:      flows,
		TopCategories: top,
		Currency:      s.cfg.Currency,
	}, nil
}

// CashflowPoint is one day of one account's series: the signed flow of
// that day and the running total since the window start.
type CashflowPoint struct {
	Day        string  `json:"day"`
	Flow       float64 `json:"flow"`
	Cumulative float64 `json:"cumulative"`
}

type CashflowSeries struct {
	AccountID      uint            `json:"accountId"`
	Name           string          `json:"name"`
	CurrentBalance float64         `json:"currentBalance"`
	Points         []CashflowPoint `json:"points"`
}

type Cashflow struct {
	Days     []string         `json:"days"`
	Series   []CashflowSeries `json:"series"`
	Currency string           `json:"currency"`
}

// GetCashflow builds per-account daily flow series over a trailing
// window of 1 to 180 days. Entries count by their ledger date,
// transfers by creation date: outgoing negative, incoming positive.
func (s *Service) GetCashflow(actor Actor, days int) (*Cashflow, error) {
	if days < 1 {
		days = 1
	}
	if days > 180 {
		days = 180
	}
	today := s.today()
	start := today.AddDate(0, 0, -(days - 1))

	accounts, err := s.visibleAccounts(actor)
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(accounts))
	for i := range accounts {
		ids = append(ids, accounts[i].ID)
	}

	// daily[account][day] = signed flow in cents
	daily := make(map[uint]map[string]int64, len(accounts))
	for _, id := range ids {
		daily[id] = make(map[string]int64)
	}

	if len(ids) > 0 {
		q := s.db.Where("account_id IN ? AND date >= ? AND date <= ?", ids, start, today)
		if !actor.IsAdmin {
			q = q.Where("owner_id = ?", actor.UserID)
		}
		var entries []models.Entry
		if err := q.Find(&entries).Error; err != nil {
			return nil, err
		}
		for i := range entries {
			e := &entries[i]
			day := e.Date.Format(dateLayout)
			if e.Kind == KindIncome {
				daily[*e.AccountID][day] += e.AmountCent
			} else {
				daily[*e.AccountID][day] -= e.AmountCent
			}
		}

		var transfers []models.Transfer
		if err := s.db.Where("created_at >= ?", start).Find(&transfers).Error; err != nil {
			return nil, err
		}
		for i := range transfers {
			t := &transfers[i]
			day := dateOnly(t.CreatedAt.UTC()).Format(dateLayout)
			if m, ok := daily[t.FromAccountID]; ok {
				m[day] -= t.AmountCent
			}
			if m, ok := daily[t.ToAccountID]; ok {
				m[day] += t.AmountCent
			}
		}
	}

	dayKeys := make([]string, 0, days)
	for d := start; !d.After(today); d = d.AddDate(0, 0, 1) {
		dayKeys = append(dayKeys, d.Format(dateLayout))
	}

	series := make([]CashflowSeries, 0, len(accounts))
	for i := range accounts {
		a := &accounts[i]
		points := make([]CashflowPoint, 0, len(dayKeys))
		var running int64
		for _, day := range dayKeys {
			flow := daily[a.ID][day]
			running += flow
			points = append(points, CashflowPoint{
				Day:        day,
				Flow:       AmountOf(flow),
				Cumulative: AmountOf(running),
			})
		}
		series = append(series, CashflowSeries{
			AccountID:      a.ID,
			Name:           a.Name,
			CurrentBalance: AmountOf(a.BalanceCent),
			Points:         points,
		})
	}

	return &Cashflow{Days: dayKeys, Series: series, Currency: s.cfg.Currency}, nil
}

type Projection struct {
	HorizonDays         int     `json:"horizon_days"`
	MonthlyRecurringNet float64 `json:"monthly_recurring_net"`
	ProjectedNet        float64 `json:"projected_net_next_period"`
}

// GetProjection estimates the net effect of the actor's active
// recurring rules: weekly rules scale by 52/12, yearly divide by 12,
// and the monthly net prorates linearly over the horizon.
func (s *Service) GetProjection(actor Actor, horizonDays int) (*Projection, error) {
	if horizonDays <= 0 {
		horizonDays = 30
	}
	var rules []models.RecurringRule
	if err := s.db.Where("owner_id = ? AND active = ?", actor.UserID, true).
		Find(&rules).Error; err != nil {
		return nil, err
	}
	var monthlyNet float64
	for i := range rules {
		amount := AmountOf(rules[i].AmountCent)
		var monthly float64
		switch rules[i].Frequency {
		case FreqWeekly:
			monthly = amount * 52 / 12
		case FreqYearly:
			monthly = amount / 12
		default:
			monthly = amount
		}
		if rules[i].Kind == KindIncome {
			monthlyNet += monthly
		} else {
			monthlyNet -= monthly
		}
	}
	return &Projection{
		HorizonDays:         horizonDays,
		MonthlyRecurringNet: monthlyNet,
		ProjectedNet:        monthlyNet / 30 * float64(horizonDays),
	}, nil
}

// ExportFilter narrows an export. UserID is honored for admins only.
type ExportFilter struct {
	Kind   string
	Year   int
	Month  int
	UserID *uint
}

var exportHeader = []string{"Datum", "Art", "Kategorie", "Betrag", "Beschreibung", "UserID"}

func (s *Service) exportEntries(actor Actor, f ExportFilter) ([]models.Entry, error) {
	q := s.db.Order("date ASC, id ASC")
	if actor.IsAdmin {
		if f.UserID != nil {
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
	var entries []models.Entry
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// ExportCSV streams the filtered ledger as semicolon-separated CSV,
// date ascending. Expense amounts are negated so the column sums to the
// net result.
func (s *Service) ExportCSV(actor Actor, f ExportFilter, w io.Writer) error {
	entries, err := s.exportEntries(actor, f)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.Write(exportHeader); err != nil {
		return err
	}
	for i := range entries {
		e := &entries[i]
		cents := e.AmountCent
		if e.Kind == KindExpense {
			cents = -cents
		}
		if err := cw.Write([]string{
			e.Date.Format(dateLayout),
			e.Kind,
			e.Category,
			FormatAmount(cents),
			e.Description,
			strconv.Itoa(int(e.OwnerID)),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportXLSX builds a spreadsheet with the same rows and sign
// convention as the CSV export.
func (s *Service) ExportXLSX(actor Actor, f ExportFilter) (*excelize.File, error) {
	entries, err := s.exportEntries(actor, f)
	if err != nil {
		return nil, err
	}

	x := excelize.NewFile()
	const sheet = "Buchungen"
	index, err := x.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	x.SetActiveSheet(index)
	if err := x.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	for col, h := range exportHeader {
		cell := fmt.Sprintf("%c1", 'A'+col)
		if err := x.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}
	for i := range entries {
		e := &entries[i]
		cents := e.AmountCent
		if e.Kind == KindExpense {
			cents = -cents
		}
		row := i + 2
		values := []any{
			e.Date.Format(dateLayout),
			e.Kind,
			e.Category,
			AmountOf(cents),
			e.Description,
			int(e.OwnerID),
		}
		for col, v := range values {
			cell := fmt.Sprintf("%c%d", 'A'+col, row)
			if err := x.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}
	if err := x.SetColWidth(sheet, "A", "F", 18); err != nil {
		return nil, err
	}
	return x, nil
}
