package finance

import (
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	KindIncome  = "income"
	KindExpense = "expense"
)

const (
	FreqWeekly  = "weekly"
	FreqMonthly = "monthly"
	FreqYearly  = "yearly"
)

const dateLayout = "2006-01-02"

// Cents converts a decimal currency amount into integer cents. All
// ledger arithmetic happens in cents; floats only exist at the JSON
// boundary.
func Cents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// AmountOf converts cents back into a decimal amount for responses.
func AmountOf(cents int64) float64 {
	return float64(cents) / 100
}

// FormatAmount renders cents with two decimals, e.g. -2000 -> "-20.00".
func FormatAmount(cents int64) string {
	return strconv.FormatFloat(float64(cents)/100, 'f', 2, 64)
}

func (s *Service) validateAmount(cents int64) error {
	if cents <= 0 {
		return validationf("amount must be positive")
	}
	if cents > s.cfg.MaxTransactionCent {
		return validationf("amount exceeds limit (%s)", FormatAmount(s.cfg.MaxTransactionCent))
	}
	return nil
}

func validKind(kind string) bool {
	return kind == KindIncome || kind == KindExpense
}

func validFrequency(f string) bool {
	return f == FreqWeekly || f == FreqMonthly || f == FreqYearly
}

// ParseDate parses a calendar date. Plain YYYY-MM-DD is the expected
// form; full RFC 3339 timestamps are accepted and truncated to the day.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return dateOnly(t.UTC()), nil
	}
	return time.Time{}, validationf("invalid date %q, want YYYY-MM-DD", s)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

func cleanText(s, fallback string, max int) string {
	s = strings.TrimSpace(s)
	if s == "" {
		s = fallback
	}
	return truncate(s, max)
}
