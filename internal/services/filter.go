package services

import (
	"fmt"
	"strings"

	"bilancio/internal/core"
)

// Filters narrows report data. Empty fields impose no constraint and
// non-empty fields are combined with AND.
type Filters struct {
	Keyword  string
	Category string // expenses only; incomes have no category
	Month    string // YYYY-MM
	Year     string // YYYY
}

// Normalize trims surrounding whitespace from every field.
func (f Filters) Normalize() Filters {
	return Filters{
		Keyword:  strings.TrimSpace(f.Keyword),
		Category: strings.TrimSpace(f.Category),
		Month:    strings.TrimSpace(f.Month),
		Year:     strings.TrimSpace(f.Year),
	}
}

func (f Filters) Validate() error {
	if f.Month != "" && !core.ValidMonthKey(f.Month) {
		return fmt.Errorf("%w: month %q is not YYYY-MM", core.ErrInvalidFilter, f.Month)
	}
	if f.Year != "" && !core.ValidYearKey(f.Year) {
		return fmt.Errorf("%w: year %q is not YYYY", core.ErrInvalidFilter, f.Year)
	}
	return nil
}

func (f Filters) IsEmpty() bool {
	return f == Filters{}
}

func (f Filters) matchCommon(desc string, d core.Date) bool {
	if f.Keyword != "" && !strings.Contains(strings.ToLower(desc), strings.ToLower(f.Keyword)) {
		return false
	}
	if f.Month != "" && d.MonthKey() != f.Month {
		return false
	}
	if f.Year != "" && d.YearKey() != f.Year {
		return false
	}
	return true
}

func (f Filters) MatchIncome(i core.Income) bool {
	return f.matchCommon(i.Description, i.Date)
}

func (f Filters) MatchExpense(e core.Expense) bool {
	if f.Category != "" && !strings.EqualFold(e.Category, f.Category) {
		return false
	}
	return f.matchCommon(e.Description, e.Date)
}

// FilterIncomes keeps the incomes matching f, preserving order.
func FilterIncomes(in []core.Income, f Filters) []core.Income {
	var out []core.Income
	for _, i := range in {
		if f.MatchIncome(i) {
			out = append(out, i)
		}
	}
	return out
}

// FilterExpenses keeps the expenses matching f, preserving order.
func FilterExpenses(in []core.Expense, f Filters) []core.Expense {
	var out []core.Expense
	for _, e := range in {
		if f.MatchExpense(e) {
			out = append(out, e)
		}
	}
	return out
}
