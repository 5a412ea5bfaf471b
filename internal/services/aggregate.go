package services

import (
	"slices"
	"sort"
	"strings"

	"bilancio/internal/core"
)

// MonthlySummary groups effective records by YYYY-MM in chronological order.
func MonthlySummary(incomes []core.Income, expenses []core.Expense) []core.PeriodSummary {
	byMonth := make(map[string]*core.PeriodSummary)
	get := func(key string) *core.PeriodSummary {
		p, ok := byMonth[key]
		if !ok {
			p = &core.PeriodSummary{Period: key}
			byMonth[key] = p
		}
		return p
	}
	for _, i := range incomes {
		p := get(i.Date.MonthKey())
		p.Income = p.Income.Add(i.Amount)
	}
	for _, e := range expenses {
		p := get(e.Date.MonthKey())
		p.Expense = p.Expense.Add(e.Amount)
	}
	return sortedPeriods(byMonth)
}

// YearlySummary rolls monthly totals up to YYYY.
func YearlySummary(monthly []core.PeriodSummary) []core.PeriodSummary {
	byYear := make(map[string]*core.PeriodSummary)
	for _, m := range monthly {
		key := m.Period[:4]
		p, ok := byYear[key]
		if !ok {
			p = &core.PeriodSummary{Period: key}
			byYear[key] = p
		}
		p.Income = p.Income.Add(m.Income)
		p.Expense = p.Expense.Add(m.Expense)
	}
	return sortedPeriods(byYear)
}

func sortedPeriods(m map[string]*core.PeriodSummary) []core.PeriodSummary {
	out := make([]core.PeriodSummary, 0, len(m))
	for _, p := range m {
		p.Balance = p.Income.Sub(p.Expense)
		out = append(out, *p)
	}
	// YYYY-MM and YYYY sort chronologically as strings.
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out
}

// ExpenseByCategory totals expenses per lowercased category, sorted by name.
func ExpenseByCategory(expenses []core.Expense) []core.CategoryAmount {
	totals := make(map[string]core.Money)
	for _, e := range expenses {
		key := strings.ToLower(e.Category)
		totals[key] = totals[key].Add(e.Amount)
	}
	out := make([]core.CategoryAmount, 0, len(totals))
	for name, amount := range totals {
		out = append(out, core.CategoryAmount{Name: name, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RankCategories orders category totals by amount, largest first.
func RankCategories(in []core.CategoryAmount) []core.CategoryAmount {
	out := slices.Clone(in)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Amount.Cents != out[j].Amount.Cents {
			return out[i].Amount.Cents > out[j].Amount.Cents
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// SpentIn totals the expenses whose category matches, ignoring case.
func SpentIn(expenses []core.Expense, category string) core.Money {
	var total core.Money
	for _, e := range expenses {
		if strings.EqualFold(e.Category, category) {
			total = total.Add(e.Amount)
		}
	}
	return total
}

func totalIncome(in []core.Income) core.Money {
	var total core.Money
	for _, i := range in {
		total = total.Add(i.Amount)
	}
	return total
}

func totalExpense(in []core.Expense) core.Money {
	var total core.Money
	for _, e := range in {
		total = total.Add(e.Amount)
	}
	return total
}
