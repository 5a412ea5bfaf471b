package services

import (
	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

// CurrentBalance is the sum of one-time incomes and each recurring income
// template counted once, minus the same for expenses.
func CurrentBalance(s *ledger.Store) core.Money {
	var balance core.Money
	for _, i := range s.Incomes {
		balance = balance.Add(i.Amount)
	}
	for _, r := range s.RecurringIncomes {
		balance = balance.Add(r.Amount)
	}
	for _, e := range s.Expenses {
		balance = balance.Sub(e.Amount)
	}
	for _, r := range s.RecurringExpenses {
		balance = balance.Sub(r.Amount)
	}
	return balance
}

// activeIn reports whether a recurring record has an occurrence in the
// calendar month of target.
func activeIn(start core.Date, rec core.Recurrence, target core.Date) bool {
	offset := core.MonthsBetween(start, target)
	return offset >= 0 && offset < rec.Repetitions
}

// Forecast projects the balance for the months following today. Month i
// (1..months) is today plus i months; every recurring record active in that
// month contributes its full amount once. Balances accumulate from start.
func Forecast(start core.Money, recIncomes []core.RecurringIncome, recExpenses []core.RecurringExpense, months int, today core.Date) []core.ForecastMonth {
	if months <= 0 {
		return []core.ForecastMonth{}
	}
	out := make([]core.ForecastMonth, 0, months)
	balance := start
	for i := 1; i <= months; i++ {
		target := today.AddMonths(i)
		var income, expense core.Money
		for _, r := range recIncomes {
			if activeIn(r.Date, r.Recurrence, target) {
				income = income.Add(r.Amount)
			}
		}
		for _, r := range recExpenses {
			if activeIn(r.Date, r.Recurrence, target) {
				expense = expense.Add(r.Amount)
			}
		}
		balance = balance.Add(income).Sub(expense)
		out = append(out, core.ForecastMonth{
			Month:   target.MonthKey(),
			Income:  income,
			Expense: expense,
			Balance: balance,
		})
	}
	return out
}
