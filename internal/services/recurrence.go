package services

import (
	"fmt"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

// Effective is the set of concrete records visible up to a horizon:
// the one-time records followed by every recurring occurrence.
type Effective struct {
	Incomes  []core.Income
	Expenses []core.Expense
}

// occurrenceDates lists the dates of a recurring record that fall on or
// before horizon. Occurrences are generated in order, so the first one past
// the horizon ends the series.
func occurrenceDates(start core.Date, rec core.Recurrence, horizon core.Date) ([]core.Date, error) {
	stepper, err := GetStepper(rec.Frequency)
	if err != nil {
		return nil, err
	}
	var dates []core.Date
	for i := 0; i < rec.Repetitions; i++ {
		d := stepper.Occurrence(start, i)
		if d.After(horizon) {
			break
		}
		dates = append(dates, d)
	}
	return dates, nil
}

// ExpandIncomes turns recurring incomes into dated occurrences up to horizon.
// The templates are not modified.
func ExpandIncomes(recs []core.RecurringIncome, horizon core.Date) ([]core.Income, error) {
	var out []core.Income
	for i, r := range recs {
		dates, err := occurrenceDates(r.Date, r.Recurrence, horizon)
		if err != nil {
			return nil, fmt.Errorf("recurring income %d: %w", i+1, err)
		}
		for _, d := range dates {
			out = append(out, core.Income{
				Amount:      r.Amount,
				Description: r.Description + core.RecurringMarker,
				Date:        d,
			})
		}
	}
	return out, nil
}

// ExpandExpenses turns recurring expenses into dated occurrences up to horizon.
// The templates are not modified.
func ExpandExpenses(recs []core.RecurringExpense, horizon core.Date) ([]core.Expense, error) {
	var out []core.Expense
	for i, r := range recs {
		dates, err := occurrenceDates(r.Date, r.Recurrence, horizon)
		if err != nil {
			return nil, fmt.Errorf("recurring expense %d: %w", i+1, err)
		}
		for _, d := range dates {
			out = append(out, core.Expense{
				Amount:      r.Amount,
				Description: r.Description + core.RecurringMarker,
				Category:    r.Category,
				Date:        d,
			})
		}
	}
	return out, nil
}

// EffectiveRecords builds the effective income and expense sets of a store.
func EffectiveRecords(s *ledger.Store, horizon core.Date) (Effective, error) {
	incomes, err := ExpandIncomes(s.RecurringIncomes, horizon)
	if err != nil {
		return Effective{}, err
	}
	expenses, err := ExpandExpenses(s.RecurringExpenses, horizon)
	if err != nil {
		return Effective{}, err
	}

	eff := Effective{
		Incomes:  make([]core.Income, 0, len(s.Incomes)+len(incomes)),
		Expenses: make([]core.Expense, 0, len(s.Expenses)+len(expenses)),
	}
	eff.Incomes = append(append(eff.Incomes, s.Incomes...), incomes...)
	eff.Expenses = append(append(eff.Expenses, s.Expenses...), expenses...)
	return eff, nil
}
