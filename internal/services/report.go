package services

import (
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

// Report is the filtered financial report. It only depends on the store,
// the filters and the report date, so equal inputs render identically.
type Report struct {
	Date    core.Date
	Filters Filters

	TotalIncome  core.Money
	TotalExpense core.Money
	Balance      core.Money

	ByCategory []core.CategoryAmount
	Budgets    []BudgetStatus

	// One-time records matching the filters; recurring occurrences excluded.
	OneTimeIncomes  []core.Income
	OneTimeExpenses []core.Expense

	// Recurring templates, never filtered.
	RecurringIncomes  []core.RecurringIncome
	RecurringExpenses []core.RecurringExpense
}

// BuildReport expands recurring records up to today, applies the filters and
// computes every report section. Budget spend uses the filtered expenses.
func BuildReport(s *ledger.Store, today core.Date, f Filters) (*Report, error) {
	f = f.Normalize()
	if err := f.Validate(); err != nil {
		return nil, err
	}
	eff, err := EffectiveRecords(s, today)
	if err != nil {
		return nil, fmt.Errorf("expand recurring records: %w", err)
	}

	incomes := FilterIncomes(eff.Incomes, f)
	expenses := FilterExpenses(eff.Expenses, f)

	r := &Report{
		Date:              today,
		Filters:           f,
		TotalIncome:       totalIncome(incomes),
		TotalExpense:      totalExpense(expenses),
		ByCategory:        ExpenseByCategory(expenses),
		Budgets:           EvaluateBudgets(s, expenses),
		RecurringIncomes:  append([]core.RecurringIncome(nil), s.RecurringIncomes...),
		RecurringExpenses: append([]core.RecurringExpense(nil), s.RecurringExpenses...),
	}
	r.Balance = r.TotalIncome.Sub(r.TotalExpense)

	for _, i := range incomes {
		if !core.IsDerived(i.Description) {
			r.OneTimeIncomes = append(r.OneTimeIncomes, i)
		}
	}
	for _, e := range expenses {
		if !core.IsDerived(e.Description) {
			r.OneTimeExpenses = append(r.OneTimeExpenses, e)
		}
	}
	return r, nil
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// String renders the report as text.
func (r *Report) String() string {
	var b strings.Builder

	b.WriteString("===== FINANCIAL REPORT =====\n")
	fmt.Fprintf(&b, "Report date: %s\n\n", r.Date)

	fmt.Fprintf(&b, "Total income (filtered): %s\n", r.TotalIncome)
	fmt.Fprintf(&b, "Total expenses (filtered): %s\n", r.TotalExpense)
	fmt.Fprintf(&b, "Balance: %s\n\n", r.Balance)

	b.WriteString("===== EXPENSES BY CATEGORY =====\n")
	if len(r.ByCategory) == 0 {
		b.WriteString("No filtered expenses by category.\n")
	}
	for _, c := range r.ByCategory {
		fmt.Fprintf(&b, "- %s: %s\n", capitalize(c.Name), c.Amount)
	}
	b.WriteString("\n")

	b.WriteString("===== BUDGET STATUS =====\n")
	if len(r.Budgets) == 0 {
		b.WriteString("No budget set for any category.\n")
	}
	for _, s := range r.Budgets {
		fmt.Fprintf(&b, "- %s: Limit: %s, Spent: %s, Remaining: %s (%s)\n",
			capitalize(s.Category), s.Limit, s.Spent, s.Remaining, s.State)
	}
	b.WriteString("\n")

	b.WriteString("===== ONE-TIME INCOMES =====\n")
	if len(r.OneTimeIncomes) == 0 {
		b.WriteString("No filtered one-time incomes.\n")
	}
	for i, inc := range r.OneTimeIncomes {
		fmt.Fprintf(&b, "%d. Date: %s, Amount: %s, Description: %s\n",
			i+1, inc.Date, inc.Amount, inc.Description)
	}
	b.WriteString("\n")

	b.WriteString("===== ONE-TIME EXPENSES =====\n")
	if len(r.OneTimeExpenses) == 0 {
		b.WriteString("No filtered one-time expenses.\n")
	}
	for i, e := range r.OneTimeExpenses {
		fmt.Fprintf(&b, "%d. Date: %s, Amount: %s, Category: %s, Description: %s\n",
			i+1, e.Date, e.Amount, capitalize(e.Category), e.Description)
	}
	b.WriteString("\n")

	b.WriteString("===== RECURRING INCOMES =====\n")
	if len(r.RecurringIncomes) == 0 {
		b.WriteString("No recurring incomes.\n")
	}
	for i, ri := range r.RecurringIncomes {
		fmt.Fprintf(&b, "%d. Start date: %s, Amount: %s, Description: %s, Frequency: %s, Repetitions: %d\n",
			i+1, ri.Date, ri.Amount, ri.Description, ri.Frequency, ri.Repetitions)
	}
	b.WriteString("\n")

	b.WriteString("===== RECURRING EXPENSES =====\n")
	if len(r.RecurringExpenses) == 0 {
		b.WriteString("No recurring expenses.\n")
	}
	for i, re := range r.RecurringExpenses {
		fmt.Fprintf(&b, "%d. Start date: %s, Amount: %s, Category: %s, Description: %s, Frequency: %s, Repetitions: %d\n",
			i+1, re.Date, re.Amount, capitalize(re.Category), re.Description, re.Frequency, re.Repetitions)
	}
	b.WriteString("\n")

	return b.String()
}

// Render writes the text form of the report to w.
func (r *Report) Render(w io.Writer) error {
	_, err := io.WriteString(w, r.String())
	return err
}
