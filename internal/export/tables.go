// Package export renders the ledger as flat tables and writes them to a
// CSV directory or a Google spreadsheet. Exports are one-way dumps for
// people; they are never read back.
package export

import (
	"context"
	"strconv"

	"bilancio/internal/ledger"
)

// Table is one exported collection with its header row.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Table names, also used as CSV file names and sheet tab titles.
const (
	TableIncomes           = "incomes_onetime"
	TableExpenses          = "expenses_onetime"
	TableRecurringIncomes  = "incomes_recurring"
	TableRecurringExpenses = "expenses_recurring"
	TableGoals             = "goals"
	TableBudget            = "budget"
	TableCategories        = "categories"
)

// Exporter writes a ledger snapshot somewhere.
type Exporter interface {
	Export(ctx context.Context, s *ledger.Store) error
}

var (
	_ Exporter = (*CSVExporter)(nil)
	_ Exporter = (*SheetsExporter)(nil)
)

// Tables renders every collection of s in a fixed order.
func Tables(s *ledger.Store) []Table {
	incomes := Table{Name: TableIncomes, Header: []string{"Amount", "Description", "Date"}}
	for _, i := range s.Incomes {
		incomes.Rows = append(incomes.Rows, []string{i.Amount.String(), i.Description, i.Date.String()})
	}

	expenses := Table{Name: TableExpenses, Header: []string{"Amount", "Description", "Category", "Date"}}
	for _, e := range s.Expenses {
		expenses.Rows = append(expenses.Rows, []string{e.Amount.String(), e.Description, e.Category, e.Date.String()})
	}

	recIncomes := Table{Name: TableRecurringIncomes, Header: []string{"Amount", "Description", "StartDate", "Frequency", "Repetitions"}}
	for _, r := range s.RecurringIncomes {
		recIncomes.Rows = append(recIncomes.Rows, []string{
			r.Amount.String(), r.Description, r.Date.String(), r.Frequency.String(), strconv.Itoa(r.Repetitions),
		})
	}

	recExpenses := Table{Name: TableRecurringExpenses, Header: []string{"Amount", "Description", "Category", "StartDate", "Frequency", "Repetitions"}}
	for _, r := range s.RecurringExpenses {
		recExpenses.Rows = append(recExpenses.Rows, []string{
			r.Amount.String(), r.Description, r.Category, r.Date.String(), r.Frequency.String(), strconv.Itoa(r.Repetitions),
		})
	}

	goals := Table{Name: TableGoals, Header: []string{"Name", "TargetAmount", "CurrentAmount", "DueDate"}}
	for _, g := range s.Goals {
		goals.Rows = append(goals.Rows, []string{g.Name, g.Target.String(), g.Current.String(), g.Due.String()})
	}

	budget := Table{Name: TableBudget, Header: []string{"Category", "Amount"}}
	for _, k := range s.BudgetKeys() {
		budget.Rows = append(budget.Rows, []string{k, s.Budgets[k].String()})
	}

	categories := Table{Name: TableCategories, Header: []string{"Category"}}
	for _, c := range s.Categories() {
		categories.Rows = append(categories.Rows, []string{c})
	}

	return []Table{incomes, expenses, recIncomes, recExpenses, goals, budget, categories}
}
