package storage

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"bilancio/internal/core"
	"bilancio/internal/ledger"
)

// Section names of the ledger text format.
const (
	SectionIncomes           = "INCOMES"
	SectionExpenses          = "EXPENSES"
	SectionBudget            = "BUDGET"
	SectionRecurringIncomes  = "RECURRING_INCOMES"
	SectionRecurringExpenses = "RECURRING_EXPENSES"
	SectionGoals             = "GOALS"
	SectionCategories        = "CATEGORIES"
)

const sectionPrefix = "###"

// Diagnostic describes a line that was skipped while decoding.
type Diagnostic struct {
	Line    int
	Section string
	Text    string
	Reason  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d [%s]: %s (%q)", d.Line, d.Section, d.Reason, d.Text)
}

var fieldCounts = map[string]int{
	SectionIncomes:           3,
	SectionExpenses:          4,
	SectionBudget:            2,
	SectionRecurringIncomes:  5,
	SectionRecurringExpenses: 6,
	SectionGoals:             4,
	SectionCategories:        1,
}

// Encode writes the whole store in the sectioned text format.
func Encode(w io.Writer, s *ledger.Store) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, sectionPrefix+SectionIncomes)
	for _, i := range s.Incomes {
		fmt.Fprintf(bw, "%s;%s;%s\n", i.Amount, i.Description, i.Date)
	}

	fmt.Fprintln(bw, "\n"+sectionPrefix+SectionExpenses)
	for _, e := range s.Expenses {
		fmt.Fprintf(bw, "%s;%s;%s;%s\n", e.Amount, e.Description, e.Category, e.Date)
	}

	fmt.Fprintln(bw, "\n"+sectionPrefix+SectionBudget)
	for _, k := range s.BudgetKeys() {
		fmt.Fprintf(bw, "%s;%s\n", k, s.Budgets[k])
	}

	fmt.Fprintln(bw, "\n"+sectionPrefix+SectionRecurringIncomes)
	for _, r := range s.RecurringIncomes {
		fmt.Fprintf(bw, "%s;%s;%s;%s;%d\n", r.Amount, r.Description, r.Date, r.Frequency, r.Repetitions)
	}

	fmt.Fprintln(bw, "\n"+sectionPrefix+SectionRecurringExpenses)
	for _, r := range s.RecurringExpenses {
		fmt.Fprintf(bw, "%s;%s;%s;%s;%s;%d\n", r.Amount, r.Description, r.Category, r.Date, r.Frequency, r.Repetitions)
	}

	fmt.Fprintln(bw, "\n"+sectionPrefix+SectionGoals)
	for _, g := range s.Goals {
		fmt.Fprintf(bw, "%s;%s;%s;%s\n", g.Name, g.Target, g.Current, g.Due)
	}

	fmt.Fprintln(bw, "\n"+sectionPrefix+SectionCategories)
	for _, c := range s.Categories() {
		fmt.Fprintln(bw, c)
	}

	return bw.Flush()
}

// Decode reads a ledger. Malformed lines never abort decoding; each one is
// skipped and reported as a Diagnostic. Only read errors are returned.
//
// Categories referenced by expenses, recurring expenses and budgets join the
// category set. If the set is still empty at the end the defaults are used.
func Decode(r io.Reader) (*ledger.Store, []Diagnostic, error) {
	s := ledger.NewEmpty()
	var diags []Diagnostic

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)

	section := ""
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if lineNo == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		if strings.HasPrefix(line, sectionPrefix) {
			section = strings.TrimSpace(strings.TrimPrefix(line, sectionPrefix))
			continue
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		skip := func(reason string) {
			diags = append(diags, Diagnostic{Line: lineNo, Section: section, Text: line, Reason: reason})
		}

		want, known := fieldCounts[section]
		if !known {
			skip("line outside a known section")
			continue
		}
		parts := strings.Split(line, ";")
		if len(parts) != want {
			skip(fmt.Sprintf("expected %d fields, got %d", want, len(parts)))
			continue
		}
		if err := decodeLine(s, section, parts); err != nil {
			skip(err.Error())
		}
	}
	if err := sc.Err(); err != nil {
		return nil, diags, fmt.Errorf("read ledger: %w", err)
	}

	if len(s.Categories()) == 0 {
		s.SetCategories(core.DefaultCategories)
	}
	return s, diags, nil
}

func decodeLine(s *ledger.Store, section string, p []string) error {
	switch section {
	case SectionIncomes:
		inc, err := decodeIncome(p[0], p[1], p[2])
		if err != nil {
			return err
		}
		s.AddIncome(inc)

	case SectionExpenses:
		exp, err := decodeExpense(p[0], p[1], p[2], p[3])
		if err != nil {
			return err
		}
		s.AddExpense(exp)
		s.AddCategory(exp.Category)

	case SectionBudget:
		limit, err := core.ParseNonNegativeAmount(p[1])
		if err != nil {
			return fmt.Errorf("budget limit: %w", err)
		}
		if strings.TrimSpace(p[0]) == "" {
			return core.ErrEmptyCategory
		}
		s.SetBudget(p[0], limit)
		s.AddCategory(p[0])

	case SectionRecurringIncomes:
		inc, err := decodeIncome(p[0], p[1], p[2])
		if err != nil {
			return err
		}
		rec, err := decodeRecurrence(p[3], p[4])
		if err != nil {
			return err
		}
		s.AddRecurringIncome(core.RecurringIncome{Income: inc, Recurrence: rec})

	case SectionRecurringExpenses:
		exp, err := decodeExpense(p[0], p[1], p[2], p[3])
		if err != nil {
			return err
		}
		rec, err := decodeRecurrence(p[4], p[5])
		if err != nil {
			return err
		}
		s.AddRecurringExpense(core.RecurringExpense{Expense: exp, Recurrence: rec})
		s.AddCategory(exp.Category)

	case SectionGoals:
		g, err := decodeGoal(p)
		if err != nil {
			return err
		}
		s.AddGoal(g)

	case SectionCategories:
		if strings.TrimSpace(p[0]) == "" {
			return core.ErrEmptyCategory
		}
		s.AddCategory(p[0])
	}
	return nil
}

func decodeIncome(amount, desc, date string) (core.Income, error) {
	a, err := core.ParseAmount(amount)
	if err != nil {
		return core.Income{}, fmt.Errorf("amount %q: %w", amount, err)
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Income{}, err
	}
	return core.Income{Amount: a, Description: desc, Date: d}, nil
}

func decodeExpense(amount, desc, category, date string) (core.Expense, error) {
	inc, err := decodeIncome(amount, desc, date)
	if err != nil {
		return core.Expense{}, err
	}
	if strings.TrimSpace(category) == "" {
		return core.Expense{}, core.ErrEmptyCategory
	}
	return core.Expense{Amount: inc.Amount, Description: desc, Category: category, Date: inc.Date}, nil
}

func decodeRecurrence(frequency, repetitions string) (core.Recurrence, error) {
	f, err := core.ParseFrequency(frequency)
	if err != nil {
		return core.Recurrence{}, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(repetitions))
	if err != nil || n < 1 {
		return core.Recurrence{}, fmt.Errorf("%w: %q", core.ErrInvalidRepetitions, repetitions)
	}
	return core.Recurrence{Frequency: f, Repetitions: n}, nil
}

func decodeGoal(p []string) (core.Goal, error) {
	target, err := core.ParseAmount(p[1])
	if err != nil {
		return core.Goal{}, fmt.Errorf("target %q: %w", p[1], err)
	}
	current, err := core.ParseNonNegativeAmount(p[2])
	if err != nil {
		return core.Goal{}, fmt.Errorf("current %q: %w", p[2], err)
	}
	due, err := core.ParseDate(p[3])
	if err != nil {
		return core.Goal{}, err
	}
	if strings.TrimSpace(p[0]) == "" {
		return core.Goal{}, core.ErrInvalidGoalName
	}
	return core.Goal{Name: p[0], Target: target, Current: current, Due: due}, nil
}
