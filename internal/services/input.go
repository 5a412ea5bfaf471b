// This file turns raw collaborator text into validated domain values.
// Every parse failure wraps a core sentinel so callers can tell rejected
// input apart from infrastructure errors with core.IsValidation.

package services

import (
	"fmt"
	"strconv"
	"strings"

	"bilancio/internal/core"
)

// RecordInput carries the text fields of an income or expense form.
// Frequency and Repetitions are only read for recurring records.
type RecordInput struct {
	Amount      string
	Description string
	Category    string
	Date        string
	Frequency   string
	Repetitions string
}

func (in RecordInput) base() (core.Money, string, core.Date, error) {
	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return core.Money{}, "", core.Date{}, fmt.Errorf("amount %q: %w", in.Amount, err)
	}
	if strings.TrimSpace(in.Date) == "" {
		return core.Money{}, "", core.Date{}, fmt.Errorf("%w: date is required", core.ErrInvalidDate)
	}
	date, err := core.ParseDate(in.Date)
	if err != nil {
		return core.Money{}, "", core.Date{}, err
	}
	return amount, strings.TrimSpace(in.Description), date, nil
}

// Income parses the fields of a one-time income.
func (in RecordInput) Income() (core.Income, error) {
	amount, desc, date, err := in.base()
	if err != nil {
		return core.Income{}, err
	}
	inc := core.Income{Amount: amount, Description: desc, Date: date}
	return inc, inc.Validate()
}

// Expense parses the fields of a one-time expense. The category is
// normalised here; whether it exists is checked by the service.
func (in RecordInput) Expense() (core.Expense, error) {
	amount, desc, date, err := in.base()
	if err != nil {
		return core.Expense{}, err
	}
	exp := core.Expense{
		Amount:      amount,
		Description: desc,
		Category:    core.NormalizeCategory(in.Category),
		Date:        date,
	}
	return exp, exp.Validate()
}

func (in RecordInput) recurrence() (core.Recurrence, error) {
	freq := core.Monthly
	if strings.TrimSpace(in.Frequency) != "" {
		f, err := core.ParseFrequency(in.Frequency)
		if err != nil {
			return core.Recurrence{}, err
		}
		freq = f
	}
	n, err := strconv.Atoi(strings.TrimSpace(in.Repetitions))
	if err != nil {
		return core.Recurrence{}, fmt.Errorf("%w: %q", core.ErrInvalidRepetitions, in.Repetitions)
	}
	rec := core.Recurrence{Frequency: freq, Repetitions: n}
	return rec, rec.Validate()
}

// RecurringIncome parses a recurring income; Date is the start date.
func (in RecordInput) RecurringIncome() (core.RecurringIncome, error) {
	inc, err := in.Income()
	if err != nil {
		return core.RecurringIncome{}, err
	}
	rec, err := in.recurrence()
	if err != nil {
		return core.RecurringIncome{}, err
	}
	return core.RecurringIncome{Income: inc, Recurrence: rec}, nil
}

// RecurringExpense parses a recurring expense; Date is the start date.
func (in RecordInput) RecurringExpense() (core.RecurringExpense, error) {
	exp, err := in.Expense()
	if err != nil {
		return core.RecurringExpense{}, err
	}
	rec, err := in.recurrence()
	if err != nil {
		return core.RecurringExpense{}, err
	}
	return core.RecurringExpense{Expense: exp, Recurrence: rec}, nil
}

// GoalInput carries the text fields of a savings goal.
type GoalInput struct {
	Name    string
	Target  string
	Current string
	Due     string
}

func (in GoalInput) Goal() (core.Goal, error) {
	target, err := core.ParseDecimalToCents(in.Target)
	if err != nil {
		return core.Goal{}, fmt.Errorf("target %q: %w", in.Target, err)
	}
	current := int64(0)
	if strings.TrimSpace(in.Current) != "" {
		current, err = core.ParseDecimalToCents(in.Current)
		if err != nil {
			return core.Goal{}, fmt.Errorf("current amount %q: %w", in.Current, err)
		}
	}
	due, err := core.ParseDate(in.Due)
	if err != nil {
		return core.Goal{}, err
	}
	g := core.Goal{
		Name:    strings.TrimSpace(in.Name),
		Target:  core.Money{Cents: target},
		Current: core.Money{Cents: current},
		Due:     due,
	}
	return g, g.Validate()
}

// ParseIndex reads a 1-based list position.
func ParseIndex(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q", core.ErrIndexOutOfRange, s)
	}
	return n, nil
}

// ParseLimit reads a budget limit, which may be zero.
func ParseLimit(s string) (core.Money, error) {
	m, err := core.ParseNonNegativeAmount(s)
	if err != nil {
		return core.Money{}, fmt.Errorf("limit %q: %w", s, err)
	}
	return m, nil
}
