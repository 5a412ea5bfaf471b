// Package ledger holds the in-memory record store: the ordered record lists,
// the budget map and the category set that every calculation reads from.
//
// Records are addressed by their 1-based position in the list at the time of
// the call. Positions shift after a delete and are never cached.
package ledger

import (
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"

	"bilancio/internal/core"
)

// Store is the whole ledger. It is not safe for concurrent use; callers
// serialise access.
type Store struct {
	Incomes           []core.Income
	Expenses          []core.Expense
	RecurringIncomes  []core.RecurringIncome
	RecurringExpenses []core.RecurringExpense
	Goals             []core.Goal

	// Budgets is keyed by the category as entered; lookups ignore case.
	Budgets map[string]core.Money

	categories []string
}

// New returns an empty store seeded with the default categories.
func New() *Store {
	s := NewEmpty()
	s.SetCategories(core.DefaultCategories)
	return s
}

// NewEmpty returns a store with no categories at all.
func NewEmpty() *Store {
	return &Store{Budgets: make(map[string]core.Money)}
}

// Reset drops every record and restores the default categories.
func (s *Store) Reset() {
	*s = *New()
}

// Clone returns a deep copy that shares nothing with s.
func (s *Store) Clone() *Store {
	return &Store{
		Incomes:           slices.Clone(s.Incomes),
		Expenses:          slices.Clone(s.Expenses),
		RecurringIncomes:  slices.Clone(s.RecurringIncomes),
		RecurringExpenses: slices.Clone(s.RecurringExpenses),
		Goals:             slices.Clone(s.Goals),
		Budgets:           maps.Clone(s.budgets()),
		categories:        slices.Clone(s.categories),
	}
}

func (s *Store) budgets() map[string]core.Money {
	if s.Budgets == nil {
		s.Budgets = make(map[string]core.Money)
	}
	return s.Budgets
}

func at[T any](items []T, index int) (T, error) {
	var zero T
	if index < 1 || index > len(items) {
		return zero, fmt.Errorf("%w: %d (have %d)", core.ErrIndexOutOfRange, index, len(items))
	}
	return items[index-1], nil
}

func replace[T any](items []T, index int, v T) error {
	if index < 1 || index > len(items) {
		return fmt.Errorf("%w: %d (have %d)", core.ErrIndexOutOfRange, index, len(items))
	}
	items[index-1] = v
	return nil
}

func remove[T any](items []T, index int) ([]T, T, error) {
	var zero T
	if index < 1 || index > len(items) {
		return items, zero, fmt.Errorf("%w: %d (have %d)", core.ErrIndexOutOfRange, index, len(items))
	}
	removed := items[index-1]
	return slices.Delete(items, index-1, index), removed, nil
}

func (s *Store) AddIncome(v core.Income) int {
	s.Incomes = append(s.Incomes, v)
	return len(s.Incomes)
}

func (s *Store) Income(index int) (core.Income, error) {
	return at(s.Incomes, index)
}

func (s *Store) UpdateIncome(index int, v core.Income) error {
	return replace(s.Incomes, index, v)
}

func (s *Store) DeleteIncome(index int) (core.Income, error) {
	var (
		removed core.Income
		err     error
	)
	s.Incomes, removed, err = remove(s.Incomes, index)
	return removed, err
}

func (s *Store) AddExpense(v core.Expense) int {
	s.Expenses = append(s.Expenses, v)
	return len(s.Expenses)
}

func (s *Store) Expense(index int) (core.Expense, error) {
	return at(s.Expenses, index)
}

func (s *Store) UpdateExpense(index int, v core.Expense) error {
	return replace(s.Expenses, index, v)
}

func (s *Store) DeleteExpense(index int) (core.Expense, error) {
	var (
		removed core.Expense
		err     error
	)
	s.Expenses, removed, err = remove(s.Expenses, index)
	return removed, err
}

func (s *Store) AddRecurringIncome(v core.RecurringIncome) int {
	s.RecurringIncomes = append(s.RecurringIncomes, v)
	return len(s.RecurringIncomes)
}

func (s *Store) RecurringIncome(index int) (core.RecurringIncome, error) {
	return at(s.RecurringIncomes, index)
}

func (s *Store) UpdateRecurringIncome(index int, v core.RecurringIncome) error {
	return replace(s.RecurringIncomes, index, v)
}

func (s *Store) DeleteRecurringIncome(index int) (core.RecurringIncome, error) {
	var (
		removed core.RecurringIncome
		err     error
	)
	s.RecurringIncomes, removed, err = remove(s.RecurringIncomes, index)
	return removed, err
}

func (s *Store) AddRecurringExpense(v core.RecurringExpense) int {
	s.RecurringExpenses = append(s.RecurringExpenses, v)
	return len(s.RecurringExpenses)
}

func (s *Store) RecurringExpense(index int) (core.RecurringExpense, error) {
	return at(s.RecurringExpenses, index)
}

func (s *Store) UpdateRecurringExpense(index int, v core.RecurringExpense) error {
	return replace(s.RecurringExpenses, index, v)
}

func (s *Store) DeleteRecurringExpense(index int) (core.RecurringExpense, error) {
	var (
		removed core.RecurringExpense
		err     error
	)
	s.RecurringExpenses, removed, err = remove(s.RecurringExpenses, index)
	return removed, err
}

func (s *Store) AddGoal(g core.Goal) int {
	s.Goals = append(s.Goals, g)
	return len(s.Goals)
}

func (s *Store) Goal(index int) (core.Goal, error) {
	return at(s.Goals, index)
}

func (s *Store) UpdateGoal(index int, g core.Goal) error {
	return replace(s.Goals, index, g)
}

func (s *Store) DeleteGoal(index int) (core.Goal, error) {
	var (
		removed core.Goal
		err     error
	)
	s.Goals, removed, err = remove(s.Goals, index)
	return removed, err
}

// FindGoal returns the 1-based index of the goal with the given name,
// compared case-insensitively.
func (s *Store) FindGoal(name string) (int, bool) {
	for i, g := range s.Goals {
		if core.SameName(g.Name, name) {
			return i + 1, true
		}
	}
	return 0, false
}

// SetBudget stores a limit, replacing any key that differs only in case.
func (s *Store) SetBudget(category string, limit core.Money) {
	b := s.budgets()
	if key, ok := s.budgetKey(category); ok {
		delete(b, key)
	}
	b[category] = limit
}

// Budget looks the limit up ignoring case.
func (s *Store) Budget(category string) (core.Money, bool) {
	key, ok := s.budgetKey(category)
	if !ok {
		return core.Money{}, false
	}
	return s.Budgets[key], true
}

// DeleteBudget removes the limit for a category, ignoring case.
func (s *Store) DeleteBudget(category string) bool {
	key, ok := s.budgetKey(category)
	if ok {
		delete(s.Budgets, key)
	}
	return ok
}

// BudgetKeys returns the budget categories as stored, sorted.
func (s *Store) BudgetKeys() []string {
	keys := slices.Collect(maps.Keys(s.Budgets))
	sort.Strings(keys)
	return keys
}

func (s *Store) budgetKey(category string) (string, bool) {
	if _, ok := s.Budgets[category]; ok {
		return category, true
	}
	for k := range s.Budgets {
		if strings.EqualFold(k, category) {
			return k, true
		}
	}
	return "", false
}

// SetCategories replaces the category set, normalising and deduplicating.
func (s *Store) SetCategories(categories []string) {
	s.categories = nil
	for _, c := range categories {
		s.AddCategory(c)
	}
}

// AddCategory adds a lowercase category and reports whether it was new.
func (s *Store) AddCategory(category string) bool {
	c := core.NormalizeCategory(category)
	if c == "" || slices.Contains(s.categories, c) {
		return false
	}
	s.categories = append(s.categories, c)
	return true
}

// RemoveCategory drops a category. Records referencing it are left alone.
func (s *Store) RemoveCategory(category string) bool {
	c := core.NormalizeCategory(category)
	i := slices.Index(s.categories, c)
	if i < 0 {
		return false
	}
	s.categories = slices.Delete(s.categories, i, i+1)
	return true
}

func (s *Store) HasCategory(category string) bool {
	return slices.Contains(s.categories, core.NormalizeCategory(category))
}

// Categories lists the category set sorted alphabetically.
func (s *Store) Categories() []string {
	out := slices.Clone(s.categories)
	sort.Strings(out)
	return out
}

// Empty reports whether the store holds no records, budgets or goals.
func (s *Store) Empty() bool {
	return len(s.Incomes) == 0 && len(s.Expenses) == 0 &&
		len(s.RecurringIncomes) == 0 && len(s.RecurringExpenses) == 0 &&
		len(s.Goals) == 0 && len(s.Budgets) == 0
}
